package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/zondarr/zondarr-api/config"
	"github.com/zondarr/zondarr-api/databases"
	"github.com/zondarr/zondarr-api/media"
	"github.com/zondarr/zondarr-api/models"
)

// Identity exposes provisioned identities and per-account management
type Identity struct {
	DB       databases.IdentityDatabase
	ADB      databases.ExternalAccountDatabase
	MSDB     databases.MediaServerDatabase
	Registry *media.Registry
}

// identityResponse pairs an identity with its external accounts
type identityResponse struct {
	models.Identity
	Accounts []models.ExternalAccount `json:"accounts"`
}

// ListIdentitiesHandler returns every identity with its linked accounts
func (i Identity) ListIdentitiesHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	identities, err := i.DB.Find(r.Context(), bson.M{})
	if err != nil {
		config.ErrorStatus("failed to list identities", http.StatusInternalServerError, w, err)
		return
	}

	responses := make([]identityResponse, 0, len(identities))
	for _, identity := range identities {
		accounts, err := i.ADB.Find(r.Context(), bson.M{"identityId": identity.ID})
		if err != nil {
			config.ErrorStatus("failed to list accounts", http.StatusInternalServerError, w, err)
			return
		}
		if accounts == nil {
			accounts = []models.ExternalAccount{}
		}
		responses = append(responses, identityResponse{Identity: identity, Accounts: accounts})
	}
	json.NewEncoder(w).Encode(responses)
}

type setEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// SetAccountEnabledHandler toggles one external account on its media server
// and mirrors the state locally. Only variants declaring the toggle
// capability accept this.
func (i Identity) SetAccountEnabledHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	accountID, err := primitive.ObjectIDFromHex(mux.Vars(r)["account_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req setEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	account, err := i.ADB.FindOne(r.Context(), bson.M{"_id": accountID})
	if err != nil {
		config.ErrorStatus("failed to get account", http.StatusNotFound, w, err)
		return
	}

	client, server, err := i.resolveClient(r, account.ServerID)
	if err != nil {
		config.ErrorStatus("failed to resolve media client", http.StatusInternalServerError, w, err)
		return
	}
	defer client.Close()

	if !media.Supports(client, media.CapabilityToggleEnabled) {
		config.ErrorStatus("server type does not support enable toggling", http.StatusUnprocessableEntity,
			w, fmt.Errorf("%s declares no toggle_enabled capability", server.ServerType))
		return
	}

	found, err := client.SetEnabled(r.Context(), account.ExternalID, req.Enabled)
	if err != nil {
		config.ErrorStatus("failed to toggle account on "+server.Name, http.StatusBadGateway, w, err)
		return
	}
	if !found {
		zap.S().Warnw("account missing on media server while toggling",
			"accountId", accountID.Hex(),
			"serverName", server.Name)
	}

	err = i.ADB.UpdateOne(r.Context(),
		bson.M{"_id": accountID},
		bson.M{"$set": bson.M{"enabled": req.Enabled, "updatedAt": time.Now()}},
	)
	if err != nil {
		config.ErrorStatus("failed to update account", http.StatusInternalServerError, w, err)
		return
	}

	account.Enabled = req.Enabled
	json.NewEncoder(w).Encode(account)
}

// DeleteAccountHandler deletes one external account server-side and locally.
// Removing the last account of an identity removes the identity as well.
func (i Identity) DeleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	accountID, err := primitive.ObjectIDFromHex(mux.Vars(r)["account_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	account, err := i.ADB.FindOne(r.Context(), bson.M{"_id": accountID})
	if err != nil {
		config.ErrorStatus("failed to get account", http.StatusNotFound, w, err)
		return
	}

	client, server, err := i.resolveClient(r, account.ServerID)
	if err != nil {
		config.ErrorStatus("failed to resolve media client", http.StatusInternalServerError, w, err)
		return
	}
	defer client.Close()

	if !media.Supports(client, media.CapabilityDeleteAccount) {
		config.ErrorStatus("server type does not support account deletion", http.StatusUnprocessableEntity,
			w, fmt.Errorf("%s declares no delete_account capability", server.ServerType))
		return
	}

	found, err := client.DeleteAccount(r.Context(), account.ExternalID)
	if err != nil {
		config.ErrorStatus("failed to delete account on "+server.Name, http.StatusBadGateway, w, err)
		return
	}
	if !found {
		// already gone remotely, still clean up the local row
		zap.S().Infow("account already absent on media server",
			"accountId", accountID.Hex(),
			"serverName", server.Name)
	}

	if err := i.ADB.DeleteOne(r.Context(), bson.M{"_id": accountID}); err != nil {
		config.ErrorStatus("failed to delete account", http.StatusInternalServerError, w, err)
		return
	}

	remaining, err := i.ADB.CountDocuments(r.Context(), bson.M{"identityId": account.IdentityID})
	if err != nil {
		config.ErrorStatus("failed to count remaining accounts", http.StatusInternalServerError, w, err)
		return
	}
	if remaining == 0 {
		if err := i.DB.DeleteOne(r.Context(), bson.M{"_id": account.IdentityID}); err != nil {
			config.ErrorStatus("failed to delete identity", http.StatusInternalServerError, w, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// resolveClient loads the owning server of an account and builds its client
func (i Identity) resolveClient(r *http.Request, serverID primitive.ObjectID) (media.Client, *models.MediaServer, error) {
	server, err := i.MSDB.FindOne(r.Context(), bson.M{"_id": serverID})
	if err != nil {
		return nil, nil, err
	}
	client, err := i.Registry.Resolve(server.ServerType, media.ConnectionParams{BaseURL: server.BaseURL, APIKey: server.APIKey})
	if err != nil {
		return nil, nil, err
	}
	return client, server, nil
}
