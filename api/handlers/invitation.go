package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zondarr/zondarr-api/config"
	"github.com/zondarr/zondarr-api/databases"
	"github.com/zondarr/zondarr-api/models"
	"github.com/zondarr/zondarr-api/services"
)

// Invitation exposes the invitation lifecycle and the public redemption flow
type Invitation struct {
	DB         databases.InvitationDatabase
	Service    *services.InvitationService
	Redemption *services.RedemptionService
	Config     config.Config
}

type createInvitationRequest struct {
	Code         string     `json:"code"`
	ExpiresAt    *time.Time `json:"expiresAt"`
	MaxUses      *int       `json:"maxUses"`
	DurationDays *int       `json:"durationDays"`
	ServerIDs    []string   `json:"serverIds"`
	LibraryIDs   []string   `json:"libraryIds"`
}

// invitationResponse augments the stored invitation with its computed fields
type invitationResponse struct {
	models.Invitation
	IsActive      bool `json:"isActive"`
	RemainingUses *int `json:"remainingUses"`
}

func toInvitationResponse(invitation models.Invitation) invitationResponse {
	return invitationResponse{
		Invitation:    invitation,
		IsActive:      invitation.IsActive(time.Now()),
		RemainingUses: invitation.RemainingUses(),
	}
}

// CreateInvitationHandler creates a new invitation, generating a code unless
// the operator supplied an explicit one
func (i Invitation) CreateInvitationHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var req createInvitationRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	if len(req.ServerIDs) == 0 {
		config.ErrorStatus("at least one target server is required", http.StatusBadRequest, w, fmt.Errorf("serverIds is empty"))
		return
	}
	serverIDs, err := parseObjectIDs(req.ServerIDs)
	if err != nil {
		config.ErrorStatus("failed to parse server ids", http.StatusBadRequest, w, err)
		return
	}
	libraryIDs, err := parseObjectIDs(req.LibraryIDs)
	if err != nil {
		config.ErrorStatus("failed to parse library ids", http.StatusBadRequest, w, err)
		return
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		code, err = i.Service.GenerateCode(r.Context())
		if err != nil {
			if errors.Is(err, services.ErrCodeGenerationExhausted) {
				config.ErrorStatus("code generation exhausted, retry or supply a code", http.StatusConflict, w, err)
				return
			}
			config.ErrorStatus("failed to generate code", http.StatusInternalServerError, w, err)
			return
		}
	} else {
		count, err := i.DB.CountDocuments(r.Context(), bson.M{"code": code})
		if err != nil {
			config.ErrorStatus("failed to check code uniqueness", http.StatusInternalServerError, w, err)
			return
		}
		if count > 0 {
			config.ErrorStatus("code already exists", http.StatusConflict, w, fmt.Errorf("duplicate code"))
			return
		}
	}

	now := time.Now()
	invitation := models.Invitation{
		ID:           primitive.NewObjectID(),
		Code:         code,
		ExpiresAt:    req.ExpiresAt,
		MaxUses:      req.MaxUses,
		UseCount:     0,
		DurationDays: req.DurationDays,
		Enabled:      true,
		ServerIDs:    serverIDs,
		LibraryIDs:   libraryIDs,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err = i.DB.InsertOne(r.Context(), invitation)
	if err != nil {
		config.ErrorStatus("failed to insert invitation", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toInvitationResponse(invitation))
}

// ListInvitationsHandler returns every invitation with computed fields
func (i Invitation) ListInvitationsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	invitations, err := i.DB.Find(r.Context(), bson.M{})
	if err != nil {
		config.ErrorStatus("failed to list invitations", http.StatusInternalServerError, w, err)
		return
	}

	responses := make([]invitationResponse, 0, len(invitations))
	for _, invitation := range invitations {
		responses = append(responses, toInvitationResponse(invitation))
	}
	json.NewEncoder(w).Encode(responses)
}

// DeleteInvitationHandler removes an invitation. Accounts already created
// from it are untouched.
func (i Invitation) DeleteInvitationHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	invitationID, err := primitive.ObjectIDFromHex(mux.Vars(r)["invitation_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	if err := i.DB.DeleteOne(r.Context(), bson.M{"_id": invitationID}); err != nil {
		config.ErrorStatus("failed to delete invitation", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type validateInvitationResponse struct {
	Valid         bool   `json:"valid"`
	FailureReason string `json:"failureReason,omitempty"`
	Token         string `json:"token,omitempty"`
}

// ValidateInvitationHandler is the public pre-check: it reports
// redeemability as data and, when valid, issues the signed redemption token
func (i Invitation) ValidateInvitationHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	code := strings.ToUpper(mux.Vars(r)["code"])

	result, err := i.Service.Validate(r.Context(), code)
	if err != nil {
		config.ErrorStatus("failed to validate invitation", http.StatusInternalServerError, w, err)
		return
	}

	response := validateInvitationResponse{Valid: result.Valid()}
	if !result.Valid() {
		response.FailureReason = string(result.Status)
	} else if i.Config.JWTSecret != "" {
		token, err := services.IssueRedemptionToken(code, i.Config.JWTSecret)
		if err != nil {
			config.ErrorStatus("failed to issue redemption token", http.StatusInternalServerError, w, err)
			return
		}
		response.Token = token
	}
	json.NewEncoder(w).Encode(response)
}

type redeemInvitationRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Token    string `json:"token"`
}

// RedeemInvitationHandler runs the provisioning saga for the given code
func (i Invitation) RedeemInvitationHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	code := strings.ToUpper(mux.Vars(r)["code"])

	var req redeemInvitationRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		config.ErrorStatus("username and password are required", http.StatusBadRequest, w, fmt.Errorf("missing credentials"))
		return
	}

	if i.Config.JWTSecret != "" {
		required := os.Getenv("REQUIRE_REDEMPTION_TOKEN") == "true"
		if req.Token == "" && required {
			config.ErrorStatus("redemption token is required", http.StatusUnauthorized, w, fmt.Errorf("missing token"))
			return
		}
		if req.Token != "" && !services.VerifyRedemptionToken(req.Token, code, i.Config.JWTSecret) {
			config.ErrorStatus("invalid redemption token", http.StatusUnauthorized, w, fmt.Errorf("token verification failed"))
			return
		}
	}

	result, status, err := i.Redemption.Redeem(r.Context(), code, req.Username, req.Password, req.Email)
	if err != nil {
		var redemptionErr *services.RedemptionError
		if errors.As(err, &redemptionErr) {
			config.ErrorStatus("failed to provision on "+redemptionErr.ServerName, http.StatusBadGateway, w, redemptionErr.Err)
			return
		}
		config.ErrorStatus("failed to redeem invitation", http.StatusInternalServerError, w, err)
		return
	}
	if status != models.InvitationValid {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(validateInvitationResponse{Valid: false, FailureReason: string(status)})
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(result)
}

func parseObjectIDs(hexes []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(hexes))
	for _, hex := range hexes {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
