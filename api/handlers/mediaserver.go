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
	"github.com/zondarr/zondarr-api/services"
)

// MediaServer exposes media server registration, library sync and
// reconciliation
type MediaServer struct {
	DB         databases.MediaServerDatabase
	LDB        databases.LibraryDatabase
	SRDB       databases.SyncRunDatabase
	Registry   *media.Registry
	Reconciler *services.ReconciliationService
}

type createServerRequest struct {
	Name       string            `json:"name"`
	ServerType models.ServerType `json:"serverType"`
	BaseURL    string            `json:"baseUrl"`
	APIKey     string            `json:"apiKey"`
}

// serverResponse augments the stored server with the capability set of its
// client variant
type serverResponse struct {
	models.MediaServer
	Capabilities []media.Capability `json:"capabilities"`
}

// CreateServerHandler registers a media server after verifying the
// connection actually works
func (s MediaServer) CreateServerHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var req createServerRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	if req.Name == "" || req.BaseURL == "" || req.APIKey == "" {
		config.ErrorStatus("name, baseUrl and apiKey are required", http.StatusBadRequest, w, fmt.Errorf("missing required fields"))
		return
	}

	client, err := s.Registry.Resolve(req.ServerType, media.ConnectionParams{BaseURL: req.BaseURL, APIKey: req.APIKey})
	if err != nil {
		config.ErrorStatus("unknown server type", http.StatusBadRequest, w, err)
		return
	}
	defer client.Close()

	if !client.TestConnection(r.Context()) {
		config.ErrorStatus("failed to reach media server", http.StatusBadGateway, w, fmt.Errorf("connection test failed for %s", req.BaseURL))
		return
	}

	now := time.Now()
	server := models.MediaServer{
		ID:         primitive.NewObjectID(),
		Name:       req.Name,
		ServerType: req.ServerType,
		BaseURL:    req.BaseURL,
		APIKey:     req.APIKey,
		Enabled:    true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err = s.DB.InsertOne(r.Context(), server)
	if err != nil {
		config.ErrorStatus("failed to insert media server", http.StatusInternalServerError, w, err)
		return
	}

	// snapshot the library list so invitations can reference it immediately
	if _, err := s.syncLibraries(r, server, client); err != nil {
		zap.S().Warnw("failed to snapshot libraries for new server",
			"serverName", server.Name,
			"error", err)
	}

	capabilities := client.Capabilities()
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(serverResponse{MediaServer: server, Capabilities: capabilities})
}

// ListServersHandler returns every registered server with its capabilities
func (s MediaServer) ListServersHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	servers, err := s.DB.Find(r.Context(), bson.M{})
	if err != nil {
		config.ErrorStatus("failed to list media servers", http.StatusInternalServerError, w, err)
		return
	}

	responses := make([]serverResponse, 0, len(servers))
	for _, server := range servers {
		capabilities, err := s.Registry.Capabilities(server.ServerType)
		if err != nil {
			capabilities = []media.Capability{}
		}
		responses = append(responses, serverResponse{MediaServer: server, Capabilities: capabilities})
	}
	json.NewEncoder(w).Encode(responses)
}

// DeleteServerHandler removes a server and its library snapshot. External
// accounts on the remote server are not touched.
func (s MediaServer) DeleteServerHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	serverID, err := primitive.ObjectIDFromHex(mux.Vars(r)["server_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	if err := s.DB.DeleteOne(r.Context(), bson.M{"_id": serverID}); err != nil {
		config.ErrorStatus("failed to delete media server", http.StatusInternalServerError, w, err)
		return
	}
	if err := s.LDB.DeleteMany(r.Context(), bson.M{"serverId": serverID}); err != nil {
		config.ErrorStatus("failed to delete server libraries", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServerLibrariesHandler returns the stored library snapshot for one server
func (s MediaServer) ServerLibrariesHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	serverID, err := primitive.ObjectIDFromHex(mux.Vars(r)["server_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	libraries, err := s.LDB.Find(r.Context(), bson.M{"serverId": serverID})
	if err != nil {
		config.ErrorStatus("failed to list libraries", http.StatusInternalServerError, w, err)
		return
	}
	json.NewEncoder(w).Encode(libraries)
}

// SyncLibrariesHandler refreshes the library snapshot from the remote server
func (s MediaServer) SyncLibrariesHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	serverID, err := primitive.ObjectIDFromHex(mux.Vars(r)["server_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	server, err := s.DB.FindOne(r.Context(), bson.M{"_id": serverID})
	if err != nil {
		config.ErrorStatus("failed to get media server", http.StatusNotFound, w, err)
		return
	}

	client, err := s.Registry.Resolve(server.ServerType, media.ConnectionParams{BaseURL: server.BaseURL, APIKey: server.APIKey})
	if err != nil {
		config.ErrorStatus("unknown server type", http.StatusInternalServerError, w, err)
		return
	}
	defer client.Close()

	libraries, err := s.syncLibraries(r, *server, client)
	if err != nil {
		config.ErrorStatus("failed to sync libraries", http.StatusBadGateway, w, err)
		return
	}
	json.NewEncoder(w).Encode(libraries)
}

// syncLibraries replaces the stored snapshot with the remote library list
func (s MediaServer) syncLibraries(r *http.Request, server models.MediaServer, client media.Client) ([]models.Library, error) {
	infos, err := client.ListLibraries(r.Context())
	if err != nil {
		return nil, err
	}

	if err := s.LDB.DeleteMany(r.Context(), bson.M{"serverId": server.ID}); err != nil {
		return nil, err
	}

	now := time.Now()
	libraries := make([]models.Library, 0, len(infos))
	for _, info := range infos {
		library := models.Library{
			ID:          primitive.NewObjectID(),
			ServerID:    server.ID,
			ExternalID:  info.ExternalID,
			Name:        info.Name,
			ContentType: info.ContentType,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if _, err := s.LDB.InsertOne(r.Context(), library); err != nil {
			return nil, err
		}
		libraries = append(libraries, library)
	}

	err = s.DB.UpdateOne(r.Context(),
		bson.M{"_id": server.ID},
		bson.M{"$set": bson.M{"lastSyncedAt": now, "updatedAt": now}},
	)
	if err != nil {
		return nil, err
	}
	return libraries, nil
}

// ReconcileHandler runs an on-demand reconciliation for one server and
// records the outcome as a sync run
func (s MediaServer) ReconcileHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	serverID, err := primitive.ObjectIDFromHex(mux.Vars(r)["server_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	startedAt := time.Now()
	report, err := s.Reconciler.Reconcile(r.Context(), serverID)
	finishedAt := time.Now()

	run := models.SyncRun{
		ID:         primitive.NewObjectID(),
		ServerID:   serverID,
		SyncType:   "reconciliation",
		Status:     models.SyncRunSuccess,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
	}
	if err != nil {
		run.Status = models.SyncRunFailed
		run.Error = err.Error()
		if _, insErr := s.SRDB.InsertOne(r.Context(), run); insErr != nil {
			zap.S().Warnw("failed to record sync run", "serverId", serverID.Hex(), "error", insErr)
		}
		config.ErrorStatus("failed to reconcile server", http.StatusBadGateway, w, err)
		return
	}
	run.Orphaned = len(report.Orphaned)
	run.Stale = len(report.Stale)
	run.Matched = report.Matched
	if _, insErr := s.SRDB.InsertOne(r.Context(), run); insErr != nil {
		zap.S().Warnw("failed to record sync run", "serverId", serverID.Hex(), "error", insErr)
	}

	json.NewEncoder(w).Encode(report)
}

// SyncRunsHandler returns the most recent sync runs for one server
func (s MediaServer) SyncRunsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	serverID, err := primitive.ObjectIDFromHex(mux.Vars(r)["server_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	runs, err := s.SRDB.FindByServer(r.Context(), serverID, 20)
	if err != nil {
		config.ErrorStatus("failed to list sync runs", http.StatusInternalServerError, w, err)
		return
	}
	json.NewEncoder(w).Encode(runs)
}
