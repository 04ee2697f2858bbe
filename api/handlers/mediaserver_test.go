package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zondarr/zondarr-api/api/handlers"
	"github.com/zondarr/zondarr-api/databases/mocks"
	"github.com/zondarr/zondarr-api/media"
	mediamocks "github.com/zondarr/zondarr-api/media/mocks"
	"github.com/zondarr/zondarr-api/models"
	"github.com/zondarr/zondarr-api/services"
)

func TestMediaServer_CreateServerHandlerMissingFields(t *testing.T) {
	u := handlers.MediaServer{}

	req, _ := http.NewRequest("POST", "/api/v1/server", strings.NewReader(`{"name":"den"}`))

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.CreateServerHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var body models.ErrorMessageResponse
	json.Unmarshal(rr.Body.Bytes(), &body)
	assert.Contains(t, body.Response, "name, baseUrl and apiKey are required")
}

func TestMediaServer_CreateServerHandlerUnknownType(t *testing.T) {
	u := handlers.MediaServer{Registry: media.NewDefaultRegistry()}

	req, _ := http.NewRequest("POST", "/api/v1/server",
		strings.NewReader(`{"name":"den","serverType":"kodi","baseUrl":"http://kodi.local","apiKey":"k"}`))

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.CreateServerHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "unknown server type")
}

func TestMediaServer_CreateServerHandlerConnectionCheckFails(t *testing.T) {
	client := &mediamocks.Client{}
	client.On("TestConnection", mock.Anything).Return(false)
	client.On("Close").Return()

	registry := media.NewRegistry()
	registry.Register(models.ServerTypeJellyfin, func(params media.ConnectionParams) media.Client {
		return client
	})

	u := handlers.MediaServer{Registry: registry}

	req, _ := http.NewRequest("POST", "/api/v1/server",
		strings.NewReader(`{"name":"den","serverType":"jellyfin","baseUrl":"http://jf.local","apiKey":"k"}`))

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.CreateServerHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "failed to reach media server")
}

func TestMediaServer_ListServersHandlerIncludesCapabilities(t *testing.T) {
	servers := []models.MediaServer{
		{ID: primitive.NewObjectID(), Name: "den", ServerType: models.ServerTypePlex, Enabled: true},
	}
	msDB := &mocks.MediaServerDatabase{}
	msDB.On("Find", mock.Anything, bson.M{}).Return(servers, nil)

	u := handlers.MediaServer{DB: msDB, Registry: media.NewDefaultRegistry()}

	req, _ := http.NewRequest("GET", "/api/v1/servers", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.ListServersHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var body []map[string]interface{}
	json.Unmarshal(rr.Body.Bytes(), &body)
	assert.Len(t, body, 1)
	assert.Len(t, body[0]["capabilities"], 3)

	// the api key never leaves the server
	assert.NotContains(t, rr.Body.String(), "apiKey")
}

func TestMediaServer_DeleteServerHandlerBadID(t *testing.T) {
	u := handlers.MediaServer{}

	req, _ := http.NewRequest("DELETE", "/api/v1/server/1234", nil)
	req = mux.SetURLVars(req, map[string]string{"server_id": "1234"})

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.DeleteServerHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "failed to get objectID from Hex")
}

func TestMediaServer_SyncRunsHandler(t *testing.T) {
	serverID := primitive.NewObjectID()
	srDB := &mocks.SyncRunDatabase{}
	srDB.On("FindByServer", mock.Anything, serverID, int64(20)).
		Return([]models.SyncRun{{ServerID: serverID, Status: models.SyncRunSuccess}}, nil)

	u := handlers.MediaServer{SRDB: srDB}

	req, _ := http.NewRequest("GET", "/api/v1/server/"+serverID.Hex()+"/sync-runs", nil)
	req = mux.SetURLVars(req, map[string]string{"server_id": serverID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.SyncRunsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), models.SyncRunSuccess)
}

func TestMediaServer_ReconcileHandlerRecordsRun(t *testing.T) {
	server := models.MediaServer{
		ID:         primitive.NewObjectID(),
		Name:       "den",
		ServerType: models.ServerTypeJellyfin,
		BaseURL:    "http://jf.local",
		Enabled:    true,
	}

	msDB := &mocks.MediaServerDatabase{}
	msDB.On("FindOne", mock.Anything, bson.M{"_id": server.ID}).Return(&server, nil)

	client := &mediamocks.Client{}
	client.On("ListAccounts", mock.Anything).Return([]media.AccountRef{{ExternalID: "x"}}, nil)
	client.On("Close").Return()

	registry := media.NewRegistry()
	registry.Register(models.ServerTypeJellyfin, func(params media.ConnectionParams) media.Client {
		return client
	})

	eaDB := &mocks.ExternalAccountDatabase{}
	eaDB.On("FindByServer", mock.Anything, server.ID).Return([]models.ExternalAccount{{ExternalID: "x"}}, nil)

	srDB := &mocks.SyncRunDatabase{}
	srDB.On("InsertOne", mock.Anything, mock.AnythingOfType("models.SyncRun")).Return(&mocks.InsertOneResultHelper{}, nil)

	u := handlers.MediaServer{
		DB:         msDB,
		SRDB:       srDB,
		Registry:   registry,
		Reconciler: services.NewReconciliationService(registry, msDB, eaDB),
	}

	req, _ := http.NewRequest("POST", "/api/v1/server/"+server.ID.Hex()+"/reconcile", nil)
	req = mux.SetURLVars(req, map[string]string{"server_id": server.ID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.ReconcileHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	srDB.AssertNumberOfCalls(t, "InsertOne", 1)

	var report models.ReconciliationReport
	json.Unmarshal(rr.Body.Bytes(), &report)
	assert.Equal(t, 1, report.Matched)
	assert.Empty(t, report.Orphaned)
	assert.Empty(t, report.Stale)
}
