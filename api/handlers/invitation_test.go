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
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/zondarr/zondarr-api/api/handlers"
	"github.com/zondarr/zondarr-api/config"
	"github.com/zondarr/zondarr-api/databases/mocks"
	"github.com/zondarr/zondarr-api/models"
	"github.com/zondarr/zondarr-api/services"
)

func TestInvitation_ValidateInvitationHandlerNotFound(t *testing.T) {
	idb := &mocks.InvitationDatabase{}
	idb.On("FindOne", mock.Anything, bson.M{"code": "MISSING"}).Return(nil, mongo.ErrNoDocuments)

	u := handlers.Invitation{DB: idb, Service: services.NewInvitationService(idb)}

	req, _ := http.NewRequest("GET", "/api/v1/invitation/missing", nil)
	req = mux.SetURLVars(req, map[string]string{"code": "missing"})

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.ValidateInvitationHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var body map[string]interface{}
	json.Unmarshal(rr.Body.Bytes(), &body)
	assert.Equal(t, false, body["valid"])
	assert.Equal(t, string(models.InvitationNotFound), body["failureReason"])
}

func TestInvitation_ValidateInvitationHandlerIssuesToken(t *testing.T) {
	invitation := &models.Invitation{Code: "TESTCODE2345", Enabled: true}
	idb := &mocks.InvitationDatabase{}
	idb.On("FindOne", mock.Anything, bson.M{"code": "TESTCODE2345"}).Return(invitation, nil)

	u := handlers.Invitation{
		DB:      idb,
		Service: services.NewInvitationService(idb),
		Config:  config.Config{JWTSecret: "secret"},
	}

	req, _ := http.NewRequest("GET", "/api/v1/invitation/TESTCODE2345", nil)
	req = mux.SetURLVars(req, map[string]string{"code": "TESTCODE2345"})

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.ValidateInvitationHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var body map[string]interface{}
	json.Unmarshal(rr.Body.Bytes(), &body)
	assert.Equal(t, true, body["valid"])

	token, _ := body["token"].(string)
	assert.True(t, services.VerifyRedemptionToken(token, "TESTCODE2345", "secret"))
}

func TestInvitation_RedeemInvitationHandlerMissingCredentials(t *testing.T) {
	u := handlers.Invitation{}

	req, _ := http.NewRequest("POST", "/api/v1/invitation/TESTCODE2345/redeem", strings.NewReader(`{"username":"alice"}`))
	req = mux.SetURLVars(req, map[string]string{"code": "TESTCODE2345"})

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.RedeemInvitationHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "username and password are required")
}

func TestInvitation_RedeemInvitationHandlerExhaustedConflict(t *testing.T) {
	maxUses := 1
	invitation := &models.Invitation{Code: "TESTCODE2345", Enabled: true, MaxUses: &maxUses, UseCount: 1}
	idb := &mocks.InvitationDatabase{}
	idb.On("FindOne", mock.Anything, bson.M{"code": "TESTCODE2345"}).Return(invitation, nil)

	invitationService := services.NewInvitationService(idb)
	u := handlers.Invitation{
		DB:      idb,
		Service: invitationService,
		Redemption: &services.RedemptionService{
			Invitations: invitationService,
			IDB:         idb,
		},
	}

	req, _ := http.NewRequest("POST", "/api/v1/invitation/TESTCODE2345/redeem",
		strings.NewReader(`{"username":"alice","password":"hunter2"}`))
	req = mux.SetURLVars(req, map[string]string{"code": "TESTCODE2345"})

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.RedeemInvitationHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), string(models.InvitationMaxUsesReached))
}

func TestInvitation_RedeemInvitationHandlerRejectsBadToken(t *testing.T) {
	u := handlers.Invitation{Config: config.Config{JWTSecret: "secret"}}

	req, _ := http.NewRequest("POST", "/api/v1/invitation/TESTCODE2345/redeem",
		strings.NewReader(`{"username":"alice","password":"hunter2","token":"bogus"}`))
	req = mux.SetURLVars(req, map[string]string{"code": "TESTCODE2345"})

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.RedeemInvitationHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid redemption token")
}

func TestInvitation_CreateInvitationHandlerRequiresServers(t *testing.T) {
	u := handlers.Invitation{}

	req, _ := http.NewRequest("POST", "/api/v1/invitation", strings.NewReader(`{"maxUses":5}`))

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.CreateInvitationHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "at least one target server is required")
}

func TestInvitation_CreateInvitationHandlerDuplicateCode(t *testing.T) {
	idb := &mocks.InvitationDatabase{}
	idb.On("CountDocuments", mock.Anything, bson.M{"code": "TAKENCODE234"}).Return(int64(1), nil)

	u := handlers.Invitation{DB: idb, Service: services.NewInvitationService(idb)}

	req, _ := http.NewRequest("POST", "/api/v1/invitation",
		strings.NewReader(`{"code":"takencode234","serverIds":["608cafe595eb9dc05379b7f4"]}`))

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.CreateInvitationHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "code already exists")
}

func TestInvitation_DeleteInvitationHandlerBadID(t *testing.T) {
	u := handlers.Invitation{}

	req, _ := http.NewRequest("DELETE", "/api/v1/invitation/1234", nil)
	req = mux.SetURLVars(req, map[string]string{"invitation_id": "1234"})

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.DeleteInvitationHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var body models.ErrorMessageResponse
	json.Unmarshal(rr.Body.Bytes(), &body)
	assert.Contains(t, body.Response, "failed to get objectID from Hex")
}
