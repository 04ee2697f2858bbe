package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zondarr/zondarr-api/databases/mocks"
	"github.com/zondarr/zondarr-api/media"
	mediamocks "github.com/zondarr/zondarr-api/media/mocks"
	"github.com/zondarr/zondarr-api/models"
	"github.com/zondarr/zondarr-api/services"
)

func newReconciliationFixture(external []media.AccountRef, local []models.ExternalAccount) (*services.ReconciliationService, primitive.ObjectID, *mocks.ExternalAccountDatabase) {
	server := models.MediaServer{
		ID:         primitive.NewObjectID(),
		Name:       "living-room",
		ServerType: models.ServerTypeJellyfin,
		BaseURL:    "http://jellyfin.local",
		APIKey:     "key",
		Enabled:    true,
	}

	serverDB := &mocks.MediaServerDatabase{}
	serverDB.On("FindOne", mock.Anything, bson.M{"_id": server.ID}).Return(&server, nil)

	client := &mediamocks.Client{}
	client.On("ListAccounts", mock.Anything).Return(external, nil)
	client.On("Close").Return()

	registry := media.NewRegistry()
	registry.Register(models.ServerTypeJellyfin, func(params media.ConnectionParams) media.Client {
		return client
	})

	accountDB := &mocks.ExternalAccountDatabase{}
	accountDB.On("FindByServer", mock.Anything, server.ID).Return(local, nil)

	return services.NewReconciliationService(registry, serverDB, accountDB), server.ID, accountDB
}

func TestReconciliationService_ReconcileDiff(t *testing.T) {
	external := []media.AccountRef{
		{ExternalID: "a", Username: "a"},
		{ExternalID: "b", Username: "b"},
		{ExternalID: "c", Username: "c"},
	}
	local := []models.ExternalAccount{
		{ExternalID: "b"},
		{ExternalID: "c"},
		{ExternalID: "d"},
	}
	s, serverID, _ := newReconciliationFixture(external, local)

	report, err := s.Reconcile(context.Background(), serverID)

	assert.NoError(t, err)
	assert.Equal(t, 3, report.ExternalCount)
	assert.Equal(t, 3, report.LocalCount)
	assert.Equal(t, 2, report.Matched)
	assert.Equal(t, []string{"a"}, report.Orphaned)
	assert.Equal(t, []string{"d"}, report.Stale)
}

func TestReconciliationService_ReconcileEmptySets(t *testing.T) {
	s, serverID, _ := newReconciliationFixture(nil, nil)

	report, err := s.Reconcile(context.Background(), serverID)

	assert.NoError(t, err)
	assert.Equal(t, 0, report.Matched)
	assert.Equal(t, []string{}, report.Orphaned)
	assert.Equal(t, []string{}, report.Stale)
}

func TestReconciliationService_ReconcileIsIdempotent(t *testing.T) {
	external := []media.AccountRef{
		{ExternalID: "x"},
		{ExternalID: "y"},
	}
	local := []models.ExternalAccount{
		{ExternalID: "y"},
		{ExternalID: "z"},
	}
	s, serverID, accountDB := newReconciliationFixture(external, local)

	first, err := s.Reconcile(context.Background(), serverID)
	assert.NoError(t, err)
	second, err := s.Reconcile(context.Background(), serverID)
	assert.NoError(t, err)

	// identical input state yields an identical report
	assert.Equal(t, first, second)

	// reconciliation reads, it never writes
	for _, call := range accountDB.Calls {
		assert.Equal(t, "FindByServer", call.Method)
	}
}
