package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/zondarr/zondarr-api/databases/mocks"
	"github.com/zondarr/zondarr-api/media"
	mediamocks "github.com/zondarr/zondarr-api/media/mocks"
	"github.com/zondarr/zondarr-api/models"
	"github.com/zondarr/zondarr-api/services"
)

// redemptionFixture wires a RedemptionService over mocks. Clients are keyed
// by the server BaseURL the registry factory receives.
type redemptionFixture struct {
	service    *services.RedemptionService
	invitation models.Invitation
	servers    []models.MediaServer
	clients    map[string]*mediamocks.Client
	idb        *mocks.InvitationDatabase
	identityDB *mocks.IdentityDatabase
	accountDB  *mocks.ExternalAccountDatabase
}

func newRedemptionFixture(t *testing.T, serverCount int) *redemptionFixture {
	t.Helper()

	invitation := models.Invitation{
		ID:      primitive.NewObjectID(),
		Code:    "TESTCODE2345",
		Enabled: true,
	}

	serverDB := &mocks.MediaServerDatabase{}
	clients := make(map[string]*mediamocks.Client, serverCount)
	servers := make([]models.MediaServer, 0, serverCount)
	for i := 0; i < serverCount; i++ {
		server := models.MediaServer{
			ID:         primitive.NewObjectID(),
			Name:       string(rune('a' + i)),
			ServerType: models.ServerTypeJellyfin,
			BaseURL:    "http://server-" + string(rune('a'+i)),
			APIKey:     "key",
			Enabled:    true,
		}
		servers = append(servers, server)
		invitation.ServerIDs = append(invitation.ServerIDs, server.ID)
		serverDB.On("FindOne", mock.Anything, bson.M{"_id": server.ID}).Return(&server, nil)

		client := &mediamocks.Client{}
		client.On("Close").Return()
		clients[server.BaseURL] = client
	}

	registry := media.NewRegistry()
	registry.Register(models.ServerTypeJellyfin, func(params media.ConnectionParams) media.Client {
		return clients[params.BaseURL]
	})

	idb := &mocks.InvitationDatabase{}
	idb.On("FindOne", mock.Anything, bson.M{"code": invitation.Code}).Return(&invitation, nil)

	identityDB := &mocks.IdentityDatabase{}
	accountDB := &mocks.ExternalAccountDatabase{}

	return &redemptionFixture{
		service: &services.RedemptionService{
			Registry:    registry,
			Invitations: services.NewInvitationService(idb),
			IDB:         idb,
			IdentityDB:  identityDB,
			AccountDB:   accountDB,
			ServerDB:    serverDB,
			LibraryDB:   &mocks.LibraryDatabase{},
		},
		invitation: invitation,
		servers:    servers,
		clients:    clients,
		idb:        idb,
		identityDB: identityDB,
		accountDB:  accountDB,
	}
}

func (f *redemptionFixture) client(i int) *mediamocks.Client {
	return f.clients[f.servers[i].BaseURL]
}

func basicCapabilities() []media.Capability {
	return []media.Capability{media.CapabilityCreateAccount, media.CapabilityDeleteAccount}
}

func TestRedemptionService_RedeemFansOutToEveryServer(t *testing.T) {
	f := newRedemptionFixture(t, 3)
	for i := 0; i < 3; i++ {
		c := f.client(i)
		c.On("CreateAccount", mock.Anything, "alice", "hunter2", "alice@example.com").
			Return(&media.AccountRef{ExternalID: "ext-" + f.servers[i].Name, Username: "alice", Enabled: true}, nil)
		c.On("Capabilities").Return(basicCapabilities())
	}
	f.identityDB.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Identity")).Return(&mocks.InsertOneResultHelper{}, nil)
	f.accountDB.On("InsertOne", mock.Anything, mock.AnythingOfType("models.ExternalAccount")).Return(&mocks.InsertOneResultHelper{}, nil)
	f.idb.On("ClaimUse", mock.Anything, f.invitation.Code, mock.AnythingOfType("time.Time")).Return(&f.invitation, nil)

	result, status, err := f.service.Redeem(context.Background(), f.invitation.Code, "alice", "hunter2", "alice@example.com")

	assert.NoError(t, err)
	assert.Equal(t, models.InvitationValid, status)
	assert.Len(t, result.Accounts, 3)
	for i, account := range result.Accounts {
		assert.Equal(t, f.servers[i].ID, account.ServerID)
		assert.Equal(t, result.Identity.ID, account.IdentityID)
		assert.Equal(t, "ext-"+f.servers[i].Name, account.ExternalID)
	}
	f.accountDB.AssertNumberOfCalls(t, "InsertOne", 3)
}

func TestRedemptionService_RedeemMidSagaFailureRollsBack(t *testing.T) {
	f := newRedemptionFixture(t, 3)

	f.client(0).On("CreateAccount", mock.Anything, "alice", "hunter2", "").
		Return(&media.AccountRef{ExternalID: "ext-a", Username: "alice", Enabled: true}, nil)
	f.client(0).On("Capabilities").Return(basicCapabilities())
	f.client(0).On("DeleteAccount", mock.Anything, "ext-a").Return(true, nil)

	f.client(1).On("CreateAccount", mock.Anything, "alice", "hunter2", "").
		Return(nil, errors.New("mocked-error"))

	_, _, err := f.service.Redeem(context.Background(), f.invitation.Code, "alice", "hunter2", "")

	var redemptionErr *services.RedemptionError
	assert.ErrorAs(t, err, &redemptionErr)
	assert.Equal(t, f.servers[1].Name, redemptionErr.ServerName)
	assert.Equal(t, []string{"ext-a"}, redemptionErr.RolledBack)

	// first account compensated exactly once, third server never touched
	f.client(0).AssertNumberOfCalls(t, "DeleteAccount", 1)
	f.client(2).AssertNumberOfCalls(t, "CreateAccount", 0)

	// nothing landed locally
	f.identityDB.AssertNumberOfCalls(t, "InsertOne", 0)
	f.accountDB.AssertNumberOfCalls(t, "InsertOne", 0)
	f.idb.AssertNumberOfCalls(t, "ClaimUse", 0)
}

func TestRedemptionService_RedeemLostUseCountRace(t *testing.T) {
	f := newRedemptionFixture(t, 2)
	for i := 0; i < 2; i++ {
		c := f.client(i)
		c.On("CreateAccount", mock.Anything, "bob", "pw", "").
			Return(&media.AccountRef{ExternalID: "ext-" + f.servers[i].Name, Username: "bob", Enabled: true}, nil)
		c.On("Capabilities").Return(basicCapabilities())
		c.On("DeleteAccount", mock.Anything, "ext-"+f.servers[i].Name).Return(true, nil)
	}
	f.identityDB.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Identity")).Return(&mocks.InsertOneResultHelper{}, nil)
	f.identityDB.On("DeleteOne", mock.Anything, mock.Anything).Return(nil)
	f.accountDB.On("InsertOne", mock.Anything, mock.AnythingOfType("models.ExternalAccount")).Return(&mocks.InsertOneResultHelper{}, nil)
	f.accountDB.On("DeleteMany", mock.Anything, mock.Anything).Return(nil)
	f.idb.On("ClaimUse", mock.Anything, f.invitation.Code, mock.AnythingOfType("time.Time")).Return(nil, mongo.ErrNoDocuments)

	result, status, err := f.service.Redeem(context.Background(), f.invitation.Code, "bob", "pw", "")

	// losing the race is data, not an error, and leaves no trace anywhere
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, models.InvitationMaxUsesReached, status)
	f.client(0).AssertNumberOfCalls(t, "DeleteAccount", 1)
	f.client(1).AssertNumberOfCalls(t, "DeleteAccount", 1)
	f.identityDB.AssertNumberOfCalls(t, "DeleteOne", 1)
	f.accountDB.AssertNumberOfCalls(t, "DeleteMany", 1)
}

func TestRedemptionService_RedeemConcurrentExhaustion(t *testing.T) {
	f := newRedemptionFixture(t, 1)
	maxUses := 1
	f.invitation.MaxUses = &maxUses
	f.idb.ExpectedCalls = nil
	f.idb.On("FindOne", mock.Anything, bson.M{"code": f.invitation.Code}).Return(&f.invitation, nil)

	// the conditional update admits exactly one claimant
	f.idb.On("ClaimUse", mock.Anything, f.invitation.Code, mock.AnythingOfType("time.Time")).
		Return(&f.invitation, nil).Once()
	f.idb.On("ClaimUse", mock.Anything, f.invitation.Code, mock.AnythingOfType("time.Time")).
		Return(nil, mongo.ErrNoDocuments)

	c := f.client(0)
	c.On("CreateAccount", mock.Anything, "dave", "pw", "").
		Return(&media.AccountRef{ExternalID: "ext-a", Username: "dave", Enabled: true}, nil)
	c.On("Capabilities").Return(basicCapabilities())
	c.On("DeleteAccount", mock.Anything, "ext-a").Return(true, nil)

	f.identityDB.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Identity")).Return(&mocks.InsertOneResultHelper{}, nil)
	f.identityDB.On("DeleteOne", mock.Anything, mock.Anything).Return(nil)
	f.accountDB.On("InsertOne", mock.Anything, mock.AnythingOfType("models.ExternalAccount")).Return(&mocks.InsertOneResultHelper{}, nil)
	f.accountDB.On("DeleteMany", mock.Anything, mock.Anything).Return(nil)

	type outcome struct {
		result *services.RedemptionResult
		status models.InvitationStatus
		err    error
	}
	outcomes := make([]outcome, 2)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, status, err := f.service.Redeem(context.Background(), f.invitation.Code, "dave", "pw", "")
			outcomes[i] = outcome{result: result, status: status, err: err}
		}(i)
	}
	wg.Wait()

	var wins, losses int
	for _, o := range outcomes {
		assert.NoError(t, o.err)
		switch o.status {
		case models.InvitationValid:
			wins++
			assert.NotNil(t, o.result)
		case models.InvitationMaxUsesReached:
			losses++
			assert.Nil(t, o.result)
		default:
			t.Errorf("unexpected status %q", o.status)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, losses)

	// only the loser compensates, and the claim was attempted exactly twice
	c.AssertNumberOfCalls(t, "DeleteAccount", 1)
	f.identityDB.AssertNumberOfCalls(t, "DeleteOne", 1)
	f.accountDB.AssertNumberOfCalls(t, "DeleteMany", 1)
	f.idb.AssertNumberOfCalls(t, "ClaimUse", 2)
}

func TestRedemptionService_RedeemValidationFailureShortCircuits(t *testing.T) {
	f := newRedemptionFixture(t, 1)
	disabled := f.invitation
	disabled.Enabled = false
	f.idb.ExpectedCalls = nil
	f.idb.On("FindOne", mock.Anything, bson.M{"code": disabled.Code}).Return(&disabled, nil)

	result, status, err := f.service.Redeem(context.Background(), disabled.Code, "alice", "pw", "")

	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, models.InvitationDisabled, status)
	f.client(0).AssertNumberOfCalls(t, "CreateAccount", 0)
}

func TestRedemptionService_RedeemAppliesLibraryRestrictions(t *testing.T) {
	f := newRedemptionFixture(t, 1)
	libraryID := primitive.NewObjectID()
	f.invitation.LibraryIDs = []primitive.ObjectID{libraryID}
	f.idb.ExpectedCalls = nil
	f.idb.On("FindOne", mock.Anything, bson.M{"code": f.invitation.Code}).Return(&f.invitation, nil)
	f.idb.On("ClaimUse", mock.Anything, f.invitation.Code, mock.AnythingOfType("time.Time")).Return(&f.invitation, nil)

	libraryDB := f.service.LibraryDB.(*mocks.LibraryDatabase)
	libraryDB.On("Find", mock.Anything, bson.M{"_id": bson.M{"$in": f.invitation.LibraryIDs}}).
		Return([]models.Library{{ServerID: f.servers[0].ID, ExternalID: "lib-1"}}, nil)

	c := f.client(0)
	c.On("CreateAccount", mock.Anything, "carol", "pw", "").
		Return(&media.AccountRef{ExternalID: "ext-a", Username: "carol", Enabled: true}, nil)
	c.On("Capabilities").Return([]media.Capability{
		media.CapabilityCreateAccount,
		media.CapabilityDeleteAccount,
		media.CapabilityLibraryAccessControl,
	})
	c.On("SetLibraryAccess", mock.Anything, "ext-a", []string{"lib-1"}).Return(true, nil)

	f.identityDB.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Identity")).Return(&mocks.InsertOneResultHelper{}, nil)
	f.accountDB.On("InsertOne", mock.Anything, mock.AnythingOfType("models.ExternalAccount")).Return(&mocks.InsertOneResultHelper{}, nil)

	_, status, err := f.service.Redeem(context.Background(), f.invitation.Code, "carol", "pw", "")

	assert.NoError(t, err)
	assert.Equal(t, models.InvitationValid, status)
	c.AssertNumberOfCalls(t, "SetLibraryAccess", 1)
}
