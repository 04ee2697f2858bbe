package databases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/zondarr/zondarr-api/databases"
	"github.com/zondarr/zondarr-api/databases/mocks"
	"github.com/zondarr/zondarr-api/models"
)

func TestInvitationDatabase_FindOne(t *testing.T) {
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var srHelperErr databases.SingleResultHelper
	var srHelperCorrect databases.SingleResultHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	srHelperErr = &mocks.SingleResultHelper{}
	srHelperCorrect = &mocks.SingleResultHelper{}

	srHelperErr.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(errors.New("mocked-error"))

	srHelperCorrect.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Invitation)
		(*arg).Code = "MOCKEDCODE34"
	})

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"error": true}).
		Return(srHelperErr)

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"error": false}).
		Return(srHelperCorrect)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "invitations").Return(collectionHelper)

	invitationDba := databases.NewInvitationDatabase(dbHelper)

	invitation, err := invitationDba.FindOne(context.Background(), bson.M{"error": true})
	assert.Empty(t, invitation)
	assert.EqualError(t, err, "mocked-error")

	invitation, err = invitationDba.FindOne(context.Background(), bson.M{"error": false})
	assert.Equal(t, "MOCKEDCODE34", invitation.Code)
	assert.NoError(t, err)
}

func TestInvitationDatabase_ClaimUseIncludesGuards(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srHelper := &mocks.SingleResultHelper{}

	now := time.Now()

	srHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Invitation)
		(*arg).Code = "TESTCODE2345"
		(*arg).UseCount = 1
	})

	var capturedFilter bson.M
	var capturedUpdate bson.M
	collectionHelper.On("FindOneAndUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(srHelper).Run(func(args mock.Arguments) {
		capturedFilter = args.Get(1).(bson.M)
		capturedUpdate = args.Get(2).(bson.M)
	})

	dbHelper.On("Collection", "invitations").Return(collectionHelper)

	invitationDba := databases.NewInvitationDatabase(dbHelper)

	invitation, err := invitationDba.ClaimUse(context.Background(), "TESTCODE2345", now)
	assert.NoError(t, err)
	assert.Equal(t, 1, invitation.UseCount)

	// the filter carries every redeemability guard so the increment can never
	// overshoot maxUses
	assert.Equal(t, "TESTCODE2345", capturedFilter["code"])
	assert.Equal(t, true, capturedFilter["enabled"])
	assert.Len(t, capturedFilter["$and"], 2)
	assert.Equal(t, bson.M{"useCount": 1}, capturedUpdate["$inc"])
}

func TestInvitationDatabase_ClaimUseNoClaimableMatch(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srHelper := &mocks.SingleResultHelper{}

	srHelper.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	collectionHelper.On("FindOneAndUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(srHelper)
	dbHelper.On("Collection", "invitations").Return(collectionHelper)

	invitationDba := databases.NewInvitationDatabase(dbHelper)

	invitation, err := invitationDba.ClaimUse(context.Background(), "TESTCODE2345", time.Now())
	assert.Nil(t, invitation)
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
}

func TestInvitationDatabase_Find(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	cursorHelper := &mocks.CursorHelper{}

	cursorHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.Invitation)
		*arg = []models.Invitation{{Code: "AAAA2345BBBB"}}
	})
	collectionHelper.On("Find", mock.Anything, bson.M{}).Return(cursorHelper, nil)
	dbHelper.On("Collection", "invitations").Return(collectionHelper)

	invitationDba := databases.NewInvitationDatabase(dbHelper)

	invitations, err := invitationDba.Find(context.Background(), bson.M{})
	assert.NoError(t, err)
	assert.Len(t, invitations, 1)
	assert.Equal(t, "AAAA2345BBBB", invitations[0].Code)
}
