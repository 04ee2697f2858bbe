package databases

// go generate: mockery --name InvitationDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zondarr/zondarr-api/models"
)

const invitationName = "invitations"

// InvitationDatabase contains the methods to use with the invitation database
type InvitationDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Invitation, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Invitation, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, invitation models.Invitation, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
	ClaimUse(ctx context.Context, code string, now time.Time) (*models.Invitation, error)
}

type invitationDatabase struct {
	db DatabaseHelper
}

// NewInvitationDatabase initializes a new instance of invitation database with the provided db connection
func NewInvitationDatabase(db DatabaseHelper) InvitationDatabase {
	return &invitationDatabase{
		db: db,
	}
}

func (c *invitationDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Invitation, error) {
	invitation := &models.Invitation{}
	err := c.db.Collection(invitationName).FindOne(ctx, filter, opts...).Decode(&invitation)
	if err != nil {
		return nil, err
	}
	return invitation, nil
}

func (c *invitationDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Invitation, error) {
	var invitations []models.Invitation
	cur, err := c.db.Collection(invitationName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.Decode(&invitations)
	if err != nil {
		return nil, err
	}
	return invitations, nil
}

func (c *invitationDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	count, err := c.db.Collection(invitationName).CountDocuments(ctx, filter, opts...)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (c *invitationDatabase) InsertOne(ctx context.Context, invitation models.Invitation, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return c.db.Collection(invitationName).InsertOne(ctx, invitation, opts...)
}

func (c *invitationDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error {
	_, err := c.db.Collection(invitationName).UpdateOne(ctx, filter, update, opts...)
	return err
}

func (c *invitationDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	_, err := c.db.Collection(invitationName).DeleteOne(ctx, filter, opts...)
	return err
}

// ClaimUse atomically increments useCount for the given code, but only while
// the invitation is still enabled, unexpired and below its use limit. The
// filter and increment run as one FindOneAndUpdate so two concurrent
// redemptions can never both get past maxUses. Returns
// mongo.ErrNoDocuments when no claimable invitation matched.
func (c *invitationDatabase) ClaimUse(ctx context.Context, code string, now time.Time) (*models.Invitation, error) {
	filter := bson.M{
		"code":    code,
		"enabled": true,
		"$and": []bson.M{
			{"$or": []bson.M{
				{"expiresAt": nil},
				{"expiresAt": bson.M{"$gt": now}},
			}},
			{"$or": []bson.M{
				{"maxUses": nil},
				{"$expr": bson.M{"$lt": []interface{}{"$useCount", "$maxUses"}}},
			}},
		},
	}
	update := bson.M{
		"$inc": bson.M{"useCount": 1},
		"$set": bson.M{"updatedAt": now},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	invitation := &models.Invitation{}
	err := c.db.Collection(invitationName).FindOneAndUpdate(ctx, filter, update, opts).Decode(&invitation)
	if err != nil {
		return nil, err
	}
	return invitation, nil
}
