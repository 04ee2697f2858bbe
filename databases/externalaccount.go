package databases

// go generate: mockery --name ExternalAccountDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zondarr/zondarr-api/models"
)

const externalAccountName = "externalAccounts"

// ExternalAccountDatabase contains the methods to use with the externalAccount database
type ExternalAccountDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.ExternalAccount, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ExternalAccount, error)
	FindByServer(ctx context.Context, serverID primitive.ObjectID) ([]models.ExternalAccount, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, account models.ExternalAccount, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
}

type externalAccountDatabase struct {
	db DatabaseHelper
}

// NewExternalAccountDatabase initializes a new instance of externalAccount database with the provided db connection
func NewExternalAccountDatabase(db DatabaseHelper) ExternalAccountDatabase {
	return &externalAccountDatabase{
		db: db,
	}
}

func (c *externalAccountDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.ExternalAccount, error) {
	account := &models.ExternalAccount{}
	err := c.db.Collection(externalAccountName).FindOne(ctx, filter, opts...).Decode(&account)
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (c *externalAccountDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ExternalAccount, error) {
	var accounts []models.ExternalAccount
	cur, err := c.db.Collection(externalAccountName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.Decode(&accounts)
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// FindByServer returns the full local account set for one media server, used
// by the reconciliation diff
func (c *externalAccountDatabase) FindByServer(ctx context.Context, serverID primitive.ObjectID) ([]models.ExternalAccount, error) {
	return c.Find(ctx, bson.M{"serverId": serverID})
}

func (c *externalAccountDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	count, err := c.db.Collection(externalAccountName).CountDocuments(ctx, filter, opts...)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (c *externalAccountDatabase) InsertOne(ctx context.Context, account models.ExternalAccount, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return c.db.Collection(externalAccountName).InsertOne(ctx, account, opts...)
}

func (c *externalAccountDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error {
	_, err := c.db.Collection(externalAccountName).UpdateOne(ctx, filter, update, opts...)
	return err
}

func (c *externalAccountDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	_, err := c.db.Collection(externalAccountName).DeleteOne(ctx, filter, opts...)
	return err
}

func (c *externalAccountDatabase) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	_, err := c.db.Collection(externalAccountName).DeleteMany(ctx, filter, opts...)
	return err
}
