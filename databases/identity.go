package databases

// go generate: mockery --name IdentityDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zondarr/zondarr-api/models"
)

const identityName = "identities"

// IdentityDatabase contains the methods to use with the identity database
type IdentityDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Identity, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Identity, error)
	InsertOne(ctx context.Context, identity models.Identity, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
}

type identityDatabase struct {
	db DatabaseHelper
}

// NewIdentityDatabase initializes a new instance of identity database with the provided db connection
func NewIdentityDatabase(db DatabaseHelper) IdentityDatabase {
	return &identityDatabase{
		db: db,
	}
}

func (c *identityDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Identity, error) {
	identity := &models.Identity{}
	err := c.db.Collection(identityName).FindOne(ctx, filter, opts...).Decode(&identity)
	if err != nil {
		return nil, err
	}
	return identity, nil
}

func (c *identityDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Identity, error) {
	var identities []models.Identity
	cur, err := c.db.Collection(identityName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.Decode(&identities)
	if err != nil {
		return nil, err
	}
	return identities, nil
}

func (c *identityDatabase) InsertOne(ctx context.Context, identity models.Identity, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return c.db.Collection(identityName).InsertOne(ctx, identity, opts...)
}

func (c *identityDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error {
	_, err := c.db.Collection(identityName).UpdateOne(ctx, filter, update, opts...)
	return err
}

func (c *identityDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	_, err := c.db.Collection(identityName).DeleteOne(ctx, filter, opts...)
	return err
}
