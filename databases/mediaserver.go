package databases

// go generate: mockery --name MediaServerDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zondarr/zondarr-api/models"
)

const mediaServerName = "mediaServers"

// MediaServerDatabase contains the methods to use with the mediaServer database
type MediaServerDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.MediaServer, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.MediaServer, error)
	FindEnabled(ctx context.Context) ([]models.MediaServer, error)
	InsertOne(ctx context.Context, server models.MediaServer, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
}

type mediaServerDatabase struct {
	db DatabaseHelper
}

// NewMediaServerDatabase initializes a new instance of mediaServer database with the provided db connection
func NewMediaServerDatabase(db DatabaseHelper) MediaServerDatabase {
	return &mediaServerDatabase{
		db: db,
	}
}

func (c *mediaServerDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.MediaServer, error) {
	server := &models.MediaServer{}
	err := c.db.Collection(mediaServerName).FindOne(ctx, filter, opts...).Decode(&server)
	if err != nil {
		return nil, err
	}
	return server, nil
}

func (c *mediaServerDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.MediaServer, error) {
	var servers []models.MediaServer
	cur, err := c.db.Collection(mediaServerName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.Decode(&servers)
	if err != nil {
		return nil, err
	}
	return servers, nil
}

// FindEnabled returns only servers the background sweeps and the redemption
// saga should target
func (c *mediaServerDatabase) FindEnabled(ctx context.Context) ([]models.MediaServer, error) {
	return c.Find(ctx, bson.M{"enabled": true})
}

func (c *mediaServerDatabase) InsertOne(ctx context.Context, server models.MediaServer, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return c.db.Collection(mediaServerName).InsertOne(ctx, server, opts...)
}

func (c *mediaServerDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error {
	_, err := c.db.Collection(mediaServerName).UpdateOne(ctx, filter, update, opts...)
	return err
}

func (c *mediaServerDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	_, err := c.db.Collection(mediaServerName).DeleteOne(ctx, filter, opts...)
	return err
}
