package databases

// go generate: mockery --name SyncRunDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zondarr/zondarr-api/models"
)

const syncRunName = "syncRuns"

// SyncRunDatabase contains the methods to use with the syncRun database
type SyncRunDatabase interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.SyncRun, error)
	FindByServer(ctx context.Context, serverID primitive.ObjectID, limit int64) ([]models.SyncRun, error)
	InsertOne(ctx context.Context, run models.SyncRun, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
}

type syncRunDatabase struct {
	db DatabaseHelper
}

// NewSyncRunDatabase initializes a new instance of syncRun database with the provided db connection
func NewSyncRunDatabase(db DatabaseHelper) SyncRunDatabase {
	return &syncRunDatabase{
		db: db,
	}
}

func (c *syncRunDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.SyncRun, error) {
	var runs []models.SyncRun
	cur, err := c.db.Collection(syncRunName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.Decode(&runs)
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// FindByServer returns the most recent runs for one server, newest first
func (c *syncRunDatabase) FindByServer(ctx context.Context, serverID primitive.ObjectID, limit int64) ([]models.SyncRun, error) {
	opts := options.Find().SetSort(bson.M{"startedAt": -1}).SetLimit(limit)
	return c.Find(ctx, bson.M{"serverId": serverID}, opts)
}

func (c *syncRunDatabase) InsertOne(ctx context.Context, run models.SyncRun, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return c.db.Collection(syncRunName).InsertOne(ctx, run, opts...)
}
