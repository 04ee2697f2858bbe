package databases

// go generate: mockery --name LibraryDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zondarr/zondarr-api/models"
)

const libraryName = "libraries"

// LibraryDatabase contains the methods to use with the library database
type LibraryDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Library, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Library, error)
	InsertOne(ctx context.Context, library models.Library, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
}

type libraryDatabase struct {
	db DatabaseHelper
}

// NewLibraryDatabase initializes a new instance of library database with the provided db connection
func NewLibraryDatabase(db DatabaseHelper) LibraryDatabase {
	return &libraryDatabase{
		db: db,
	}
}

func (c *libraryDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Library, error) {
	library := &models.Library{}
	err := c.db.Collection(libraryName).FindOne(ctx, filter, opts...).Decode(&library)
	if err != nil {
		return nil, err
	}
	return library, nil
}

func (c *libraryDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Library, error) {
	var libraries []models.Library
	cur, err := c.db.Collection(libraryName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.Decode(&libraries)
	if err != nil {
		return nil, err
	}
	return libraries, nil
}

func (c *libraryDatabase) InsertOne(ctx context.Context, library models.Library, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return c.db.Collection(libraryName).InsertOne(ctx, library, opts...)
}

func (c *libraryDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error {
	_, err := c.db.Collection(libraryName).UpdateOne(ctx, filter, update, opts...)
	return err
}

func (c *libraryDatabase) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	_, err := c.db.Collection(libraryName).DeleteMany(ctx, filter, opts...)
	return err
}
