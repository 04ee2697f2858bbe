package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServerType identifies the external media server family a MediaServer
// belongs to. Each type maps to one registered media client variant.
type ServerType string

// Supported server types
const (
	ServerTypeJellyfin ServerType = "jellyfin"
	ServerTypeEmby     ServerType = "emby"
	ServerTypePlex     ServerType = "plex"
)

// MediaServer holds the structure for the mediaServers collection in mongo.
// The APIKey is the server-side credential used by the media client; it is
// never serialized into API responses.
type MediaServer struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	ServerType   ServerType         `json:"serverType" bson:"serverType"`
	BaseURL      string             `json:"baseUrl" bson:"baseUrl"`
	APIKey       string             `json:"-" bson:"apiKey"`
	Enabled      bool               `json:"enabled" bson:"enabled"`
	LastSyncedAt *time.Time         `json:"lastSyncedAt" bson:"lastSyncedAt"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}
