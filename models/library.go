package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Library holds the structure for the libraries collection in mongo. The
// ExternalID is the library identifier as known to the owning media server.
type Library struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	ServerID    primitive.ObjectID `json:"serverId" bson:"serverId"`
	ExternalID  string             `json:"externalId" bson:"externalId"`
	Name        string             `json:"name" bson:"name"`
	ContentType string             `json:"contentType" bson:"contentType"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}
