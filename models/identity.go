package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Identity holds the structure for the identities collection in mongo. An
// identity is the person-level account that one or more external media
// server accounts hang off of.
type Identity struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	DisplayName string             `json:"displayName" bson:"displayName"`
	Email       string             `json:"email,omitempty" bson:"email,omitempty"`
	ExpiresAt   *time.Time         `json:"expiresAt" bson:"expiresAt"`
	Enabled     bool               `json:"enabled" bson:"enabled"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}
