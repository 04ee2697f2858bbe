package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Admin holds the structure for the admins collection in mongo. Password is
// a bcrypt hash.
type Admin struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Email     string             `json:"email" bson:"email"`
	Password  string             `json:"-" bson:"password"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}
