package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExternalAccount holds the structure for the externalAccounts collection in
// mongo: one account on one media server, linked to exactly one Identity.
// InvitationID is nil for accounts created outside the redemption flow.
type ExternalAccount struct {
	ID           primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	IdentityID   primitive.ObjectID  `json:"identityId" bson:"identityId"`
	ServerID     primitive.ObjectID  `json:"serverId" bson:"serverId"`
	InvitationID *primitive.ObjectID `json:"invitationId" bson:"invitationId"`
	ExternalID   string              `json:"externalId" bson:"externalId"`
	Username     string              `json:"username" bson:"username"`
	Enabled      bool                `json:"enabled" bson:"enabled"`
	ExpiresAt    *time.Time          `json:"expiresAt" bson:"expiresAt"`
	CreatedAt    time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt" bson:"updatedAt"`
}
