package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InvitationStatus is the outcome of validating an invitation code. It is
// returned as data, never as an error.
type InvitationStatus string

// Validation outcomes, ordered by check precedence
const (
	InvitationValid          InvitationStatus = "valid"
	InvitationNotFound       InvitationStatus = "not_found"
	InvitationDisabled       InvitationStatus = "disabled"
	InvitationExpired        InvitationStatus = "expired"
	InvitationMaxUsesReached InvitationStatus = "max_uses_reached"
)

// Invitation holds the structure for the invitations collection in mongo.
// MaxUses of nil means unlimited uses; DurationDays of nil means accounts
// created from this invitation never expire. An empty Libraries slice grants
// access to all libraries on the target servers.
type Invitation struct {
	ID           primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	Code         string               `json:"code" bson:"code" index:"unique"`
	ExpiresAt    *time.Time           `json:"expiresAt" bson:"expiresAt"`
	MaxUses      *int                 `json:"maxUses" bson:"maxUses"`
	UseCount     int                  `json:"useCount" bson:"useCount"`
	DurationDays *int                 `json:"durationDays" bson:"durationDays"`
	Enabled      bool                 `json:"enabled" bson:"enabled"`
	ServerIDs    []primitive.ObjectID `json:"serverIds" bson:"serverIds"`
	LibraryIDs   []primitive.ObjectID `json:"libraryIds" bson:"libraryIds"`
	CreatedBy    string               `json:"createdBy" bson:"createdBy"`
	CreatedAt    time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// IsExpired reports whether the invitation's expiry timestamp has passed
func (i Invitation) IsExpired(now time.Time) bool {
	return i.ExpiresAt != nil && !i.ExpiresAt.After(now)
}

// IsExhausted reports whether the invitation's use budget is spent
func (i Invitation) IsExhausted() bool {
	return i.MaxUses != nil && i.UseCount >= *i.MaxUses
}

// IsActive is the derived redeemability flag; it is computed on read and
// never stored
func (i Invitation) IsActive(now time.Time) bool {
	return i.Enabled && !i.IsExpired(now) && !i.IsExhausted()
}

// RemainingUses returns the derived remaining-use count, or nil when the
// invitation has no use limit
func (i Invitation) RemainingUses() *int {
	if i.MaxUses == nil {
		return nil
	}
	n := *i.MaxUses - i.UseCount
	if n < 0 {
		n = 0
	}
	return &n
}
