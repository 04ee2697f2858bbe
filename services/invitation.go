// Package services holds the provisioning core: invitation lifecycle,
// the redemption saga and the reconciliation engine. Every service is a
// stateless object over injected database interfaces and the media client
// registry; none of them owns durable state.
package services

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/zondarr/zondarr-api/databases"
	"github.com/zondarr/zondarr-api/models"
)

// codeAlphabet excludes visually ambiguous characters (0/O, 1/I/L)
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// CodeLength is the fixed length of every generated invitation code
const CodeLength = 12

// maxCodeAttempts bounds regeneration on code collision
const maxCodeAttempts = 3

// ErrCodeGenerationExhausted is returned when every generation attempt
// collided with an existing code; the operator must retry or supply an
// explicit code
var ErrCodeGenerationExhausted = errors.New("invitation code generation exhausted its attempts")

// ValidationResult is the outcome of checking an invitation code. Failure
// outcomes are data, never errors.
type ValidationResult struct {
	Status     models.InvitationStatus
	Invitation *models.Invitation
}

// Valid reports whether the invitation passed every check
func (r ValidationResult) Valid() bool {
	return r.Status == models.InvitationValid
}

// InvitationService generates collision-resistant invitation codes and
// evaluates redeemability
type InvitationService struct {
	IDB databases.InvitationDatabase
}

// NewInvitationService wires an invitation service over the given database
func NewInvitationService(idb databases.InvitationDatabase) *InvitationService {
	return &InvitationService{IDB: idb}
}

// GenerateCode produces a new unique invitation code, regenerating up to
// maxCodeAttempts times on collision before giving up with
// ErrCodeGenerationExhausted
func (s *InvitationService) GenerateCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", err
		}
		count, err := s.IDB.CountDocuments(ctx, bson.M{"code": code})
		if err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
		zap.S().Warnw("invitation code collision, regenerating",
			"attempt", attempt+1,
		)
	}
	return "", ErrCodeGenerationExhausted
}

// randomCode draws CodeLength characters from the restricted alphabet using
// crypto/rand
func randomCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	b := make([]byte, CodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return string(b), nil
}

// Validate evaluates the redeemability checks in fixed order, short
// circuiting at the first failure: existence, enabled flag, expiry, use
// budget. It never mutates the invitation; in particular useCount is
// untouched no matter how often it runs.
func (s *InvitationService) Validate(ctx context.Context, code string) (ValidationResult, error) {
	correlationID := uuid.New().String()

	invitation, err := s.IDB.FindOne(ctx, bson.M{"code": code})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			zap.S().Infow("invitation validation failed",
				"correlationId", correlationID,
				"outcome", models.InvitationNotFound,
			)
			return ValidationResult{Status: models.InvitationNotFound}, nil
		}
		return ValidationResult{}, err
	}

	status := models.InvitationValid
	switch {
	case !invitation.Enabled:
		status = models.InvitationDisabled
	case invitation.IsExpired(time.Now()):
		status = models.InvitationExpired
	case invitation.IsExhausted():
		status = models.InvitationMaxUsesReached
	}

	zap.S().Infow("invitation validated",
		"correlationId", correlationID,
		"code", code,
		"outcome", status,
	)
	return ValidationResult{Status: status, Invitation: invitation}, nil
}
