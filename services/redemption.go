package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/zondarr/zondarr-api/databases"
	"github.com/zondarr/zondarr-api/media"
	"github.com/zondarr/zondarr-api/models"
)

// defaultPermissions is the policy applied to every freshly provisioned
// account on servers that support permission control. Only the listed keys
// are sent, so everything else keeps the server's defaults.
var defaultPermissions = map[string]bool{
	"EnableContentDeletion":           false,
	"EnableRemoteControlOfOtherUsers": false,
	"EnableMediaConversion":           false,
}

// RedemptionError reports a failed redemption: which server broke the saga
// and which already-created external accounts were rolled back
type RedemptionError struct {
	ServerID   string
	ServerName string
	RolledBack []string
	Err        error
}

func (e *RedemptionError) Error() string {
	return fmt.Sprintf("redemption failed on server %s: %v", e.ServerName, e.Err)
}

func (e *RedemptionError) Unwrap() error {
	return e.Err
}

// RedemptionResult is the unit created by a successful redemption: one
// identity and one external account per target server
type RedemptionResult struct {
	Identity models.Identity          `json:"identity"`
	Accounts []models.ExternalAccount `json:"accounts"`
}

// provisioned tracks one successfully created external account during the
// forward pass so the compensation pass can undo it
type provisioned struct {
	server models.MediaServer
	ref    media.AccountRef
}

// RedemptionService runs the provisioning saga: sequential account creation
// across every target server of an invitation, with best-effort reverse
// order rollback on any failure
type RedemptionService struct {
	Registry    *media.Registry
	Invitations *InvitationService
	IDB         databases.InvitationDatabase
	IdentityDB  databases.IdentityDatabase
	AccountDB   databases.ExternalAccountDatabase
	ServerDB    databases.MediaServerDatabase
	LibraryDB   databases.LibraryDatabase
	Notifier    *Notifier
}

// Redeem provisions an account for the given credentials on every target
// server of the invitation code.
//
// The returned status is the validation outcome: when it is anything other
// than InvitationValid no side effect happened (or, for a lost use-count
// race, every side effect was rolled back) and err is nil. Infrastructure
// and provisioning failures return an error, wrapped in *RedemptionError
// once any external account had been created.
//
// Ordering: targets are provisioned strictly sequentially in the order the
// invitation lists them, because rollback order depends on creation order.
// Local identity/account rows are committed only after every server
// succeeded, and useCount is incremented last through an atomic conditional
// update so concurrent redemptions can never overrun maxUses.
func (s *RedemptionService) Redeem(ctx context.Context, code, username, password, email string) (*RedemptionResult, models.InvitationStatus, error) {
	correlationID := uuid.New().String()

	validation, err := s.Invitations.Validate(ctx, code)
	if err != nil {
		return nil, "", err
	}
	if !validation.Valid() {
		return nil, validation.Status, nil
	}
	invitation := validation.Invitation

	servers, err := s.targetServers(ctx, invitation)
	if err != nil {
		return nil, "", err
	}
	if len(servers) == 0 {
		return nil, "", fmt.Errorf("invitation %s has no enabled target servers", code)
	}

	restricted, librariesByServer, err := s.allowedLibraries(ctx, invitation)
	if err != nil {
		return nil, "", err
	}

	zap.S().Infow("redemption started",
		"correlationId", correlationID,
		"code", code,
		"username", username,
		"servers", len(servers),
	)

	clients := make(map[string]media.Client, len(servers))
	defer func() {
		for _, client := range clients {
			client.Close()
		}
	}()

	// forward pass, strictly sequential by target
	var created []provisioned
	for _, server := range servers {
		client, err := s.Registry.Resolve(server.ServerType, media.ConnectionParams{
			BaseURL: server.BaseURL,
			APIKey:  server.APIKey,
		})
		if err != nil {
			return nil, "", s.abort(ctx, correlationID, server, created, clients, err)
		}
		clients[server.ID.Hex()] = client

		ref, err := client.CreateAccount(ctx, username, password, email)
		if err != nil {
			return nil, "", s.abort(ctx, correlationID, server, created, clients, err)
		}
		created = append(created, provisioned{server: server, ref: *ref})

		if restricted && media.Supports(client, media.CapabilityLibraryAccessControl) {
			if _, err := client.SetLibraryAccess(ctx, ref.ExternalID, librariesByServer[server.ID.Hex()]); err != nil {
				return nil, "", s.abort(ctx, correlationID, server, created, clients, err)
			}
		}

		if media.Supports(client, media.CapabilityPermissionControl) {
			if _, err := client.UpdatePermissions(ctx, ref.ExternalID, defaultPermissions); err != nil {
				return nil, "", s.abort(ctx, correlationID, server, created, clients, err)
			}
		}

		zap.S().Infow("server provisioned",
			"correlationId", correlationID,
			"server", server.Name,
			"externalId", ref.ExternalID,
		)
	}

	// local commit
	now := time.Now()
	var expiresAt *time.Time
	if invitation.DurationDays != nil {
		t := now.Add(time.Duration(*invitation.DurationDays) * 24 * time.Hour)
		expiresAt = &t
	}

	identity := models.Identity{
		ID:          primitive.NewObjectID(),
		DisplayName: username,
		Email:       email,
		ExpiresAt:   expiresAt,
		Enabled:     true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	accounts := make([]models.ExternalAccount, 0, len(created))
	for _, p := range created {
		accounts = append(accounts, models.ExternalAccount{
			ID:           primitive.NewObjectID(),
			IdentityID:   identity.ID,
			ServerID:     p.server.ID,
			InvitationID: &invitation.ID,
			ExternalID:   p.ref.ExternalID,
			Username:     username,
			Enabled:      true,
			ExpiresAt:    expiresAt,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	if err := s.commitLocal(ctx, identity, accounts); err != nil {
		s.rollbackLocal(ctx, correlationID, identity.ID)
		rolledBack := s.rollback(ctx, correlationID, created, clients)
		last := created[len(created)-1].server
		return nil, "", &RedemptionError{
			ServerID:   last.ID.Hex(),
			ServerName: last.Name,
			RolledBack: rolledBack,
			Err:        err,
		}
	}

	// final step: the atomic conditional increment serializes concurrent
	// redemptions of the same code. Losing the race undoes everything this
	// call created, locally and externally.
	if _, err := s.IDB.ClaimUse(ctx, code, now); err != nil {
		s.rollbackLocal(ctx, correlationID, identity.ID)
		rolledBack := s.rollback(ctx, correlationID, created, clients)
		if errors.Is(err, mongo.ErrNoDocuments) {
			zap.S().Warnw("redemption lost the use-count race",
				"correlationId", correlationID,
				"code", code,
				"rolledBack", rolledBack,
			)
			return nil, models.InvitationMaxUsesReached, nil
		}
		return nil, "", fmt.Errorf("claiming invitation use: %w", err)
	}

	zap.S().Infow("redemption succeeded",
		"correlationId", correlationID,
		"code", code,
		"identityId", identity.ID.Hex(),
		"accounts", len(accounts),
	)

	if s.Notifier != nil {
		s.Notifier.SendWelcome(identity, created)
	}

	return &RedemptionResult{Identity: identity, Accounts: accounts}, models.InvitationValid, nil
}

// targetServers resolves the invitation's target servers as immutable
// snapshots, keeping the invitation's order and skipping disabled servers
func (s *RedemptionService) targetServers(ctx context.Context, invitation *models.Invitation) ([]models.MediaServer, error) {
	servers := make([]models.MediaServer, 0, len(invitation.ServerIDs))
	for _, id := range invitation.ServerIDs {
		server, err := s.ServerDB.FindOne(ctx, bson.M{"_id": id})
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				continue
			}
			return nil, err
		}
		if !server.Enabled {
			continue
		}
		servers = append(servers, *server)
	}
	return servers, nil
}

// allowedLibraries resolves the invitation's allowed library set grouped by
// server. An empty set means the invitation does not restrict libraries at
// all, reported through the restricted flag.
func (s *RedemptionService) allowedLibraries(ctx context.Context, invitation *models.Invitation) (bool, map[string][]string, error) {
	if len(invitation.LibraryIDs) == 0 {
		return false, nil, nil
	}

	libraries, err := s.LibraryDB.Find(ctx, bson.M{"_id": bson.M{"$in": invitation.LibraryIDs}})
	if err != nil {
		return false, nil, err
	}

	byServer := make(map[string][]string)
	for _, library := range libraries {
		key := library.ServerID.Hex()
		byServer[key] = append(byServer[key], library.ExternalID)
	}
	return true, byServer, nil
}

// abort wraps a forward-pass failure: it compensates everything created so
// far and returns the RedemptionError that propagates to the caller
func (s *RedemptionService) abort(ctx context.Context, correlationID string, failed models.MediaServer, created []provisioned, clients map[string]media.Client, cause error) error {
	zap.S().Errorw("redemption aborted, rolling back",
		"correlationId", correlationID,
		"server", failed.Name,
		"provisioned", len(created),
		"error", cause,
	)
	rolledBack := s.rollback(ctx, correlationID, created, clients)
	return &RedemptionError{
		ServerID:   failed.ID.Hex(),
		ServerName: failed.Name,
		RolledBack: rolledBack,
		Err:        cause,
	}
}

// rollback deletes already-created external accounts in reverse creation
// order. It is best-effort: individual failures are logged and never mask
// the original failure.
func (s *RedemptionService) rollback(ctx context.Context, correlationID string, created []provisioned, clients map[string]media.Client) []string {
	rolledBack := make([]string, 0, len(created))
	for i := len(created) - 1; i >= 0; i-- {
		p := created[i]
		client, ok := clients[p.server.ID.Hex()]
		if !ok {
			continue
		}
		// a false return means the account was already gone, which is fine
		// for a compensation retry
		if _, err := client.DeleteAccount(ctx, p.ref.ExternalID); err != nil {
			zap.S().Errorw("rollback delete failed",
				"correlationId", correlationID,
				"server", p.server.Name,
				"externalId", p.ref.ExternalID,
				"error", err,
			)
			continue
		}
		rolledBack = append(rolledBack, p.ref.ExternalID)
	}
	return rolledBack
}

// commitLocal writes the identity and its account rows; on partial failure
// it reports the error and the caller removes whatever landed
func (s *RedemptionService) commitLocal(ctx context.Context, identity models.Identity, accounts []models.ExternalAccount) error {
	if _, err := s.IdentityDB.InsertOne(ctx, identity); err != nil {
		return fmt.Errorf("inserting identity: %w", err)
	}
	for _, account := range accounts {
		if _, err := s.AccountDB.InsertOne(ctx, account); err != nil {
			return fmt.Errorf("inserting external account for server %s: %w", account.ServerID.Hex(), err)
		}
	}
	return nil
}

// rollbackLocal removes the identity and any account rows written for it;
// best-effort, failures are logged only
func (s *RedemptionService) rollbackLocal(ctx context.Context, correlationID string, identityID primitive.ObjectID) {
	if err := s.AccountDB.DeleteMany(ctx, bson.M{"identityId": identityID}); err != nil {
		zap.S().Errorw("local account rollback failed",
			"correlationId", correlationID,
			"identityId", identityID.Hex(),
			"error", err,
		)
	}
	if err := s.IdentityDB.DeleteOne(ctx, bson.M{"_id": identityID}); err != nil {
		zap.S().Errorw("local identity rollback failed",
			"correlationId", correlationID,
			"identityId", identityID.Hex(),
			"error", err,
		)
	}
}
