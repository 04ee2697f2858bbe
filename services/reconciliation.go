package services

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/zondarr/zondarr-api/databases"
	"github.com/zondarr/zondarr-api/media"
	"github.com/zondarr/zondarr-api/models"
)

// ReconciliationService diffs the authoritative account set on a media
// server against the local externalAccounts rows. It reports drift and
// never repairs it: deciding what an orphaned or stale entry means is an
// operator call.
type ReconciliationService struct {
	Registry  *media.Registry
	ServerDB  databases.MediaServerDatabase
	AccountDB databases.ExternalAccountDatabase
}

// NewReconciliationService wires a reconciliation service
func NewReconciliationService(registry *media.Registry, serverDB databases.MediaServerDatabase, accountDB databases.ExternalAccountDatabase) *ReconciliationService {
	return &ReconciliationService{Registry: registry, ServerDB: serverDB, AccountDB: accountDB}
}

// Reconcile computes the external-vs-local diff for one server. It is
// read-only and idempotent: no counter, timestamp or record changes
// anywhere, so running it repeatedly over unchanged state yields identical
// reports. The only side effect is logging.
func (s *ReconciliationService) Reconcile(ctx context.Context, serverID primitive.ObjectID) (*models.ReconciliationReport, error) {
	correlationID := uuid.New().String()

	server, err := s.ServerDB.FindOne(ctx, bson.M{"_id": serverID})
	if err != nil {
		return nil, err
	}

	client, err := s.Registry.Resolve(server.ServerType, media.ConnectionParams{
		BaseURL: server.BaseURL,
		APIKey:  server.APIKey,
	})
	if err != nil {
		return nil, err
	}
	defer client.Close()

	external, err := client.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	local, err := s.AccountDB.FindByServer(ctx, serverID)
	if err != nil {
		return nil, err
	}

	externalIDs := make(map[string]bool, len(external))
	for _, ref := range external {
		externalIDs[ref.ExternalID] = true
	}
	localIDs := make(map[string]bool, len(local))
	for _, account := range local {
		localIDs[account.ExternalID] = true
	}

	report := &models.ReconciliationReport{
		ServerID:      serverID.Hex(),
		ServerName:    server.Name,
		ExternalCount: len(externalIDs),
		LocalCount:    len(localIDs),
		Orphaned:      []string{},
		Stale:         []string{},
	}
	for id := range externalIDs {
		if localIDs[id] {
			report.Matched++
		} else {
			report.Orphaned = append(report.Orphaned, id)
		}
	}
	for id := range localIDs {
		if !externalIDs[id] {
			report.Stale = append(report.Stale, id)
		}
	}
	sort.Strings(report.Orphaned)
	sort.Strings(report.Stale)

	zap.S().Infow("reconciliation report",
		"correlationId", correlationID,
		"server", server.Name,
		"matched", report.Matched,
		"orphaned", len(report.Orphaned),
		"stale", len(report.Stale),
	)
	return report, nil
}
