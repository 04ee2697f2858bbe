// Package scheduler owns the two periodic background loops: the invitation
// expiration sweep and the per-server reconciliation sweep. Each loop runs
// on its own timer and isolates failures per unit of work, so one bad
// invitation or unreachable server never halts the rest of a pass.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/zondarr/zondarr-api/config"
	"github.com/zondarr/zondarr-api/databases"
	"github.com/zondarr/zondarr-api/models"
	"github.com/zondarr/zondarr-api/services"
)

// sweepTimeout bounds one full pass of either sweep
const sweepTimeout = 5 * time.Minute

// Scheduler handles the periodic background jobs
type Scheduler struct {
	cron       *cron.Cron
	Reconciler *services.ReconciliationService
	IDB        databases.InvitationDatabase
	MSDB       databases.MediaServerDatabase
	SRDB       databases.SyncRunDatabase

	expirationInterval     time.Duration
	reconciliationInterval time.Duration
}

// NewScheduler creates a new scheduler instance
func NewScheduler(
	conf *config.Config,
	reconciler *services.ReconciliationService,
	iDB databases.InvitationDatabase,
	msDB databases.MediaServerDatabase,
	srDB databases.SyncRunDatabase,
) *Scheduler {
	return &Scheduler{
		cron:                   cron.New(cron.WithLocation(time.UTC)),
		Reconciler:             reconciler,
		IDB:                    iDB,
		MSDB:                   msDB,
		SRDB:                   srDB,
		expirationInterval:     conf.ExpirationInterval,
		reconciliationInterval: conf.ReconciliationInterval,
	}
}

// Start begins the scheduler with both sweep loops on independent timers
func (s *Scheduler) Start() {
	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.expirationInterval), s.RunExpirationSweep)
	if err != nil {
		zap.S().Errorw("failed to register expiration sweep", "error", err)
	}

	_, err = s.cron.AddFunc(fmt.Sprintf("@every %s", s.reconciliationInterval), s.RunReconciliationSweep)
	if err != nil {
		zap.S().Errorw("failed to register reconciliation sweep", "error", err)
	}

	s.cron.Start()
	zap.S().Infow("scheduler started",
		"expirationInterval", s.expirationInterval,
		"reconciliationInterval", s.reconciliationInterval,
	)
}

// Stop gracefully stops the scheduler: no further iterations are scheduled
// and in-flight jobs are allowed to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("scheduler stopped")
}

// RunExpirationSweep disables every enabled invitation whose expiry lies in
// the past. A failure on one invitation is logged and does not stop the
// rest of the batch.
func (s *Scheduler) RunExpirationSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	now := time.Now()
	filter := bson.M{
		"enabled":   true,
		"expiresAt": bson.M{"$ne": nil, "$lt": now},
	}

	expired, err := s.IDB.Find(ctx, filter)
	if err != nil {
		zap.S().Errorw("expiration sweep failed to list invitations", "error", err)
		return
	}

	disabled := 0
	for _, invitation := range expired {
		update := bson.M{"$set": bson.M{"enabled": false, "updatedAt": now}}
		if err := s.IDB.UpdateOne(ctx, bson.M{"_id": invitation.ID}, update); err != nil {
			zap.S().Errorw("failed to disable expired invitation",
				"error", err,
				"code", invitation.Code,
			)
			continue
		}
		disabled++
	}

	if len(expired) > 0 {
		zap.S().Infow("expiration sweep complete",
			"expired", len(expired),
			"disabled", disabled,
		)
	}
}

// RunReconciliationSweep reconciles every enabled media server, records a
// sync run per server and bumps lastSyncedAt. One unreachable server is
// logged and skipped; the others still run in the same pass.
func (s *Scheduler) RunReconciliationSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	servers, err := s.MSDB.FindEnabled(ctx)
	if err != nil {
		zap.S().Errorw("reconciliation sweep failed to list servers", "error", err)
		return
	}

	for _, server := range servers {
		s.reconcileServer(ctx, server)
	}
}

func (s *Scheduler) reconcileServer(ctx context.Context, server models.MediaServer) {
	startedAt := time.Now()
	report, err := s.Reconciler.Reconcile(ctx, server.ID)
	finishedAt := time.Now()

	run := models.SyncRun{
		ServerID:   server.ID,
		SyncType:   "reconciliation",
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
	}
	if err != nil {
		run.Status = models.SyncRunFailed
		run.Error = err.Error()
		zap.S().Errorw("reconciliation failed for server",
			"server", server.Name,
			"error", err,
		)
	} else {
		run.Status = models.SyncRunSuccess
		run.Matched = report.Matched
		run.Orphaned = len(report.Orphaned)
		run.Stale = len(report.Stale)
	}

	if _, err := s.SRDB.InsertOne(ctx, run); err != nil {
		zap.S().Errorw("failed to record sync run",
			"server", server.Name,
			"error", err,
		)
	}

	if run.Status == models.SyncRunSuccess {
		update := bson.M{"$set": bson.M{"lastSyncedAt": finishedAt, "updatedAt": finishedAt}}
		if err := s.MSDB.UpdateOne(ctx, bson.M{"_id": server.ID}, update); err != nil {
			zap.S().Errorw("failed to update lastSyncedAt",
				"server", server.Name,
				"error", err,
			)
		}
	}
}
