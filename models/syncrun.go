package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sync run statuses
const (
	SyncRunSuccess = "success"
	SyncRunFailed  = "failed"
)

// SyncRun holds the structure for the syncRuns collection in mongo: one
// record per reconciliation pass over one media server, written by the
// background sweep so operators can see drift history.
type SyncRun struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	ServerID   primitive.ObjectID `json:"serverId" bson:"serverId"`
	SyncType   string             `json:"syncType" bson:"syncType"`
	Status     string             `json:"status" bson:"status"`
	Matched    int                `json:"matched" bson:"matched"`
	Orphaned   int                `json:"orphaned" bson:"orphaned"`
	Stale      int                `json:"stale" bson:"stale"`
	Error      string             `json:"error,omitempty" bson:"error,omitempty"`
	StartedAt  time.Time          `json:"startedAt" bson:"startedAt"`
	FinishedAt time.Time          `json:"finishedAt" bson:"finishedAt"`
}
