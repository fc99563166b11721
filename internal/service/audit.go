package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/classroom-api/internal/models"
)

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// auditEntry describes one mutation to append to the audit trail.
type auditEntry struct {
	Action     string
	Resource   string
	ResourceID int64
	Old        interface{}
	New        interface{}
}

// recordAudit appends an entry. Failures are logged and never surface to the caller.
func recordAudit(ctx context.Context, repo auditWriter, logger *zap.Logger, meta models.RequestMeta, entry auditEntry) {
	if repo == nil {
		return
	}
	log := &models.AuditLog{
		Action:    entry.Action,
		Resource:  entry.Resource,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
	}
	if meta.ActorID != 0 {
		actor := meta.ActorID
		log.UserID = &actor
	}
	if entry.ResourceID != 0 {
		id := fmt.Sprintf("%d", entry.ResourceID)
		log.ResourceID = &id
	}
	if entry.Old != nil {
		log.OldValues, _ = json.Marshal(entry.Old)
	}
	if entry.New != nil {
		log.NewValues, _ = json.Marshal(entry.New)
	}
	if err := repo.CreateAuditLog(ctx, log); err != nil {
		logger.Warn("failed to record audit log",
			zap.String("action", entry.Action),
			zap.String("resource", entry.Resource),
			zap.String("request_id", meta.RequestID),
			zap.Error(err))
	}
}
