package webhook_log

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/globalagency/payments/internal/models"
	"github.com/globalagency/payments/pkg/logctx"
	"github.com/globalagency/payments/pkg/tool"
)

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Save asynchronously persists a webhook delivery log. Nil input is ignored.
// The log is an audit trail, not part of the reconciliation path, so a failed
// write is logged and swallowed.
func (s *Service) Save(ctx context.Context, entry *models.PaymentWebhookLog) {
	go func() {
		if entry == nil || s.db == nil {
			return
		}
		if entry.ID == "" {
			entry.ID = tool.GenerateUUIDV7()
		}
		if err := s.db.Save(entry).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save webhook log: %v", err)
		}
	}()
}
