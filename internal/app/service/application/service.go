package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/globalagency/payments/internal/models"
	"github.com/globalagency/payments/pkg/logctx"
	"github.com/globalagency/payments/pkg/types"
)

var ErrNotFound = errors.New("application not found")

// Service owns the payment-side writes to the application record. The wider
// back office manages the rest of the application lifecycle.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

func (s *Service) Get(ctx context.Context, id uint) (*models.Application, error) {
	var app models.Application
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return &app, nil
}

// MarkPaid flips the application into its paid state. The is_paid guard in
// the WHERE clause makes the effect fire at most once no matter how many
// reconciliation paths race to report success; the return value tells the
// caller whether this call was the one that fired it. The paid flags and the
// workflow advance commit in one transaction, so a failed advance rolls the
// flags back and a later retry fires the whole effect again.
func (s *Service) MarkPaid(ctx context.Context, applicationID uint, paymentID string) (bool, error) {
	now := time.Now()
	fired := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Application{}).
			Where("id = ? AND is_paid = ?", applicationID, false).
			Updates(map[string]any{
				"is_paid":        true,
				"payment_status": types.ApplicationPaymentStatusPaid,
				"paid_at":        now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		fired = true

		// Advance the workflow only from pending_payment; applications the
		// back office already moved elsewhere keep their status.
		return tx.Model(&models.Application{}).
			Where("id = ? AND status = ?", applicationID, types.ApplicationStatusPendingPayment).
			Update("status", types.ApplicationStatusSubmitted).Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to mark application paid: %w", err)
	}
	if fired {
		logctx.FromCtx(ctx, s.log).Infow("application_paid",
			"application_id", applicationID, "payment_id", paymentID)
	}
	return fired, nil
}

// MarkPendingVerification records that an offline payment claim is waiting
// for an operator. A no-op on already-paid applications.
func (s *Service) MarkPendingVerification(ctx context.Context, applicationID uint) error {
	res := s.db.WithContext(ctx).Model(&models.Application{}).
		Where("id = ? AND is_paid = ?", applicationID, false).
		Update("payment_status", types.ApplicationPaymentStatusPendingVerification)
	if res.Error != nil {
		return fmt.Errorf("failed to mark application pending verification: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Application{}).
			Where("id = ?", applicationID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check application: %w", err)
		}
		if count == 0 {
			return fmt.Errorf("%w: id %d", ErrNotFound, applicationID)
		}
	}
	return nil
}

// ClearPendingVerification reverts the pending-verification flag after the
// manual attempt behind it was withdrawn. A no-op unless the application is
// still unpaid and waiting on an operator.
func (s *Service) ClearPendingVerification(ctx context.Context, applicationID uint) error {
	err := s.db.WithContext(ctx).Model(&models.Application{}).
		Where("id = ? AND is_paid = ? AND payment_status = ?",
			applicationID, false, types.ApplicationPaymentStatusPendingVerification).
		Update("payment_status", types.ApplicationPaymentStatusNotPaid).Error
	if err != nil {
		return fmt.Errorf("failed to clear pending verification: %w", err)
	}
	return nil
}
