package jobs

import (
	"context"
	"time"

	"etech-backend/internal/bills"
	"etech-backend/internal/inventory"
	"etech-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	LowStockJob     = "low-stock"
	OverdueBillsJob = "overdue-bills"
)

// LowStock returns the items below threshold.
func LowStock(ctx context.Context, db *gorm.DB, threshold int) ([]inventory.ItemResponse, error) {
	items, err := inventory.LoadAll(ctx, db)
	if err != nil {
		return nil, err
	}
	return inventory.View(items, inventory.Filter{LowStockOnly: true}, threshold), nil
}

func NewLowStockJob(schedule string, db *gorm.DB, threshold int, log *zap.Logger) Job {
	return Job{
		Name:     LowStockJob,
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			low, err := LowStock(ctx, db, threshold)
			if err != nil {
				return err
			}
			for _, it := range low {
				log.Warn("low stock",
					zap.String("item_id", it.ID),
					zap.String("name", it.Name),
					zap.Int("quantity_on_hand", it.QuantityOnHand),
				)
			}
			log.Info("low stock check", zap.Int("items", len(low)), zap.Int("threshold", threshold))
			return nil
		},
	}
}

// OverdueBills lists unpaid bills whose due date is before today (UTC).
func OverdueBills(ctx context.Context, svc *bills.Service, now time.Time) ([]models.PendingBill, error) {
	all, err := svc.List(ctx)
	if err != nil {
		return nil, err
	}
	return bills.Overdue(all, models.ISODate(now)), nil
}

func NewOverdueBillsJob(schedule string, svc *bills.Service, log *zap.Logger) Job {
	return Job{
		Name:     OverdueBillsJob,
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			overdue, err := OverdueBills(ctx, svc, time.Now())
			if err != nil {
				return err
			}
			for _, b := range overdue {
				log.Warn("bill overdue",
					zap.String("bill_id", b.ID),
					zap.String("payer", b.PayerName),
					zap.String("amount", b.Amount.StringFixed(2)),
					zap.String("due_date", models.FormatDate(b.DueDate)),
				)
			}
			log.Info("overdue bill check", zap.Int("bills", len(overdue)))
			return nil
		},
	}
}
