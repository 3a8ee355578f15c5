package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"etech-backend/internal/events"
	"etech-backend/internal/live"
	"etech-backend/internal/models"
	"etech-backend/internal/observability"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrStaleStock           = errors.New("stock changed, reload")
	ErrItemNotFound         = errors.New("item not found")
	ErrInvalidPrice         = errors.New("selling price cannot be negative")
	ErrMissingPaymentMethod = errors.New("payment method is required")
	ErrInvalidPaymentStatus = errors.New("payment status must be Paid or Unpaid")
)

type PostInput struct {
	ItemID        string
	Quantity      int
	SellingPrice  decimal.Decimal
	PaymentMethod string
	PaymentStatus models.PaymentStatus
	SoldBy        string
	// ExpectedQuantity is the stock level the seller saw. When set, the sale
	// only goes through if stock is still exactly that.
	ExpectedQuantity *int
	// OccurredAt defaults to now.
	OccurredAt time.Time
}

func (in PostInput) validate() error {
	if in.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if in.SellingPrice.IsNegative() {
		return ErrInvalidPrice
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		return ErrMissingPaymentMethod
	}
	if !in.PaymentStatus.Valid() {
		return ErrInvalidPaymentStatus
	}
	return nil
}

type Service struct {
	db        *gorm.DB
	notifier  live.Notifier
	publisher events.Publisher
	log       *zap.Logger
	tracer    observability.Tracer
	now       func() time.Time
}

func NewService(db *gorm.DB, notifier live.Notifier, publisher events.Publisher, log *zap.Logger) *Service {
	return &Service{
		db:        db,
		notifier:  notifier,
		publisher: publisher,
		log:       log,
		tracer:    observability.NewTracer(),
		now:       time.Now,
	}
}

// Post records a sale and takes the quantity out of stock in one transaction.
// The sale row is inserted first, then stock is decremented with a guarded
// update; if the guard matches nothing the whole transaction rolls back.
func (s *Service) Post(ctx context.Context, in PostInput) (*models.SaleRecord, error) {
	ctx, span := s.tracer.Start(ctx, "sales.Post", trace.WithAttributes(
		attribute.String("item.id", in.ItemID),
		attribute.Int("sale.quantity", in.Quantity),
	))
	defer span.End()

	rec, err := s.post(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("sale.id", rec.ID))

	s.notifier.Notify(ctx, live.Sales)
	s.notifier.Notify(ctx, live.Inventory)
	if err := s.publisher.Publish(ctx, events.SalePosted, rec.ID, rec); err != nil {
		s.log.Warn("sale event not published", zap.String("sale_id", rec.ID), zap.Error(err))
	}
	return rec, nil
}

func (s *Service) post(ctx context.Context, in PostInput) (*models.SaleRecord, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var item models.InventoryItem
	if err := s.db.WithContext(ctx).First(&item, "id = ?", in.ItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("load item: %w", err)
	}

	available := item.QuantityOnHand
	if in.ExpectedQuantity != nil {
		available = *in.ExpectedQuantity
	}
	if in.Quantity > available {
		return nil, ErrInsufficientStock
	}

	now := s.now().UTC()
	occurred := in.OccurredAt
	if occurred.IsZero() {
		occurred = now
	}
	rec := models.SaleRecord{
		ItemID:        item.ID,
		ItemName:      item.Name,
		Description:   item.Description,
		QuantitySold:  in.Quantity,
		SellingPrice:  in.SellingPrice,
		PaymentMethod: strings.TrimSpace(in.PaymentMethod),
		PaymentStatus: in.PaymentStatus,
		SoldBy:        strings.TrimSpace(in.SoldBy),
		OccurredAt:    occurred.UTC(),
		RecordedAt:    now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}

		q := tx.Model(&models.InventoryItem{}).
			Where("id = ? AND quantity_on_hand >= ?", item.ID, in.Quantity)
		if in.ExpectedQuantity != nil {
			q = q.Where("quantity_on_hand = ?", *in.ExpectedQuantity)
		}
		res := q.Update("quantity_on_hand", gorm.Expr("quantity_on_hand - ?", in.Quantity))
		if res.Error != nil {
			return fmt.Errorf("decrement stock: %w", res.Error)
		}
		if res.RowsAffected == 1 {
			return nil
		}

		// guard missed: tell a short stock apart from a stale form
		var current models.InventoryItem
		if err := tx.Select("quantity_on_hand").First(&current, "id = ?", item.ID).Error; err != nil {
			return fmt.Errorf("reload stock: %w", err)
		}
		if current.QuantityOnHand < in.Quantity {
			return ErrInsufficientStock
		}
		return ErrStaleStock
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Get loads one sale.
func (s *Service) Get(ctx context.Context, id string) (*models.SaleRecord, error) {
	var rec models.SaleRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns every sale, newest first.
func (s *Service) List(ctx context.Context) ([]models.SaleRecord, error) {
	var out []models.SaleRecord
	if err := s.db.WithContext(ctx).Order("occurred_at desc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
