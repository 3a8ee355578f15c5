package bills

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"etech-backend/internal/events"
	"etech-backend/internal/live"
	"etech-backend/internal/models"
	"etech-backend/internal/observability"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrNotFound       = errors.New("bill not found")
	ErrMissingPayer   = errors.New("payer name is required")
	ErrMissingService = errors.New("service description is required")
	ErrInvalidAmount  = errors.New("amount must be greater than zero")
	ErrInvalidStatus  = errors.New("status must be unpaid or paid")
	ErrMissingDueDate = errors.New("due date is required")
)

type BillInput struct {
	PayerName          string
	ServiceDescription string
	Amount             decimal.Decimal
	Status             models.BillStatus
	DueDate            *datatypes.Date
}

func (in *BillInput) normalize() error {
	in.PayerName = strings.TrimSpace(in.PayerName)
	in.ServiceDescription = strings.TrimSpace(in.ServiceDescription)
	if in.PayerName == "" {
		return ErrMissingPayer
	}
	if in.ServiceDescription == "" {
		return ErrMissingService
	}
	if !in.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if in.DueDate == nil {
		return ErrMissingDueDate
	}
	return nil
}

type Service struct {
	db        *gorm.DB
	notifier  live.Notifier
	publisher events.Publisher
	log       *zap.Logger
	tracer    observability.Tracer
}

func NewService(db *gorm.DB, notifier live.Notifier, publisher events.Publisher, log *zap.Logger) *Service {
	return &Service{db: db, notifier: notifier, publisher: publisher, log: log, tracer: observability.NewTracer()}
}

func (s *Service) changed(ctx context.Context, eventType string, b *models.PendingBill) {
	s.notifier.Notify(ctx, live.PendingBills)
	if eventType == "" {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, b.ID, b); err != nil {
		s.log.Warn("bill event not published", zap.String("bill_id", b.ID), zap.String("type", eventType), zap.Error(err))
	}
}

func (s *Service) Create(ctx context.Context, in BillInput) (*models.PendingBill, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = models.BillUnpaid
	}
	if !in.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	bill := models.PendingBill{
		PayerName:          in.PayerName,
		ServiceDescription: in.ServiceDescription,
		Amount:             in.Amount,
		Status:             in.Status,
		DueDate:            *in.DueDate,
	}
	if err := s.db.WithContext(ctx).Create(&bill).Error; err != nil {
		return nil, fmt.Errorf("create bill: %w", err)
	}
	s.changed(ctx, events.BillCreated, &bill)
	return &bill, nil
}

// Update edits the descriptive fields. Status is not editable here; use MarkPaid.
func (s *Service) Update(ctx context.Context, id string, in BillInput) (*models.PendingBill, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	bill, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Model(bill).Updates(map[string]any{
		"payer_name":          in.PayerName,
		"service_description": in.ServiceDescription,
		"amount":              in.Amount,
		"due_date":            *in.DueDate,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("update bill: %w", err)
	}
	bill.PayerName = in.PayerName
	bill.ServiceDescription = in.ServiceDescription
	bill.Amount = in.Amount
	bill.DueDate = *in.DueDate
	s.changed(ctx, "", bill)
	return bill, nil
}

// MarkPaid sets status to paid and touches nothing else. Paying a paid bill is a no-op.
func (s *Service) MarkPaid(ctx context.Context, id string) (*models.PendingBill, error) {
	ctx, span := s.tracer.Start(ctx, "bills.MarkPaid", trace.WithAttributes(attribute.String("bill.id", id)))
	defer span.End()

	res := s.db.WithContext(ctx).Model(&models.PendingBill{}).Where("id = ?", id).UpdateColumn("status", models.BillPaid)
	if res.Error != nil {
		span.RecordError(res.Error)
		return nil, fmt.Errorf("mark paid: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	bill, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, events.BillPaid, bill)
	return bill, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.PendingBill, error) {
	var bill models.PendingBill
	if err := s.db.WithContext(ctx).First(&bill, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &bill, nil
}

func (s *Service) List(ctx context.Context) ([]models.PendingBill, error) {
	var out []models.PendingBill
	if err := s.db.WithContext(ctx).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Overdue returns unpaid bills due before the given calendar day.
func Overdue(bills []models.PendingBill, today string) []models.PendingBill {
	var out []models.PendingBill
	for _, b := range bills {
		if b.Status == models.BillUnpaid && models.FormatDate(b.DueDate) < today {
			out = append(out, b)
		}
	}
	return out
}
