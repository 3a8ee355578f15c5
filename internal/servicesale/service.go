package servicesale

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"etech-backend/internal/events"
	"etech-backend/internal/live"
	"etech-backend/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrNotFound       = errors.New("service sale not found")
	ErrMissingType    = errors.New("service type is required")
	ErrInvalidCharges = errors.New("charges must be greater than zero")
	ErrInvalidMethod  = errors.New("payment method must be Cash, M-Pesa or Card")
	ErrInvalidStatus  = errors.New("status must be Paid or Unpaid")
	ErrMissingDate    = errors.New("date is required")
)

type Input struct {
	ServiceType   string
	Charges       decimal.Decimal
	PaymentMethod string
	Status        models.PaymentStatus
	OccurredAt    *datatypes.Date
}

func (in *Input) validate() error {
	in.ServiceType = strings.TrimSpace(in.ServiceType)
	in.PaymentMethod = strings.TrimSpace(in.PaymentMethod)
	switch {
	case in.ServiceType == "":
		return ErrMissingType
	case !in.Charges.IsPositive():
		return ErrInvalidCharges
	case !models.ValidServiceMethod(in.PaymentMethod):
		return ErrInvalidMethod
	case !in.Status.Valid():
		return ErrInvalidStatus
	case in.OccurredAt == nil:
		return ErrMissingDate
	}
	return nil
}

type Service struct {
	db        *gorm.DB
	notifier  live.Notifier
	publisher events.Publisher
	log       *zap.Logger
}

func NewService(db *gorm.DB, notifier live.Notifier, publisher events.Publisher, log *zap.Logger) *Service {
	return &Service{db: db, notifier: notifier, publisher: publisher, log: log}
}

func (s *Service) Create(ctx context.Context, in Input) (*models.ServiceSale, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	rec := models.ServiceSale{
		ServiceType:   in.ServiceType,
		Charges:       in.Charges,
		PaymentMethod: in.PaymentMethod,
		Status:        in.Status,
		OccurredAt:    *in.OccurredAt,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("create service sale: %w", err)
	}
	s.notifier.Notify(ctx, live.Services)
	if err := s.publisher.Publish(ctx, events.ServiceSaleRecorded, rec.ID, rec); err != nil {
		s.log.Warn("service sale event not published", zap.String("id", rec.ID), zap.Error(err))
	}
	return &rec, nil
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*models.ServiceSale, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var rec models.ServiceSale
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rec.ServiceType = in.ServiceType
	rec.Charges = in.Charges
	rec.PaymentMethod = in.PaymentMethod
	rec.Status = in.Status
	rec.OccurredAt = *in.OccurredAt
	if err := s.db.WithContext(ctx).Save(&rec).Error; err != nil {
		return nil, fmt.Errorf("update service sale: %w", err)
	}
	s.notifier.Notify(ctx, live.Services)
	return &rec, nil
}

func (s *Service) List(ctx context.Context) ([]models.ServiceSale, error) {
	var out []models.ServiceSale
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type Filter struct {
	Date   string // YYYY-MM-DD
	Search string // service type or payment method
}

// Apply filters a snapshot, newest date first.
func (f Filter) Apply(recs []models.ServiceSale) []models.ServiceSale {
	q := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]models.ServiceSale, 0, len(recs))
	for _, r := range recs {
		if f.Date != "" && models.FormatDate(r.OccurredAt) != f.Date {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(r.ServiceType), q) &&
			!strings.Contains(strings.ToLower(r.PaymentMethod), q) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return models.FormatDate(out[i].OccurredAt) > models.FormatDate(out[j].OccurredAt)
	})
	return out
}

func TotalCharges(recs []models.ServiceSale) decimal.Decimal {
	total := decimal.Zero
	for _, r := range recs {
		total = total.Add(r.Charges)
	}
	return total
}
