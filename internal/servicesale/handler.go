package servicesale

import (
	"errors"

	"etech-backend/internal/export"
	"etech-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type Request struct {
	ServiceType   string               `json:"serviceType"`
	Charges       decimal.Decimal      `json:"charges"`
	PaymentMethod string               `json:"paymentMethod"`
	Status        models.PaymentStatus `json:"status"`
	Date          string               `json:"date"` // YYYY-MM-DD
}

type Response struct {
	ID            string               `json:"id"`
	ServiceType   string               `json:"serviceType"`
	Charges       decimal.Decimal      `json:"charges"`
	PaymentMethod string               `json:"paymentMethod"`
	Status        models.PaymentStatus `json:"status"`
	Date          string               `json:"date"`
}

type ListResponse struct {
	Records      []Response      `json:"records"`
	TotalCharges decimal.Decimal `json:"totalCharges"`
}

func ToResponse(r models.ServiceSale) Response {
	return Response{
		ID:            r.ID,
		ServiceType:   r.ServiceType,
		Charges:       r.Charges,
		PaymentMethod: r.PaymentMethod,
		Status:        r.Status,
		Date:          models.FormatDate(r.OccurredAt),
	}
}

// View is the filtered list of a snapshot with its total.
func View(all []models.ServiceSale, f Filter) ListResponse {
	recs := f.Apply(all)
	out := make([]Response, 0, len(recs))
	for _, r := range recs {
		out = append(out, ToResponse(r))
	}
	return ListResponse{Records: out, TotalCharges: TotalCharges(recs)}
}

func (r Request) input() (Input, error) {
	in := Input{ServiceType: r.ServiceType, Charges: r.Charges, PaymentMethod: r.PaymentMethod, Status: r.Status}
	if r.Date != "" {
		d, err := models.ParseDate(r.Date)
		if err != nil {
			return in, fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		in.OccurredAt = &d
	}
	return in, nil
}

func serviceError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrMissingType),
		errors.Is(err, ErrInvalidCharges),
		errors.Is(err, ErrInvalidMethod),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrMissingDate):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return err
}

func filterFromQuery(c *fiber.Ctx) (Filter, error) {
	f := Filter{Date: c.Query("date"), Search: c.Query("q")}
	if f.Date != "" {
		if _, err := models.ParseDate(f.Date); err != nil {
			return f, fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
		}
	}
	return f, nil
}

// GET /api/services?date=&q=
func ListHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := filterFromQuery(c)
		if err != nil {
			return err
		}
		all, err := svc.List(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list service sales")
		}
		return c.JSON(View(all, f))
	}
}

// POST /api/services
func CreateHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body Request
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		in, err := body.input()
		if err != nil {
			return err
		}
		rec, err := svc.Create(c.UserContext(), in)
		if err != nil {
			return serviceError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(ToResponse(*rec))
	}
}

// PUT /api/services/:id
func UpdateHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body Request
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		in, err := body.input()
		if err != nil {
			return err
		}
		rec, err := svc.Update(c.UserContext(), c.Params("id"), in)
		if err != nil {
			return serviceError(err)
		}
		return c.JSON(ToResponse(*rec))
	}
}

// GET /api/services/export?date=&q=
func ExportHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := filterFromQuery(c)
		if err != nil {
			return err
		}
		all, err := svc.List(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list service sales")
		}
		recs := f.Apply(all)
		rows := make([][]any, 0, len(recs)+1)
		for _, r := range recs {
			rows = append(rows, []any{models.FormatDate(r.OccurredAt), r.ServiceType, r.Charges.StringFixed(2), r.PaymentMethod, string(r.Status)})
		}
		rows = append(rows, []any{"", "Total", TotalCharges(recs).StringFixed(2)})

		data, err := export.Workbook("Service Sales", []string{"Date", "Service Type", "Charges", "Payment Method", "Status"}, rows)
		if err != nil {
			return err
		}
		return export.Send(c, "ServiceSales.xlsx", data)
	}
}
