package bills

import (
	"errors"
	"time"

	"etech-backend/internal/documents"
	"etech-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type BillRequest struct {
	PayerName          string            `json:"payerName"`
	ServiceDescription string            `json:"serviceDescription"`
	Amount             decimal.Decimal   `json:"amount"`
	Status             models.BillStatus `json:"status"`
	DueDate            string            `json:"dueDate"` // YYYY-MM-DD
}

type BillResponse struct {
	ID                 string            `json:"id"`
	PayerName          string            `json:"payerName"`
	ServiceDescription string            `json:"serviceDescription"`
	Amount             decimal.Decimal   `json:"amount"`
	Status             models.BillStatus `json:"status"`
	DueDate            string            `json:"dueDate"`
	CreatedAt          time.Time         `json:"createdAt"`
}

func ToResponse(b models.PendingBill) BillResponse {
	return BillResponse{
		ID:                 b.ID,
		PayerName:          b.PayerName,
		ServiceDescription: b.ServiceDescription,
		Amount:             b.Amount,
		Status:             b.Status,
		DueDate:            models.FormatDate(b.DueDate),
		CreatedAt:          b.CreatedAt,
	}
}

type ListResponse struct {
	Bills  []BillResponse `json:"bills"`
	Unpaid Summary        `json:"unpaid"`
}

// View is the filtered bill list of a snapshot.
func View(all []models.PendingBill, f Filter) ListResponse {
	filtered := f.Apply(all)
	out := make([]BillResponse, 0, len(filtered))
	for _, b := range filtered {
		out = append(out, ToResponse(b))
	}
	return ListResponse{Bills: out, Unpaid: Unpaid(filtered)}
}

func (r BillRequest) input() (BillInput, error) {
	in := BillInput{
		PayerName:          r.PayerName,
		ServiceDescription: r.ServiceDescription,
		Amount:             r.Amount,
		Status:             r.Status,
	}
	if r.DueDate != "" {
		d, err := models.ParseDate(r.DueDate)
		if err != nil {
			return in, fiber.NewError(fiber.StatusBadRequest, "dueDate must be YYYY-MM-DD")
		}
		in.DueDate = &d
	}
	return in, nil
}

func serviceError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrMissingPayer),
		errors.Is(err, ErrMissingService),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrMissingDueDate):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return err
}

// GET /api/pendingbills?date=&q=&status=
func ListHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := Filter{Date: c.Query("date"), Search: c.Query("q"), Status: models.BillStatus(c.Query("status"))}
		if f.Date != "" {
			if _, err := models.ParseDate(f.Date); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
			}
		}
		all, err := svc.List(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list bills")
		}
		return c.JSON(View(all, f))
	}
}

// POST /api/pendingbills
func CreateHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body BillRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		in, err := body.input()
		if err != nil {
			return err
		}
		bill, err := svc.Create(c.UserContext(), in)
		if err != nil {
			return serviceError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(ToResponse(*bill))
	}
}

// PUT /api/pendingbills/:id
// A status in the body is ignored.
func UpdateHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body BillRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		in, err := body.input()
		if err != nil {
			return err
		}
		bill, err := svc.Update(c.UserContext(), c.Params("id"), in)
		if err != nil {
			return serviceError(err)
		}
		return c.JSON(ToResponse(*bill))
	}
}

// POST /api/pendingbills/:id/pay
func PayHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bill, err := svc.MarkPaid(c.UserContext(), c.Params("id"))
		if err != nil {
			return serviceError(err)
		}
		return c.JSON(ToResponse(*bill))
	}
}

// GET /api/pendingbills/:id/invoice?format=html|pdf
func InvoiceHandler(svc *Service, lh documents.Letterhead) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bill, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return serviceError(err)
		}
		return documents.Send(c, documents.InvoiceFromBill(*bill, lh))
	}
}
