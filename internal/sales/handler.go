package sales

import (
	"errors"
	"time"

	"etech-backend/internal/auth"
	"etech-backend/internal/documents"
	"etech-backend/internal/export"
	"etech-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SellRequest struct {
	Quantity         int                  `json:"quantity"`
	SellingPrice     decimal.Decimal      `json:"sellingPrice"`
	PaymentMethod    string               `json:"paymentMethod"`
	PaymentStatus    models.PaymentStatus `json:"paymentStatus"`
	ExpectedQuantity *int                 `json:"expectedQuantity"`
}

type DailyResponse struct {
	Date    string              `json:"date"`
	Records []models.SaleRecord `json:"records"`
	Total   decimal.Decimal     `json:"total"`
	Chart   []ItemPoint         `json:"chart"`
}

type MonthlyResponse struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
	Chart []DayPoint      `json:"chart"`
}

func postError(err error) error {
	switch {
	case errors.Is(err, ErrItemNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrStaleStock):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrInvalidPrice),
		errors.Is(err, ErrMissingPaymentMethod),
		errors.Is(err, ErrInvalidPaymentStatus):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return err
}

func filterFromQuery(c *fiber.Ctx) (Filter, error) {
	f := Filter{Date: c.Query("date"), Month: c.Query("month"), SoldBy: c.Query("sold_by")}
	if f.Date != "" {
		if _, err := time.Parse(models.DateLayout, f.Date); err != nil {
			return f, fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
		}
	}
	if f.Month != "" {
		if _, err := time.Parse("2006-01", f.Month); err != nil {
			return f, fiber.NewError(fiber.StatusBadRequest, "month must be YYYY-MM")
		}
	}
	return f, nil
}

// POST /api/inventory/:id/sell
func PostHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SellRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		rec, err := svc.Post(c.UserContext(), PostInput{
			ItemID:           c.Params("id"),
			Quantity:         body.Quantity,
			SellingPrice:     body.SellingPrice,
			PaymentMethod:    body.PaymentMethod,
			PaymentStatus:    body.PaymentStatus,
			SoldBy:           auth.SessionFrom(c).DisplayName,
			ExpectedQuantity: body.ExpectedQuantity,
		})
		if err != nil {
			return postError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

// GET /api/sales?date=&month=&sold_by=
func ListHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := filterFromQuery(c)
		if err != nil {
			return err
		}
		all, err := svc.List(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list sales")
		}
		return c.JSON(f.Apply(all))
	}
}

// GET /api/sales/daily?date=YYYY-MM-DD
func DailyHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		date := c.Query("date", models.ISODate(time.Now()))
		if _, err := time.Parse(models.DateLayout, date); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		all, err := svc.List(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list sales")
		}
		return c.JSON(Daily(all, date))
	}
}

// Daily is the daily sales view of a snapshot.
func Daily(all []models.SaleRecord, date string) DailyResponse {
	day := Filter{Date: date}.Apply(all)
	return DailyResponse{Date: date, Records: day, Total: Total(day), Chart: ByItem(day)}
}

// GET /api/sales/monthly?month=YYYY-MM
func MonthlyHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		month := c.Query("month", time.Now().UTC().Format("2006-01"))
		if _, err := time.Parse("2006-01", month); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "month must be YYYY-MM")
		}
		all, err := svc.List(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list sales")
		}
		return c.JSON(Monthly(all, month))
	}
}

// Monthly is the month view of a snapshot.
func Monthly(all []models.SaleRecord, month string) MonthlyResponse {
	recs := Filter{Month: month}.Apply(all)
	return MonthlyResponse{Month: month, Total: Total(recs), Chart: ByDay(recs)}
}

// GET /api/sales/:id/receipt?format=html|pdf
func ReceiptHandler(svc *Service, lh documents.Letterhead) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rec, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "sale not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not load sale")
		}
		return documents.Send(c, documents.ReceiptFromSale(*rec, lh))
	}
}

// GET /api/sales/export?date=&month=
func ExportHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := filterFromQuery(c)
		if err != nil {
			return err
		}
		all, err := svc.List(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list sales")
		}

		recs := f.Apply(all)
		rows := make([][]any, 0, len(recs))
		for _, r := range recs {
			rows = append(rows, []any{
				models.ISODate(r.OccurredAt),
				r.ItemName,
				r.Description,
				r.QuantitySold,
				r.SellingPrice.StringFixed(2),
				r.Amount().StringFixed(2),
				r.PaymentMethod,
				string(r.PaymentStatus),
				r.SoldBy,
			})
		}
		rows = append(rows, []any{"", "", "", "", "Total", Total(recs).StringFixed(2)})

		data, err := export.Workbook("Sales",
			[]string{"Date", "Item", "Description", "Quantity", "Selling Price", "Total", "Payment Method", "Payment Status", "Sold By"},
			rows)
		if err != nil {
			return err
		}
		return export.Send(c, "Sales.xlsx", data)
	}
}
