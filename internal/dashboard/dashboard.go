// Package dashboard serves the admin home page figures.
package dashboard

import (
	"context"
	"strconv"
	"time"

	"etech-backend/internal/bills"
	"etech-backend/internal/inventory"
	"etech-backend/internal/models"
	"etech-backend/internal/sales"
	"etech-backend/internal/servicesale"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type Deps struct {
	DB                *gorm.DB
	Sales             *sales.Service
	Bills             *bills.Service
	Services          *servicesale.Service
	LowStockThreshold int
	Now               func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

type Summary struct {
	Date            string          `json:"date"`
	SalesToday      decimal.Decimal `json:"salesToday"`
	SalesTodayCount int             `json:"salesTodayCount"`
	SalesMonth      decimal.Decimal `json:"salesMonth"`
	ServicesToday   decimal.Decimal `json:"servicesToday"`
	UnpaidBills     bills.Summary   `json:"unpaidBills"`
	OverdueBills    int             `json:"overdueBills"`
	LowStockItems   int             `json:"lowStockItems"`
	OutOfStockItems int             `json:"outOfStockItems"`
}

// BuildSummary loads the collections concurrently and folds them into the
// day's figures.
func BuildSummary(ctx context.Context, d Deps) (*Summary, error) {
	now := d.now().UTC()
	today := models.ISODate(now)

	var (
		saleRecs []models.SaleRecord
		billRecs []models.PendingBill
		svcRecs  []models.ServiceSale
		items    []models.InventoryItem
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		saleRecs, err = d.Sales.List(ctx)
		return err
	})
	g.Go(func() (err error) {
		billRecs, err = d.Bills.List(ctx)
		return err
	})
	g.Go(func() (err error) {
		svcRecs, err = d.Services.List(ctx)
		return err
	})
	g.Go(func() (err error) {
		items, err = inventory.LoadAll(ctx, d.DB)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	todaySales := sales.Filter{Date: today}.Apply(saleRecs)
	s := &Summary{
		Date:            today,
		SalesToday:      sales.Total(todaySales),
		SalesTodayCount: len(todaySales),
		SalesMonth:      sales.Total(sales.Filter{Month: today[:7]}.Apply(saleRecs)),
		ServicesToday:   servicesale.TotalCharges(servicesale.Filter{Date: today}.Apply(svcRecs)),
		UnpaidBills:     bills.Unpaid(billRecs),
		OverdueBills:    len(bills.Overdue(billRecs, today)),
	}
	for _, it := range inventory.View(items, inventory.Filter{LowStockOnly: true}, d.LowStockThreshold) {
		s.LowStockItems++
		if !it.CanSell {
			s.OutOfStockItems++
		}
	}
	return s, nil
}

// GET /api/dashboard/summary
func SummaryHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := BuildSummary(c.UserContext(), d)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not build summary")
		}
		return c.JSON(s)
	}
}

// GET /api/dashboard/sales-chart?period=daily&count=7
func SalesChartHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		period := c.Query("period", "daily")
		switch period {
		case "daily", "weekly", "monthly":
		default:
			return fiber.NewError(fiber.StatusBadRequest, "period must be daily, weekly or monthly")
		}

		count := sales.DefaultCount(period)
		if raw := c.Query("count"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > 366 {
				return fiber.NewError(fiber.StatusBadRequest, "invalid count")
			}
			count = n
		}

		all, err := d.Sales.List(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not load sales")
		}
		return c.JSON(sales.BuildChart(all, period, count, d.now()))
	}
}
