package main

import (
	"context"
	"time"

	"etech-backend/internal/bills"
	"etech-backend/internal/config"
	"etech-backend/internal/database"
	"etech-backend/internal/inventory"
	"etech-backend/internal/live"
	"etech-backend/internal/models"
	"etech-backend/internal/sales"
	"etech-backend/internal/servicesale"
	"etech-backend/internal/users"
)

// liveSources maps each streamable collection to its loader and the same
// view the matching list endpoint serves.
func liveSources(cfg *config.Config, salesSvc *sales.Service, billSvc *bills.Service, serviceSvc *servicesale.Service) map[live.Collection]live.Source {
	return map[live.Collection]live.Source{
		live.Inventory: live.NewSource(live.Inventory,
			func(ctx context.Context) ([]models.InventoryItem, error) { return inventory.LoadAll(ctx, database.DB) },
			func(snap []models.InventoryItem, q map[string]string) any {
				return inventory.View(snap, inventory.Filter{Search: q["q"], LowStockOnly: q["lowStock"] == "true"}, cfg.LowStockThreshold)
			},
			false),

		// ?view=daily&date= and ?view=monthly&month= mirror the report endpoints.
		live.Sales: live.NewSource(live.Sales, salesSvc.List,
			func(snap []models.SaleRecord, q map[string]string) any {
				switch q["view"] {
				case "daily":
					date := q["date"]
					if date == "" {
						date = models.ISODate(time.Now())
					}
					return sales.Daily(snap, date)
				case "monthly":
					month := q["month"]
					if month == "" {
						month = models.ISODate(time.Now())[:7]
					}
					return sales.Monthly(snap, month)
				}
				return sales.Filter{Date: q["date"], Month: q["month"], SoldBy: q["sold_by"]}.Apply(snap)
			},
			false),

		live.PendingBills: live.NewSource(live.PendingBills, billSvc.List,
			func(snap []models.PendingBill, q map[string]string) any {
				return bills.View(snap, bills.Filter{Date: q["date"], Search: q["q"], Status: models.BillStatus(q["status"])})
			},
			false),

		live.Services: live.NewSource(live.Services, serviceSvc.List,
			func(snap []models.ServiceSale, q map[string]string) any {
				return servicesale.View(snap, servicesale.Filter{Date: q["date"], Search: q["q"]})
			},
			false),

		live.Users: live.NewSource(live.Users,
			func(ctx context.Context) ([]models.User, error) { return users.List(ctx, database.DB) },
			func(snap []models.User, _ map[string]string) any { return users.View(snap) },
			true),
	}
}
