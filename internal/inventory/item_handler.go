package inventory

import (
	"context"
	"errors"
	"strings"

	"etech-backend/internal/database"
	"etech-backend/internal/events"
	"etech-backend/internal/export"
	"etech-backend/internal/live"
	"etech-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreateItemRequest struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	QuantityOnHand int             `json:"quantityOnHand"`
}

type UpdateItemRequest struct {
	Name           *string          `json:"name"`
	Description    *string          `json:"description"`
	UnitPrice      *decimal.Decimal `json:"unitPrice"`
	QuantityOnHand *int             `json:"quantityOnHand"`
}

// LoadAll reads every item ordered by name.
func LoadAll(ctx context.Context, db *gorm.DB) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if err := db.WithContext(ctx).Order("name asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func validateItem(name, description string, price decimal.Decimal, qty int) error {
	if name == "" || description == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name and description are required")
	}
	if price.IsNegative() {
		return fiber.NewError(fiber.StatusBadRequest, "unitPrice cannot be negative")
	}
	if qty < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "quantityOnHand cannot be negative")
	}
	return nil
}

func filterFromQuery(c *fiber.Ctx) Filter {
	return Filter{Search: c.Query("q"), LowStockOnly: c.QueryBool("lowStock")}
}

func itemChanged(ctx context.Context, notifier live.Notifier, publisher events.Publisher, log *zap.Logger, item *models.InventoryItem) {
	notifier.Notify(ctx, live.Inventory)
	if err := publisher.Publish(ctx, events.InventoryChanged, item.ID, item); err != nil {
		log.Warn("inventory event not published", zap.String("item_id", item.ID), zap.Error(err))
	}
}

// GET /api/inventory?q=&lowStock=true
func ListItemsHandler(threshold int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := LoadAll(c.UserContext(), database.DB)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list inventory")
		}
		return c.JSON(View(items, filterFromQuery(c), threshold))
	}
}

// POST /api/admin/inventory
func CreateItemHandler(notifier live.Notifier, publisher events.Publisher, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		body.Description = strings.TrimSpace(body.Description)
		if err := validateItem(body.Name, body.Description, body.UnitPrice, body.QuantityOnHand); err != nil {
			return err
		}

		item := models.InventoryItem{
			Name:           body.Name,
			Description:    body.Description,
			UnitPrice:      body.UnitPrice,
			QuantityOnHand: body.QuantityOnHand,
		}
		if err := database.DB.WithContext(c.UserContext()).Create(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create item")
		}

		itemChanged(c.UserContext(), notifier, publisher, log, &item)
		return c.Status(fiber.StatusCreated).JSON(item)
	}
}

// PUT /api/admin/inventory/:id
// Only the fields present in the body are written, so an edit never carries a
// stale quantity over a sale committed meanwhile. Setting quantityOnHand here is
// a plain overwrite, not a sale.
func UpdateItemHandler(notifier live.Notifier, publisher events.Publisher, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdateItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		id := c.Params("id")
		db := database.DB.WithContext(c.UserContext())

		var item models.InventoryItem
		if err := db.First(&item, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "item not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not load item")
		}

		changes := make(map[string]any)
		if body.Name != nil {
			item.Name = strings.TrimSpace(*body.Name)
			changes["name"] = item.Name
		}
		if body.Description != nil {
			item.Description = strings.TrimSpace(*body.Description)
			changes["description"] = item.Description
		}
		if body.UnitPrice != nil {
			item.UnitPrice = *body.UnitPrice
			changes["unit_price"] = item.UnitPrice
		}
		if body.QuantityOnHand != nil {
			item.QuantityOnHand = *body.QuantityOnHand
			changes["quantity_on_hand"] = item.QuantityOnHand
		}
		if err := validateItem(item.Name, item.Description, item.UnitPrice, item.QuantityOnHand); err != nil {
			return err
		}
		if len(changes) == 0 {
			return c.JSON(item)
		}

		if err := db.Model(&models.InventoryItem{}).Where("id = ?", id).Updates(changes).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not update item")
		}
		if err := db.First(&item, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not reload item")
		}

		itemChanged(c.UserContext(), notifier, publisher, log, &item)
		return c.JSON(item)
	}
}

// GET /api/inventory/export?q=
func ExportItemsHandler(threshold int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := LoadAll(c.UserContext(), database.DB)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list inventory")
		}

		view := View(items, filterFromQuery(c), threshold)
		rows := make([][]any, 0, len(view))
		for _, it := range view {
			rows = append(rows, []any{it.Name, it.Description, it.UnitPrice.StringFixed(2), it.QuantityOnHand})
		}
		data, err := export.Workbook("Inventory", []string{"Item", "Description", "Price", "Quantity"}, rows)
		if err != nil {
			return err
		}
		return export.Send(c, "Inventory.xlsx", data)
	}
}
