package inventory

import (
	"fmt"
	"strconv"
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

type ImportResponse struct {
	Created int      `json:"created"`
	Skipped []string `json:"skipped"`
}

// parseImportRow reads Item, Description, Price, Quantity.
func parseImportRow(row []string) (models.InventoryItem, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	price, err := decimal.NewFromString(cell(2))
	if err != nil {
		return models.InventoryItem{}, fmt.Errorf("price %q is not a number", cell(2))
	}
	qty, err := strconv.Atoi(cell(3))
	if err != nil {
		return models.InventoryItem{}, fmt.Errorf("quantity %q is not a whole number", cell(3))
	}
	if err := validateItem(cell(0), cell(1), price, qty); err != nil {
		return models.InventoryItem{}, err
	}
	return models.InventoryItem{Name: cell(0), Description: cell(1), UnitPrice: price, QuantityOnHand: qty}, nil
}

// POST /api/admin/inventory/import
// Multipart "file" holding an .xlsx with columns Item, Description, Price, Quantity.
// Valid rows are created together; invalid ones are reported back.
func ImportItemsHandler(notifier live.Notifier, publisher events.Publisher, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file is required")
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "only .xlsx files can be imported")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not open upload")
		}
		defer file.Close()

		rows, firstRow, err := export.ReadSheet(file, "item", "name")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not read workbook: "+err.Error())
		}

		resp := ImportResponse{Skipped: []string{}}
		var items []models.InventoryItem
		for i, row := range rows {
			if len(row) == 0 || strings.TrimSpace(strings.Join(row, "")) == "" {
				continue
			}
			item, err := parseImportRow(row)
			if err != nil {
				msg := err.Error()
				if fe, ok := err.(*fiber.Error); ok {
					msg = fe.Message
				}
				resp.Skipped = append(resp.Skipped, fmt.Sprintf("row %d: %s", firstRow+i, msg))
				continue
			}
			items = append(items, item)
		}

		if len(items) > 0 {
			err := database.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
				return tx.Create(&items).Error
			})
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "could not import items")
			}
			resp.Created = len(items)
			for i := range items {
				itemChanged(c.UserContext(), notifier, publisher, log, &items[i])
			}
		}

		log.Info("inventory import", zap.Int("created", resp.Created), zap.Int("skipped", len(resp.Skipped)))
		return c.JSON(resp)
	}
}
