package inventory

import (
	"strings"

	"etech-backend/internal/models"

	"github.com/shopspring/decimal"
)

type ItemResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	QuantityOnHand int             `json:"quantityOnHand"`
	LowStock       bool            `json:"lowStock"`
	CanSell        bool            `json:"canSell"`
}

type Filter struct {
	Search       string
	LowStockOnly bool
}

// View filters a snapshot and flags low stock (below threshold) and sellable
// (anything on hand) items.
func View(items []models.InventoryItem, f Filter, threshold int) []ItemResponse {
	q := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]ItemResponse, 0, len(items))
	for _, it := range items {
		if q != "" && !strings.Contains(strings.ToLower(it.Name), q) &&
			!strings.Contains(strings.ToLower(it.Description), q) {
			continue
		}
		low := it.QuantityOnHand < threshold
		if f.LowStockOnly && !low {
			continue
		}
		out = append(out, ItemResponse{
			ID:             it.ID,
			Name:           it.Name,
			Description:    it.Description,
			UnitPrice:      it.UnitPrice,
			QuantityOnHand: it.QuantityOnHand,
			LowStock:       low,
			CanSell:        it.QuantityOnHand > 0,
		})
	}
	return out
}
