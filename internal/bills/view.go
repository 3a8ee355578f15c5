package bills

import (
	"sort"
	"strings"

	"etech-backend/internal/models"

	"github.com/shopspring/decimal"
)

type Filter struct {
	Date   string // due date, YYYY-MM-DD
	Search string // payer or service, case-insensitive
	Status models.BillStatus
}

// Apply filters and orders bills: unpaid first, then by due date.
func (f Filter) Apply(bills []models.PendingBill) []models.PendingBill {
	q := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]models.PendingBill, 0, len(bills))
	for _, b := range bills {
		if f.Date != "" && models.FormatDate(b.DueDate) != f.Date {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(b.PayerName), q) &&
			!strings.Contains(strings.ToLower(b.ServiceDescription), q) {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Status != out[j].Status {
			return out[i].Status == models.BillUnpaid
		}
		return models.FormatDate(out[i].DueDate) < models.FormatDate(out[j].DueDate)
	})
	return out
}

type Summary struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// Unpaid counts and sums the unpaid bills.
func Unpaid(bills []models.PendingBill) Summary {
	s := Summary{Amount: decimal.Zero}
	for _, b := range bills {
		if b.Status == models.BillUnpaid {
			s.Count++
			s.Amount = s.Amount.Add(b.Amount)
		}
	}
	return s
}
