package sales

import (
	"sort"
	"strings"
	"time"

	"etech-backend/internal/models"

	"github.com/shopspring/decimal"
)

// Filter narrows a sale snapshot. Empty fields match everything.
type Filter struct {
	Date   string // YYYY-MM-DD
	Month  string // YYYY-MM
	SoldBy string
}

// Apply keeps the records whose UTC calendar day equals Date and starts with Month.
func (f Filter) Apply(records []models.SaleRecord) []models.SaleRecord {
	out := make([]models.SaleRecord, 0, len(records))
	for _, r := range records {
		day := models.ISODate(r.OccurredAt)
		if f.Date != "" && day != f.Date {
			continue
		}
		if f.Month != "" && !strings.HasPrefix(day, f.Month) {
			continue
		}
		if f.SoldBy != "" && !strings.EqualFold(r.SoldBy, f.SoldBy) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Total is the sum of selling price times quantity.
func Total(records []models.SaleRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount())
	}
	return total
}

type ItemPoint struct {
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
}

// ByItem sums sales per item name, for the daily bar chart.
func ByItem(records []models.SaleRecord) []ItemPoint {
	idx := make(map[string]int)
	var out []ItemPoint
	for _, r := range records {
		i, ok := idx[r.ItemName]
		if !ok {
			i = len(out)
			idx[r.ItemName] = i
			out = append(out, ItemPoint{Name: r.ItemName, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(r.Amount())
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

type DayPoint struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total"`
}

// ByDay sums sales per calendar day in date order, for the monthly line chart.
func ByDay(records []models.SaleRecord) []DayPoint {
	sums := make(map[string]decimal.Decimal)
	for _, r := range records {
		day := models.ISODate(r.OccurredAt)
		sums[day] = sums[day].Add(r.Amount())
	}
	out := make([]DayPoint, 0, len(sums))
	for day, total := range sums {
		out = append(out, DayPoint{Date: day, Total: total})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Date < out[b].Date })
	return out
}

type ChartPoint struct {
	Label string          `json:"label"` // bucket start, YYYY-MM-DD
	Paid  decimal.Decimal `json:"paid"`
	Owed  decimal.Decimal `json:"owed"`
	Total decimal.Decimal `json:"total"`
}

type Chart struct {
	Period string          `json:"period"` // daily | weekly | monthly
	From   string          `json:"from"`
	To     string          `json:"to"`
	Points []ChartPoint    `json:"points"`
	Total  decimal.Decimal `json:"total"`
}

// DefaultCount is the number of buckets when none is requested.
func DefaultCount(period string) int {
	switch period {
	case "weekly":
		return 8
	case "monthly":
		return 12
	}
	return 7
}

// BuildChart buckets the last count days, weeks (Monday start) or months up to
// now. Empty buckets are included so the chart has no gaps.
func BuildChart(records []models.SaleRecord, period string, count int, now time.Time) Chart {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var start, end time.Time
	var next func(time.Time) time.Time
	var bucketOf func(time.Time) time.Time

	switch period {
	case "weekly":
		weekStart := func(t time.Time) time.Time {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			offset := (int(d.Weekday()) + 6) % 7
			return d.AddDate(0, 0, -offset)
		}
		end = weekStart(today)
		start = end.AddDate(0, 0, -7*(count-1))
		next = func(t time.Time) time.Time { return t.AddDate(0, 0, 7) }
		bucketOf = weekStart
	case "monthly":
		end = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		start = end.AddDate(0, -(count - 1), 0)
		next = func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }
		bucketOf = func(t time.Time) time.Time { return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC) }
	default:
		period = "daily"
		end = today
		start = end.AddDate(0, 0, -(count - 1))
		next = func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }
		bucketOf = func(t time.Time) time.Time { return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC) }
	}

	idx := make(map[time.Time]int)
	var points []ChartPoint
	for b := start; !b.After(end); b = next(b) {
		idx[b] = len(points)
		points = append(points, ChartPoint{Label: b.Format(models.DateLayout), Paid: decimal.Zero, Owed: decimal.Zero, Total: decimal.Zero})
	}

	grand := decimal.Zero
	for _, r := range records {
		i, ok := idx[bucketOf(r.OccurredAt.UTC())]
		if !ok {
			continue
		}
		amt := r.Amount()
		if r.PaymentStatus == models.PaymentPaid {
			points[i].Paid = points[i].Paid.Add(amt)
		} else {
			points[i].Owed = points[i].Owed.Add(amt)
		}
		points[i].Total = points[i].Total.Add(amt)
		grand = grand.Add(amt)
	}

	return Chart{
		Period: period,
		From:   start.Format(models.DateLayout),
		To:     next(end).AddDate(0, 0, -1).Format(models.DateLayout),
		Points: points,
		Total:  grand,
	}
}
