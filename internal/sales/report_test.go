package sales

import (
	"testing"
	"time"

	"etech-backend/internal/models"

	"github.com/shopspring/decimal"
)

func sale(item string, qty int, price string, at time.Time, status models.PaymentStatus) models.SaleRecord {
	return models.SaleRecord{
		ItemName:      item,
		QuantitySold:  qty,
		SellingPrice:  decimal.RequireFromString(price),
		PaymentStatus: status,
		OccurredAt:    at,
		SoldBy:        "Jane",
	}
}

func day(s string, hour int) time.Time {
	t, _ := time.Parse(models.DateLayout, s)
	return t.Add(time.Duration(hour) * time.Hour)
}

var snapshot = []models.SaleRecord{
	sale("Toner", 2, "100", day("2024-03-01", 9), models.PaymentPaid),
	sale("Cable", 1, "50.50", day("2024-03-01", 15), models.PaymentUnpaid),
	sale("Toner", 1, "100", day("2024-03-02", 10), models.PaymentPaid),
	sale("Mouse", 3, "20", day("2024-04-01", 8), models.PaymentPaid),
}

func TestDaily(t *testing.T) {
	got := Daily(snapshot, "2024-03-01")
	if len(got.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(got.Records))
	}
	if want := decimal.RequireFromString("250.50"); !got.Total.Equal(want) {
		t.Errorf("total = %s, want %s", got.Total, want)
	}
	if len(got.Chart) != 2 || got.Chart[0].Name != "Cable" || !got.Chart[1].Total.Equal(decimal.NewFromInt(200)) {
		t.Errorf("chart = %+v", got.Chart)
	}
}

func TestMonthly(t *testing.T) {
	got := Monthly(snapshot, "2024-03")
	if want := decimal.RequireFromString("350.50"); !got.Total.Equal(want) {
		t.Errorf("total = %s, want %s", got.Total, want)
	}
	if len(got.Chart) != 2 || got.Chart[0].Date != "2024-03-01" || got.Chart[1].Date != "2024-03-02" {
		t.Errorf("chart = %+v", got.Chart)
	}
}

func TestFilter_UsesUTCDay(t *testing.T) {
	// 01:00 in Nairobi on the 2nd is still the 1st in UTC
	nairobi := time.FixedZone("EAT", 3*3600)
	recs := []models.SaleRecord{sale("Toner", 1, "10", time.Date(2024, 3, 2, 1, 0, 0, 0, nairobi), models.PaymentPaid)}
	if got := len(Filter{Date: "2024-03-01"}.Apply(recs)); got != 1 {
		t.Errorf("matches = %d, want 1", got)
	}
	if got := len(Filter{Date: "2024-03-02"}.Apply(recs)); got != 0 {
		t.Errorf("matches = %d, want 0", got)
	}
}

func TestFilter_SoldBy(t *testing.T) {
	if got := len(Filter{SoldBy: "jane"}.Apply(snapshot)); got != 4 {
		t.Errorf("matches = %d, want 4", got)
	}
	if got := len(Filter{SoldBy: "bob"}.Apply(snapshot)); got != 0 {
		t.Errorf("matches = %d, want 0", got)
	}
}

func TestTotal_Empty(t *testing.T) {
	if got := Total(nil); !got.IsZero() {
		t.Errorf("Total(nil) = %s, want 0", got)
	}
}

func TestBuildChart(t *testing.T) {
	now := time.Date(2024, 3, 2, 18, 0, 0, 0, time.UTC)

	daily := BuildChart(snapshot, "daily", 3, now)
	if len(daily.Points) != 3 || daily.From != "2024-02-29" || daily.To != "2024-03-02" {
		t.Fatalf("daily = %+v", daily)
	}
	if p := daily.Points[1]; !p.Paid.Equal(decimal.NewFromInt(200)) || !p.Owed.Equal(decimal.RequireFromString("50.5")) {
		t.Errorf("2024-03-01 bucket = %+v", p)
	}
	if !daily.Total.Equal(decimal.RequireFromString("350.5")) {
		t.Errorf("daily total = %s", daily.Total)
	}

	// 2024-03-02 is a Saturday; its week starts Monday 2024-02-26
	weekly := BuildChart(snapshot, "weekly", 2, now)
	if len(weekly.Points) != 2 || weekly.Points[1].Label != "2024-02-26" || weekly.To != "2024-03-03" {
		t.Errorf("weekly = %+v", weekly)
	}

	monthly := BuildChart(snapshot, "monthly", 2, time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC))
	if len(monthly.Points) != 2 || monthly.Points[0].Label != "2024-03-01" {
		t.Fatalf("monthly = %+v", monthly)
	}
	if !monthly.Points[1].Total.Equal(decimal.NewFromInt(60)) {
		t.Errorf("april total = %s, want 60", monthly.Points[1].Total)
	}

	if got := BuildChart(nil, "yearly", 1, now).Period; got != "daily" {
		t.Errorf("unknown period = %q, want daily", got)
	}
}
