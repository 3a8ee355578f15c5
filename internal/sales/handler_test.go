package sales

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"etech-backend/internal/auth"
	"etech-backend/internal/documents"
	"etech-backend/internal/export"
	"etech-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

func salesApp(svc *Service) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxSessionKey, auth.Session{State: auth.StateAuthenticated, DisplayName: "Jane", Role: models.RoleStaff})
		return c.Next()
	})
	app.Post("/inventory/:id/sell", PostHandler(svc))
	app.Get("/sales", ListHandler(svc))
	app.Get("/sales/daily", DailyHandler(svc))
	app.Get("/sales/export", ExportHandler(svc))
	app.Get("/sales/:id/receipt", ReceiptHandler(svc, documents.Letterhead{CompanyName: "Etech Solutions", Currency: "KES"}))
	return app
}

func sell(t *testing.T, app *fiber.App, itemID, body string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/inventory/"+itemID+"/sell", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, b
}

func TestPostHandler_StatusCodes(t *testing.T) {
	svc, db, _, _ := newTestService(t)
	app := salesApp(svc)
	item := seedItem(t, db, 3)

	tests := []struct {
		name   string
		itemID string
		body   string
		want   int
	}{
		{"too many", item.ID, `{"quantity":5,"sellingPrice":10,"paymentMethod":"Cash","paymentStatus":"Paid"}`, fiber.StatusBadRequest},
		{"zero", item.ID, `{"quantity":0,"sellingPrice":10,"paymentMethod":"Cash","paymentStatus":"Paid"}`, fiber.StatusBadRequest},
		{"unknown item", "nope", `{"quantity":1,"sellingPrice":10,"paymentMethod":"Cash","paymentStatus":"Paid"}`, fiber.StatusNotFound},
		{"stale", item.ID, `{"quantity":1,"sellingPrice":10,"paymentMethod":"Cash","paymentStatus":"Paid","expectedQuantity":9}`, fiber.StatusConflict},
		{"bad json", item.ID, `{`, fiber.StatusBadRequest},
		{"ok", item.ID, `{"quantity":2,"sellingPrice":"2700.00","paymentMethod":"Cash","paymentStatus":"Unpaid","expectedQuantity":3}`, fiber.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := sell(t, app, tt.itemID, tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d (%s), want %d", resp.StatusCode, body, tt.want)
			}
		})
	}

	if got := stockOf(t, db, item.ID); got != 1 {
		t.Errorf("quantityOnHand = %d, want 1", got)
	}
	var rec models.SaleRecord
	if err := db.First(&rec).Error; err != nil {
		t.Fatal(err)
	}
	if rec.SoldBy != "Jane" {
		t.Errorf("SoldBy = %q, want Jane (from session)", rec.SoldBy)
	}
}

func TestReceiptAndExport(t *testing.T) {
	svc, db, _, _ := newTestService(t)
	app := salesApp(svc)
	item := seedItem(t, db, 3)

	_, body := sell(t, app, item.ID, `{"quantity":1,"sellingPrice":2700,"paymentMethod":"M-Pesa","paymentStatus":"Paid"}`)
	var rec models.SaleRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		t.Fatalf("decode: %v (%s)", err, body)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/sales/"+rec.ID+"/receipt", nil))
	if err != nil {
		t.Fatal(err)
	}
	html, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != fiber.StatusOK || !strings.Contains(string(html), "KES 2700.00") {
		t.Errorf("html receipt = %d %s", resp.StatusCode, html)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/sales/"+rec.ID+"/receipt?format=pdf", nil))
	if err != nil {
		t.Fatal(err)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("pdf content type = %q", ct)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/sales/missing/receipt", nil))
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("missing receipt = %d, want 404", resp.StatusCode)
	}
	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/sales/"+rec.ID+"/receipt?format=doc", nil))
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("bad format = %d, want 400", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/sales/export", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(resp.Body)
	rows, err := export.ReadRows(bytes.NewReader(data), "Date")
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if len(rows) != 2 || rows[0][1] != "Toner" || rows[1][5] != "2700.00" {
		t.Errorf("export rows = %v", rows)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/sales?date=03-01-2024", nil))
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("bad date = %d, want 400", resp.StatusCode)
	}
}
