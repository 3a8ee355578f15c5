package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"etech-backend/internal/database/dbtest"
	"etech-backend/internal/events"
	"etech-backend/internal/export"
	"etech-backend/internal/live"
	"etech-backend/internal/models"
	"etech-backend/internal/sales"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestView(t *testing.T) {
	items := []models.InventoryItem{
		{ID: "1", Name: "HP Laptop", Description: "EliteBook 840", QuantityOnHand: 0},
		{ID: "2", Name: "Mouse", Description: "Wireless, Logitech", QuantityOnHand: 1},
		{ID: "3", Name: "Toner", Description: "HP 85A", QuantityOnHand: 7},
	}

	all := View(items, Filter{}, 2)
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].CanSell || !all[0].LowStock {
		t.Errorf("empty item = %+v, want low and unsellable", all[0])
	}
	if !all[1].CanSell || !all[1].LowStock {
		t.Errorf("one left = %+v, want low and sellable", all[1])
	}
	if all[2].LowStock {
		t.Errorf("seven left flagged low")
	}

	if got := View(items, Filter{Search: "hp"}, 2); len(got) != 2 {
		t.Errorf("search hp = %d, want 2 (name and description)", len(got))
	}
	if got := View(items, Filter{LowStockOnly: true}, 2); len(got) != 2 {
		t.Errorf("low stock only = %d, want 2", len(got))
	}
	if got := View(items, Filter{}, 0); got[0].LowStock {
		t.Errorf("threshold 0 flagged an empty item as low")
	}
}

func inventoryApp(t *testing.T) (*fiber.App, *live.Hub) {
	t.Helper()
	return inventoryAppOn(t, dbtest.New(t))
}

func inventoryAppOn(t *testing.T, db *gorm.DB) (*fiber.App, *live.Hub) {
	t.Helper()
	dbtest.UseGlobal(t, db)
	hub := live.NewHub()
	app := fiber.New()
	app.Get("/inventory", ListItemsHandler(2))
	app.Get("/inventory/export", ExportItemsHandler(2))
	app.Post("/admin/inventory", CreateItemHandler(hub, events.NopPublisher{}, zap.NewNop()))
	app.Put("/admin/inventory/:id", UpdateItemHandler(hub, events.NopPublisher{}, zap.NewNop()))
	app.Post("/admin/inventory/import", ImportItemsHandler(hub, events.NopPublisher{}, zap.NewNop()))
	return app, hub
}

func do(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, b
}

func TestCreateAndUpdate(t *testing.T) {
	app, hub := inventoryApp(t)
	sub := hub.Subscribe(live.Inventory)
	defer sub.Close()

	bad := []string{
		`{"name":"","description":"x","unitPrice":1,"quantityOnHand":1}`,
		`{"name":"Mouse","description":"","unitPrice":1,"quantityOnHand":1}`,
		`{"name":"Mouse","description":"x","unitPrice":-1,"quantityOnHand":1}`,
		`{"name":"Mouse","description":"x","unitPrice":1,"quantityOnHand":-1}`,
	}
	for _, body := range bad {
		if resp, _ := do(t, app, http.MethodPost, "/admin/inventory", body); resp.StatusCode != fiber.StatusBadRequest {
			t.Errorf("create %s = %d, want 400", body, resp.StatusCode)
		}
	}

	resp, body := do(t, app, http.MethodPost, "/admin/inventory", `{"name":" Mouse ","description":"Wireless","unitPrice":"850.00","quantityOnHand":4}`)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create = %d (%s)", resp.StatusCode, body)
	}
	var item models.InventoryItem
	if err := json.Unmarshal(body, &item); err != nil {
		t.Fatal(err)
	}
	if item.ID == "" || item.Name != "Mouse" {
		t.Errorf("created = %+v", item)
	}
	select {
	case <-sub.C:
	default:
		t.Error("no inventory change signal")
	}

	resp, body = do(t, app, http.MethodPut, "/admin/inventory/"+item.ID, `{"quantityOnHand":1}`)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("update = %d (%s)", resp.StatusCode, body)
	}
	if resp, _ := do(t, app, http.MethodPut, "/admin/inventory/"+item.ID, `{"unitPrice":-5}`); resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("negative price update = %d, want 400", resp.StatusCode)
	}
	if resp, _ := do(t, app, http.MethodPut, "/admin/inventory/missing", `{"quantityOnHand":1}`); resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("missing update = %d, want 404", resp.StatusCode)
	}

	_, body = do(t, app, http.MethodGet, "/inventory?q=wire", "")
	var list []ItemResponse
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].QuantityOnHand != 1 || !list[0].LowStock || !list[0].UnitPrice.Equal(decimal.NewFromInt(850)) {
		t.Errorf("list = %+v", list)
	}
}

func TestImportAndExport(t *testing.T) {
	app, _ := inventoryApp(t)

	sheet, err := export.Workbook("Inventory", []string{"Item", "Description", "Price", "Quantity"}, [][]any{
		{"Toner", "HP 85A", "3500", 6},
		{"Cable", "HDMI 2m", "abc", 3},
		{"Ribbon", "", "200", 1},
		{"Flash disk", "32GB", "900.50", 10},
	})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "stock.xlsx")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(sheet)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/admin/inventory/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	var out ImportResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Created != 2 || len(out.Skipped) != 2 {
		t.Fatalf("import = %+v, want 2 created 2 skipped", out)
	}
	// spreadsheet rows, counting the header
	if !strings.HasPrefix(out.Skipped[0], "row 3:") || !strings.HasPrefix(out.Skipped[1], "row 4:") {
		t.Errorf("skipped = %v, want rows 3 and 4", out.Skipped)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/inventory/export", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if ct := resp.Header.Get(fiber.HeaderContentType); ct != export.ContentTypeXLSX {
		t.Errorf("content type = %q", ct)
	}
	data, _ := io.ReadAll(resp.Body)
	rows, err := export.ReadRows(bytes.NewReader(data), "Item")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0][0] != "Flash disk" || rows[0][2] != "900.50" || rows[1][3] != "6" {
		t.Errorf("rows = %v", rows)
	}
}

func TestImport_RejectsNonXLSX(t *testing.T) {
	app, _ := inventoryApp(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "stock.csv")
	fw.Write([]byte("Item,Description\n"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/admin/inventory/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("csv import = %d, want 400", resp.StatusCode)
	}
}

func TestUpdate_KeepsConcurrentSale(t *testing.T) {
	db := dbtest.New(t)
	app, hub := inventoryAppOn(t, db)

	item := models.InventoryItem{Name: "Toner", Description: "HP 85A", UnitPrice: decimal.NewFromInt(2500), QuantityOnHand: 3}
	if err := db.Create(&item).Error; err != nil {
		t.Fatal(err)
	}

	// A sale lands right after the edit has loaded the item.
	svc := sales.NewService(db, hub, events.NopPublisher{}, zap.NewNop())
	armed := true
	var saleErr error
	err := db.Callback().Query().After("gorm:query").Register("test:sale_after_load", func(tx *gorm.DB) {
		if !armed || tx.Statement.Table != "inventory_items" {
			return
		}
		armed = false
		_, saleErr = svc.Post(context.Background(), sales.PostInput{
			ItemID:        item.ID,
			Quantity:      2,
			SellingPrice:  decimal.NewFromInt(2500),
			PaymentMethod: "Cash",
			PaymentStatus: models.PaymentPaid,
		})
	})
	if err != nil {
		t.Fatal(err)
	}

	resp, body := do(t, app, http.MethodPut, "/admin/inventory/"+item.ID, `{"name":"Toner XL"}`)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("update = %d (%s)", resp.StatusCode, body)
	}
	if armed || saleErr != nil {
		t.Fatalf("sale during edit: ran %v, err %v", !armed, saleErr)
	}

	var got models.InventoryItem
	if err := db.First(&got, "id = ?", item.ID).Error; err != nil {
		t.Fatal(err)
	}
	if got.Name != "Toner XL" || got.QuantityOnHand != 1 {
		t.Errorf("item = %s/%d, want Toner XL/1", got.Name, got.QuantityOnHand)
	}
	var n int64
	db.Model(&models.SaleRecord{}).Count(&n)
	if n != 1 {
		t.Errorf("sale records = %d, want 1", n)
	}
}
