package report_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Spok95/atk-inventory/internal/domain/items"
	"github.com/Spok95/atk-inventory/internal/ledger"
	"github.com/Spok95/atk-inventory/internal/report"
	"github.com/Spok95/atk-inventory/internal/storage/memory"
)

type fixture struct {
	svc     *ledger.Service
	reports *report.Service
	store   *memory.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.New()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return fixture{
		svc:     ledger.New(store, log, nil, 0),
		reports: report.New(store),
		store:   store,
	}
}

func (f fixture) item(t *testing.T, name string, stock, minStock int64) int64 {
	t.Helper()
	it, err := f.svc.CreateItem(context.Background(), name, "Alat Tulis", "Pcs", stock, minStock, 1000, 1)
	if err != nil {
		t.Fatalf("CreateItem(%s): %v", name, err)
	}
	return it.ID
}

func (f fixture) approvedRequest(t *testing.T, itemID int64, dept string, qty int64) {
	t.Helper()
	ctx := context.Background()
	r, err := f.svc.SubmitRequest(ctx, "Budi Santoso", dept, itemID, qty, "")
	if err != nil {
		t.Fatalf("SubmitRequest: %v", err)
	}
	if _, err := f.svc.ApproveRequest(ctx, r.ID, 1); err != nil {
		t.Fatalf("ApproveRequest: %v", err)
	}
}

func TestStockStatusClassification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.item(t, "Habis", 0, 5)
	f.item(t, "Menipis", 5, 5)
	f.item(t, "Aman", 50, 5)

	rows, err := f.reports.StockStatus(ctx)
	if err != nil {
		t.Fatalf("StockStatus: %v", err)
	}
	want := map[string]items.StockStatus{
		"Habis":   items.StatusCritical,
		"Menipis": items.StatusLow,
		"Aman":    items.StatusOK,
	}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for _, row := range rows {
		if row.Status != want[row.Name] {
			t.Errorf("%s: status = %s, want %s", row.Name, row.Status, want[row.Name])
		}
	}
}

func TestUsageByDepartment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id := f.item(t, "Pulpen Biru", 100, 10)
	f.approvedRequest(t, id, "Finance", 5)
	f.approvedRequest(t, id, "Finance", 3)
	f.approvedRequest(t, id, "Marketing", 4)

	// rejected requests consume nothing
	r, err := f.svc.SubmitRequest(ctx, "Citra Dewi", "Finance", id, 50, "")
	if err != nil {
		t.Fatalf("SubmitRequest: %v", err)
	}
	if _, err := f.svc.RejectRequest(ctx, r.ID, 1, "terlalu banyak"); err != nil {
		t.Fatalf("RejectRequest: %v", err)
	}

	usage, err := f.reports.UsageByDepartment(ctx, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("UsageByDepartment: %v", err)
	}
	if len(usage) != 2 {
		t.Fatalf("got %d departments, want 2", len(usage))
	}
	// sorted by quantity descending
	if usage[0].Department != "Finance" || usage[0].Qty != 8 || usage[0].Requests != 2 {
		t.Fatalf("top department = %+v, want Finance qty 8 over 2 requests", usage[0])
	}
	if usage[1].Department != "Marketing" || usage[1].Qty != 4 {
		t.Fatalf("second department = %+v, want Marketing qty 4", usage[1])
	}
}

func TestUsageByPeriod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id := f.item(t, "Kertas A4", 0, 5)
	if _, err := f.svc.RecordStockIn(ctx, id, 30, "pembelian", 1, ledger.StockInParams{}); err != nil {
		t.Fatalf("RecordStockIn: %v", err)
	}
	if _, err := f.svc.RecordStockOut(ctx, id, 10, "dipakai rapat", 1); err != nil {
		t.Fatalf("RecordStockOut: %v", err)
	}
	if _, err := f.svc.RecordStockAdjustment(ctx, id, 22, "opname", 1); err != nil {
		t.Fatalf("RecordStockAdjustment: %v", err)
	}

	usage, err := f.reports.UsageByPeriod(ctx, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("UsageByPeriod: %v", err)
	}
	if len(usage) != 1 {
		t.Fatalf("got %d periods, want 1", len(usage))
	}
	p := usage[0]
	if p.Period != time.Now().Format("2006-01") {
		t.Fatalf("period = %s, want current month", p.Period)
	}
	if p.In != 30 {
		t.Errorf("in = %d, want 30", p.In)
	}
	if p.Out != 10 {
		t.Errorf("out = %d, want 10 (reported positive)", p.Out)
	}
	if p.Adjust != 2 {
		t.Errorf("adjust = %d, want 2", p.Adjust)
	}
}

func TestTopRequestedItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pen := f.item(t, "Pulpen Biru", 100, 10)
	paper := f.item(t, "Kertas A4", 100, 10)
	stapler := f.item(t, "Stapler", 100, 10)

	f.approvedRequest(t, pen, "Finance", 12)
	f.approvedRequest(t, paper, "Finance", 20)
	f.approvedRequest(t, stapler, "HR", 1)

	top, err := f.reports.TopRequestedItems(ctx, time.Time{}, time.Time{}, 2)
	if err != nil {
		t.Fatalf("TopRequestedItems: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("got %d items, want 2 (limit applied)", len(top))
	}
	if top[0].Name != "Kertas A4" || top[0].Qty != 20 {
		t.Fatalf("top item = %+v, want Kertas A4 qty 20", top[0])
	}
	if top[1].Name != "Pulpen Biru" || top[1].Qty != 12 {
		t.Fatalf("second item = %+v, want Pulpen Biru qty 12", top[1])
	}
}

func TestSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.item(t, "Habis", 0, 5)
	f.item(t, "Menipis", 3, 5)
	ok := f.item(t, "Aman", 50, 5)

	if _, err := f.svc.SubmitRequest(ctx, "Budi Santoso", "Finance", ok, 2, ""); err != nil {
		t.Fatalf("SubmitRequest: %v", err)
	}
	f.approvedRequest(t, ok, "HR", 1)

	sum, err := f.reports.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Items != 3 {
		t.Errorf("items = %d, want 3", sum.Items)
	}
	if sum.Requests != 2 {
		t.Errorf("requests = %d, want 2", sum.Requests)
	}
	if sum.Pending != 1 {
		t.Errorf("pending = %d, want 1", sum.Pending)
	}
	if sum.Low != 1 {
		t.Errorf("low = %d, want 1", sum.Low)
	}
	if sum.Critical != 1 {
		t.Errorf("critical = %d, want 1", sum.Critical)
	}
}

func TestExportsContainData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id := f.item(t, "Pulpen Biru", 50, 10)
	f.approvedRequest(t, id, "Finance", 5)

	xlsx, err := f.reports.ItemsXLSX(ctx)
	if err != nil {
		t.Fatalf("ItemsXLSX: %v", err)
	}
	if len(xlsx) == 0 {
		t.Fatal("empty items workbook")
	}

	xlsx, err = f.reports.RequestsXLSX(ctx)
	if err != nil {
		t.Fatalf("RequestsXLSX: %v", err)
	}
	if len(xlsx) == 0 {
		t.Fatal("empty requests workbook")
	}

	xlsx, err = f.reports.TransactionsXLSX(ctx, ledger.TxFilter{})
	if err != nil {
		t.Fatalf("TransactionsXLSX: %v", err)
	}
	if len(xlsx) == 0 {
		t.Fatal("empty transactions workbook")
	}

	csvOut, err := f.reports.ItemsCSV(ctx)
	if err != nil {
		t.Fatalf("ItemsCSV: %v", err)
	}
	if !strings.Contains(string(csvOut), "Pulpen Biru") {
		t.Fatal("items csv missing item row")
	}

	csvOut, err = f.reports.RequestsCSV(ctx)
	if err != nil {
		t.Fatalf("RequestsCSV: %v", err)
	}
	if !strings.Contains(string(csvOut), "Finance") {
		t.Fatal("requests csv missing request row")
	}
}
