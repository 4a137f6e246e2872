package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"poissonnerie/backend/internal/domain"
	"poissonnerie/backend/internal/settings"
	"poissonnerie/backend/internal/store/memory"
)

type mapReportCache struct {
	entries map[string][]byte
	sets    int
}

func newMapReportCache() *mapReportCache {
	return &mapReportCache{entries: make(map[string][]byte)}
}

func (c *mapReportCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	payload, ok := c.entries[key]
	return payload, ok, nil
}

func (c *mapReportCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.entries[key] = value
	c.sets++
	return nil
}

func sellSardines(t *testing.T, svc *Service, qty float64) domain.CheckoutResponse {
	t.Helper()
	resp, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		PaymentMethod: "cash",
		Lines: []domain.CartLine{
			{ProductName: "Sardine", Quantity: qty},
		},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	return resp
}

func TestDailyReportAggregates(t *testing.T) {
	svc, _ := newTestService(t)
	day := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return day.Add(10 * time.Hour) }

	sellSardines(t, svc, 2.0)
	sellSardines(t, svc, 3.0)

	report, err := svc.DailyReport(context.Background(), day)
	if err != nil {
		t.Fatalf("daily report failed: %v", err)
	}

	if report.TransactionCount != 2 {
		t.Fatalf("expected 2 transactions, got %d", report.TransactionCount)
	}
	// 2kg: 1000 + 200 tax, 3kg: 1500 + 300 tax
	if report.TotalRevenueCents != 3000 {
		t.Fatalf("expected revenue 3000, got %d", report.TotalRevenueCents)
	}
	if report.AverageBasketCents != 1500 {
		t.Fatalf("expected average basket 1500, got %d", report.AverageBasketCents)
	}
	if len(report.PerProduct) != 1 || report.PerProduct[0].ProductName != "Sardine" {
		t.Fatalf("unexpected per-product rows: %+v", report.PerProduct)
	}
	if report.PerProduct[0].Quantity != 5.0 {
		t.Fatalf("expected 5.0 kg sold, got %v", report.PerProduct[0].Quantity)
	}
}

func TestDailyReportEmptyDayHasZeroAverage(t *testing.T) {
	svc, _ := newTestService(t)

	report, err := svc.DailyReport(context.Background(), time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("daily report failed: %v", err)
	}
	if report.TransactionCount != 0 || report.TotalRevenueCents != 0 || report.AverageBasketCents != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
}

func TestDailyReportIsMemoized(t *testing.T) {
	repo := memory.NewSeeded()
	mgr, err := settings.NewManager(filepath.Join(t.TempDir(), "settings.json"))
	if err != nil {
		t.Fatalf("settings manager: %v", err)
	}
	reportCache := newMapReportCache()
	svc := New(repo, reportCache, mgr, nil, 0, 0)

	day := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return day.Add(time.Hour) }
	sellSardines(t, svc, 1.0)

	first, err := svc.DailyReport(context.Background(), day)
	if err != nil {
		t.Fatalf("daily report failed: %v", err)
	}
	if reportCache.sets != 1 {
		t.Fatalf("expected one cache write, got %d", reportCache.sets)
	}

	// A second sale inside the TTL window is invisible until expiry.
	sellSardines(t, svc, 1.0)
	second, err := svc.DailyReport(context.Background(), day)
	if err != nil {
		t.Fatalf("daily report failed: %v", err)
	}
	if second.TransactionCount != first.TransactionCount {
		t.Fatalf("expected memoized report, got %d transactions", second.TransactionCount)
	}
}

func TestMonthlyReportGroupsByDay(t *testing.T) {
	svc, _ := newTestService(t)

	day1 := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, time.March, 15, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return day1 }
	sellSardines(t, svc, 1.0)
	svc.now = func() time.Time { return day2 }
	sellSardines(t, svc, 2.0)

	report, err := svc.MonthlyReport(context.Background(), 2026, time.March)
	if err != nil {
		t.Fatalf("monthly report failed: %v", err)
	}
	if len(report.Days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(report.Days))
	}
	if report.Days[0].Date != "2026-03-14" || report.Days[1].Date != "2026-03-15" {
		t.Fatalf("days out of order: %+v", report.Days)
	}
}

func TestStockReportListsCatalog(t *testing.T) {
	svc, _ := newTestService(t)

	report, err := svc.StockReport(context.Background())
	if err != nil {
		t.Fatalf("stock report failed: %v", err)
	}
	if len(report.Rows) != 5 {
		t.Fatalf("expected 5 products, got %d", len(report.Rows))
	}
	if report.Rows[0].ProductName > report.Rows[len(report.Rows)-1].ProductName {
		t.Fatalf("expected rows sorted by name")
	}
}

func TestExportInvoiceWritesPDFAndCompletesSale(t *testing.T) {
	svc, repo := newTestService(t)

	reportsDir := filepath.Join(t.TempDir(), "rapports")
	current := svc.settings.Get()
	current.ReportsFolder = reportsDir
	current.BackupFolder = filepath.Join(t.TempDir(), "backup")
	if err := svc.settings.Save(current); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	resp := sellSardines(t, svc, 2.0)

	path, err := svc.ExportInvoice(context.Background(), resp.SaleID)
	if err != nil {
		t.Fatalf("export invoice failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("invoice file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("invoice file is empty")
	}

	sale, err := repo.GetSaleByID(context.Background(), resp.SaleID)
	if err != nil {
		t.Fatalf("reload sale: %v", err)
	}
	if sale.Status != domain.SaleStatusComplete {
		t.Fatalf("expected sale complete after export, got %s", sale.Status)
	}
}

func TestExportDailyReportFilename(t *testing.T) {
	svc, _ := newTestService(t)

	reportsDir := filepath.Join(t.TempDir(), "rapports")
	current := svc.settings.Get()
	current.ReportsFolder = reportsDir
	current.BackupFolder = filepath.Join(t.TempDir(), "backup")
	if err := svc.settings.Save(current); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	day := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
	path, err := svc.ExportDailyReport(context.Background(), day)
	if err != nil {
		t.Fatalf("export daily report failed: %v", err)
	}
	if filepath.Base(path) != "rapport_journalier_2026-03-14.pdf" {
		t.Fatalf("unexpected filename %s", filepath.Base(path))
	}
}
