package document

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"poissonnerie/backend/internal/domain"
)

var testInfo = CompanyInfo{
	Name:    "AL FOURQANE",
	Address: "12 quai du Port",
	Phone:   "0499 00 11 22",
}

func TestInvoiceRendersToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), InvoiceFilename(7))
	require.Equal(t, "facture_7.pdf", filepath.Base(path))

	sale := domain.Sale{
		ID:            7,
		Reference:     "abc-123",
		PaymentMethod: domain.PaymentCash,
		SubtotalCents: 1500,
		DiscountCents: 100,
		TaxCents:      280,
		TotalCents:    1680,
		Status:        domain.SaleStatusPending,
		CreatedAt:     time.Date(2026, time.March, 14, 10, 30, 0, 0, time.UTC),
		Lines: []domain.SaleLine{
			{ProductName: "Sardine", Quantity: 3, PriceCents: 500},
		},
	}
	customer := domain.Customer{Name: "Restaurant La Marée"}

	require.NoError(t, Renderer{}.Invoice(sale, customer, testInfo, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestReportFilenames(t *testing.T) {
	require.Equal(t, "rapport_journalier_2026-03-14.pdf", DailyReportFilename("2026-03-14"))
	require.Equal(t, "rapport_mensuel_2026_03.pdf", MonthlyReportFilename(2026, 3))
	at := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "rapport_stock_20260314.pdf", StockReportFilename(at))
}

func TestReportsRenderToFile(t *testing.T) {
	dir := t.TempDir()

	daily := domain.DailyReport{
		Date:               "2026-03-14",
		PerProduct:         []domain.ProductSales{{ProductName: "Sardine", Quantity: 5, RevenueCents: 2500}},
		TransactionCount:   2,
		TotalRevenueCents:  3000,
		AverageBasketCents: 1500,
	}
	dailyPath := filepath.Join(dir, DailyReportFilename(daily.Date))
	require.NoError(t, Renderer{}.DailyReport(daily, testInfo, dailyPath))
	require.FileExists(t, dailyPath)

	monthly := domain.MonthlyReport{
		Year: 2026, Month: 3,
		Days: []domain.DailySummary{{Date: "2026-03-14", TransactionCount: 2, TotalCents: 3000}},
	}
	monthlyPath := filepath.Join(dir, MonthlyReportFilename(monthly.Year, monthly.Month))
	require.NoError(t, Renderer{}.MonthlyReport(monthly, testInfo, monthlyPath))
	require.FileExists(t, monthlyPath)

	stock := domain.StockReport{
		GeneratedAt: "2026-03-14T00:00:00Z",
		Rows:        []domain.StockReportRow{{ProductName: "Sardine", CategoryName: "Poissons", Stock: 7, PriceCents: 500}},
	}
	stockPath := filepath.Join(dir, StockReportFilename(time.Now()))
	require.NoError(t, Renderer{}.StockReport(stock, testInfo, stockPath))
	require.FileExists(t, stockPath)
}
