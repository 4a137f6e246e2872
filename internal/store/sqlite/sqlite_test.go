package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"poissonnerie/backend/internal/domain"
	"poissonnerie/backend/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedProduct(t *testing.T, s *Store, name string, priceCents int64, stock float64) domain.Product {
	t.Helper()
	created, err := s.CreateProduct(context.Background(), domain.Product{
		Name:       name,
		PriceCents: priceCents,
		Stock:      stock,
	})
	require.NoError(t, err)
	return *created
}

func TestMigrateSeedsWalkInCustomer(t *testing.T) {
	s := openTestStore(t)

	customer, err := s.GetCustomerByName(context.Background(), domain.WalkInCustomerName)
	require.NoError(t, err)
	require.NotZero(t, customer.ID)

	// Reopening the same file must not duplicate the sentinel.
	require.NoError(t, s.migrate())
	customers, err := s.ListCustomers(context.Background())
	require.NoError(t, err)
	require.Len(t, customers, 1)
}

func TestProductCRUD(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sardine := seedProduct(t, s, "Sardine", 500, 10)

	_, err := s.CreateProduct(ctx, domain.Product{Name: "Sardine", PriceCents: 700})
	require.ErrorIs(t, err, store.ErrInvalidInput)

	found, err := s.GetProductByName(ctx, "Sardine")
	require.NoError(t, err)
	require.Equal(t, sardine.ID, found.ID)

	found.PriceCents = 550
	updated, err := s.UpdateProduct(ctx, *found)
	require.NoError(t, err)
	require.EqualValues(t, 550, updated.PriceCents)

	// sqlite LIKE is case-insensitive for ASCII
	results, err := s.SearchProducts(ctx, "sard")
	require.NoError(t, err)
	require.Len(t, results, 1)

	require.NoError(t, s.DeleteProduct(ctx, sardine.ID))
	_, err = s.GetProductByName(ctx, "Sardine")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAdjustStockConditional(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sardine := seedProduct(t, s, "Sardine", 500, 10)

	product, err := s.AdjustStock(ctx, sardine.ID, -4)
	require.NoError(t, err)
	require.InDelta(t, 6.0, product.Stock, 1e-9)

	_, err = s.AdjustStock(ctx, sardine.ID, -7)
	require.ErrorIs(t, err, store.ErrInsufficientStock)

	var stockErr *store.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.InDelta(t, 6.0, stockErr.Available, 1e-9)
}

func saleRecord(lines ...domain.SaleLine) store.SaleRecord {
	var subtotal int64
	for _, l := range lines {
		subtotal += int64(l.Quantity*float64(l.PriceCents) + 0.5)
	}
	tax := (subtotal*20 + 50) / 100
	return store.SaleRecord{
		Reference:     "ref-" + time.Now().Format("150405.000000000"),
		CustomerID:    1,
		PaymentMethod: domain.PaymentCash,
		SubtotalCents: subtotal,
		TaxCents:      tax,
		TotalCents:    subtotal + tax,
		Status:        domain.SaleStatusPending,
		CreatedAt:     time.Now().UTC(),
		Lines:         lines,
	}
}

func TestCommitSalePersistsAndDecrements(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sardine := seedProduct(t, s, "Sardine", 500, 10)

	sale, err := s.CommitSale(ctx, saleRecord(domain.SaleLine{
		ProductID:   sardine.ID,
		ProductName: sardine.Name,
		Quantity:    3,
		PriceCents:  500,
	}))
	require.NoError(t, err)
	require.NotZero(t, sale.ID)
	require.Equal(t, domain.SaleStatusPending, sale.Status)

	reloaded, err := s.GetSaleByID(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Lines, 1)
	require.EqualValues(t, 500, reloaded.Lines[0].PriceCents)

	product, err := s.GetProductByName(ctx, "Sardine")
	require.NoError(t, err)
	require.InDelta(t, 7.0, product.Stock, 1e-9)
}

func TestCommitSaleRollsBackOnInsufficientStock(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sardine := seedProduct(t, s, "Sardine", 500, 10)
	dorade := seedProduct(t, s, "Dorade", 1200, 2)

	_, err := s.CommitSale(ctx, saleRecord(
		domain.SaleLine{ProductID: sardine.ID, ProductName: "Sardine", Quantity: 3, PriceCents: 500},
		domain.SaleLine{ProductID: dorade.ID, ProductName: "Dorade", Quantity: 5, PriceCents: 1200},
	))
	require.ErrorIs(t, err, store.ErrInsufficientStock)

	var stockErr *store.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, "Dorade", stockErr.ProductName)
	require.InDelta(t, 2.0, stockErr.Available, 1e-9)

	// The first line's decrement must have been rolled back.
	product, err := s.GetProductByName(ctx, "Sardine")
	require.NoError(t, err)
	require.InDelta(t, 10.0, product.Stock, 1e-9)

	sales, err := s.ListSales(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, sales)
}

func TestCommitSaleRejectsEmptyAndUnknown(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.CommitSale(ctx, saleRecord())
	require.ErrorIs(t, err, store.ErrEmptyCart)

	_, err = s.CommitSale(ctx, saleRecord(domain.SaleLine{
		ProductID: 999, ProductName: "Fantôme", Quantity: 1, PriceCents: 100,
	}))
	require.ErrorIs(t, err, store.ErrUnresolvedReference)
}

func TestMarkSaleComplete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sardine := seedProduct(t, s, "Sardine", 500, 10)
	sale, err := s.CommitSale(ctx, saleRecord(domain.SaleLine{
		ProductID: sardine.ID, ProductName: "Sardine", Quantity: 1, PriceCents: 500,
	}))
	require.NoError(t, err)

	completed, err := s.MarkSaleComplete(ctx, sale.ID)
	require.NoError(t, err)
	require.Equal(t, domain.SaleStatusComplete, completed.Status)

	_, err = s.MarkSaleComplete(ctx, 12345)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDailyAndMonthlyReports(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sardine := seedProduct(t, s, "Sardine", 500, 100)

	day := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	for i, qty := range []float64{2, 3} {
		record := saleRecord(domain.SaleLine{
			ProductID: sardine.ID, ProductName: "Sardine", Quantity: qty, PriceCents: 500,
		})
		record.Reference = record.Reference + "-" + string(rune('a'+i))
		record.CreatedAt = day.Add(time.Duration(i) * time.Hour)
		_, err := s.CommitSale(ctx, record)
		require.NoError(t, err)
	}

	report, err := s.GetDailyReport(ctx, day)
	require.NoError(t, err)
	require.EqualValues(t, 2, report.TransactionCount)
	require.EqualValues(t, 3000, report.TotalRevenueCents)
	require.EqualValues(t, 1500, report.AverageBasketCents)
	require.Len(t, report.PerProduct, 1)
	require.InDelta(t, 5.0, report.PerProduct[0].Quantity, 1e-9)
	require.EqualValues(t, 2500, report.PerProduct[0].RevenueCents)

	monthly, err := s.GetMonthlyReport(ctx, 2026, time.March)
	require.NoError(t, err)
	require.Len(t, monthly.Days, 1)
	require.Equal(t, "2026-03-14", monthly.Days[0].Date)
	require.EqualValues(t, 2, monthly.Days[0].TransactionCount)
}

func TestStockReportIncludesCategory(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	category, err := s.EnsureCategory(ctx, "Poissons")
	require.NoError(t, err)

	created, err := s.CreateProduct(ctx, domain.Product{
		Name: "Sardine", PriceCents: 500, Stock: 10, CategoryID: &category.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, created.CategoryID)

	report, err := s.GetStockReport(ctx)
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	require.Equal(t, "Poissons", report.Rows[0].CategoryName)
}

func TestUserAccounts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, domain.UserAccount{
		Username: "admin", Password: "hash", Role: "admin", Active: true, CreatedAt: time.Now().UTC(),
	}))
	require.ErrorIs(t, s.CreateUser(ctx, domain.UserAccount{Username: "admin"}), store.ErrInvalidInput)

	require.NoError(t, s.UpdateUserPassword(ctx, "admin", "newhash"))
	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "newhash", users[0].Password)

	require.ErrorIs(t, s.UpdateUserPassword(ctx, "ghost", "x"), store.ErrNotFound)
}
