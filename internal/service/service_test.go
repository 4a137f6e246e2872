package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"poissonnerie/backend/internal/cache"
	"poissonnerie/backend/internal/domain"
	"poissonnerie/backend/internal/settings"
	"poissonnerie/backend/internal/store"
	"poissonnerie/backend/internal/store/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	repo := memory.NewSeeded()
	mgr, err := settings.NewManager(filepath.Join(t.TempDir(), "settings.json"))
	if err != nil {
		t.Fatalf("settings manager: %v", err)
	}
	svc := New(repo, cache.NoopReportCache{}, mgr, nil, 0, 0)
	return svc, repo
}

func TestCheckoutComputesTotalsAndDecrementsStock(t *testing.T) {
	svc, repo := newTestService(t)

	resp, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		PaymentMethod: "cash",
		Lines: []domain.CartLine{
			{ProductName: "Sardine", Quantity: 3.0},
		},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if resp.SubtotalCents != 1500 {
		t.Fatalf("expected subtotal 1500, got %d", resp.SubtotalCents)
	}
	if resp.TaxCents != 300 {
		t.Fatalf("expected tax 300, got %d", resp.TaxCents)
	}
	if resp.TotalCents != 1800 {
		t.Fatalf("expected total 1800, got %d", resp.TotalCents)
	}
	if resp.Status != domain.SaleStatusPending {
		t.Fatalf("expected pending status, got %s", resp.Status)
	}
	if resp.Reference == "" {
		t.Fatalf("expected a sale reference")
	}

	product, err := repo.GetProductByName(context.Background(), "Sardine")
	if err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if product.Stock != 7.0 {
		t.Fatalf("expected stock 7.0 after sale, got %v", product.Stock)
	}
}

func TestCheckoutInsufficientStockReportsAvailable(t *testing.T) {
	svc, repo := newTestService(t)

	_, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		PaymentMethod: "cash",
		Lines: []domain.CartLine{
			{ProductName: "Sardine", Quantity: 12.0},
		},
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	var stockErr *store.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected typed stock error, got %T", err)
	}
	if stockErr.Available != 10.0 {
		t.Fatalf("expected available 10.0, got %v", stockErr.Available)
	}

	product, err := repo.GetProductByName(context.Background(), "Sardine")
	if err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if product.Stock != 10.0 {
		t.Fatalf("failed checkout must not touch stock, got %v", product.Stock)
	}
}

func TestCheckoutMergesDuplicateLines(t *testing.T) {
	svc, repo := newTestService(t)

	resp, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		PaymentMethod: "cash",
		Lines: []domain.CartLine{
			{ProductName: "Sardine", Quantity: 1.0},
			{ProductName: "Sardine", Quantity: 2.0},
		},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if resp.SubtotalCents != 1500 {
		t.Fatalf("expected subtotal 1500, got %d", resp.SubtotalCents)
	}

	product, _ := repo.GetProductByName(context.Background(), "Sardine")
	if product.Stock != 7.0 {
		t.Fatalf("expected net decrement of 3.0, stock %v", product.Stock)
	}

	sale, err := repo.GetSaleByID(context.Background(), resp.SaleID)
	if err != nil {
		t.Fatalf("reload sale: %v", err)
	}
	if len(sale.Lines) != 1 {
		t.Fatalf("expected merged single line, got %d", len(sale.Lines))
	}
	if sale.Lines[0].Quantity != 3.0 {
		t.Fatalf("expected merged quantity 3.0, got %v", sale.Lines[0].Quantity)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		PaymentMethod: "cash",
	})
	if !errors.Is(err, store.ErrEmptyCart) {
		t.Fatalf("expected empty cart error, got %v", err)
	}
}

func TestCheckoutRejectsBadQuantities(t *testing.T) {
	svc, _ := newTestService(t)

	for _, qty := range []float64{0, -1.5} {
		_, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
			PaymentMethod: "cash",
			Lines: []domain.CartLine{
				{ProductName: "Sardine", Quantity: qty},
			},
		})
		if !errors.Is(err, store.ErrInvalidQuantity) {
			t.Fatalf("quantity %v: expected invalid quantity, got %v", qty, err)
		}
	}
}

func TestCheckoutUnknownProduct(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		PaymentMethod: "cash",
		Lines: []domain.CartLine{
			{ProductName: "Espadon", Quantity: 1.0},
		},
	})
	if !errors.Is(err, store.ErrUnresolvedReference) {
		t.Fatalf("expected unresolved reference, got %v", err)
	}
}

func TestCheckoutUnknownCustomer(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		CustomerName:  "Inconnu",
		PaymentMethod: "credit",
		Lines: []domain.CartLine{
			{ProductName: "Sardine", Quantity: 1.0},
		},
	})
	if !errors.Is(err, store.ErrUnresolvedReference) {
		t.Fatalf("expected unresolved reference, got %v", err)
	}
}

func TestCheckoutCashFallsBackToWalkInCustomer(t *testing.T) {
	svc, repo := newTestService(t)

	resp, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		PaymentMethod: "cash",
		Lines: []domain.CartLine{
			{ProductName: "Dorade", Quantity: 0.5},
		},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	sale, err := repo.GetSaleByID(context.Background(), resp.SaleID)
	if err != nil {
		t.Fatalf("reload sale: %v", err)
	}
	walkIn, err := repo.GetCustomerByName(context.Background(), domain.WalkInCustomerName)
	if err != nil {
		t.Fatalf("walk-in customer missing: %v", err)
	}
	if sale.CustomerID != walkIn.ID {
		t.Fatalf("expected walk-in customer %d, got %d", walkIn.ID, sale.CustomerID)
	}
}

func TestCheckoutNonCashRequiresCustomer(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		PaymentMethod: "credit",
		Lines: []domain.CartLine{
			{ProductName: "Sardine", Quantity: 1.0},
		},
	})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestCheckoutPercentageDiscount(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		PaymentMethod: "cash",
		Discount:      domain.Discount{Type: domain.DiscountPercentage, Value: 10},
		Lines: []domain.CartLine{
			{ProductName: "Sardine", Quantity: 2.0},
		},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if resp.SubtotalCents != 1000 {
		t.Fatalf("expected subtotal 1000, got %d", resp.SubtotalCents)
	}
	if resp.DiscountCents != 100 {
		t.Fatalf("expected discount 100, got %d", resp.DiscountCents)
	}
	// tax applies to the discounted base
	if resp.TaxCents != 180 {
		t.Fatalf("expected tax 180, got %d", resp.TaxCents)
	}
	if resp.TotalCents != 1080 {
		t.Fatalf("expected total 1080, got %d", resp.TotalCents)
	}
}

func TestCheckoutFixedDiscountClampedToSubtotal(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		PaymentMethod: "cash",
		Discount:      domain.Discount{Type: domain.DiscountFixed, Value: 99},
		Lines: []domain.CartLine{
			{ProductName: "Sardine", Quantity: 1.0},
		},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if resp.DiscountCents != resp.SubtotalCents {
		t.Fatalf("expected discount clamped to subtotal %d, got %d", resp.SubtotalCents, resp.DiscountCents)
	}
	if resp.TotalCents != 0 {
		t.Fatalf("expected total 0 when fully discounted, got %d", resp.TotalCents)
	}
}

func TestCheckoutRejectsNegativeDiscount(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		PaymentMethod: "cash",
		Discount:      domain.Discount{Type: domain.DiscountFixed, Value: -5},
		Lines: []domain.CartLine{
			{ProductName: "Sardine", Quantity: 1.0},
		},
	})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestCheckoutRejectsUnknownPaymentMethod(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		PaymentMethod: "cheque",
		Lines: []domain.CartLine{
			{ProductName: "Sardine", Quantity: 1.0},
		},
	})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestCheckoutPriceSnapshotSurvivesReprice(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := WithActor(context.Background(), domain.Actor{Username: "admin", Role: "admin"})

	resp, err := svc.Checkout(ctx, domain.CheckoutRequest{
		PaymentMethod: "cash",
		Lines: []domain.CartLine{
			{ProductName: "Sardine", Quantity: 2.0},
		},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	newPrice := int64(999)
	if _, err := svc.UpdateProduct(ctx, "Sardine", domain.ProductUpdateRequest{PriceCents: &newPrice}); err != nil {
		t.Fatalf("reprice failed: %v", err)
	}

	sale, err := repo.GetSaleByID(context.Background(), resp.SaleID)
	if err != nil {
		t.Fatalf("reload sale: %v", err)
	}
	if sale.Lines[0].PriceCents != 500 {
		t.Fatalf("expected snapshotted price 500, got %d", sale.Lines[0].PriceCents)
	}
}

func TestCatalogAdminGate(t *testing.T) {
	svc, _ := newTestService(t)
	cashierCtx := WithActor(context.Background(), domain.Actor{Username: "kasim", Role: "cashier"})

	_, err := svc.CreateProduct(cashierCtx, domain.ProductCreateRequest{
		Name: "Thon", PriceCents: 2200, InitialStock: 3,
	})
	if err == nil {
		t.Fatalf("expected cashier product create to be rejected")
	}
}

func TestAdjustStockRejectsOverdraw(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := WithActor(context.Background(), domain.Actor{Username: "admin", Role: "admin"})

	_, err := svc.AdjustStock(ctx, "Sardine", -25)
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	product, err := svc.AdjustStock(ctx, "Sardine", 5)
	if err != nil {
		t.Fatalf("restock failed: %v", err)
	}
	if product.Stock != 15.0 {
		t.Fatalf("expected stock 15.0, got %v", product.Stock)
	}
}

func TestCheckoutTimestampUsesClock(t *testing.T) {
	svc, repo := newTestService(t)
	fixed := time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	resp, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		PaymentMethod: "cash",
		Lines: []domain.CartLine{
			{ProductName: "Merlan", Quantity: 1.0},
		},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	sale, _ := repo.GetSaleByID(context.Background(), resp.SaleID)
	if !sale.CreatedAt.Equal(fixed) {
		t.Fatalf("expected createdAt %v, got %v", fixed, sale.CreatedAt)
	}
}
