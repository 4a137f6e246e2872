package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"poissonnerie/backend/internal/domain"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrEmptyCart           = errors.New("empty cart")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrUnresolvedReference = errors.New("unresolved reference")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInvalidInput        = errors.New("invalid input")
	ErrPersistence         = errors.New("persistence failure")
)

// InsufficientStockError reports how much stock was actually available when a
// checkout asked for more. It matches ErrInsufficientStock under errors.Is.
type InsufficientStockError struct {
	ProductName string
	Requested   float64
	Available   float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %.3f, available %.3f", e.ProductName, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// SaleRecord is what the engine hands the store for an atomic commit. Totals
// are already computed and validated; the store persists them verbatim and
// decrements stock, all-or-nothing.
type SaleRecord struct {
	Reference     string
	CustomerID    int64
	PaymentMethod string
	SubtotalCents int64
	DiscountCents int64
	TaxCents      int64
	TotalCents    int64
	Status        string
	CreatedAt     time.Time
	Lines         []domain.SaleLine
}

type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ListAvailableProducts(ctx context.Context) ([]domain.Product, error)
	SearchProducts(ctx context.Context, query string) ([]domain.Product, error)
	GetProductByName(ctx context.Context, name string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	AdjustStock(ctx context.Context, id int64, delta float64) (*domain.Product, error)

	ListCategories(ctx context.Context) ([]domain.Category, error)
	EnsureCategory(ctx context.Context, name string) (*domain.Category, error)
	UpdateCategory(ctx context.Context, category domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	SearchCustomers(ctx context.Context, query string) ([]domain.Customer, error)
	GetCustomerByName(ctx context.Context, name string) (*domain.Customer, error)
	GetCustomerByID(ctx context.Context, id int64) (*domain.Customer, error)
	CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error
	EnsureWalkInCustomer(ctx context.Context) (*domain.Customer, error)

	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)
	CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	UpdateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	DeleteSupplier(ctx context.Context, id int64) error

	CommitSale(ctx context.Context, record SaleRecord) (*domain.Sale, error)
	GetSaleByID(ctx context.Context, id int64) (*domain.Sale, error)
	ListSales(ctx context.Context, limit int) ([]domain.SaleSummary, error)
	MarkSaleComplete(ctx context.Context, id int64) (*domain.Sale, error)

	GetDailyReport(ctx context.Context, day time.Time) (domain.DailyReport, error)
	GetMonthlyReport(ctx context.Context, year int, month time.Month) (domain.MonthlyReport, error)
	GetStockReport(ctx context.Context) (domain.StockReport, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
