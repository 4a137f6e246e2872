package domain

import "time"

// Money is carried as integer cents. Quantities are kilograms and may be
// fractional; fish is sold by weight.

type Product struct {
	ID         int64   `json:"id" db:"id"`
	Name       string  `json:"name" db:"name"`
	PriceCents int64   `json:"price_cents" db:"price_cents"`
	Stock      float64 `json:"stock" db:"stock"`
	CategoryID *int64  `json:"category_id,omitempty" db:"category_id"`
}

type ProductCreateRequest struct {
	Name         string  `json:"name"`
	PriceCents   int64   `json:"price_cents"`
	InitialStock float64 `json:"initial_stock"`
	CategoryName string  `json:"category_name,omitempty"`
}

type ProductUpdateRequest struct {
	Name         *string  `json:"name,omitempty"`
	PriceCents   *int64   `json:"price_cents,omitempty"`
	Stock        *float64 `json:"stock,omitempty"`
	CategoryName *string  `json:"category_name,omitempty"`
}

type Category struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type Customer struct {
	ID      int64  `json:"id" db:"id"`
	Name    string `json:"name" db:"name"`
	Phone   string `json:"phone" db:"phone"`
	Address string `json:"address" db:"address"`
}

type Supplier struct {
	ID      int64  `json:"id" db:"id"`
	Name    string `json:"name" db:"name"`
	Phone   string `json:"phone" db:"phone"`
	Address string `json:"address" db:"address"`
}

type ContactRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

const (
	PaymentCash   = "cash"
	PaymentCredit = "credit"
	PaymentMobile = "mobile"
)

const (
	SaleStatusPending  = "pending"
	SaleStatusComplete = "complete"
)

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// WalkInCustomerName identifies the sentinel customer that cash sales fall
// back to when no customer is named. The store seeds it at bootstrap and
// re-creates it on demand if it was deleted.
const WalkInCustomerName = "Client de passage"

type Sale struct {
	ID            int64      `json:"id" db:"id"`
	Reference     string     `json:"reference" db:"reference"`
	CustomerID    int64      `json:"customer_id" db:"customer_id"`
	PaymentMethod string     `json:"payment_method" db:"payment_method"`
	SubtotalCents int64      `json:"subtotal_cents" db:"subtotal_cents"`
	DiscountCents int64      `json:"discount_cents" db:"discount_cents"`
	TaxCents      int64      `json:"tax_cents" db:"tax_cents"`
	TotalCents    int64      `json:"total_cents" db:"total_cents"`
	Status        string     `json:"status" db:"status"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	Lines         []SaleLine `json:"lines"`
}

// SaleLine snapshots quantity and unit price at sale time. The captured price
// never changes, even when the product is repriced later.
type SaleLine struct {
	ID          int64   `json:"id" db:"id"`
	SaleID      int64   `json:"sale_id" db:"sale_id"`
	ProductID   int64   `json:"product_id" db:"product_id"`
	ProductName string  `json:"product_name" db:"product_name"`
	Quantity    float64 `json:"quantity" db:"quantity"`
	PriceCents  int64   `json:"price_cents" db:"price_cents"`
}

type CartLine struct {
	ProductName string  `json:"product_name"`
	Quantity    float64 `json:"quantity"`
}

// Discount applies before tax. Type is "percentage" (Value percent of the
// subtotal) or "fixed" (Value in whole currency units).
type Discount struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

type CheckoutRequest struct {
	CustomerName  string     `json:"customer_name,omitempty"`
	PaymentMethod string     `json:"payment_method"`
	Discount      Discount   `json:"discount"`
	Lines         []CartLine `json:"lines"`
}

type CheckoutResponse struct {
	SaleID        int64  `json:"sale_id"`
	Reference     string `json:"reference"`
	SubtotalCents int64  `json:"subtotal_cents"`
	DiscountCents int64  `json:"discount_cents"`
	TaxCents      int64  `json:"tax_cents"`
	TotalCents    int64  `json:"total_cents"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
}

// SaleSummary is the list-view projection used by the sales and invoices
// screens.
type SaleSummary struct {
	ID           int64     `json:"id" db:"id"`
	Reference    string    `json:"reference" db:"reference"`
	CustomerName string    `json:"customer_name" db:"customer_name"`
	TotalCents   int64     `json:"total_cents" db:"total_cents"`
	Status       string    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type ProductSales struct {
	ProductName  string  `json:"product_name" db:"product_name"`
	Quantity     float64 `json:"quantity" db:"quantity"`
	RevenueCents int64   `json:"revenue_cents" db:"revenue_cents"`
}

type DailyReport struct {
	Date               string         `json:"date"`
	PerProduct         []ProductSales `json:"per_product"`
	TransactionCount   int64          `json:"transaction_count"`
	TotalRevenueCents  int64          `json:"total_revenue_cents"`
	AverageBasketCents int64          `json:"average_basket_cents"`
}

type DailySummary struct {
	Date             string `json:"date" db:"date"`
	TransactionCount int64  `json:"transaction_count" db:"transaction_count"`
	TotalCents       int64  `json:"total_cents" db:"total_cents"`
}

type MonthlyReport struct {
	Year  int            `json:"year"`
	Month int            `json:"month"`
	Days  []DailySummary `json:"days"`
}

type StockReportRow struct {
	ProductName  string  `json:"product_name" db:"product_name"`
	CategoryName string  `json:"category_name" db:"category_name"`
	Stock        float64 `json:"stock" db:"stock"`
	PriceCents   int64   `json:"price_cents" db:"price_cents"`
}

type StockReport struct {
	GeneratedAt string           `json:"generated_at"`
	Rows        []StockReportRow `json:"rows"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type UserCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserInfo struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type UserAccount struct {
	Username  string    `db:"username"`
	Password  string    `db:"password"`
	Role      string    `db:"role"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
}
