package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"poissonnerie/backend/internal/domain"
	"poissonnerie/backend/internal/store"
)

// Store is the embedded single-file repository. One process owns the file;
// SQLite serializes writers, and stock decrements are conditional updates so
// a sale can never drive stock negative even under concurrent commits.
type Store struct {
	db *sqlx.DB
}

func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite database")
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
CREATE TABLE IF NOT EXISTS categories (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS products (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL UNIQUE,
	price_cents INTEGER NOT NULL DEFAULT 0,
	stock       REAL NOT NULL DEFAULT 0,
	category_id INTEGER REFERENCES categories(id) ON DELETE SET NULL
);
CREATE TABLE IF NOT EXISTS customers (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	name    TEXT NOT NULL UNIQUE,
	phone   TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS suppliers (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	name    TEXT NOT NULL,
	phone   TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS sales (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	reference      TEXT NOT NULL UNIQUE,
	customer_id    INTEGER NOT NULL REFERENCES customers(id),
	payment_method TEXT NOT NULL,
	subtotal_cents INTEGER NOT NULL,
	discount_cents INTEGER NOT NULL,
	tax_cents      INTEGER NOT NULL,
	total_cents    INTEGER NOT NULL,
	status         TEXT NOT NULL,
	created_at     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS sale_items (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	sale_id     INTEGER NOT NULL REFERENCES sales(id) ON DELETE CASCADE,
	product_id  INTEGER NOT NULL REFERENCES products(id),
	quantity    REAL NOT NULL,
	price_cents INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS users (
	username   TEXT PRIMARY KEY,
	password   TEXT NOT NULL,
	role       TEXT NOT NULL DEFAULT 'cashier',
	active     INTEGER NOT NULL DEFAULT 1,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sales_created_at ON sales(created_at);
CREATE INDEX IF NOT EXISTS idx_sale_items_sale ON sale_items(sale_id);
`
	if _, err := s.db.Exec(schema); err != nil {
		return errors.Wrap(err, "apply schema")
	}
	if _, err := s.db.Exec(
		`INSERT INTO customers (name, phone, address) VALUES (?, '', '') ON CONFLICT(name) DO NOTHING`,
		domain.WalkInCustomerName,
	); err != nil {
		return errors.Wrap(err, "seed walk-in customer")
	}
	return nil
}

func timeToDB(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func timeFromDB(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Products

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products := []domain.Product{}
	err := s.db.SelectContext(ctx, &products,
		`SELECT id, name, price_cents, stock, category_id FROM products ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return products, nil
}

func (s *Store) ListAvailableProducts(ctx context.Context) ([]domain.Product, error) {
	products := []domain.Product{}
	err := s.db.SelectContext(ctx, &products,
		`SELECT id, name, price_cents, stock, category_id FROM products WHERE stock > 0 ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "list available products")
	}
	return products, nil
}

func (s *Store) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	products := []domain.Product{}
	pattern := "%" + strings.TrimSpace(query) + "%"
	err := s.db.SelectContext(ctx, &products,
		`SELECT id, name, price_cents, stock, category_id FROM products WHERE name LIKE ? ORDER BY name`, pattern)
	if err != nil {
		return nil, errors.Wrap(err, "search products")
	}
	return products, nil
}

func (s *Store) GetProductByName(ctx context.Context, name string) (*domain.Product, error) {
	var product domain.Product
	err := s.db.GetContext(ctx, &product,
		`SELECT id, name, price_cents, stock, category_id FROM products WHERE name = ?`, name)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get product")
	}
	return &product, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO products (name, price_cents, stock, category_id) VALUES (?, ?, ?, ?)`,
		product.Name, product.PriceCents, product.Stock, product.CategoryID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, errors.Wrap(err, "create product")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "create product id")
	}
	product.ID = id
	return &product, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE products SET name = ?, price_cents = ?, stock = ?, category_id = ? WHERE id = ?`,
		product.Name, product.PriceCents, product.Stock, product.CategoryID, product.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, errors.Wrap(err, "update product")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, store.ErrNotFound
	}
	return &product, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete product")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// AdjustStock applies a signed delta. Negative deltas are conditional: the
// row only changes when enough stock remains, so stock cannot go below zero.
func (s *Store) AdjustStock(ctx context.Context, id int64, delta float64) (*domain.Product, error) {
	var res sql.Result
	var err error
	if delta < 0 {
		res, err = s.db.ExecContext(ctx,
			`UPDATE products SET stock = stock + ? WHERE id = ? AND stock >= ?`, delta, id, -delta)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE products SET stock = stock + ? WHERE id = ?`, delta, id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "adjust stock")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var product domain.Product
		getErr := s.db.GetContext(ctx, &product,
			`SELECT id, name, price_cents, stock, category_id FROM products WHERE id = ?`, id)
		if getErr == sql.ErrNoRows {
			return nil, store.ErrNotFound
		}
		if getErr != nil {
			return nil, errors.Wrap(getErr, "adjust stock recheck")
		}
		return nil, &store.InsufficientStockError{
			ProductName: product.Name,
			Requested:   -delta,
			Available:   product.Stock,
		}
	}
	var product domain.Product
	if err := s.db.GetContext(ctx, &product,
		`SELECT id, name, price_cents, stock, category_id FROM products WHERE id = ?`, id); err != nil {
		return nil, errors.Wrap(err, "adjust stock reload")
	}
	return &product, nil
}

// Categories

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories := []domain.Category{}
	err := s.db.SelectContext(ctx, &categories, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return categories, nil
}

func (s *Store) EnsureCategory(ctx context.Context, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, store.ErrInvalidInput
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
		return nil, errors.Wrap(err, "ensure category")
	}
	var category domain.Category
	if err := s.db.GetContext(ctx, &category, `SELECT id, name FROM categories WHERE name = ?`, name); err != nil {
		return nil, errors.Wrap(err, "ensure category reload")
	}
	return &category, nil
}

func (s *Store) UpdateCategory(ctx context.Context, category domain.Category) (*domain.Category, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE categories SET name = ? WHERE id = ?`, category.Name, category.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, errors.Wrap(err, "update category")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, store.ErrNotFound
	}
	return &category, nil
}

func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete category")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Customers

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	customers := []domain.Customer{}
	err := s.db.SelectContext(ctx, &customers,
		`SELECT id, name, phone, address FROM customers ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "list customers")
	}
	return customers, nil
}

func (s *Store) SearchCustomers(ctx context.Context, query string) ([]domain.Customer, error) {
	customers := []domain.Customer{}
	pattern := "%" + strings.TrimSpace(query) + "%"
	err := s.db.SelectContext(ctx, &customers,
		`SELECT id, name, phone, address FROM customers WHERE name LIKE ? OR phone LIKE ? ORDER BY name`,
		pattern, pattern)
	if err != nil {
		return nil, errors.Wrap(err, "search customers")
	}
	return customers, nil
}

func (s *Store) GetCustomerByName(ctx context.Context, name string) (*domain.Customer, error) {
	var customer domain.Customer
	err := s.db.GetContext(ctx, &customer,
		`SELECT id, name, phone, address FROM customers WHERE name = ?`, name)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get customer")
	}
	return &customer, nil
}

func (s *Store) GetCustomerByID(ctx context.Context, id int64) (*domain.Customer, error) {
	var customer domain.Customer
	err := s.db.GetContext(ctx, &customer,
		`SELECT id, name, phone, address FROM customers WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get customer")
	}
	return &customer, nil
}

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO customers (name, phone, address) VALUES (?, ?, ?)`,
		customer.Name, customer.Phone, customer.Address)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, errors.Wrap(err, "create customer")
	}
	id, _ := res.LastInsertId()
	customer.ID = id
	return &customer, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE customers SET name = ?, phone = ?, address = ? WHERE id = ?`,
		customer.Name, customer.Phone, customer.Address, customer.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, errors.Wrap(err, "update customer")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, store.ErrNotFound
	}
	return &customer, nil
}

func (s *Store) DeleteCustomer(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete customer")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) EnsureWalkInCustomer(ctx context.Context) (*domain.Customer, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO customers (name, phone, address) VALUES (?, '', '') ON CONFLICT(name) DO NOTHING`,
		domain.WalkInCustomerName); err != nil {
		return nil, errors.Wrap(err, "ensure walk-in customer")
	}
	return s.GetCustomerByName(ctx, domain.WalkInCustomerName)
}

// Suppliers

func (s *Store) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	suppliers := []domain.Supplier{}
	err := s.db.SelectContext(ctx, &suppliers,
		`SELECT id, name, phone, address FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "list suppliers")
	}
	return suppliers, nil
}

func (s *Store) CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO suppliers (name, phone, address) VALUES (?, ?, ?)`,
		supplier.Name, supplier.Phone, supplier.Address)
	if err != nil {
		return nil, errors.Wrap(err, "create supplier")
	}
	id, _ := res.LastInsertId()
	supplier.ID = id
	return &supplier, nil
}

func (s *Store) UpdateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE suppliers SET name = ?, phone = ?, address = ? WHERE id = ?`,
		supplier.Name, supplier.Phone, supplier.Address, supplier.ID)
	if err != nil {
		return nil, errors.Wrap(err, "update supplier")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, store.ErrNotFound
	}
	return &supplier, nil
}

func (s *Store) DeleteSupplier(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete supplier")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Sales

// CommitSale persists the sale header, its lines and the stock decrements in
// one transaction. Any failure rolls everything back; a stock row that no
// longer covers its line aborts the commit with InsufficientStockError.
func (s *Store) CommitSale(ctx context.Context, record store.SaleRecord) (*domain.Sale, error) {
	if len(record.Lines) == 0 {
		return nil, store.ErrEmptyCart
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin sale transaction")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO sales (reference, customer_id, payment_method, subtotal_cents, discount_cents, tax_cents, total_cents, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.Reference, record.CustomerID, record.PaymentMethod,
		record.SubtotalCents, record.DiscountCents, record.TaxCents, record.TotalCents,
		record.Status, timeToDB(record.CreatedAt))
	if err != nil {
		return nil, errors.Wrap(err, "insert sale")
	}
	saleID, err := res.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "sale id")
	}

	lines := make([]domain.SaleLine, 0, len(record.Lines))
	for _, line := range record.Lines {
		upd, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - ? WHERE id = ? AND stock >= ?`,
			line.Quantity, line.ProductID, line.Quantity)
		if err != nil {
			return nil, errors.Wrap(err, "decrement stock")
		}
		if n, _ := upd.RowsAffected(); n == 0 {
			var available float64
			getErr := tx.GetContext(ctx, &available, `SELECT stock FROM products WHERE id = ?`, line.ProductID)
			if getErr == sql.ErrNoRows {
				return nil, store.ErrUnresolvedReference
			}
			if getErr != nil {
				return nil, errors.Wrap(getErr, "stock recheck")
			}
			return nil, &store.InsufficientStockError{
				ProductName: line.ProductName,
				Requested:   line.Quantity,
				Available:   available,
			}
		}

		ins, err := tx.ExecContext(ctx,
			`INSERT INTO sale_items (sale_id, product_id, quantity, price_cents) VALUES (?, ?, ?, ?)`,
			saleID, line.ProductID, line.Quantity, line.PriceCents)
		if err != nil {
			return nil, errors.Wrap(err, "insert sale line")
		}
		lineID, _ := ins.LastInsertId()
		line.ID = lineID
		line.SaleID = saleID
		lines = append(lines, line)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit sale")
	}

	return &domain.Sale{
		ID:            saleID,
		Reference:     record.Reference,
		CustomerID:    record.CustomerID,
		PaymentMethod: record.PaymentMethod,
		SubtotalCents: record.SubtotalCents,
		DiscountCents: record.DiscountCents,
		TaxCents:      record.TaxCents,
		TotalCents:    record.TotalCents,
		Status:        record.Status,
		CreatedAt:     record.CreatedAt.UTC(),
		Lines:         lines,
	}, nil
}

type saleRow struct {
	ID            int64  `db:"id"`
	Reference     string `db:"reference"`
	CustomerID    int64  `db:"customer_id"`
	PaymentMethod string `db:"payment_method"`
	SubtotalCents int64  `db:"subtotal_cents"`
	DiscountCents int64  `db:"discount_cents"`
	TaxCents      int64  `db:"tax_cents"`
	TotalCents    int64  `db:"total_cents"`
	Status        string `db:"status"`
	CreatedAt     string `db:"created_at"`
}

func (r saleRow) toSale() domain.Sale {
	return domain.Sale{
		ID:            r.ID,
		Reference:     r.Reference,
		CustomerID:    r.CustomerID,
		PaymentMethod: r.PaymentMethod,
		SubtotalCents: r.SubtotalCents,
		DiscountCents: r.DiscountCents,
		TaxCents:      r.TaxCents,
		TotalCents:    r.TotalCents,
		Status:        r.Status,
		CreatedAt:     timeFromDB(r.CreatedAt),
	}
}

func (s *Store) GetSaleByID(ctx context.Context, id int64) (*domain.Sale, error) {
	var row saleRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, reference, customer_id, payment_method, subtotal_cents, discount_cents, tax_cents, total_cents, status, created_at
		 FROM sales WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get sale")
	}

	lines := []domain.SaleLine{}
	err = s.db.SelectContext(ctx, &lines,
		`SELECT si.id, si.sale_id, si.product_id, p.name AS product_name, si.quantity, si.price_cents
		 FROM sale_items si JOIN products p ON p.id = si.product_id
		 WHERE si.sale_id = ? ORDER BY si.id`, id)
	if err != nil {
		return nil, errors.Wrap(err, "get sale lines")
	}

	sale := row.toSale()
	sale.Lines = lines
	return &sale, nil
}

type saleSummaryRow struct {
	ID           int64  `db:"id"`
	Reference    string `db:"reference"`
	CustomerName string `db:"customer_name"`
	TotalCents   int64  `db:"total_cents"`
	Status       string `db:"status"`
	CreatedAt    string `db:"created_at"`
}

func (s *Store) ListSales(ctx context.Context, limit int) ([]domain.SaleSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	rows := []saleSummaryRow{}
	err := s.db.SelectContext(ctx, &rows,
		`SELECT s.id, s.reference, c.name AS customer_name, s.total_cents, s.status, s.created_at
		 FROM sales s JOIN customers c ON c.id = s.customer_id
		 ORDER BY s.created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list sales")
	}
	summaries := make([]domain.SaleSummary, 0, len(rows))
	for _, r := range rows {
		summaries = append(summaries, domain.SaleSummary{
			ID:           r.ID,
			Reference:    r.Reference,
			CustomerName: r.CustomerName,
			TotalCents:   r.TotalCents,
			Status:       r.Status,
			CreatedAt:    timeFromDB(r.CreatedAt),
		})
	}
	return summaries, nil
}

func (s *Store) MarkSaleComplete(ctx context.Context, id int64) (*domain.Sale, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sales SET status = ? WHERE id = ?`, domain.SaleStatusComplete, id)
	if err != nil {
		return nil, errors.Wrap(err, "mark sale complete")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetSaleByID(ctx, id)
}

// Reports

func dayBounds(day time.Time) (string, string) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return timeToDB(start), timeToDB(start.AddDate(0, 0, 1))
}

func (s *Store) GetDailyReport(ctx context.Context, day time.Time) (domain.DailyReport, error) {
	from, to := dayBounds(day)

	perProduct := []domain.ProductSales{}
	err := s.db.SelectContext(ctx, &perProduct,
		`SELECT p.name AS product_name,
		        SUM(si.quantity) AS quantity,
		        CAST(SUM(ROUND(si.quantity * si.price_cents)) AS INTEGER) AS revenue_cents
		 FROM sale_items si
		 JOIN sales s ON s.id = si.sale_id
		 JOIN products p ON p.id = si.product_id
		 WHERE s.created_at >= ? AND s.created_at < ?
		 GROUP BY p.name ORDER BY revenue_cents DESC`, from, to)
	if err != nil {
		return domain.DailyReport{}, errors.Wrap(err, "daily report products")
	}

	var totals struct {
		Count int64 `db:"count"`
		Total int64 `db:"total"`
	}
	err = s.db.GetContext(ctx, &totals,
		`SELECT COUNT(*) AS count, COALESCE(SUM(total_cents), 0) AS total
		 FROM sales WHERE created_at >= ? AND created_at < ?`, from, to)
	if err != nil {
		return domain.DailyReport{}, errors.Wrap(err, "daily report totals")
	}

	report := domain.DailyReport{
		Date:              day.Format("2006-01-02"),
		PerProduct:        perProduct,
		TransactionCount:  totals.Count,
		TotalRevenueCents: totals.Total,
	}
	if totals.Count > 0 {
		report.AverageBasketCents = totals.Total / totals.Count
	}
	return report, nil
}

func (s *Store) GetMonthlyReport(ctx context.Context, year int, month time.Month) (domain.MonthlyReport, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	from := timeToDB(start)
	to := timeToDB(start.AddDate(0, 1, 0))

	days := []domain.DailySummary{}
	err := s.db.SelectContext(ctx, &days,
		`SELECT substr(created_at, 1, 10) AS date,
		        COUNT(*) AS transaction_count,
		        COALESCE(SUM(total_cents), 0) AS total_cents
		 FROM sales WHERE created_at >= ? AND created_at < ?
		 GROUP BY date ORDER BY date`, from, to)
	if err != nil {
		return domain.MonthlyReport{}, errors.Wrap(err, "monthly report")
	}
	return domain.MonthlyReport{Year: year, Month: int(month), Days: days}, nil
}

func (s *Store) GetStockReport(ctx context.Context) (domain.StockReport, error) {
	rows := []domain.StockReportRow{}
	err := s.db.SelectContext(ctx, &rows,
		`SELECT p.name AS product_name,
		        COALESCE(c.name, '') AS category_name,
		        p.stock, p.price_cents
		 FROM products p LEFT JOIN categories c ON c.id = p.category_id
		 ORDER BY p.name`)
	if err != nil {
		return domain.StockReport{}, errors.Wrap(err, "stock report")
	}
	return domain.StockReport{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Rows:        rows,
	}, nil
}

// Users

type userRow struct {
	Username  string `db:"username"`
	Password  string `db:"password"`
	Role      string `db:"role"`
	Active    bool   `db:"active"`
	CreatedAt string `db:"created_at"`
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password, role, active, created_at) VALUES (?, ?, ?, ?, ?)`,
		user.Username, user.Password, user.Role, user.Active, timeToDB(user.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidInput
		}
		return errors.Wrap(err, "create user")
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows := []userRow{}
	err := s.db.SelectContext(ctx, &rows,
		`SELECT username, password, role, active, created_at FROM users ORDER BY username`)
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	users := make([]domain.UserAccount, 0, len(rows))
	for _, r := range rows {
		users = append(users, domain.UserAccount{
			Username:  r.Username,
			Password:  r.Password,
			Role:      r.Role,
			Active:    r.Active,
			CreatedAt: timeFromDB(r.CreatedAt),
		})
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET password = ? WHERE username = ?`, password, username)
	if err != nil {
		return errors.Wrap(err, "update user password")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
