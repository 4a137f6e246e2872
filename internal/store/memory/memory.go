package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"poissonnerie/backend/internal/domain"
	"poissonnerie/backend/internal/store"
)

// Store is an in-memory repository used for tests and demo mode. It mirrors
// the sqlite store's semantics, including the conditional stock decrement.
type Store struct {
	mu         sync.RWMutex
	products   map[int64]domain.Product
	categories map[int64]domain.Category
	customers  map[int64]domain.Customer
	suppliers  map[int64]domain.Supplier
	sales      map[int64]domain.Sale
	users      map[string]domain.UserAccount
	nextID     map[string]int64
}

func New() *Store {
	return &Store{
		products:   make(map[int64]domain.Product),
		categories: make(map[int64]domain.Category),
		customers:  make(map[int64]domain.Customer),
		suppliers:  make(map[int64]domain.Supplier),
		sales:      make(map[int64]domain.Sale),
		users:      make(map[string]domain.UserAccount),
		nextID:     make(map[string]int64),
	}
}

// NewSeeded returns a store pre-loaded with a small fish-market catalog, the
// walk-in customer and a demo admin account.
func NewSeeded() *Store {
	s := New()
	ctx := context.Background()

	poissons, _ := s.EnsureCategory(ctx, "Poissons")
	fruitsDeMer, _ := s.EnsureCategory(ctx, "Fruits de mer")

	seed := []domain.Product{
		{Name: "Sardine", PriceCents: 500, Stock: 10.0, CategoryID: &poissons.ID},
		{Name: "Dorade", PriceCents: 1200, Stock: 8.5, CategoryID: &poissons.ID},
		{Name: "Merlan", PriceCents: 900, Stock: 6.0, CategoryID: &poissons.ID},
		{Name: "Crevette", PriceCents: 2500, Stock: 4.0, CategoryID: &fruitsDeMer.ID},
		{Name: "Calamar", PriceCents: 1800, Stock: 5.5, CategoryID: &fruitsDeMer.ID},
	}
	for _, p := range seed {
		_, _ = s.CreateProduct(ctx, p)
	}

	_, _ = s.EnsureWalkInCustomer(ctx)
	_, _ = s.CreateCustomer(ctx, domain.Customer{Name: "Restaurant La Marée", Phone: "0601020304", Address: "12 quai du Port"})
	_, _ = s.CreateSupplier(ctx, domain.Supplier{Name: "Criée du Port", Phone: "0499887766", Address: "Halle aux poissons"})

	_ = s.CreateUser(ctx, domain.UserAccount{
		Username:  "admin",
		Password:  "admin",
		Role:      "admin",
		Active:    true,
		CreatedAt: time.Now().UTC(),
	})
	return s
}

func (s *Store) allocID(kind string) int64 {
	s.nextID[kind]++
	return s.nextID[kind]
}

// Products

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sortProducts(out)
	return out, nil
}

func (s *Store) ListAvailableProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if p.Stock > 0 {
			out = append(out, p)
		}
	}
	sortProducts(out)
	return out, nil
}

func (s *Store) SearchProducts(_ context.Context, query string) ([]domain.Product, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Product{}
	for _, p := range s.products {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			out = append(out, p)
		}
	}
	sortProducts(out)
	return out, nil
}

func (s *Store) GetProductByName(_ context.Context, name string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.Name == name {
			copied := p
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.Name == product.Name {
			return nil, store.ErrInvalidInput
		}
	}
	product.ID = s.allocID("product")
	s.products[product.ID] = product
	return &product, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[product.ID]; !ok {
		return nil, store.ErrNotFound
	}
	for id, p := range s.products {
		if id != product.ID && p.Name == product.Name {
			return nil, store.ErrInvalidInput
		}
	}
	s.products[product.ID] = product
	return &product, nil
}

func (s *Store) DeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *Store) AdjustStock(_ context.Context, id int64, delta float64) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if delta < 0 && p.Stock < -delta {
		return nil, &store.InsufficientStockError{
			ProductName: p.Name,
			Requested:   -delta,
			Available:   p.Stock,
		}
	}
	p.Stock += delta
	s.products[id] = p
	return &p, nil
}

// Categories

func (s *Store) ListCategories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) EnsureCategory(_ context.Context, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, store.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Name == name {
			copied := c
			return &copied, nil
		}
	}
	category := domain.Category{ID: s.allocID("category"), Name: name}
	s.categories[category.ID] = category
	return &category, nil
}

func (s *Store) UpdateCategory(_ context.Context, category domain.Category) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[category.ID]; !ok {
		return nil, store.ErrNotFound
	}
	s.categories[category.ID] = category
	return &category, nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.categories, id)
	for pid, p := range s.products {
		if p.CategoryID != nil && *p.CategoryID == id {
			p.CategoryID = nil
			s.products[pid] = p
		}
	}
	return nil
}

// Customers

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) SearchCustomers(_ context.Context, query string) ([]domain.Customer, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Customer{}
	for _, c := range s.customers {
		if strings.Contains(strings.ToLower(c.Name), needle) || strings.Contains(c.Phone, needle) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetCustomerByName(_ context.Context, name string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.customers {
		if c.Name == name {
			copied := c
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetCustomerByID(_ context.Context, id int64) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := c
	return &copied, nil
}

func (s *Store) CreateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.customers {
		if c.Name == customer.Name {
			return nil, store.ErrInvalidInput
		}
	}
	customer.ID = s.allocID("customer")
	s.customers[customer.ID] = customer
	return &customer, nil
}

func (s *Store) UpdateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[customer.ID]; !ok {
		return nil, store.ErrNotFound
	}
	s.customers[customer.ID] = customer
	return &customer, nil
}

func (s *Store) DeleteCustomer(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.customers, id)
	return nil
}

func (s *Store) EnsureWalkInCustomer(ctx context.Context) (*domain.Customer, error) {
	if existing, err := s.GetCustomerByName(ctx, domain.WalkInCustomerName); err == nil {
		return existing, nil
	}
	return s.CreateCustomer(ctx, domain.Customer{Name: domain.WalkInCustomerName})
}

// Suppliers

func (s *Store) ListSuppliers(_ context.Context) ([]domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Supplier, 0, len(s.suppliers))
	for _, sup := range s.suppliers {
		out = append(out, sup)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	supplier.ID = s.allocID("supplier")
	s.suppliers[supplier.ID] = supplier
	return &supplier, nil
}

func (s *Store) UpdateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.suppliers[supplier.ID]; !ok {
		return nil, store.ErrNotFound
	}
	s.suppliers[supplier.ID] = supplier
	return &supplier, nil
}

func (s *Store) DeleteSupplier(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.suppliers[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.suppliers, id)
	return nil
}

// Sales

func (s *Store) CommitSale(_ context.Context, record store.SaleRecord) (*domain.Sale, error) {
	if len(record.Lines) == 0 {
		return nil, store.ErrEmptyCart
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate every decrement before applying any, so a failing line leaves
	// all stock untouched.
	for _, line := range record.Lines {
		p, ok := s.products[line.ProductID]
		if !ok {
			return nil, store.ErrUnresolvedReference
		}
		if p.Stock < line.Quantity {
			return nil, &store.InsufficientStockError{
				ProductName: p.Name,
				Requested:   line.Quantity,
				Available:   p.Stock,
			}
		}
	}

	saleID := s.allocID("sale")
	lines := make([]domain.SaleLine, 0, len(record.Lines))
	for _, line := range record.Lines {
		p := s.products[line.ProductID]
		p.Stock -= line.Quantity
		s.products[line.ProductID] = p

		line.ID = s.allocID("sale_item")
		line.SaleID = saleID
		lines = append(lines, line)
	}

	sale := domain.Sale{
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
	}
	s.sales[saleID] = sale
	return &sale, nil
}

func (s *Store) GetSaleByID(_ context.Context, id int64) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sale, ok := s.sales[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := sale
	copied.Lines = append([]domain.SaleLine(nil), sale.Lines...)
	return &copied, nil
}

func (s *Store) ListSales(_ context.Context, limit int) ([]domain.SaleSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SaleSummary, 0, len(s.sales))
	for _, sale := range s.sales {
		name := ""
		if c, ok := s.customers[sale.CustomerID]; ok {
			name = c.Name
		}
		out = append(out, domain.SaleSummary{
			ID:           sale.ID,
			Reference:    sale.Reference,
			CustomerName: name,
			TotalCents:   sale.TotalCents,
			Status:       sale.Status,
			CreatedAt:    sale.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkSaleComplete(_ context.Context, id int64) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sale, ok := s.sales[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	sale.Status = domain.SaleStatusComplete
	s.sales[id] = sale
	copied := sale
	copied.Lines = append([]domain.SaleLine(nil), sale.Lines...)
	return &copied, nil
}

// Reports

func (s *Store) GetDailyReport(_ context.Context, day time.Time) (domain.DailyReport, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	s.mu.RLock()
	defer s.mu.RUnlock()

	type agg struct {
		qty     float64
		revenue int64
	}
	perProduct := map[string]*agg{}
	var count, total int64
	for _, sale := range s.sales {
		if sale.CreatedAt.Before(start) || !sale.CreatedAt.Before(end) {
			continue
		}
		count++
		total += sale.TotalCents
		for _, line := range sale.Lines {
			a := perProduct[line.ProductName]
			if a == nil {
				a = &agg{}
				perProduct[line.ProductName] = a
			}
			a.qty += line.Quantity
			a.revenue += lineTotalCents(line.Quantity, line.PriceCents)
		}
	}

	rows := make([]domain.ProductSales, 0, len(perProduct))
	for name, a := range perProduct {
		rows = append(rows, domain.ProductSales{ProductName: name, Quantity: a.qty, RevenueCents: a.revenue})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].RevenueCents > rows[j].RevenueCents })

	report := domain.DailyReport{
		Date:              start.Format("2006-01-02"),
		PerProduct:        rows,
		TransactionCount:  count,
		TotalRevenueCents: total,
	}
	if count > 0 {
		report.AverageBasketCents = total / count
	}
	return report, nil
}

func (s *Store) GetMonthlyReport(_ context.Context, year int, month time.Month) (domain.MonthlyReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byDay := map[string]*domain.DailySummary{}
	for _, sale := range s.sales {
		at := sale.CreatedAt.UTC()
		if at.Year() != year || at.Month() != month {
			continue
		}
		key := at.Format("2006-01-02")
		d := byDay[key]
		if d == nil {
			d = &domain.DailySummary{Date: key}
			byDay[key] = d
		}
		d.TransactionCount++
		d.TotalCents += sale.TotalCents
	}

	days := make([]domain.DailySummary, 0, len(byDay))
	for _, d := range byDay {
		days = append(days, *d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return domain.MonthlyReport{Year: year, Month: int(month), Days: days}, nil
}

func (s *Store) GetStockReport(_ context.Context) (domain.StockReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]domain.StockReportRow, 0, len(s.products))
	for _, p := range s.products {
		categoryName := ""
		if p.CategoryID != nil {
			if c, ok := s.categories[*p.CategoryID]; ok {
				categoryName = c.Name
			}
		}
		rows = append(rows, domain.StockReportRow{
			ProductName:  p.Name,
			CategoryName: categoryName,
			Stock:        p.Stock,
			PriceCents:   p.PriceCents,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ProductName < rows[j].ProductName })
	return domain.StockReport{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Rows:        rows,
	}, nil
}

// Users

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Username]; ok {
		return store.ErrInvalidInput
	}
	s.users[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.UserAccount, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return store.ErrNotFound
	}
	u.Password = password
	s.users[username] = u
	return nil
}

func sortProducts(products []domain.Product) {
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
}

func lineTotalCents(quantity float64, priceCents int64) int64 {
	total := quantity * float64(priceCents)
	if total < 0 {
		return 0
	}
	return int64(total + 0.5)
}
