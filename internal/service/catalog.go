package service

import (
	"context"
	"math"
	"strings"

	"github.com/pkg/errors"

	"poissonnerie/backend/internal/domain"
	"poissonnerie/backend/internal/store"
)

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) ListAvailableProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListAvailableProducts(ctx)
}

func (s *Service) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	return s.repo.SearchProducts(ctx, query)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Product{}, errors.Wrap(store.ErrInvalidInput, "product name required")
	}
	if req.PriceCents < 0 {
		return domain.Product{}, errors.Wrap(store.ErrInvalidInput, "price must not be negative")
	}
	if req.InitialStock < 0 || math.IsNaN(req.InitialStock) || math.IsInf(req.InitialStock, 0) {
		return domain.Product{}, errors.Wrap(store.ErrInvalidInput, "initial stock must not be negative")
	}

	product := domain.Product{
		Name:       req.Name,
		PriceCents: req.PriceCents,
		Stock:      req.InitialStock,
	}
	if name := strings.TrimSpace(req.CategoryName); name != "" {
		category, err := s.repo.EnsureCategory(ctx, name)
		if err != nil {
			return domain.Product{}, err
		}
		product.CategoryID = &category.ID
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}
	s.log.WithField("product", created.Name).Info("product created")
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, name string, req domain.ProductUpdateRequest) (domain.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}

	existing, err := s.repo.GetProductByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		newName := strings.TrimSpace(*req.Name)
		if newName == "" {
			return domain.Product{}, errors.Wrap(store.ErrInvalidInput, "product name required")
		}
		updated.Name = newName
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 0 {
			return domain.Product{}, errors.Wrap(store.ErrInvalidInput, "price must not be negative")
		}
		updated.PriceCents = *req.PriceCents
	}
	if req.Stock != nil {
		if *req.Stock < 0 || math.IsNaN(*req.Stock) || math.IsInf(*req.Stock, 0) {
			return domain.Product{}, errors.Wrap(store.ErrInvalidInput, "stock must not be negative")
		}
		updated.Stock = *req.Stock
	}
	if req.CategoryName != nil {
		if trimmed := strings.TrimSpace(*req.CategoryName); trimmed == "" {
			updated.CategoryID = nil
		} else {
			category, err := s.repo.EnsureCategory(ctx, trimmed)
			if err != nil {
				return domain.Product{}, err
			}
			updated.CategoryID = &category.ID
		}
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteProduct(ctx context.Context, name string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	product, err := s.repo.GetProductByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return err
	}
	return s.repo.DeleteProduct(ctx, product.ID)
}

// AdjustStock applies a signed delta in kilograms; restocking uses positive
// deltas, spoilage and corrections negative ones.
func (s *Service) AdjustStock(ctx context.Context, name string, delta float64) (domain.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}
	if delta == 0 || math.IsNaN(delta) || math.IsInf(delta, 0) {
		return domain.Product{}, errors.Wrapf(store.ErrInvalidInput, "stock delta %v", delta)
	}
	product, err := s.repo.GetProductByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return domain.Product{}, err
	}
	adjusted, err := s.repo.AdjustStock(ctx, product.ID, delta)
	if err != nil {
		return domain.Product{}, err
	}
	s.log.WithFields(map[string]any{"product": adjusted.Name, "delta": delta, "stock": adjusted.Stock}).Info("stock adjusted")
	return *adjusted, nil
}

// Categories

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, name string) (domain.Category, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Category{}, err
	}
	category, err := s.repo.EnsureCategory(ctx, name)
	if err != nil {
		return domain.Category{}, err
	}
	return *category, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id int64, name string) (domain.Category, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Category{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Category{}, errors.Wrap(store.ErrInvalidInput, "category name required")
	}
	updated, err := s.repo.UpdateCategory(ctx, domain.Category{ID: id, Name: name})
	if err != nil {
		return domain.Category{}, err
	}
	return *updated, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteCategory(ctx, id)
}

// Customers

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *Service) SearchCustomers(ctx context.Context, query string) ([]domain.Customer, error) {
	return s.repo.SearchCustomers(ctx, query)
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.ContactRequest) (domain.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Customer{}, errors.Wrap(store.ErrInvalidInput, "customer name required")
	}
	created, err := s.repo.CreateCustomer(ctx, domain.Customer{
		Name:    name,
		Phone:   strings.TrimSpace(req.Phone),
		Address: strings.TrimSpace(req.Address),
	})
	if err != nil {
		return domain.Customer{}, err
	}
	return *created, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, id int64, req domain.ContactRequest) (domain.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Customer{}, errors.Wrap(store.ErrInvalidInput, "customer name required")
	}
	updated, err := s.repo.UpdateCustomer(ctx, domain.Customer{
		ID:      id,
		Name:    name,
		Phone:   strings.TrimSpace(req.Phone),
		Address: strings.TrimSpace(req.Address),
	})
	if err != nil {
		return domain.Customer{}, err
	}
	return *updated, nil
}

func (s *Service) DeleteCustomer(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteCustomer(ctx, id)
}

// Suppliers

func (s *Service) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

func (s *Service) CreateSupplier(ctx context.Context, req domain.ContactRequest) (domain.Supplier, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Supplier{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Supplier{}, errors.Wrap(store.ErrInvalidInput, "supplier name required")
	}
	created, err := s.repo.CreateSupplier(ctx, domain.Supplier{
		Name:    name,
		Phone:   strings.TrimSpace(req.Phone),
		Address: strings.TrimSpace(req.Address),
	})
	if err != nil {
		return domain.Supplier{}, err
	}
	return *created, nil
}

func (s *Service) UpdateSupplier(ctx context.Context, id int64, req domain.ContactRequest) (domain.Supplier, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Supplier{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Supplier{}, errors.Wrap(store.ErrInvalidInput, "supplier name required")
	}
	updated, err := s.repo.UpdateSupplier(ctx, domain.Supplier{
		ID:      id,
		Name:    name,
		Phone:   strings.TrimSpace(req.Phone),
		Address: strings.TrimSpace(req.Address),
	})
	if err != nil {
		return domain.Supplier{}, err
	}
	return *updated, nil
}

func (s *Service) DeleteSupplier(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteSupplier(ctx, id)
}
