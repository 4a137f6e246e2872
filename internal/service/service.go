package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"poissonnerie/backend/internal/cache"
	"poissonnerie/backend/internal/document"
	"poissonnerie/backend/internal/domain"
	"poissonnerie/backend/internal/settings"
	"poissonnerie/backend/internal/store"
)

// DefaultTaxRatePercent is the VAT rate applied at checkout when no rate is
// configured.
const DefaultTaxRatePercent = 20.0

// DefaultReportCacheTTL bounds how stale a memoized report may get.
const DefaultReportCacheTTL = 5 * time.Minute

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo           store.Repository
	reports        cache.ReportCache
	settings       *settings.Manager
	renderer       document.Renderer
	log            logrus.FieldLogger
	taxRatePercent float64
	reportTTL      time.Duration

	now          func() time.Time
	newReference func() string
}

func New(repo store.Repository, reports cache.ReportCache, settingsMgr *settings.Manager, log logrus.FieldLogger, taxRatePercent float64, reportTTL time.Duration) *Service {
	if reports == nil {
		reports = cache.NoopReportCache{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	if taxRatePercent <= 0 {
		taxRatePercent = DefaultTaxRatePercent
	}
	if reportTTL <= 0 {
		reportTTL = DefaultReportCacheTTL
	}

	return &Service{
		repo:           repo,
		reports:        reports,
		settings:       settingsMgr,
		log:            log,
		taxRatePercent: taxRatePercent,
		reportTTL:      reportTTL,
		now:            func() time.Time { return time.Now().UTC() },
		newReference:   uuid.NewString,
	}
}

// Checkout turns a cart into a persisted sale. Validation fails fast in cart
// order; the storage commit is all-or-nothing, so a failure at any line
// leaves stock and the sales log untouched.
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResponse, error) {
	lines, err := normalizeCart(req.Lines)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	switch method {
	case domain.PaymentCash, domain.PaymentCredit, domain.PaymentMobile:
	default:
		return domain.CheckoutResponse{}, errors.Wrapf(store.ErrInvalidInput, "unknown payment method %q", req.PaymentMethod)
	}

	customer, err := s.resolveCustomer(ctx, req.CustomerName, method)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	var subtotalCents int64
	saleLines := make([]domain.SaleLine, 0, len(lines))
	for _, line := range lines {
		product, err := s.repo.GetProductByName(ctx, line.ProductName)
		if errors.Is(err, store.ErrNotFound) {
			return domain.CheckoutResponse{}, errors.Wrapf(store.ErrUnresolvedReference, "unknown product %q", line.ProductName)
		}
		if err != nil {
			return domain.CheckoutResponse{}, errors.Wrap(err, "resolve product")
		}
		if product.Stock < line.Quantity {
			return domain.CheckoutResponse{}, &store.InsufficientStockError{
				ProductName: product.Name,
				Requested:   line.Quantity,
				Available:   product.Stock,
			}
		}

		subtotalCents += lineTotalCents(line.Quantity, product.PriceCents)
		saleLines = append(saleLines, domain.SaleLine{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			PriceCents:  product.PriceCents,
		})
	}

	discountCents, err := computeDiscountCents(req.Discount, subtotalCents)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	taxCents := roundCents(float64(subtotalCents-discountCents) * s.taxRatePercent / 100)
	totalCents := subtotalCents - discountCents + taxCents

	record := store.SaleRecord{
		Reference:     s.newReference(),
		CustomerID:    customer.ID,
		PaymentMethod: method,
		SubtotalCents: subtotalCents,
		DiscountCents: discountCents,
		TaxCents:      taxCents,
		TotalCents:    totalCents,
		Status:        domain.SaleStatusPending,
		CreatedAt:     s.now(),
		Lines:         saleLines,
	}

	sale, err := s.repo.CommitSale(ctx, record)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInsufficientStock),
			errors.Is(err, store.ErrUnresolvedReference),
			errors.Is(err, store.ErrEmptyCart):
			return domain.CheckoutResponse{}, err
		default:
			return domain.CheckoutResponse{}, errors.Wrapf(store.ErrPersistence, "commit sale: %v", err)
		}
	}

	s.log.WithFields(logrus.Fields{
		"sale_id":     sale.ID,
		"reference":   sale.Reference,
		"customer_id": sale.CustomerID,
		"lines":       len(sale.Lines),
		"total_cents": sale.TotalCents,
	}).Info("sale committed")

	return domain.CheckoutResponse{
		SaleID:        sale.ID,
		Reference:     sale.Reference,
		SubtotalCents: sale.SubtotalCents,
		DiscountCents: sale.DiscountCents,
		TaxCents:      sale.TaxCents,
		TotalCents:    sale.TotalCents,
		Status:        sale.Status,
		CreatedAt:     sale.CreatedAt.Format(time.RFC3339),
	}, nil
}

// normalizeCart trims names, rejects bad quantities and merges lines naming
// the same product, preserving first-occurrence order. The merged quantity is
// what gets decremented, so one product never splits into partial decrements.
func normalizeCart(lines []domain.CartLine) ([]domain.CartLine, error) {
	if len(lines) == 0 {
		return nil, store.ErrEmptyCart
	}

	merged := make([]domain.CartLine, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, line := range lines {
		name := strings.TrimSpace(line.ProductName)
		if name == "" {
			return nil, errors.Wrap(store.ErrInvalidInput, "product name required")
		}
		if line.Quantity <= 0 || math.IsNaN(line.Quantity) || math.IsInf(line.Quantity, 0) {
			return nil, errors.Wrapf(store.ErrInvalidQuantity, "product %q: quantity %v", name, line.Quantity)
		}
		if at, ok := index[name]; ok {
			merged[at].Quantity += line.Quantity
			continue
		}
		index[name] = len(merged)
		merged = append(merged, domain.CartLine{ProductName: name, Quantity: line.Quantity})
	}
	return merged, nil
}

func (s *Service) resolveCustomer(ctx context.Context, name string, paymentMethod string) (*domain.Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		if paymentMethod != domain.PaymentCash {
			return nil, errors.Wrap(store.ErrInvalidInput, "customer required for non-cash payment")
		}
		customer, err := s.repo.EnsureWalkInCustomer(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "ensure walk-in customer")
		}
		return customer, nil
	}

	customer, err := s.repo.GetCustomerByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.Wrapf(store.ErrUnresolvedReference, "unknown customer %q", name)
	}
	if err != nil {
		return nil, errors.Wrap(err, "resolve customer")
	}
	return customer, nil
}

// computeDiscountCents converts the requested discount to cents and clamps it
// to the subtotal so the pre-tax base never goes negative.
func computeDiscountCents(d domain.Discount, subtotalCents int64) (int64, error) {
	if d.Value == 0 {
		return 0, nil
	}
	if d.Value < 0 || math.IsNaN(d.Value) || math.IsInf(d.Value, 0) {
		return 0, errors.Wrapf(store.ErrInvalidInput, "discount value %v", d.Value)
	}

	var cents int64
	switch d.Type {
	case domain.DiscountPercentage:
		cents = roundCents(float64(subtotalCents) * d.Value / 100)
	case domain.DiscountFixed:
		cents = roundCents(d.Value * 100)
	default:
		return 0, errors.Wrapf(store.ErrInvalidInput, "unknown discount type %q", d.Type)
	}

	if cents > subtotalCents {
		cents = subtotalCents
	}
	return cents, nil
}

func lineTotalCents(quantity float64, priceCents int64) int64 {
	return roundCents(quantity * float64(priceCents))
}

func roundCents(v float64) int64 {
	return int64(math.Round(v))
}

func (s *Service) GetSale(ctx context.Context, id int64) (*domain.Sale, error) {
	return s.repo.GetSaleByID(ctx, id)
}

func (s *Service) ListSales(ctx context.Context, limit int) ([]domain.SaleSummary, error) {
	return s.repo.ListSales(ctx, limit)
}

func requireAdmin(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}
	return nil
}
