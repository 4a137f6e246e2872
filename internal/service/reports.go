package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"poissonnerie/backend/internal/document"
	"poissonnerie/backend/internal/domain"
	"poissonnerie/backend/internal/settings"
)

// DailyReport aggregates the sales of one calendar day. Results are memoized
// so repeated refreshes of the reports screen do not re-scan the sales log.
func (s *Service) DailyReport(ctx context.Context, day time.Time) (domain.DailyReport, error) {
	key := fmt.Sprintf("reports:daily:%s", day.UTC().Format("2006-01-02"))

	var cached domain.DailyReport
	if ok := s.cachedReport(ctx, key, &cached); ok {
		return cached, nil
	}

	report, err := s.repo.GetDailyReport(ctx, day)
	if err != nil {
		return domain.DailyReport{}, err
	}
	s.storeReport(ctx, key, report)
	return report, nil
}

func (s *Service) MonthlyReport(ctx context.Context, year int, month time.Month) (domain.MonthlyReport, error) {
	if year < 2000 || month < time.January || month > time.December {
		return domain.MonthlyReport{}, errors.Errorf("invalid report period %d-%d", year, month)
	}
	key := fmt.Sprintf("reports:monthly:%04d-%02d", year, int(month))

	var cached domain.MonthlyReport
	if ok := s.cachedReport(ctx, key, &cached); ok {
		return cached, nil
	}

	report, err := s.repo.GetMonthlyReport(ctx, year, month)
	if err != nil {
		return domain.MonthlyReport{}, err
	}
	s.storeReport(ctx, key, report)
	return report, nil
}

func (s *Service) StockReport(ctx context.Context) (domain.StockReport, error) {
	return s.repo.GetStockReport(ctx)
}

func (s *Service) cachedReport(ctx context.Context, key string, dest any) bool {
	payload, ok, err := s.reports.Get(ctx, key)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("report cache read failed")
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("report cache entry corrupt")
		return false
	}
	return true
}

func (s *Service) storeReport(ctx context.Context, key string, report any) {
	payload, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := s.reports.Set(ctx, key, payload, s.reportTTL); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("report cache write failed")
	}
}

// Settings

func (s *Service) GetSettings() settings.Settings {
	return s.settings.Get()
}

func (s *Service) SaveSettings(ctx context.Context, updated settings.Settings) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.settings.Save(updated); err != nil {
		return err
	}
	s.log.Info("settings saved")
	return nil
}

// Document export

func (s *Service) companyInfo() document.CompanyInfo {
	current := s.settings.Get()
	return document.CompanyInfo{
		Name:    current.CompanyName,
		Address: current.Address,
		Phone:   current.Phone,
	}
}

func (s *Service) reportPath(filename string) (string, error) {
	folder := s.settings.Get().ReportsFolder
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", errors.Wrap(err, "create reports folder")
	}
	return filepath.Join(folder, filename), nil
}

// ExportInvoice renders the invoice PDF for a sale and marks the sale
// complete. A sale stays pending until its paperwork has been produced.
func (s *Service) ExportInvoice(ctx context.Context, saleID int64) (string, error) {
	sale, err := s.repo.GetSaleByID(ctx, saleID)
	if err != nil {
		return "", err
	}
	customer, err := s.repo.GetCustomerByID(ctx, sale.CustomerID)
	if err != nil {
		return "", err
	}

	path, err := s.reportPath(document.InvoiceFilename(sale.ID))
	if err != nil {
		return "", err
	}
	if err := s.renderer.Invoice(*sale, *customer, s.companyInfo(), path); err != nil {
		return "", err
	}

	if sale.Status != domain.SaleStatusComplete {
		if _, err := s.repo.MarkSaleComplete(ctx, sale.ID); err != nil {
			return "", err
		}
	}

	s.log.WithFields(map[string]any{"sale_id": sale.ID, "path": path}).Info("invoice exported")
	return path, nil
}

func (s *Service) ExportDailyReport(ctx context.Context, day time.Time) (string, error) {
	report, err := s.DailyReport(ctx, day)
	if err != nil {
		return "", err
	}
	path, err := s.reportPath(document.DailyReportFilename(report.Date))
	if err != nil {
		return "", err
	}
	if err := s.renderer.DailyReport(report, s.companyInfo(), path); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Service) ExportMonthlyReport(ctx context.Context, year int, month time.Month) (string, error) {
	report, err := s.MonthlyReport(ctx, year, month)
	if err != nil {
		return "", err
	}
	path, err := s.reportPath(document.MonthlyReportFilename(report.Year, report.Month))
	if err != nil {
		return "", err
	}
	if err := s.renderer.MonthlyReport(report, s.companyInfo(), path); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Service) ExportStockReport(ctx context.Context) (string, error) {
	report, err := s.StockReport(ctx)
	if err != nil {
		return "", err
	}
	path, err := s.reportPath(document.StockReportFilename(s.now()))
	if err != nil {
		return "", err
	}
	if err := s.renderer.StockReport(report, s.companyInfo(), path); err != nil {
		return "", err
	}
	return path, nil
}
