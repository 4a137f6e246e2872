package document

import (
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"

	"poissonnerie/backend/internal/domain"
)

// CompanyInfo is the letterhead printed on every document.
type CompanyInfo struct {
	Name    string
	Address string
	Phone   string
}

// Renderer writes invoices and reports as A4 PDF files. Documents are in
// French, matching the shop's paperwork.
type Renderer struct{}

func InvoiceFilename(saleID int64) string {
	return fmt.Sprintf("facture_%d.pdf", saleID)
}

func DailyReportFilename(date string) string {
	return fmt.Sprintf("rapport_journalier_%s.pdf", date)
}

func MonthlyReportFilename(year int, month int) string {
	return fmt.Sprintf("rapport_mensuel_%d_%02d.pdf", year, month)
}

func StockReportFilename(at time.Time) string {
	return fmt.Sprintf("rapport_stock_%s.pdf", at.Format("20060102"))
}

func (Renderer) Invoice(sale domain.Sale, customer domain.Customer, info CompanyInfo, path string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	writeLetterhead(pdf, tr, info)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, tr(fmt.Sprintf("Facture N° %d", sale.ID)), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Référence : %s", sale.Reference)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Date : %s", sale.CreatedAt.Format("02/01/2006 15:04"))), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Client : %s", customer.Name)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(80, 8, tr("Produit"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 8, tr("Quantité (kg)"), "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, tr("Prix unitaire"), "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, tr("Montant"), "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, line := range sale.Lines {
		lineTotal := int64(float64(line.PriceCents)*line.Quantity + 0.5)
		pdf.CellFormat(80, 7, tr(line.ProductName), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, tr(fmt.Sprintf("%.3f", line.Quantity)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, tr(euros(line.PriceCents)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, tr(euros(lineTotal)), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(2)

	writeTotalRow(pdf, tr, "Sous-total", sale.SubtotalCents, false)
	if sale.DiscountCents > 0 {
		writeTotalRow(pdf, tr, "Remise", -sale.DiscountCents, false)
	}
	writeTotalRow(pdf, tr, "TVA", sale.TaxCents, false)
	writeTotalRow(pdf, tr, "Total à payer", sale.TotalCents, true)

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 6, tr("Merci de votre confiance."), "", 1, "C", false, 0, "")

	return errors.Wrap(pdf.OutputFileAndClose(path), "write invoice pdf")
}

func (Renderer) DailyReport(report domain.DailyReport, info CompanyInfo, path string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	writeLetterhead(pdf, tr, info)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, tr(fmt.Sprintf("Rapport journalier — %s", report.Date)), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(90, 8, tr("Produit"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 8, tr("Quantité (kg)"), "1", 0, "R", true, 0, "")
	pdf.CellFormat(50, 8, tr("Chiffre d'affaires"), "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range report.PerProduct {
		pdf.CellFormat(90, 7, tr(row.ProductName), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, tr(fmt.Sprintf("%.3f", row.Quantity)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(50, 7, tr(euros(row.RevenueCents)), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Nombre de ventes : %d", report.TransactionCount)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Chiffre d'affaires total : %s", euros(report.TotalRevenueCents))), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Panier moyen : %s", euros(report.AverageBasketCents))), "", 1, "L", false, 0, "")

	return errors.Wrap(pdf.OutputFileAndClose(path), "write daily report pdf")
}

func (Renderer) MonthlyReport(report domain.MonthlyReport, info CompanyInfo, path string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	writeLetterhead(pdf, tr, info)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, tr(fmt.Sprintf("Rapport mensuel — %02d/%d", report.Month, report.Year)), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(60, 8, tr("Date"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(60, 8, tr("Nombre de ventes"), "1", 0, "R", true, 0, "")
	pdf.CellFormat(60, 8, tr("Chiffre d'affaires"), "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	var totalCents, totalCount int64
	for _, day := range report.Days {
		pdf.CellFormat(60, 7, tr(day.Date), "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 7, tr(fmt.Sprintf("%d", day.TransactionCount)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(60, 7, tr(euros(day.TotalCents)), "1", 1, "R", false, 0, "")
		totalCents += day.TotalCents
		totalCount += day.TransactionCount
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Total du mois : %s (%d ventes)", euros(totalCents), totalCount)), "", 1, "L", false, 0, "")

	return errors.Wrap(pdf.OutputFileAndClose(path), "write monthly report pdf")
}

func (Renderer) StockReport(report domain.StockReport, info CompanyInfo, path string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	writeLetterhead(pdf, tr, info)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, tr("État du stock"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Généré le %s", report.GeneratedAt)), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(70, 8, tr("Produit"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(45, 8, tr("Catégorie"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 8, tr("Stock (kg)"), "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, tr("Prix au kg"), "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range report.Rows {
		pdf.CellFormat(70, 7, tr(row.ProductName), "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 7, tr(row.CategoryName), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, tr(fmt.Sprintf("%.3f", row.Stock)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, tr(euros(row.PriceCents)), "1", 1, "R", false, 0, "")
	}

	return errors.Wrap(pdf.OutputFileAndClose(path), "write stock report pdf")
}

func writeLetterhead(pdf *gofpdf.Fpdf, tr func(string) string, info CompanyInfo) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(info.Name), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	if info.Address != "" {
		pdf.CellFormat(0, 5, tr(info.Address), "", 1, "C", false, 0, "")
	}
	if info.Phone != "" {
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("Tél : %s", info.Phone)), "", 1, "C", false, 0, "")
	}
	pdf.Ln(6)
}

func writeTotalRow(pdf *gofpdf.Fpdf, tr func(string) string, label string, cents int64, bold bool) {
	if bold {
		pdf.SetFont("Helvetica", "B", 11)
	} else {
		pdf.SetFont("Helvetica", "", 10)
	}
	pdf.CellFormat(145, 7, tr(label), "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, tr(euros(cents)), "", 1, "R", false, 0, "")
}

func euros(cents int64) string {
	return fmt.Sprintf("%.2f €", float64(cents)/100)
}
