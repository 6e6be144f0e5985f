// Package pdfgen renders booking paperwork as PDF.
package pdfgen

import (
	"bytes"
	"fmt"
	"time"

	"tourbook/internal/domain/models"

	"github.com/phpdave11/gofpdf"
)

// BookingInvoice renders the invoice for one booking and returns the bytes
// with a download filename.
func BookingInvoice(b models.Booking) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "INVOICE")
	pdf.Ln(12)

	invNo := fmt.Sprintf("INV-%d", b.ID)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, "Invoice no : "+invNo)
	pdf.Ln(7)
	pdf.Cell(0, 7, "Date       : "+time.Now().Format("2006-01-02 15:04"))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Billed to:")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, fmt.Sprintf("Email : %s", safe(b.UserEmail)))
	pdf.Ln(10)

	lines := []string{
		fmt.Sprintf("Tour       : %s", safe(b.TourName)),
		fmt.Sprintf("Booked at  : %s", b.CreatedAt.Format("2006-01-02")),
		fmt.Sprintf("Price      : %.2f", b.Price),
		fmt.Sprintf("Paid       : %v", b.Paid),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Thank you for booking with us. Keep this invoice for your records.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), invNo + ".pdf", nil
}

func safe(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
