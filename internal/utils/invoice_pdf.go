package utils

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"time"

	"mandi_back_end/internal/models"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/skip2/go-qrcode"
)

// GenerateUpiQR génère un QR UPI en base64 prêt à mettre dans <img src="...">
// Utilisé sur les factures COD pour encaisser à la livraison
func GenerateUpiQR(payeeVPA, payeeName, ref string, amount float64) (string, error) {
	q := url.Values{}
	q.Set("pa", payeeVPA)
	q.Set("pn", payeeName)
	q.Set("am", fmt.Sprintf("%.2f", amount))
	q.Set("cu", "INR")
	q.Set("tn", ref)

	png, err := qrcode.Encode("upi://pay?"+q.Encode(), qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// GenerateInvoicePDF rend la page facture du front en PDF. Pour les
// commandes à encaisser, un QR UPI est injecté dans la page.
func GenerateInvoicePDF(order models.Order) ([]byte, error) {
	qrBase64 := ""
	if order.PaymentStatus != models.PaymentStatusCompleted {
		vpa := os.Getenv("COMPANY_UPI_VPA")
		if vpa == "" {
			vpa = "mandi@icici"
		}
		payee := os.Getenv("COMPANY_NAME")
		if payee == "" {
			payee = "Mandi Marketplace"
		}
		ref := fmt.Sprintf("FACT-%s", order.ID)

		var err error
		qrBase64, err = GenerateUpiQR(vpa, payee, ref, order.TotalAmount)
		if err != nil {
			return nil, fmt.Errorf("erreur génération QR: %v", err)
		}
	}

	return renderInvoicePDF(getFrontendInvoiceBaseURL(), order.ID, qrBase64)
}

// renderInvoicePDF charge la page facture côté serveur et l'imprime en PDF
func renderInvoicePDF(frontendURL, invoiceID, qrBase64 string) ([]byte, error) {
	q := url.Values{}
	q.Set("id", invoiceID)
	if qrBase64 != "" {
		q.Set("qr", qrBase64)
	}

	fullURL := fmt.Sprintf("%s?%s", frontendURL, q.Encode())

	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	// timeout pour éviter de bloquer
	ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var pdfBuf []byte

	err := chromedp.Run(ctx,
		chromedp.Navigate(fullURL),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).  // A4
				WithPaperHeight(11.7).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfBuf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	return pdfBuf, nil
}

func getFrontendInvoiceBaseURL() string {
	u := os.Getenv("FRONTEND_INVOICE_URL")
	if u == "" {
		// fallback local dev
		return "http://localhost:3000/invoice"
	}
	return u
}
