package patterns

import (
	"fmt"

	"github.com/cleared-dev/receipts/internal/model"
)

type defaultPattern struct {
	expr        string
	priority    int
	description string
}

var defaultAmountPatterns = []defaultPattern{
	{`TOTAL\s*TTC`, 100, "Total including tax"},
	{`NET\s*A\s*PAYER`, 95, "Net amount due"},
	{`MONTANT\s*(?:TTC|TOTAL|A\s*PAYER)?`, 90, "Amount"},
	{`GRAND\s*TOTAL|AMOUNT\s*DUE`, 85, "English receipts"},
	{`TOTAL\s*(?:EUR|€)`, 80, "Total with currency"},
	{`\bTOTAL\b`, 60, "Plain total"},
}

var defaultPaymentPatterns = []defaultPattern{
	{`\bCB\b`, 70, "Carte bancaire"},
	{`CARTE\s*(?:BANCAIRE|BLEUE)?`, 65, "Card payment"},
	{`ESP[EÈ]CES`, 60, "Cash"},
	{`\bVISA\b`, 55, "Visa"},
	{`MASTERCARD`, 55, "Mastercard"},
	{`SANS\s*CONTACT`, 50, "Contactless"},
	{`PAIEMENT|PAYMENT`, 40, "Generic payment line"},
}

var defaultMerchants = []string{
	"CARREFOUR", "LECLERC", "AUCHAN", "INTERMARCHE", "MONOPRIX", "LIDL", "FRANPRIX", "CASINO",
}

// Default returns the catalogue written for new projects.
func Default() *Catalogue {
	c := New()
	c.mu.Lock()
	defer c.mu.Unlock()
	add := func(cat model.Category, defs []defaultPattern) {
		for _, d := range defs {
			priority, enabled := d.priority, true
			err := c.insert(cat, fileEntry{
				Pattern:     d.expr,
				Priority:    &priority,
				Enabled:     &enabled,
				Description: d.description,
			}, model.SourceCurated)
			if err != nil {
				panic(fmt.Sprintf("built-in %s pattern %q: %v", cat, d.expr, err))
			}
		}
	}
	add(model.CategoryAmount, defaultAmountPatterns)
	add(model.CategoryPayment, defaultPaymentPatterns)
	c.merchants = append(c.merchants, defaultMerchants...)
	return c
}
