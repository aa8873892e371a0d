// Package document assembles a quotation with the business identity for
// rendering into a deliverable file.
package document

import (
	"regexp"
	"strings"
	"time"

	"github.com/stablebuilds/quoter/internal/business"
	"github.com/stablebuilds/quoter/internal/quotation"
)

// DefaultValidityDays is printed in the footer when none is configured.
const DefaultValidityDays = 30

// Document is everything needed to render one quotation.
type Document struct {
	Business     business.Profile
	Client       quotation.Party
	Quotation    quotation.Record
	ValidityDays int
}

// New builds a document from a stored quotation.
func New(biz business.Profile, rec quotation.Record, validityDays int) Document {
	if validityDays <= 0 {
		validityDays = DefaultValidityDays
	}
	return Document{
		Business:     biz,
		Client:       rec.Client,
		Quotation:    rec,
		ValidityDays: validityDays,
	}
}

// Generator renders a document to bytes.
type Generator interface {
	Generate(doc Document) ([]byte, error)
}

var whitespace = regexp.MustCompile(`\s+`)

// Filename returns Quotation_<business name>_<folio>.pdf with whitespace in
// the name replaced by underscores.
func Filename(doc Document) string {
	name := strings.TrimSpace(doc.Business.Name)
	if name == "" {
		name = "Business"
	}
	name = whitespace.ReplaceAllString(name, "_")
	name = strings.NewReplacer("/", "_", `\`, "_").Replace(name)
	return "Quotation_" + name + "_" + doc.Quotation.Folio + ".pdf"
}

// DisplayDate renders the quotation date as "15 January 2025", falling
// back to the stored text when it is not a calendar date.
func DisplayDate(doc Document) string {
	raw := strings.TrimSpace(doc.Quotation.Date)
	t, err := time.Parse(quotation.DateLayout, raw)
	if err != nil {
		return raw
	}
	return t.Format("02 January 2006")
}

// FooterContact joins web, email and phone with " | ", skipping blanks.
func FooterContact(p business.Profile) string {
	parts := []string{}
	for _, s := range []string{p.Web, p.Email, p.Phone} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " | ")
}
