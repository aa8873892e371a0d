// Package gofpdf renders quotation documents as letter-size PDFs.
package gofpdf

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"github.com/stablebuilds/quoter/internal/document"
	"github.com/stablebuilds/quoter/internal/logger"
	"github.com/stablebuilds/quoter/internal/money"
	"github.com/stablebuilds/quoter/internal/quote"
)

const (
	font      = "Helvetica"
	marginX   = 15.0
	tableTop  = 90.0
	rowHeight = 7.0
	// Rows continue on a new page below this line.
	bodyLimit = 225.0
	signY     = 240.0
	footerY   = 270.0
)

type Generator struct{}

func New() *Generator { return &Generator{} }

var _ document.Generator = (*Generator)(nil)

func (g *Generator) Generate(doc document.Document) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(marginX, 10, marginX)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	r := &renderer{pdf: pdf, tr: tr, doc: doc}
	pageW, _ := pdf.GetPageSize()
	r.center = pageW / 2
	r.right = pageW - marginX

	pdf.SetTitle(tr("Quotation "+doc.Quotation.Folio), false)
	pdf.SetAuthor(tr(doc.Business.Name), false)
	pdf.SetCreator("quoter", false)

	pdf.AddPage()
	r.header()
	r.client()
	y := r.items()
	y = r.totals(y)
	r.terms(y)
	r.signatures()
	r.footer()

	if err := pdf.Error(); err != nil {
		logger.Log.Error().Err(err).Str("folio", doc.Quotation.Folio).Msg("pdf render failed")
		return nil, err
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		logger.Log.Error().Err(err).Str("folio", doc.Quotation.Folio).Msg("pdf output failed")
		return nil, err
	}
	return buf.Bytes(), nil
}

type renderer struct {
	pdf    *gofpdf.Fpdf
	tr     func(string) string
	doc    document.Document
	center float64
	right  float64
}

func (r *renderer) text(x, y float64, s string) {
	r.pdf.Text(x, y, r.tr(s))
}

func (r *renderer) textRight(x, y float64, s string) {
	s = r.tr(s)
	r.pdf.Text(x-r.pdf.GetStringWidth(s), y, s)
}

func (r *renderer) textCenter(x, y float64, s string) {
	s = r.tr(s)
	r.pdf.Text(x-r.pdf.GetStringWidth(s)/2, y, s)
}

func (r *renderer) header() {
	pdf := r.pdf
	biz := r.doc.Business

	if data, kind, ok := biz.LogoImage(); ok {
		opts := gofpdf.ImageOptions{ImageType: kind}
		pdf.RegisterImageOptionsReader("logo", opts, bytes.NewReader(data))
		if pdf.Ok() {
			pdf.ImageOptions("logo", marginX, 10, 25, 25, false, opts, 0, "")
		} else {
			// A broken logo is left out rather than failing the document.
			logger.Log.Warn().Err(pdf.Error()).Msg("logo skipped")
			pdf.ClearError()
		}
	}

	name := biz.Name
	if name == "" {
		name = "BUSINESS NAME"
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont(font, "B", 16)
	r.textCenter(r.center, 20, name)

	pdf.SetFont(font, "", 8)
	lines := []string{biz.Address}
	if biz.Phone != "" {
		lines = append(lines, "Tel: "+biz.Phone)
	}
	if biz.Email != "" {
		lines = append(lines, "Email: "+biz.Email)
	}
	if biz.Web != "" {
		lines = append(lines, "Web: "+biz.Web)
	}
	y := 25.0
	for _, l := range lines {
		if l != "" {
			r.textCenter(r.center, y, l)
			y += 4
		}
	}

	pdf.SetFont(font, "", 10)
	pdf.SetTextColor(100, 100, 100)
	r.textRight(r.right, 15, "Quotation: "+r.doc.Quotation.Folio)
	r.textRight(r.right, 20, "Date: "+document.DisplayDate(r.doc))

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginX, 45, r.right, 45)
}

func (r *renderer) client() {
	pdf := r.pdf
	c := r.doc.Client

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont(font, "B", 11)
	r.text(marginX, 55, "CLIENT")

	pdf.SetFont(font, "", 10)
	y := 62.0
	for _, l := range r.wrap("Name: "+c.Name, 90) {
		r.pdf.Text(marginX, y, l)
		y += 5
	}
	for _, l := range r.wrap("Address: "+c.Address, 90) {
		r.pdf.Text(marginX, y, l)
		y += 5
	}
	r.text(marginX, y, "Phone: "+c.Phone)
	r.text(marginX, y+5, "Email: "+c.Email)
}

func (r *renderer) tableHeader(top float64) {
	pdf := r.pdf
	pdf.SetFillColor(40, 40, 40)
	pdf.Rect(marginX, top, r.right-marginX, 8, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont(font, "B", 10)
	x := marginX + 5
	for i, h := range []string{"Description", "Qty", "Unit price", "Amount"} {
		r.text(x, top+5, h)
		x += []float64{100, 20, 30, 30}[i]
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont(font, "", 10)
}

// items draws the item table and returns the y below its last row.
func (r *renderer) items() float64 {
	r.tableHeader(tableTop)
	y := tableTop + 15
	for i, it := range r.doc.Quotation.Items {
		desc := r.wrap(it.Name, 95)
		if len(desc) == 0 {
			desc = []string{""}
		}
		h := rowHeight
		if len(desc) > 1 {
			h = float64(len(desc)) * 5
		}
		if y+h > bodyLimit {
			r.pdf.AddPage()
			r.tableHeader(15)
			y = 30
		}
		if i%2 == 0 {
			r.pdf.SetFillColor(240, 240, 240)
			r.pdf.Rect(marginX, y-5, r.right-marginX, h, "F")
		}
		for j, l := range desc {
			r.pdf.Text(marginX+5, y+float64(j)*5, l)
		}
		r.text(120, y, strconv.FormatFloat(it.Quantity, 'f', -1, 64))
		r.text(140, y, money.Format(it.UnitPrice))
		r.textRight(r.right-5, y, money.Format(it.Amount()))
		y += h
	}
	return y
}

func (r *renderer) totals(y float64) float64 {
	pdf := r.pdf
	if y+60 > bodyLimit {
		pdf.AddPage()
		y = 20
	}
	q := r.doc.Quotation
	t := q.Totals.Rounded()

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.5)
	pdf.Line(120, y+5, r.right, y+5)
	y += 15

	discountLabel := "Discount:"
	if q.DiscountMode == quote.DiscountPercentage {
		discountLabel = fmt.Sprintf("Discount (%s):", money.Percent(q.DiscountValue))
	}
	rows := [][2]string{
		{"Subtotal:", money.Format(t.Subtotal)},
		{discountLabel, money.Format(t.Discount)},
		{fmt.Sprintf("Tax (%s):", money.Percent(q.TaxRatePercent)), money.Format(t.TaxAmount)},
		{"Total:", money.Format(t.Total)},
		{"Deposit:", money.Format(t.Deposit)},
		{"Amount due:", money.Format(t.AmountDue)},
	}
	pdf.SetFont(font, "", 10)
	for i, row := range rows {
		style := ""
		if i == 3 || i == 5 {
			style = "B"
		}
		pdf.SetFont(font, style, 10)
		r.text(140, y, row[0])
		r.textRight(r.right-5, y, row[1])
		y += 6
	}
	return y
}

func (r *renderer) terms(y float64) {
	pdf := r.pdf
	q := r.doc.Quotation
	notes := []string{}
	if q.Notes != "" {
		notes = r.wrap("Notes: "+q.Notes, r.right-marginX)
	}
	if y+10+14+float64(len(notes))*5 > signY-5 {
		pdf.AddPage()
		y = 10
	}
	y += 10
	pdf.SetFont(font, "B", 10)
	r.text(marginX, y, "Payment terms:")
	pdf.SetFont(font, "", 10)
	r.text(marginX, y+7, "Payment method: "+q.PaymentMethod)
	for i, l := range notes {
		pdf.Text(marginX, y+14+float64(i)*5, l)
	}
}

func (r *renderer) signatures() {
	pdf := r.pdf
	pdf.SetDrawColor(100, 100, 100)
	pdf.Line(25, signY, 85, signY)
	pdf.Line(125, signY, 185, signY)

	name := r.doc.Business.Name
	pdf.SetFont(font, "", 8)
	pdf.SetTextColor(0, 0, 0)
	r.textCenter(55, signY+5, "Client approval")
	r.textCenter(55, signY+10, r.doc.Client.Name)
	r.textCenter(155, signY+5, "On behalf of "+name)
	r.textCenter(155, signY+10, name)
}

func (r *renderer) footer() {
	pdf := r.pdf
	pdf.SetFont(font, "", 8)
	pdf.SetTextColor(130, 130, 130)
	r.textCenter(r.center, footerY, fmt.Sprintf("This quotation is valid for %d calendar days.", r.doc.ValidityDays))
	if line := document.FooterContact(r.doc.Business); line != "" {
		r.textCenter(r.center, footerY+5, line)
	}
}

// wrap translates s and splits it to fit width w at the current font.
func (r *renderer) wrap(s string, w float64) []string {
	parts := r.pdf.SplitLines([]byte(r.tr(s)), w)
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = string(p)
	}
	return out
}
