package web

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"mime"
	"net/http"
	"strconv"

	"github.com/stablebuilds/quoter/internal/business"
	"github.com/stablebuilds/quoter/internal/document"
	"github.com/stablebuilds/quoter/internal/errors"
	"github.com/stablebuilds/quoter/internal/ops"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	svc      *ops.Services
	renderer *Renderer
}

// HandleQuotationList handles GET /quotations, the saved quotation history.
func (h *Handlers) HandleQuotationList(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")

	result, err := ops.ListQuotations(r.Context(), h.svc, ops.ListQuotationsInput{
		Status: status,
		Limit:  parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, r, "quotations", QuotationListPageData{
		PageData:   h.renderer.page("Quotations", "quotations"),
		Items:      result.Items,
		Pagination: result.Pagination,
		Status:     status,
	})
}

// HandleQuotationDetail handles GET /quotations/{folio}, the document preview.
func (h *Handlers) HandleQuotationDetail(w http.ResponseWriter, r *http.Request) {
	doc, err := ops.BuildDocument(r.Context(), h.svc, r.PathValue("folio"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, doc.Quotation)
		return
	}

	q := doc.Quotation
	h.renderer.renderPage(w, r, "quotation", QuotationPageData{
		PageData:     h.renderer.page(q.Folio, "quotations"),
		Quotation:    &q,
		Totals:       q.Totals.Rounded(),
		Business:     doc.Business,
		Logo:         logoURL(doc.Business),
		DisplayDate:  document.DisplayDate(doc),
		NotesHTML:    renderMarkdown(q.Notes),
		ValidityDays: doc.ValidityDays,
		Contact:      document.FooterContact(doc.Business),
	})
}

// HandleQuotationPDF handles GET /quotations/{folio}/pdf.
func (h *Handlers) HandleQuotationPDF(w http.ResponseWriter, r *http.Request) {
	doc, err := ops.BuildDocument(r.Context(), h.svc, r.PathValue("folio"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	data, err := h.svc.Renderer.Generate(doc)
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInternal(err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{
		"filename": ops.SanitizeForFilename(document.Filename(doc)),
	}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// HandleQuotationDelete handles DELETE /quotations/{folio}.
func (h *Handlers) HandleQuotationDelete(w http.ResponseWriter, r *http.Request) {
	result, err := ops.DeleteQuotation(r.Context(), h.svc, ops.DeleteQuotationInput{Folio: r.PathValue("folio")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/quotations")
		w.WriteHeader(http.StatusOK)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	http.Redirect(w, r, "/quotations", http.StatusFound)
}

// HandleClientList handles GET /clients, with ?q= filtering by name or email.
func (h *Handlers) HandleClientList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	result, err := ops.ListClients(r.Context(), h.svc, ops.ListClientsInput{
		Query:  query,
		Limit:  parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, r, "clients", ClientListPageData{
		PageData:   h.renderer.page("Clients", "clients"),
		Items:      result.Items,
		Pagination: result.Pagination,
		Query:      query,
	})
}

// HandleClientExport handles GET /clients/export.csv.
func (h *Handlers) HandleClientExport(w http.ResponseWriter, r *http.Request) {
	name := fmt.Sprintf("clients-%s.csv", h.svc.Quotations.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	// Records are loaded before the first byte is written, so a storage
	// failure can still be reported as an error page.
	if err := h.svc.Clients.ExportCSV(r.Context(), w); err != nil {
		h.renderer.renderError(w, r, err)
	}
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// logoURL returns the business logo as a data URL, or "" when there is none.
func logoURL(p business.Profile) template.URL {
	data, imageType, ok := p.LogoImage()
	if !ok {
		return ""
	}
	mimeType := "image/png"
	if imageType == business.ImageJPEG {
		mimeType = "image/jpeg"
	}
	return template.URL("data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data))
}
