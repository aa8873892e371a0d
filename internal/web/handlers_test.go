package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stablebuilds/quoter/internal/config"
	"github.com/stablebuilds/quoter/internal/db"
	"github.com/stablebuilds/quoter/internal/ops"
	"github.com/stablebuilds/quoter/internal/store"
)

func setupTest(t *testing.T) (http.Handler, *ops.Services) {
	t.Helper()
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	clock := func() time.Time { return time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC) }
	svc := ops.NewServices(store.NewSQLiteBackend(database), cfg, ops.WithClock(clock))

	handler, err := NewHandler(svc, "test")
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	return handler, svc
}

// seedQuotation saves a quotation with notes and returns its folio.
func seedQuotation(t *testing.T, svc *ops.Services, clientName, notes string) string {
	t.Helper()
	ctx := context.Background()
	c, err := ops.SaveClient(ctx, svc, ops.SaveClientInput{Name: clientName, Email: strings.ToLower(strings.ReplaceAll(clientName, " ", "")) + "@example.com"})
	if err != nil {
		t.Fatalf("seed client: %v", err)
	}
	if _, err := ops.DraftAddItem(ctx, svc, ops.ItemInput{Name: "Concrete mix", Quantity: 2, UnitPrice: 100}); err != nil {
		t.Fatalf("seed item: %v", err)
	}
	if _, err := ops.DraftSetMeta(ctx, svc, ops.MetaInput{ClientID: &c.ID, Notes: &notes}); err != nil {
		t.Fatalf("seed meta: %v", err)
	}
	out, err := ops.DraftSave(ctx, svc, ops.DraftSaveInput{})
	if err != nil {
		t.Fatalf("seed save: %v", err)
	}
	return out.Quotation.Folio
}

func serve(h http.Handler, method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRootRedirects(t *testing.T) {
	h, _ := setupTest(t)
	rec := serve(h, "GET", "/", nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/quotations" {
		t.Errorf("Location = %q, want /quotations", loc)
	}
}

func TestSecurityHeaders(t *testing.T) {
	h, _ := setupTest(t)
	rec := serve(h, "GET", "/quotations", nil)
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("missing X-Frame-Options")
	}
	if !strings.Contains(rec.Header().Get("Content-Security-Policy"), "default-src 'self'") {
		t.Error("missing Content-Security-Policy")
	}
}

func TestHandleQuotationList(t *testing.T) {
	h, svc := setupTest(t)
	folio := seedQuotation(t, svc, "Acme Builders", "")

	rec := serve(h, "GET", "/quotations", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, folio) {
		t.Errorf("expected folio %s in response", folio)
	}
	if !strings.Contains(body, "Acme Builders") {
		t.Error("expected client name in response")
	}
	if !strings.Contains(body, "$232.00") {
		t.Error("expected formatted total $232.00 in response")
	}
}

func TestHandleQuotationList_Empty(t *testing.T) {
	h, _ := setupTest(t)
	rec := serve(h, "GET", "/quotations", nil)
	if !strings.Contains(rec.Body.String(), "No saved quotations") {
		t.Error("expected empty-state message")
	}
}

func TestHandleQuotationList_HtmxReturnsContentOnly(t *testing.T) {
	h, _ := setupTest(t)
	rec := serve(h, "GET", "/quotations", map[string]string{"HX-Request": "true"})
	if strings.Contains(rec.Body.String(), "<!DOCTYPE html>") {
		t.Error("htmx request should not render the layout")
	}
}

func TestHandleQuotationList_JSON(t *testing.T) {
	h, svc := setupTest(t)
	seedQuotation(t, svc, "Acme Builders", "")

	rec := serve(h, "GET", "/quotations?limit=oops", map[string]string{"Accept": "application/json"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var out ops.ListQuotationsOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Items) != 1 || out.Pagination.Limit != ops.DefaultListLimit {
		t.Errorf("items=%d limit=%d", len(out.Items), out.Pagination.Limit)
	}
}

func TestHandleQuotationList_BadStatus(t *testing.T) {
	h, _ := setupTest(t)
	rec := serve(h, "GET", "/quotations?status=sent", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleQuotationDetail(t *testing.T) {
	h, svc := setupTest(t)
	folio := seedQuotation(t, svc, "Acme Builders", "Delivery **included**\n\n<script>alert(1)</script>")

	rec := serve(h, "GET", "/quotations/"+folio, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"<strong>included</strong>",
		"Concrete mix",
		"$200.00",
		"Tax (16%)",
		"$232.00",
		"04 March 2025",
		"valid for 30 days",
		"StableBuilds",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in preview", want)
		}
	}
	if strings.Contains(body, "<script>alert(1)</script>") {
		t.Error("raw HTML in notes must not be rendered")
	}
}

func TestHandleQuotationDetail_NotFound(t *testing.T) {
	h, _ := setupTest(t)
	rec := serve(h, "GET", "/quotations/COT-209901-001", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "quotation not found") {
		t.Error("expected not-found message")
	}
}

func TestHandleQuotationPDF(t *testing.T) {
	h, svc := setupTest(t)
	folio := seedQuotation(t, svc, "Acme Builders", "")

	rec := serve(h, "GET", "/quotations/"+folio+"/pdf", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "Quotation_StableBuilds_"+folio+".pdf") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF") {
		t.Error("body is not a PDF")
	}
}

func TestHandleQuotationDelete_JSON(t *testing.T) {
	h, svc := setupTest(t)
	folio := seedQuotation(t, svc, "Acme Builders", "")

	rec := serve(h, "DELETE", "/quotations/"+folio, map[string]string{"Accept": "application/json"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var out ops.DeleteQuotationOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Deleted {
		t.Error("Deleted = false, want true")
	}

	rec = serve(h, "DELETE", "/quotations/"+folio, map[string]string{"Accept": "application/json"})
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Deleted {
		t.Error("second delete should report Deleted = false")
	}
}

func TestHandleQuotationDelete_Htmx(t *testing.T) {
	h, svc := setupTest(t)
	folio := seedQuotation(t, svc, "Acme Builders", "")

	rec := serve(h, "DELETE", "/quotations/"+folio, map[string]string{"HX-Request": "true"})
	if rec.Header().Get("HX-Redirect") != "/quotations" {
		t.Errorf("HX-Redirect = %q", rec.Header().Get("HX-Redirect"))
	}
}

func TestHandleQuotationDelete_DefaultRedirect(t *testing.T) {
	h, svc := setupTest(t)
	folio := seedQuotation(t, svc, "Acme Builders", "")

	rec := serve(h, "DELETE", "/quotations/"+folio, nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
}

func TestHandleClientList_Search(t *testing.T) {
	h, svc := setupTest(t)
	seedQuotation(t, svc, "Acme Builders", "")
	seedQuotation(t, svc, "Zenith Homes", "")

	rec := serve(h, "GET", "/clients?q=zenith", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Zenith Homes") {
		t.Error("expected matching client")
	}
	if strings.Contains(body, "Acme Builders") {
		t.Error("did not expect non-matching client")
	}
}

func TestHandleClientList_SeesWritesFromOtherProcess(t *testing.T) {
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	server := ops.NewServices(store.NewSQLiteBackend(database), config.DefaultConfig())
	h, err := NewHandler(server, "test")
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}

	// Prime the server's cache with an empty list.
	if rec := serve(h, "GET", "/clients", nil); strings.Contains(rec.Body.String(), "Acme Builders") {
		t.Fatal("unexpected client before write")
	}

	cli := ops.NewServices(store.NewSQLiteBackend(database), config.DefaultConfig())
	if _, err := ops.SaveClient(context.Background(), cli, ops.SaveClientInput{Name: "Acme Builders", Email: "acme@example.com"}); err != nil {
		t.Fatalf("SaveClient: %v", err)
	}

	rec := serve(h, "GET", "/clients", nil)
	if !strings.Contains(rec.Body.String(), "Acme Builders") {
		t.Error("expected client written by another Services instance")
	}
}

func TestHandleClientExport(t *testing.T) {
	h, svc := setupTest(t)
	seedQuotation(t, svc, "Acme Builders", "")

	rec := serve(h, "GET", "/clients/export.csv", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv") {
		t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "clients-2025-03-04.csv") {
		t.Errorf("Content-Disposition = %q", rec.Header().Get("Content-Disposition"))
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 || lines[0] != "nombre,tipo,direccion,telefono,email,creado,actualizado" {
		t.Errorf("unexpected CSV:\n%s", rec.Body.String())
	}
}

func TestErrorRendering_JSON(t *testing.T) {
	h, _ := setupTest(t)
	rec := serve(h, "GET", "/quotations/COT-209901-001", map[string]string{"Accept": "application/json"})
	var payload map[string]map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["error"]["code"] != "NOT_FOUND" {
		t.Errorf("code = %v", payload["error"]["code"])
	}
}

func TestErrorRendering_HtmxFragment(t *testing.T) {
	h, _ := setupTest(t)
	rec := serve(h, "GET", "/quotations/COT-209901-001", map[string]string{"HX-Request": "true"})
	if !strings.HasPrefix(rec.Body.String(), `<div class="error-message">`) {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestStaticCSS(t *testing.T) {
	h, _ := setupTest(t)
	rec := serve(h, "GET", "/static/style.css", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 20},
		{"limit=5", 5},
		{"limit=abc", 20},
		{"limit=-1", -1},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/x?"+tt.query, nil)
		if got := parseIntParam(req, "limit", 20); got != tt.want {
			t.Errorf("parseIntParam(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}
