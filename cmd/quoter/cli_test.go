package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stablebuilds/quoter/internal/client"
	"github.com/stablebuilds/quoter/internal/config"
	"github.com/stablebuilds/quoter/internal/db"
	"github.com/stablebuilds/quoter/internal/ops"
	"github.com/stablebuilds/quoter/internal/quotation"
	"github.com/stablebuilds/quoter/internal/quote"
	"github.com/stablebuilds/quoter/internal/store"
)

// setupTestServices creates services over a temporary database.
func setupTestServices(t *testing.T) *ops.Services {
	t.Helper()
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	cfg.ExportsDir = filepath.Join(tmpDir, "exports")
	clock := func() time.Time { return time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC) }
	return ops.NewServices(store.NewSQLiteBackend(database), cfg, ops.WithClock(clock))
}

// runCLI runs the app with optional stdin and returns what it wrote to stdout.
func runCLI(t *testing.T, svc *ops.Services, stdin string, args ...string) (string, error) {
	t.Helper()
	app := newCLIApp(svc)

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	if stdin != "" {
		oldStdin := os.Stdin
		stdinR, stdinW, _ := os.Pipe()
		os.Stdin = stdinR
		go func() {
			_, _ = stdinW.WriteString(stdin)
			stdinW.Close()
		}()
		defer func() { os.Stdin = oldStdin }()
	}

	err := app.Run(append([]string{"quoter"}, args...))

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	return buf.String(), err
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	return v
}

func TestCLIDraftWorkflow(t *testing.T) {
	svc := setupTestServices(t)

	out, err := runCLI(t, svc, "", "draft", "new")
	require.NoError(t, err)
	d := decode[ops.DraftView](t, out)
	require.Equal(t, "COT-202501-001", d.Folio)

	_, err = runCLI(t, svc, "", "draft", "add", "--name=Cement", "--qty=2", "--price=100")
	require.NoError(t, err)
	_, err = runCLI(t, svc, "", "draft", "add", "-n", "Sand", "-p", "50")
	require.NoError(t, err)

	out, err = runCLI(t, svc, "", "draft", "config", "--discount-mode=fixed", "--discount=10")
	require.NoError(t, err)
	step := decode[ops.DraftStepOutput](t, out)
	require.True(t, step.Changed)
	assert.Equal(t, 250.0, step.Draft.Totals.Subtotal)
	assert.Equal(t, 240.0, step.Draft.Totals.TaxableBase)
	assert.Equal(t, 38.4, step.Draft.Totals.TaxAmount)
	assert.Equal(t, 278.4, step.Draft.Totals.Total)
	assert.Equal(t, 16.0, step.Draft.TaxRatePercent)

	out, err = runCLI(t, svc, "", "draft", "meta", "--notes=Delivery in **5 days**")
	require.NoError(t, err)
	assert.Equal(t, "Delivery in **5 days**", decode[ops.DraftView](t, out).Notes)

	out, err = runCLI(t, svc, "", "draft", "save", "--status=approved")
	require.NoError(t, err)
	saved := decode[ops.DraftSaveOutput](t, out)
	require.Equal(t, "COT-202501-001", saved.Quotation.Folio)
	require.Equal(t, quotation.StatusApproved, saved.Quotation.Status)
	require.Equal(t, "COT-202501-002", saved.Next.Folio)

	out, err = runCLI(t, svc, "", "quotation", "next-folio")
	require.NoError(t, err)
	assert.Equal(t, "COT-202501-002", decode[ops.NextFolioOutput](t, out).Folio)
}

func TestCLIDraftItemsFromStdin(t *testing.T) {
	svc := setupTestServices(t)

	out, err := runCLI(t, svc, `[{"name":"Cement","quantity":2,"unit_price":100},{"name":"Sand","quantity":"1","unit_price":"50"}]`, "draft", "items")
	require.NoError(t, err)
	d := decode[ops.DraftView](t, out)
	require.Len(t, d.Items, 2)
	assert.Equal(t, 250.0, d.Totals.Subtotal)

	_, err = runCLI(t, svc, `{"name":"not an array"}`, "draft", "items")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[INVALID_REQUEST]")
}

func TestCLIDraftUndoRedo(t *testing.T) {
	svc := setupTestServices(t)

	_, err := runCLI(t, svc, "", "draft", "add", "--name=Cement", "--qty=1", "--price=10")
	require.NoError(t, err)

	out, err := runCLI(t, svc, "", "draft", "undo")
	require.NoError(t, err)
	step := decode[ops.DraftStepOutput](t, out)
	require.True(t, step.Changed)
	require.Empty(t, step.Draft.Items)

	out, err = runCLI(t, svc, "", "draft", "redo")
	require.NoError(t, err)
	step = decode[ops.DraftStepOutput](t, out)
	require.True(t, step.Changed)
	require.Len(t, step.Draft.Items, 1)

	out, err = runCLI(t, svc, "", "draft", "redo")
	require.NoError(t, err)
	require.False(t, decode[ops.DraftStepOutput](t, out).Changed)
}

func TestCLIDraftRemove(t *testing.T) {
	svc := setupTestServices(t)

	_, err := runCLI(t, svc, "", "draft", "add", "--name=Cement", "--qty=1", "--price=10")
	require.NoError(t, err)

	out, err := runCLI(t, svc, "", "draft", "remove", "5")
	require.NoError(t, err)
	require.False(t, decode[ops.DraftStepOutput](t, out).Changed)

	out, err = runCLI(t, svc, "", "draft", "remove", "0")
	require.NoError(t, err)
	step := decode[ops.DraftStepOutput](t, out)
	require.True(t, step.Changed)
	require.Empty(t, step.Draft.Items)

	_, err = runCLI(t, svc, "", "draft", "remove", "first")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid index")

	_, err = runCLI(t, svc, "", "draft", "remove")
	require.Error(t, err)
}

func TestCLIDraftValidate(t *testing.T) {
	svc := setupTestServices(t)

	out, err := runCLI(t, svc, "", "draft", "validate")
	require.NoError(t, err)
	res := decode[quote.ValidationResult](t, out)
	require.False(t, res.Valid)
	require.NotEmpty(t, res.Errors)

	_, err = runCLI(t, svc, "", "draft", "save", "--status=approved")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[VALIDATION_FAILED]")
}

func TestCLIDraftExportImport(t *testing.T) {
	svc := setupTestServices(t)
	path := filepath.Join(svc.Config.ExportsDir, "draft.json")

	_, err := runCLI(t, svc, "", "draft", "add", "--name=Cement", "--qty=2", "--price=100")
	require.NoError(t, err)

	out, err := runCLI(t, svc, "", "draft", "export", "--path="+path)
	require.NoError(t, err)
	exported := decode[ops.ExportDraftOutput](t, out)
	require.Equal(t, path, exported.Path)

	out, err = runCLI(t, svc, "", "draft", "discard")
	require.NoError(t, err)
	require.True(t, decode[ops.DraftDiscardOutput](t, out).Discarded)

	out, err = runCLI(t, svc, "", "draft", "import", "--path="+path)
	require.NoError(t, err)
	d := decode[ops.DraftView](t, out)
	require.Len(t, d.Items, 1)
	assert.Equal(t, 200.0, d.Totals.Subtotal)
}

func TestCLIQuotation(t *testing.T) {
	svc := setupTestServices(t)

	_, err := runCLI(t, svc, "", "draft", "add", "--name=Cement", "--qty=2", "--price=100")
	require.NoError(t, err)
	_, err = runCLI(t, svc, "", "draft", "save")
	require.NoError(t, err)

	t.Run("list", func(t *testing.T) {
		out, err := runCLI(t, svc, "", "quotation", "list", "--status=draft")
		require.NoError(t, err)
		list := decode[ops.ListQuotationsOutput](t, out)
		require.Len(t, list.Items, 1)
		assert.Equal(t, 1, list.Pagination.Total)
	})

	t.Run("show", func(t *testing.T) {
		out, err := runCLI(t, svc, "", "quotation", "show", "COT-202501-001")
		require.NoError(t, err)
		rec := decode[quotation.Record](t, out)
		assert.Equal(t, 232.0, rec.Totals.Total)
	})

	t.Run("pdf", func(t *testing.T) {
		path := filepath.Join(svc.Config.ExportsDir, "cot.pdf")
		out, err := runCLI(t, svc, "", "quotation", "pdf", "--path="+path, "COT-202501-001")
		require.NoError(t, err)
		res := decode[ops.RenderQuotationOutput](t, out)
		require.Positive(t, res.Bytes)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	})

	t.Run("load", func(t *testing.T) {
		out, err := runCLI(t, svc, "", "draft", "load", "COT-202501-001")
		require.NoError(t, err)
		d := decode[ops.DraftView](t, out)
		assert.Equal(t, "COT-202501-001", d.Folio)
		assert.Len(t, d.Items, 1)
	})

	t.Run("delete", func(t *testing.T) {
		out, err := runCLI(t, svc, "", "quotation", "delete", "COT-202501-001")
		require.NoError(t, err)
		assert.True(t, decode[ops.DeleteQuotationOutput](t, out).Deleted)

		_, err = runCLI(t, svc, "", "quotation", "show", "COT-202501-001")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "[NOT_FOUND]")
	})
}

func TestCLIClient(t *testing.T) {
	svc := setupTestServices(t)

	out, err := runCLI(t, svc, "", "client", "save", "--name=Ana López", "--email=ana@example.com", "--phone=55 1234 5678")
	require.NoError(t, err)
	ana := decode[client.Record](t, out)
	require.NotEmpty(t, ana.ID)

	// Same email merges into the existing record
	out, err = runCLI(t, svc, "", "client", "save", "--name=Ana López Ruiz", "--email=ANA@example.com")
	require.NoError(t, err)
	merged := decode[client.Record](t, out)
	assert.Equal(t, ana.ID, merged.ID)
	assert.Equal(t, "Ana López Ruiz", merged.Name)

	_, err = runCLI(t, svc, "", "client", "save", "--name=B")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[VALIDATION_FAILED]")

	out, err = runCLI(t, svc, "", "client", "list", "-q", "ana")
	require.NoError(t, err)
	require.Len(t, decode[ops.ListClientsOutput](t, out).Items, 1)

	path := filepath.Join(svc.Config.ExportsDir, "clients.csv")
	out, err = runCLI(t, svc, "", "client", "export", "--path="+path)
	require.NoError(t, err)
	assert.Equal(t, 1, decode[ops.ExportClientsOutput](t, out).Count)

	out, err = runCLI(t, svc, "", "client", "delete", ana.ID)
	require.NoError(t, err)
	assert.True(t, decode[ops.DeleteClientOutput](t, out).Deleted)

	out, err = runCLI(t, svc, "", "client", "import", "--path="+path)
	require.NoError(t, err)
	res := decode[client.ImportResult](t, out)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, 0, res.FailureCount)

	_, err = runCLI(t, svc, "", "client", "import", "--path="+filepath.Join(svc.Config.ExportsDir, "missing.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[FILE_NOT_FOUND]")
}

func TestCLIBusiness(t *testing.T) {
	svc := setupTestServices(t)

	out, err := runCLI(t, svc, "", "business", "show")
	require.NoError(t, err)
	got := decode[ops.BusinessOutput](t, out)
	require.False(t, got.Saved)
	require.Equal(t, "StableBuilds", got.Profile.Name)

	logoPath := filepath.Join(t.TempDir(), "logo.png")
	f, err := os.Create(logoPath)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	require.NoError(t, f.Close())

	out, err = runCLI(t, svc, "", "business", "set", "--name=Acme", "--logo-file="+logoPath)
	require.NoError(t, err)
	got = decode[ops.BusinessOutput](t, out)
	require.True(t, got.Saved)
	assert.Equal(t, "Acme", got.Profile.Name)
	assert.Equal(t, "55 1234 5678", got.Profile.Phone)
	assert.True(t, strings.HasPrefix(got.Profile.Logo, "data:image/png;base64,"))

	textPath := filepath.Join(t.TempDir(), "logo.txt")
	require.NoError(t, os.WriteFile(textPath, []byte("not an image"), 0o600))
	_, err = runCLI(t, svc, "", "business", "set", "--logo-file="+textPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PNG or JPEG")

	out, err = runCLI(t, svc, "", "business", "set", "--clear-logo")
	require.NoError(t, err)
	assert.Empty(t, decode[ops.BusinessOutput](t, out).Profile.Logo)

	out, err = runCLI(t, svc, "", "business", "reset")
	require.NoError(t, err)
	got = decode[ops.BusinessOutput](t, out)
	assert.Equal(t, "StableBuilds", got.Profile.Name)
	assert.True(t, got.Saved)
}

// TestCLIErrorHandling tests error handling in CLI commands.
func TestCLIErrorHandling(t *testing.T) {
	svc := setupTestServices(t)

	t.Run("load unknown folio", func(t *testing.T) {
		_, err := runCLI(t, svc, "", "draft", "load", "COT-209901-001")
		if err == nil || !strings.Contains(err.Error(), "[NOT_FOUND]") {
			t.Errorf("expected NOT_FOUND, got %v", err)
		}
	})

	t.Run("bad save status", func(t *testing.T) {
		_, err := runCLI(t, svc, "", "draft", "save", "--status=sent")
		if err == nil || !strings.Contains(err.Error(), "[INVALID_REQUEST]") {
			t.Errorf("expected INVALID_REQUEST, got %v", err)
		}
	})

	t.Run("missing folio", func(t *testing.T) {
		_, err := runCLI(t, svc, "", "quotation", "show")
		if err == nil {
			t.Error("expected error, got nil")
		}
	})

	t.Run("flags after folio", func(t *testing.T) {
		path := filepath.Join(svc.Config.ExportsDir, "late.pdf")
		_, err := runCLI(t, svc, "", "quotation", "pdf", "COT-202501-001", "--path="+path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "[INVALID_REQUEST]")
		assert.Contains(t, err.Error(), "put flags before the folio")
		assert.NoFileExists(t, path)

		_, err = runCLI(t, svc, "", "client", "delete", "01J0000000000000000000000", "extra")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "put flags before the id")
	})

	t.Run("export outside allowed dirs", func(t *testing.T) {
		_, err := runCLI(t, svc, "", "client", "export", "--path=/etc/clients.csv")
		if err == nil {
			t.Error("expected error, got nil")
		}
	})
}

func TestParseIndex(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"0", 0, false},
		{" 3 ", 3, false},
		{"-1", -1, false},
		{"", 0, true},
		{"2a", 0, true},
	}
	for _, tt := range tests {
		got, err := parseIndex(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseIndex(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("parseIndex(%q) = %d, %v; want %d", tt.input, got, err, tt.want)
		}
	}
}

// TestIsCLIMode tests the isCLIMode function.
func TestIsCLIMode(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{"no args", []string{"quoter"}, false},
		{"draft command", []string{"quoter", "draft"}, true},
		{"quotation command", []string{"quoter", "quotation"}, true},
		{"serve command", []string{"quoter", "serve"}, true},
		{"help flag", []string{"quoter", "--help"}, true},
		{"version flag", []string{"quoter", "--version"}, true},
		{"short help flag", []string{"quoter", "-h"}, true},
		{"short version flag", []string{"quoter", "-v"}, true},
		{"unknown arg defaults to MCP", []string{"quoter", "--unknown"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			if result := isCLIMode(); result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

// TestIsHelpOrVersion tests the isHelpOrVersion function.
func TestIsHelpOrVersion(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{"no args", []string{"quoter"}, false},
		{"help flag", []string{"quoter", "--help"}, true},
		{"short help flag", []string{"quoter", "-h"}, true},
		{"version flag", []string{"quoter", "--version"}, true},
		{"short version flag", []string{"quoter", "-v"}, true},
		{"help subcommand", []string{"quoter", "help"}, true},
		{"draft command is not help", []string{"quoter", "draft"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			if result := isHelpOrVersion(); result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

// TestReadStdinWithLimit tests the readStdin function respects size limits.
func TestReadStdinWithLimit(t *testing.T) {
	withStdin := func(t *testing.T, content string) {
		t.Helper()
		r, w, err := os.Pipe()
		if err != nil {
			t.Fatalf("Failed to create pipe: %v", err)
		}
		go func() {
			_, _ = w.WriteString(content)
			w.Close()
		}()
		oldStdin := os.Stdin
		os.Stdin = r
		t.Cleanup(func() { os.Stdin = oldStdin })
	}

	t.Run("within limit", func(t *testing.T) {
		withStdin(t, "  [1, 2]\n")
		result, err := readStdin(1000)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if result != "[1, 2]" {
			t.Errorf("expected %q, got %q", "[1, 2]", result)
		}
	})

	t.Run("exceeds limit", func(t *testing.T) {
		withStdin(t, strings.Repeat("x", 100))
		if _, err := readStdin(50); err == nil {
			t.Error("expected error for content exceeding limit, got nil")
		}
	})
}
