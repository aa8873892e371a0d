package ops

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/stablebuilds/quoter/internal/document"
	"github.com/stablebuilds/quoter/internal/errors"
	"github.com/stablebuilds/quoter/internal/logger"
)

// ExportClientsInput contains parameters for the ExportClients operation.
type ExportClientsInput struct {
	Path string // optional, default: ~/.quoter/exports/clients-<timestamp>.csv
}

// ExportClientsOutput contains the result of the ExportClients operation.
type ExportClientsOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// ExportClients writes every client to a CSV file.
func ExportClients(ctx context.Context, svc *Services, input ExportClientsInput) (*ExportClientsOutput, error) {
	now := svc.now()

	path := input.Path
	if path == "" {
		dir, err := ExportsDir(svc.Config)
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, fmt.Sprintf("clients-%s.csv", now.Format("2006-01-02T150405")))
	}

	clients, err := svc.Clients.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	if err := writeFileAtomic(path, ExtCSV, svc, func(w io.Writer) error {
		return svc.Clients.ExportCSV(ctx, w)
	}); err != nil {
		return nil, err
	}

	logger.Log.Info().Str("path", path).Int("count", len(clients)).Msg("clients exported")
	return &ExportClientsOutput{
		Path:       path,
		Count:      len(clients),
		ExportedAt: now.Unix(),
	}, nil
}

// RenderQuotationInput contains parameters for the RenderQuotation operation.
type RenderQuotationInput struct {
	Folio string // required
	Path  string // optional, default: ~/.quoter/exports/<document filename>
}

// RenderQuotationOutput contains the result of the RenderQuotation operation.
type RenderQuotationOutput struct {
	Path  string `json:"path"`
	Folio string `json:"folio"`
	Bytes int    `json:"bytes"`
}

// RenderQuotation writes a stored quotation as a PDF document.
func RenderQuotation(ctx context.Context, svc *Services, input RenderQuotationInput) (*RenderQuotationOutput, error) {
	doc, err := BuildDocument(ctx, svc, input.Folio)
	if err != nil {
		return nil, err
	}

	data, err := svc.Renderer.Generate(doc)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to render quotation: %w", err))
	}

	path := input.Path
	if path == "" {
		dir, err := ExportsDir(svc.Config)
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, SanitizeForFilename(document.Filename(doc)))
	}

	if err := writeFileAtomic(path, ExtPDF, svc, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}); err != nil {
		return nil, err
	}

	logger.Log.Info().Str("folio", doc.Quotation.Folio).Str("path", path).Msg("quotation rendered")
	return &RenderQuotationOutput{
		Path:  path,
		Folio: doc.Quotation.Folio,
		Bytes: len(data),
	}, nil
}

// BuildDocument assembles the printable document for a stored quotation.
func BuildDocument(ctx context.Context, svc *Services, folio string) (document.Document, error) {
	if folio == "" {
		return document.Document{}, errors.NewInvalidRequest("folio is required")
	}
	rec, err := svc.Quotations.Get(ctx, folio)
	if err != nil {
		return document.Document{}, err
	}
	biz, err := svc.Business.Get(ctx)
	if err != nil {
		return document.Document{}, err
	}
	return document.New(biz, rec, svc.Config.ValidityDays), nil
}

// ExportDraftInput contains parameters for the ExportDraft operation.
type ExportDraftInput struct {
	Path string // optional, default: ~/.quoter/exports/<folio>.json
}

// ExportDraftOutput contains the result of the ExportDraft operation.
type ExportDraftOutput struct {
	Path  string `json:"path"`
	Folio string `json:"folio"`
}

// ExportDraft writes the working quotation's snapshot as JSON.
func ExportDraft(ctx context.Context, svc *Services, input ExportDraftInput) (*ExportDraftOutput, error) {
	folio, snap, err := svc.Workbench.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	path := input.Path
	if path == "" {
		dir, err := ExportsDir(svc.Config)
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, SanitizeForFilename(folio)+ExtJSON)
	}

	if err := writeFileAtomic(path, ExtJSON, svc, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}); err != nil {
		return nil, err
	}
	return &ExportDraftOutput{Path: path, Folio: folio}, nil
}

// writeFileAtomic validates path, then streams write into a temp file that
// is renamed over path. An existing file survives any failure.
func writeFileAtomic(path, ext string, svc *Services, write func(io.Writer) error) error {
	if err := ValidatePath(path, PathCheckWrite, ext, svc.Config); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := createExclusive(tempPath)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	buf := bufio.NewWriter(file)
	if err := write(buf); err != nil {
		if _, ok := errors.As(err); ok {
			return err
		}
		return errors.NewInternal(err)
	}
	if err := buf.Flush(); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}

	// Close before rename (required on Windows).
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlinked destination.
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("export path is a symlink")
	}

	// On Windows os.Rename fails when the destination exists; the existing
	// file is kept rather than risking a delete+rename.
	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return errors.NewInvalidRequest("export destination already exists; overwriting is not supported on Windows yet (choose a new path or delete the existing file)")
			}
		}
		return errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return nil
}
