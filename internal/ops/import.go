package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/stablebuilds/quoter/internal/client"
	"github.com/stablebuilds/quoter/internal/errors"
	"github.com/stablebuilds/quoter/internal/logger"
	"github.com/stablebuilds/quoter/internal/quote"
)

// maxImportBytes bounds how much of an import file is read.
const maxImportBytes = 16 << 20

// ImportClientsInput contains parameters for the ImportClients operation.
type ImportClientsInput struct {
	Path string // required
}

// ImportClients reads a client CSV file. Each row is saved independently;
// failures are reported per line in the result.
func ImportClients(ctx context.Context, svc *Services, input ImportClientsInput) (*client.ImportResult, error) {
	file, err := openImport(input.Path, ExtCSV, svc)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	res, err := svc.Clients.ImportCSV(ctx, io.LimitReader(file, maxImportBytes))
	if err != nil {
		return nil, err
	}
	logger.Log.Info().
		Str("path", input.Path).
		Int("imported", res.SuccessCount).
		Int("failed", res.FailureCount).
		Msg("clients imported")
	return &res, nil
}

// ImportDraftInput contains parameters for the ImportDraft operation.
type ImportDraftInput struct {
	Path string // required
}

// ImportDraft replaces the working quotation's engine state with a snapshot
// file written by ExportDraft. The import is undoable.
func ImportDraft(ctx context.Context, svc *Services, input ImportDraftInput) (*DraftView, error) {
	file, err := openImport(input.Path, ExtJSON, svc)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var snap quote.Snapshot
	if err := json.NewDecoder(io.LimitReader(file, maxImportBytes)).Decode(&snap); err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid snapshot file: %v", err))
	}

	view, _, err := svc.Workbench.Mutate(ctx, func(e *quote.Engine) bool {
		e.ImportSnapshot(snap)
		return true
	})
	return view, err
}

func openImport(path, ext string, svc *Services) (io.ReadCloser, error) {
	if err := ValidatePath(path, PathCheckRead, ext, svc.Config); err != nil {
		return nil, err
	}
	file, err := openForImport(path)
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	return file, nil
}
