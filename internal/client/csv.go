package client

import (
	"bufio"
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/stablebuilds/quoter/internal/errors"
	"github.com/stablebuilds/quoter/internal/logger"
)

// CSVHeader is the fixed column order of exported files.
var CSVHeader = []string{"nombre", "tipo", "direccion", "telefono", "email", "creado", "actualizado"}

// columns maps accepted header names to record setters.
var columns = map[string]func(*Record, string){
	"nombre":      func(r *Record, v string) { r.Name = v },
	"name":        func(r *Record, v string) { r.Name = v },
	"tipo":        func(r *Record, v string) { r.Type = v },
	"type":        func(r *Record, v string) { r.Type = v },
	"direccion":   func(r *Record, v string) { r.Address = v },
	"address":     func(r *Record, v string) { r.Address = v },
	"telefono":    func(r *Record, v string) { r.Phone = v },
	"phone":       func(r *Record, v string) { r.Phone = v },
	"email":       func(r *Record, v string) { r.Email = v },
	"creado":      func(r *Record, v string) { r.CreatedAt = parseTime(v) },
	"created_at":  func(r *Record, v string) { r.CreatedAt = parseTime(v) },
	"actualizado": func(r *Record, v string) {},
	"updated_at":  func(r *Record, v string) {},
}

// ImportResult summarizes a CSV import.
type ImportResult struct {
	SuccessCount int      `json:"success_count"`
	FailureCount int      `json:"failure_count"`
	Errors       []string `json:"errors"`
}

// ExportCSV writes the header and one row per client, sorted by name.
// Every field is quoted and embedded quotes are doubled.
func (r *Registry) ExportCSV(ctx context.Context, w io.Writer) error {
	all, err := r.FindAll(ctx)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(CSVHeader, ",") + "\n"); err != nil {
		return errors.NewInternal(err)
	}
	for _, c := range all {
		row := []string{c.Name, c.Type, c.Address, c.Phone, c.Email, formatTime(c.CreatedAt), formatTime(c.UpdatedAt)}
		for i, field := range row {
			row[i] = quote(field)
		}
		if _, err := bw.WriteString(strings.Join(row, ",") + "\n"); err != nil {
			return errors.NewInternal(err)
		}
	}
	if err := bw.Flush(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// ImportCSV saves each data row independently. Rows whose field count differs
// from the header are skipped. A row that fails to save is counted and
// reported as "line N: message", N being its line in the input.
func (r *Registry) ImportCSV(ctx context.Context, in io.Reader) (ImportResult, error) {
	cr := csv.NewReader(skipBOM(in))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return ImportResult{}, errors.NewInvalidRequest("file is empty")
	}
	if err != nil {
		return ImportResult{}, errors.NewInvalidRequest(fmt.Sprintf("invalid header: %v", err))
	}
	setters := make([]func(*Record, string), len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		setters[i] = columns[name]
	}

	result := ImportResult{Errors: []string{}}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		var perr *csv.ParseError
		if stderrors.As(err, &perr) {
			result.FailureCount++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", perr.StartLine, perr.Err))
			continue
		}
		if err != nil {
			return result, errors.NewInternal(err)
		}
		if len(row) != len(header) {
			continue
		}
		line, _ := cr.FieldPos(0)

		var rec Record
		for i, value := range row {
			if setters[i] != nil {
				setters[i](&rec, strings.TrimSpace(value))
			}
		}
		if _, err := r.Save(ctx, rec); err != nil {
			result.FailureCount++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %s", line, rowMessage(err)))
			continue
		}
		result.SuccessCount++
	}

	logger.Log.Info().
		Int("success", result.SuccessCount).
		Int("failed", result.FailureCount).
		Msg("client import finished")
	return result, nil
}

// skipBOM drops a leading UTF-8 byte order mark. It must go before the csv
// reader sees the header, or a quoted first field keeps its quotes.
func skipBOM(in io.Reader) io.Reader {
	br := bufio.NewReader(in)
	if b, err := br.Peek(3); err == nil && string(b) == "\ufeff" {
		_, _ = br.Discard(3)
	}
	return br
}

func rowMessage(err error) string {
	if qErr, ok := errors.As(err); ok {
		return strings.ReplaceAll(qErr.Message, "\n", "; ")
	}
	return err.Error()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
