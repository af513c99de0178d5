package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"smart-canteen/internal/domain"
	menusvc "smart-canteen/internal/service/menu"
)

type ItemWriter interface {
	Upsert(ctx context.Context, in menusvc.ItemInput) (*domain.Item, error)
}

// RowError records a CSV line that failed validation and was skipped.
type RowError struct {
	Line int
	Name string
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d (%s): %v", e.Line, e.Name, e.Err)
}

// Result summarises an import run.
type Result struct {
	Imported int
	Skipped  []RowError
}

// CSVImporter reads menu CSV files (name,price,category,available,image) and
// upserts items matched by name.
type CSVImporter struct {
	reader *csv.Reader
	items  ItemWriter
}

func NewCSVImporter(r io.Reader, items ItemWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{reader: csvr, items: items}
}

var requiredHeaders = []string{"name", "price", "category"}

// Run imports every row. Rows failing validation are skipped and reported;
// any other error stops the run.
func (i *CSVImporter) Run(ctx context.Context) (Result, error) {
	var res Result

	headers, err := i.reader.Read()
	if err != nil {
		return res, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, h := range requiredHeaders {
		if _, ok := index[h]; !ok {
			return res, fmt.Errorf("missing required column %q", h)
		}
	}

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read row: %w", err)
		}
		line, _ := i.reader.FieldPos(0)
		if blank(record) {
			continue
		}

		in, err := parseRow(record, index)
		if err == nil {
			_, err = i.items.Upsert(ctx, in)
		}
		if err != nil {
			var v *domain.ValidationError
			if errors.As(err, &v) || errors.Is(err, errInvalidAvailable) {
				res.Skipped = append(res.Skipped, RowError{Line: line, Name: in.Name, Err: err})
				continue
			}
			return res, fmt.Errorf("line %d: %w", line, err)
		}
		res.Imported++
	}
	return res, nil
}

var errInvalidAvailable = errors.New("available must be a boolean")

func parseRow(record []string, index map[string]int) (menusvc.ItemInput, error) {
	in := menusvc.ItemInput{
		Name:      pick(record, index, "name"),
		Price:     pick(record, index, "price"),
		Category:  pick(record, index, "category"),
		Image:     pick(record, index, "image"),
		Available: true,
	}
	if raw := pick(record, index, "available"); raw != "" {
		v, err := parseBool(raw)
		if err != nil {
			return in, errInvalidAvailable
		}
		in.Available = v
	}
	return in, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "y", "on":
		return true, nil
	case "no", "n", "off":
		return false, nil
	}
	return strconv.ParseBool(s)
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
