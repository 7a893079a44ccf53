// Package upload validates an uploaded sales CSV and parses it into observations.
package upload

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const (
	DateColumn  = "ds"
	ValueColumn = "y"
)

var (
	ErrEmptyFile        = errors.New("file has no data rows")
	ErrMissingColumns   = errors.New("missing required columns")
	ErrMalformedCSV     = errors.New("malformed csv")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrInvalidValue     = errors.New("invalid numeric value")
)

// missingMarkers are the values accepted as a missing observation
var missingMarkers = map[string]struct{}{
	"":     {},
	"na":   {},
	"nan":  {},
	"null": {},
}

// Table is a parsed upload. Header and Records hold the raw cells for previewing, T and Y
// the typed observations in file order.
type Table struct {
	Header  []string
	Records [][]string

	T []time.Time
	Y []float64
}

// Parse reads a CSV with a header row containing at least the ds and y columns. Timestamps
// are parsed in UTC and need not be sorted or unique. Missing values become NaN.
func Parse(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read header, %w: %w", ErrMalformedCSV, err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	dsIdx, yIdx, err := columnIndices(header)
	if err != nil {
		return nil, err
	}

	tbl := &Table{Header: header}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedCSV, err)
		}
		line, _ := reader.FieldPos(0)

		ts, err := parseTimestamp(record[dsIdx])
		if err != nil {
			return nil, fmt.Errorf("line %d column %s: %q, %w", line, DateColumn, record[dsIdx], ErrInvalidTimestamp)
		}
		val, err := parseValue(record[yIdx])
		if err != nil {
			return nil, fmt.Errorf("line %d column %s: %q, %w", line, ValueColumn, record[yIdx], ErrInvalidValue)
		}

		tbl.Records = append(tbl.Records, record)
		tbl.T = append(tbl.T, ts)
		tbl.Y = append(tbl.Y, val)
	}

	if len(tbl.Records) == 0 {
		return nil, ErrEmptyFile
	}
	return tbl, nil
}

func columnIndices(header []string) (int, int, error) {
	dsIdx, yIdx := -1, -1
	for i, h := range header {
		switch h {
		case DateColumn:
			if dsIdx < 0 {
				dsIdx = i
			}
		case ValueColumn:
			if yIdx < 0 {
				yIdx = i
			}
		}
	}

	var missing []string
	if dsIdx < 0 {
		missing = append(missing, DateColumn)
	}
	if yIdx < 0 {
		missing = append(missing, ValueColumn)
	}
	if len(missing) > 0 {
		return -1, -1, fmt.Errorf("%s, %w", strings.Join(missing, ", "), ErrMissingColumns)
	}
	return dsIdx, yIdx, nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidTimestamp
	}
	return dateparse.ParseIn(s, time.UTC)
}

func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if _, missing := missingMarkers[strings.ToLower(s)]; missing {
		return math.NaN(), nil
	}
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(val, 0) || math.IsNaN(val) {
		return 0, ErrInvalidValue
	}
	return val, nil
}

// IsSchemaError reports whether the upload is unusable because of its shape rather than
// the content of a cell
func IsSchemaError(err error) bool {
	return errors.Is(err, ErrMissingColumns) || errors.Is(err, ErrEmptyFile) || errors.Is(err, ErrMalformedCSV)
}

// Len returns the number of data rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Head returns up to the first n raw records
func (t *Table) Head(n int) [][]string {
	if t == nil || n <= 0 {
		return nil
	}
	if n > len(t.Records) {
		n = len(t.Records)
	}
	return t.Records[:n]
}
