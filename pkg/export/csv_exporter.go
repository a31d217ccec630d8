package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// Dataset defines tabular export content. Numeric maps header to a float
// value for cells that spreadsheet formats should keep numeric.
type Dataset struct {
	Headers []string
	Rows    []Row
	Summary []SummaryLine
}

// Row is one line of a dataset keyed by header.
type Row struct {
	Text    map[string]string
	Numeric map[string]float64
}

// Value renders the cell for header as text.
func (r Row) Value(header string) string {
	if v, ok := r.Numeric[header]; ok {
		return FormatAmount(v)
	}
	return r.Text[header]
}

// SummaryLine is a label/value pair printed below the table.
type SummaryLine struct {
	Label string
	Value string
}

// FormatAmount renders money without trailing zeros.
func FormatAmount(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

// CSVExporter renders datasets as CSV.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV bytes. Text cells that a spreadsheet would evaluate as a
// formula are prefixed with a quote.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range data.Rows {
		record := make([]string, len(data.Headers))
		for i, header := range data.Headers {
			if _, numeric := row.Numeric[header]; numeric {
				record[i] = row.Value(header)
				continue
			}
			record[i] = neutraliseFormula(row.Text[header])
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func neutraliseFormula(value string) string {
	if value == "" {
		return value
	}
	switch value[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + value
	}
	return value
}
