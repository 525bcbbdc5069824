package webfleet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/driveloop/fleetlink/fleet"
)

// row is one CSV record keyed by the lowercased header name, so field lookups
// survive column reordering between Webfleet report versions.
type row map[string]string

func (r row) get(column string) string { return strings.TrimSpace(r[column]) }

// parseTable decodes a semicolon-delimited Webfleet response into named rows.
// The header line is required and every listed column must be present;
// indexing by position broke every time the vendor added a column.
func parseTable(data []byte, required ...string) ([]row, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = ';'
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: webfleet: %v", fleet.ErrMalformedResponse, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: webfleet: empty response", fleet.ErrMalformedResponse)
	}

	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, column := range required {
		if _, ok := header[column]; !ok {
			return nil, fmt.Errorf("%w: webfleet: missing column %q", fleet.ErrMalformedResponse, column)
		}
	}

	rows := make([]row, 0, len(records)-1)
	for _, record := range records[1:] {
		r := make(row, len(header))
		for name, i := range header {
			if i < len(record) {
				r[name] = record[i]
			}
		}
		rows = append(rows, r)
	}
	return rows, nil
}
