package normalize

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/kapu/wykra-go/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseCSV turns a header-first CSV snapshot into records keyed by column name.
// Blank rows are skipped; short rows leave their missing columns absent.
func ParseCSV(body []byte) ([]domain.Record, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(body, utf8BOM)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv snapshot is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	records := make([]domain.Record, 0)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(records)+1, err)
		}
		if isBlankRow(row) {
			continue
		}

		record := make(domain.Record, len(header))
		for i, column := range header {
			if column == "" || i >= len(row) {
				continue
			}
			record[column] = row[i]
		}
		records = append(records, record)
	}

	return records, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
