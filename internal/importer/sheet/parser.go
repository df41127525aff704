package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/MrJamesThe3rd/patio/internal/customer"
	enc "github.com/MrJamesThe3rd/patio/internal/encoding"
)

// Parser reads `;`-separated customer spreadsheets exported from office suites.
// Title and blank rows above the header are skipped.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]customer.CreateParams, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, cols, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, fmt.Errorf("no customer header found: expected a %q or %q column", profiles[0].NameCol, profiles[1].NameCol)
	}

	return parseRows(profile, cols, rows[headerIdx+1:]), nil
}

type colIndex map[string]int

// detectProfile returns the first row holding a profile's name column plus at least one
// of its other columns.
func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := strings.TrimSpace(cell)
			if name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	if _, ok := cols[p.NameCol]; !ok {
		return false
	}

	for _, name := range p.optionalCols() {
		if _, ok := cols[name]; ok {
			return true
		}
	}

	return false
}

func parseRows(p *Profile, cols colIndex, rows [][]string) []customer.CreateParams {
	var out []customer.CreateParams

	for _, row := range rows {
		name := cell(row, cols, p.NameCol)
		if name == "" {
			continue
		}

		out = append(out, customer.CreateParams{
			Name:     name,
			Document: cell(row, cols, p.DocumentCol),
			Phone:    cell(row, cols, p.PhoneCol),
			Email:    cell(row, cols, p.EmailCol),
			City:     cell(row, cols, p.CityCol),
		})
	}

	return out
}

// cell returns the trimmed value of the named column, or "" when the column or cell is missing.
// Spreadsheet text cells exported as ="123" are unwrapped.
func cell(row []string, cols colIndex, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return ""
	}

	v := strings.TrimSpace(row[idx])
	if strings.HasPrefix(v, `="`) && strings.HasSuffix(v, `"`) {
		v = strings.TrimSuffix(strings.TrimPrefix(v, `="`), `"`)
	}

	return strings.TrimSpace(v)
}
