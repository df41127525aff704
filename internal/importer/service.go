package importer

import (
	"fmt"
	"io"

	"github.com/MrJamesThe3rd/patio/internal/customer"
	"github.com/MrJamesThe3rd/patio/internal/importer/sheet"
)

type Service struct {
	importers map[Format]Importer
}

func NewService() *Service {
	return &Service{
		importers: map[Format]Importer{
			FormatSheet: sheet.NewParser(),
		},
	}
}

// Import parses r with the importer registered for format. An empty format means a spreadsheet.
func (s *Service) Import(format Format, r io.Reader) ([]customer.CreateParams, error) {
	if format == "" {
		format = FormatSheet
	}

	imp, ok := s.importers[format]
	if !ok {
		return nil, fmt.Errorf("unknown import format: %s", format)
	}

	return imp.Parse(r)
}
