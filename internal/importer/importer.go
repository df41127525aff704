package importer

import (
	"io"

	"github.com/MrJamesThe3rd/patio/internal/customer"
)

type Format string

const (
	FormatSheet Format = "planilha"
)

type Importer interface {
	Parse(r io.Reader) ([]customer.CreateParams, error)
}
