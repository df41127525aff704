// Package ticket lays out plain-text weighing tickets for narrow receipt printers.
package ticket

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/MrJamesThe3rd/patio/internal/ledger"
	"github.com/MrJamesThe3rd/patio/internal/money"
)

const DefaultCols = 40

// Field is one "key: value" line of a ticket.
type Field struct {
	Key   string
	Value string
}

type Layout struct {
	Title        string
	Header       []string
	Cols         int
	Fields       []Field
	AskSignature bool
}

// Build returns the ticket lines. Widths are measured in display columns.
func Build(l Layout) []string {
	cols := l.Cols
	if cols <= 0 {
		cols = DefaultCols
	}

	sep := strings.Repeat("-", cols)

	var lines []string

	for _, h := range l.Header {
		lines = append(lines, center(h, cols))
	}

	lines = append(lines, sep, center(l.Title, cols), sep)

	for _, f := range l.Fields {
		value := f.Value
		if value == "" {
			value = "-"
		}

		line := f.Key + ": " + value
		if runewidth.StringWidth(line) <= cols {
			lines = append(lines, line)
			continue
		}

		lines = append(lines, f.Key+":")
		lines = append(lines, wrap(value, cols)...)
	}

	lines = append(lines, sep)

	if l.AskSignature {
		lines = append(lines,
			runewidth.FillRight("Assinatura:", cols),
			"",
			strings.Repeat("_", cols*6/10),
			sep,
		)
	}

	return append(lines, "")
}

func center(s string, cols int) string {
	w := runewidth.StringWidth(s)
	if w >= cols {
		return s
	}

	left := (cols - w) / 2

	return strings.Repeat(" ", left) + s + strings.Repeat(" ", cols-w-left)
}

// wrap splits s into chunks of at most cols display columns.
func wrap(s string, cols int) []string {
	var (
		out   []string
		b     strings.Builder
		width int
	)

	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if width+rw > cols && width > 0 {
			out = append(out, b.String())
			b.Reset()

			width = 0
		}

		b.WriteRune(r)

		width += rw
	}

	if b.Len() > 0 {
		out = append(out, b.String())
	}

	return out
}

// ForMovement builds the ticket handed to the customer after a weighing.
func ForMovement(header []string, cols int, m *ledger.Movement) []string {
	weight := ""
	if m.WeightKg != nil {
		weight = fmt.Sprintf("%.1f kg", *m.WeightKg)
	}

	ref := m.TicketRef
	if ref == "" {
		ref = m.ID.String()[:8]
	}

	return Build(Layout{
		Title:  "TICKET DE PESAGEM",
		Header: header,
		Cols:   cols,
		Fields: []Field{
			{Key: "Ticket", Value: ref},
			{Key: "Data", Value: m.CreatedAt.Format("02/01/2006 15:04")},
			{Key: "Tipo", Value: m.Kind.Label()},
			{Key: "Placa", Value: m.Plate},
			{Key: "Material", Value: m.Material},
			{Key: "Peso", Value: weight},
			{Key: "Valor", Value: money.Format(m.Amount)},
			{Key: "Pagamento", Value: m.Method.Label()},
			{Key: "Descrição", Value: m.Description},
		},
		AskSignature: m.OnAccount(),
	})
}
