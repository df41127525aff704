package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/patio/internal/ledger"
	"github.com/MrJamesThe3rd/patio/internal/ticket"
)

type listState int

const (
	listStateBrowse listState = iota
	listStateSearch
	listStateTicket
)

type ListModel struct {
	CommonModel
	ledgerService *ledger.Service

	ticketHeader []string
	ticketCols   int

	state     listState
	table     table.Model
	search    textinput.Model
	movements []*ledger.Movement
	ticket    string

	filter  ledger.ListFilter
	loading bool
	err     error
}

func NewListModel(svc *ledger.Service, ticketHeader []string, ticketCols int) ListModel {
	columns := []table.Column{
		{Title: "Data", Width: 16},
		{Title: "Tipo", Width: 10},
		{Title: "Pagamento", Width: 10},
		{Title: "Valor", Width: 14},
		{Title: "Status", Width: 8},
		{Title: "Descrição", Width: 40},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	t.SetStyles(tableStyles())

	si := textinput.New()
	si.Placeholder = "descrição ou ticket"
	si.Prompt = "/ "
	si.Width = 40

	return ListModel{
		ledgerService: svc,
		ticketHeader:  ticketHeader,
		ticketCols:    ticketCols,
		table:         t,
		search:        si,
		loading:       true,
	}
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	return s
}

func (m ListModel) Title() string { return "Movimentos" }

func (m ListModel) ShortHelp() string {
	switch m.state {
	case listStateSearch:
		return "Enter: buscar | Esc: cancelar"
	case listStateTicket:
		return "Esc: voltar"
	}

	return "Esc: voltar | /: buscar | t: ticket | r: atualizar"
}

func (m ListModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadListMsg:
		m.loading = false
		m.err = msg.err

		if msg.err == nil {
			m.movements = msg.movements
			m.refreshTable()
		}

		return m, nil

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.table.SetHeight(msg.Height - 10)

		return m, nil
	}

	switch m.state {
	case listStateSearch:
		return m.updateSearch(msg)
	case listStateTicket:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
			m.state = listStateBrowse
			m.ticket = ""
		}

		return m, nil
	}

	return m.updateBrowse(msg)
}

func (m ListModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "/":
			m.state = listStateSearch
			m.table.Blur()

			return m, m.search.Focus()
		case "t":
			idx := m.table.Cursor()
			if idx < 0 || idx >= len(m.movements) {
				return m, nil
			}

			lines := ticket.ForMovement(m.ticketHeader, m.ticketCols, m.movements[idx])
			m.ticket = strings.Join(lines, "\n")
			m.state = listStateTicket

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ListModel) updateSearch(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEsc:
			m.state = listStateBrowse
			m.search.Blur()
			m.table.Focus()

			return m, nil
		case tea.KeyEnter:
			m.state = listStateBrowse
			m.search.Blur()
			m.table.Focus()
			m.filter.Query = strings.TrimSpace(m.search.Value())
			m.loading = true

			return m, m.loadCmd()
		}
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)

	return m, cmd
}

func (m ListModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Carregando movimentos...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Erro: %v", m.err)))
	}

	if m.state == listStateTicket {
		return lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Render(m.ticket)
	}

	query := "todos"
	if m.filter.Query != "" {
		query = m.filter.Query
	}

	header := fmt.Sprintf("Busca: %s | Saldo em caixa: %s",
		activeStyle(query),
		activeStyle(FormatAmount(ledger.CashBalance(m.movements))),
	)

	if m.state == listStateSearch {
		header = m.search.View()
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().PaddingBottom(1).Render(header),
			tableView,
		),
	)
}

func (m *ListModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.movements))
	for _, mv := range m.movements {
		rows = append(rows, table.Row{
			FormatDateTime(mv.CreatedAt),
			mv.Kind.Label(),
			mv.Method.Label(),
			FormatAmount(mv.Amount),
			string(mv.Status),
			mv.Description,
		})
	}

	m.table.SetRows(rows)
}

type loadListMsg struct {
	movements []*ledger.Movement
	err       error
}

func (m ListModel) loadCmd() tea.Cmd {
	filter := m.filter

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		movements, err := m.ledgerService.List(ctx, filter)

		return loadListMsg{movements: movements, err: err}
	}
}
