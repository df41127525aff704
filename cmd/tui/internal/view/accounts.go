package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/patio/internal/audit"
	"github.com/MrJamesThe3rd/patio/internal/customer"
	"github.com/MrJamesThe3rd/patio/internal/ledger"
)

type accountsState int

const (
	accountsStateCustomers accountsState = iota
	accountsStateStatement
	accountsStateMethod
	accountsStateSettling
	accountsStateResult
)

type AccountsModel struct {
	CommonModel
	ledgerService   *ledger.Service
	customerService *customer.Service
	auditService    *audit.Service

	state     accountsState
	table     table.Model
	customers []*customer.Customer

	current   *customer.Customer
	statement *ledger.Statement
	pending   list.Model
	selected  map[int]bool

	form   *huh.Form
	method *ledger.Method

	loading bool
	status  string
	err     error
}

func NewAccountsModel(ledgerSvc *ledger.Service, customerSvc *customer.Service, auditSvc *audit.Service) AccountsModel {
	columns := []table.Column{
		{Title: "Cliente", Width: 30},
		{Title: "Documento", Width: 18},
		{Title: "Telefone", Width: 16},
		{Title: "Cidade", Width: 20},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	t.SetStyles(tableStyles())

	return AccountsModel{
		ledgerService:   ledgerSvc,
		customerService: customerSvc,
		auditService:    auditSvc,
		table:           t,
		selected:        make(map[int]bool),
		loading:         true,
	}
}

func (m AccountsModel) Title() string { return "Contas de clientes" }

func (m AccountsModel) ShortHelp() string {
	switch m.state {
	case accountsStateStatement:
		return "Space: marcar | a: todas | n: nenhuma | p: quitar | Esc: voltar"
	case accountsStateMethod:
		return "Enter: confirmar | Esc: cancelar"
	case accountsStateResult:
		return "Esc: voltar ao extrato"
	}

	return "Enter: extrato | r: atualizar | Esc: voltar"
}

func (m AccountsModel) Init() tea.Cmd {
	return m.loadCustomersCmd()
}

func (m AccountsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case accountsCustomersMsg:
		m.loading = false
		m.err = msg.err

		if msg.err == nil {
			m.customers = msg.customers
			m.refreshTable()
		}

		return m, nil

	case statementMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.setStatement(msg.statement)
		m.state = accountsStateStatement

		return m, nil

	case settledMsg:
		m.state = accountsStateResult
		m.err = msg.err

		if msg.err == nil {
			m.status = settlementStatus(msg.settlement)
		}

		return m, nil

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.table.SetHeight(msg.Height - 10)

		return m, nil
	}

	switch m.state {
	case accountsStateStatement:
		return m.updateStatement(msg)
	case accountsStateMethod:
		return m.updateMethod(msg)
	case accountsStateResult:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
			m.err = nil
			m.status = ""
			m.loading = true

			return m, m.loadStatementCmd(m.current.ID)
		}

		return m, nil
	case accountsStateSettling:
		return m, nil
	}

	return m.updateCustomers(msg)
}

func (m AccountsModel) updateCustomers(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCustomersCmd()
		case "enter":
			idx := m.table.Cursor()
			if idx < 0 || idx >= len(m.customers) {
				return m, nil
			}

			m.current = m.customers[idx]
			m.loading = true

			return m, m.loadStatementCmd(m.current.ID)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m AccountsModel) updateStatement(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.state = accountsStateCustomers
			m.statement = nil
			m.err = nil

			return m, nil
		case " ":
			idx := m.pending.Index()
			m.selected[idx] = !m.selected[idx]

			return m, nil
		case "a":
			for i := range m.statement.Pending {
				m.selected[i] = true
			}

			return m, nil
		case "n":
			clear(m.selected)
			return m, nil
		case "p":
			if len(m.selectedIDs()) == 0 {
				m.err = fmt.Errorf("nenhuma venda marcada")
				return m, nil
			}

			m.err = nil
			m.method = new(ledger.MethodCash)
			m.form = m.buildMethodForm(m.method)
			m.state = accountsStateMethod

			return m, m.form.Init()
		}
	}

	var cmd tea.Cmd
	m.pending, cmd = m.pending.Update(msg)

	return m, cmd
}

func (m AccountsModel) updateMethod(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = accountsStateStatement
		m.form = nil

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = accountsStateSettling

	return m, m.settleCmd(ledger.SettleParams{
		CustomerID:  m.current.ID,
		MovementIDs: m.selectedIDs(),
		Method:      *m.method,
	})
}

func (m AccountsModel) buildMethodForm(method *ledger.Method) *huh.Form {
	opts := make([]huh.Option[ledger.Method], 0, len(ledger.TillMethods))
	for _, mt := range ledger.TillMethods {
		opts = append(opts, huh.NewOption(mt.Label(), mt))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[ledger.Method]().
				Title(fmt.Sprintf("Forma de pagamento (%s)", FormatAmount(m.selectedTotal()))).
				Options(opts...).
				Value(method),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m *AccountsModel) setStatement(st *ledger.Statement) {
	m.statement = st
	m.selected = make(map[int]bool)

	items := make([]list.Item, len(st.Pending))
	for i, mv := range st.Pending {
		items[i] = pendingItem{movement: mv, index: i}
	}

	m.pending = list.New(items, pendingDelegate{selected: m.selected}, 80, 15)
	m.pending.Title = "Vendas em aberto"
	m.pending.SetShowStatusBar(false)
	m.pending.SetFilteringEnabled(false)
	m.pending.SetShowHelp(false)
}

func (m AccountsModel) selectedIDs() []uuid.UUID {
	if m.statement == nil {
		return nil
	}

	var ids []uuid.UUID
	for i, mv := range m.statement.Pending {
		if m.selected[i] {
			ids = append(ids, mv.ID)
		}
	}

	return ids
}

func (m AccountsModel) selectedTotal() decimal.Decimal {
	var picked []*ledger.Movement
	for i, mv := range m.statement.Pending {
		if m.selected[i] {
			picked = append(picked, mv)
		}
	}

	return ledger.Total(picked)
}

func (m *AccountsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.customers))
	for _, c := range m.customers {
		doc := ""
		if c.Document != nil {
			doc = *c.Document
		}

		rows = append(rows, table.Row{c.Name, doc, c.Phone, c.City})
	}

	m.table.SetRows(rows)
}

func settlementStatus(s *ledger.Settlement) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Pagamento de %s registrado em %s.\n", FormatAmount(s.Payment.Amount), s.Payment.Method.Label())
	fmt.Fprintf(&b, "%d de %d vendas quitadas.", len(s.Settled), s.Requested)

	if len(s.Skipped) > 0 {
		fmt.Fprintf(&b, "\n%d vendas ignoradas (já quitadas ou de outro cliente).", len(s.Skipped))
	}

	return b.String()
}

func (m AccountsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Carregando...")
	}

	switch m.state {
	case accountsStateStatement:
		return m.viewStatement()
	case accountsStateMethod:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())
	case accountsStateSettling:
		return lipgloss.NewStyle().Padding(2).Render("Quitando vendas...")
	case accountsStateResult:
		if m.err != nil {
			return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Erro: %v", m.err)))
		}

		return lipgloss.NewStyle().Padding(2).Render(successStyle(m.status))
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Erro: %v", m.err)))
	}

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Render(m.table.View()),
	)
}

func (m AccountsModel) viewStatement() string {
	header := fmt.Sprintf("%s | Em aberto: %s | Marcado: %s",
		lipgloss.NewStyle().Bold(true).Render(m.current.Name),
		activeStyle(FormatAmount(m.statement.TotalDue)),
		activeStyle(FormatAmount(m.selectedTotal())),
	)

	var history strings.Builder
	history.WriteString("Histórico:\n")

	if len(m.statement.History) == 0 {
		history.WriteString("  (vazio)\n")
	}

	for _, mv := range m.statement.History {
		fmt.Fprintf(&history, "  %s  %-9s %14s  %s\n",
			FormatDateTime(mv.CreatedAt), mv.Kind.Label(), FormatAmount(mv.Amount), mv.Description)
	}

	parts := []string{header, "", m.pending.View(), "", lipgloss.NewStyle().Faint(true).Render(history.String())}
	if m.err != nil {
		parts = append(parts, errorStyle(m.err.Error()))
	}

	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

type accountsCustomersMsg struct {
	customers []*customer.Customer
	err       error
}

type statementMsg struct {
	statement *ledger.Statement
	err       error
}

type settledMsg struct {
	settlement *ledger.Settlement
	err        error
}

func (m AccountsModel) loadCustomersCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		customers, err := m.customerService.List(ctx, customer.ListFilter{ActiveOnly: true})

		return accountsCustomersMsg{customers: customers, err: err}
	}
}

func (m AccountsModel) loadStatementCmd(id uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		st, err := m.ledgerService.Statement(ctx, id)

		return statementMsg{statement: st, err: err}
	}
}

func (m AccountsModel) settleCmd(params ledger.SettleParams) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		s, err := m.ledgerService.Settle(ctx, params)
		if err != nil {
			return settledMsg{err: err}
		}

		m.auditService.Record(ctx, audit.Entry{
			Action:   audit.ActionSettle,
			Entity:   "cash_movement",
			EntityID: &s.Payment.ID,
			Payload: map[string]any{
				"customer_id": params.CustomerID,
				"requested":   s.Requested,
				"settled":     len(s.Settled),
				"skipped":     s.Skipped,
				"source":      "tui",
			},
		})

		return settledMsg{settlement: s}
	}
}

type pendingItem struct {
	movement *ledger.Movement
	index    int
}

func (i pendingItem) Title() string       { return "" }
func (i pendingItem) Description() string { return "" }
func (i pendingItem) FilterValue() string { return "" }

type pendingDelegate struct {
	selected map[int]bool
}

func (d pendingDelegate) Height() int                             { return 1 }
func (d pendingDelegate) Spacing() int                            { return 0 }
func (d pendingDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d pendingDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(pendingItem)
	if !ok {
		return
	}

	checkbox := "[ ]"
	if d.selected[item.index] {
		checkbox = "[x]"
	}

	cursor := "  "
	if index == m.Index() {
		cursor = "> "
	}

	mv := item.movement
	fmt.Fprintf(w, "%s%s %s  %14s  %s", cursor, checkbox, FormatDateTime(mv.CreatedAt), FormatAmount(mv.Amount), mv.Description)
}
