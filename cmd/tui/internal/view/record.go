package view

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/patio/internal/audit"
	"github.com/MrJamesThe3rd/patio/internal/customer"
	"github.com/MrJamesThe3rd/patio/internal/ledger"
	"github.com/MrJamesThe3rd/patio/internal/money"
	"github.com/MrJamesThe3rd/patio/internal/ticket"
)

type recordState int

const (
	recordStateLoading recordState = iota
	recordStateForm
	recordStateSaving
	recordStateResult
)

// recordFields lives on the heap so the form bindings survive model copies.
type recordFields struct {
	kind        ledger.Kind
	method      ledger.Method
	amount      string
	description string
	customerID  string
	ticketRef   string
	plate       string
	material    string
	weight      string
}

type RecordModel struct {
	CommonModel
	ledgerService   *ledger.Service
	customerService *customer.Service
	auditService    *audit.Service

	ticketHeader []string
	ticketCols   int

	state  recordState
	form   *huh.Form
	fields *recordFields

	ticket string
	err    error
}

func NewRecordModel(
	ledgerSvc *ledger.Service,
	customerSvc *customer.Service,
	auditSvc *audit.Service,
	ticketHeader []string,
	ticketCols int,
) RecordModel {
	return RecordModel{
		ledgerService:   ledgerSvc,
		customerService: customerSvc,
		auditService:    auditSvc,
		ticketHeader:    ticketHeader,
		ticketCols:      ticketCols,
		fields:          &recordFields{kind: ledger.KindSale, method: ledger.MethodCash},
	}
}

func (m RecordModel) Title() string { return "Registrar movimento" }

func (m RecordModel) ShortHelp() string {
	if m.state == recordStateResult {
		return "Esc: voltar | n: novo movimento"
	}

	return "Esc: voltar"
}

func (m RecordModel) Init() tea.Cmd {
	return m.loadCustomersCmd()
}

func (m RecordModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case recordCustomersMsg:
		if msg.err != nil {
			m.state = recordStateResult
			m.err = msg.err

			return m, nil
		}

		m.form = m.buildForm(msg.customers)
		m.state = recordStateForm

		return m, m.form.Init()

	case recordSavedMsg:
		m.state = recordStateResult
		m.err = msg.err

		if msg.err == nil {
			m.ticket = strings.Join(ticket.ForMovement(m.ticketHeader, m.ticketCols, msg.movement), "\n")
		}

		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc && m.state != recordStateSaving {
			return m, Back
		}

		if m.state == recordStateResult && msg.String() == "n" {
			next := NewRecordModel(m.ledgerService, m.customerService, m.auditService, m.ticketHeader, m.ticketCols)
			return next, next.Init()
		}
	}

	if m.state != recordStateForm {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	params, err := m.fields.params()
	if err != nil {
		m.state = recordStateResult
		m.err = err

		return m, nil
	}

	m.state = recordStateSaving

	return m, m.saveCmd(params)
}

func (m RecordModel) buildForm(customers []*customer.Customer) *huh.Form {
	kinds := []ledger.Kind{ledger.KindSale, ledger.KindWithdrawal, ledger.KindExpense}
	kindOpts := make([]huh.Option[ledger.Kind], 0, len(kinds))
	for _, k := range kinds {
		kindOpts = append(kindOpts, huh.NewOption(k.Label(), k))
	}

	methods := append(slices.Clone(ledger.TillMethods), ledger.MethodOnAccount)
	methodOpts := make([]huh.Option[ledger.Method], 0, len(methods))
	for _, mt := range methods {
		methodOpts = append(methodOpts, huh.NewOption(mt.Label(), mt))
	}

	customerOpts := []huh.Option[string]{huh.NewOption("Nenhum", "")}
	for _, c := range customers {
		customerOpts = append(customerOpts, huh.NewOption(c.Name, c.ID.String()))
	}

	f := m.fields

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[ledger.Kind]().
				Title("Tipo").
				Options(kindOpts...).
				Value(&f.kind),

			huh.NewSelect[ledger.Method]().
				Title("Pagamento").
				Options(methodOpts...).
				Value(&f.method),

			huh.NewInput().
				Title("Valor").
				Placeholder("0,00").
				Value(&f.amount).
				Validate(func(s string) error {
					d, err := money.Parse(s)
					if err != nil {
						return errors.New("valor inválido")
					}

					if !d.IsPositive() {
						return errors.New("o valor deve ser positivo")
					}

					return nil
				}),

			huh.NewInput().
				Title("Descrição").
				Value(&f.description).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("a descrição é obrigatória")
					}

					return nil
				}),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Cliente").
				Description("Obrigatório para vendas fiado").
				Options(customerOpts...).
				Value(&f.customerID).
				Validate(func(s string) error {
					if s == "" && f.method == ledger.MethodOnAccount {
						return errors.New("venda fiado precisa de cliente")
					}

					return nil
				}),

			huh.NewInput().Title("Ticket").Value(&f.ticketRef),
			huh.NewInput().Title("Placa").Value(&f.plate),
			huh.NewInput().Title("Material").Value(&f.material),

			huh.NewInput().
				Title("Peso (kg)").
				Value(&f.weight).
				Validate(func(s string) error {
					if _, err := parseWeight(s); err != nil {
						return errors.New("peso inválido")
					}

					return nil
				}),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (f *recordFields) params() (ledger.RecordParams, error) {
	amount, err := money.Parse(f.amount)
	if err != nil {
		return ledger.RecordParams{}, err
	}

	weight, err := parseWeight(f.weight)
	if err != nil {
		return ledger.RecordParams{}, err
	}

	params := ledger.RecordParams{
		Kind:        f.kind,
		Amount:      amount,
		Method:      f.method,
		Description: f.description,
		TicketRef:   strings.TrimSpace(f.ticketRef),
		Plate:       strings.ToUpper(strings.TrimSpace(f.plate)),
		Material:    strings.TrimSpace(f.material),
		WeightKg:    weight,
	}

	if f.customerID != "" {
		id, err := uuid.Parse(f.customerID)
		if err != nil {
			return ledger.RecordParams{}, fmt.Errorf("parsing customer id: %w", err)
		}

		params.CustomerID = &id
	}

	return params, nil
}

// parseWeight accepts an empty value or a decimal with either separator.
func parseWeight(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	w, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || w < 0 {
		return nil, fmt.Errorf("invalid weight %q", s)
	}

	return &w, nil
}

func (m RecordModel) View() string {
	switch m.state {
	case recordStateLoading:
		return lipgloss.NewStyle().Padding(2).Render("Carregando clientes...")

	case recordStateForm:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())

	case recordStateSaving:
		return lipgloss.NewStyle().Padding(2).Render("Registrando...")

	case recordStateResult:
		if m.err != nil {
			return lipgloss.NewStyle().Padding(2).Render(
				errorStyle(fmt.Sprintf("Erro: %v", m.err)) + "\n\n(Esc para voltar, n para tentar de novo)",
			)
		}

		return lipgloss.NewStyle().Padding(1).Render(
			lipgloss.JoinVertical(lipgloss.Left,
				successStyle("Movimento registrado!"),
				"",
				m.ticket,
			),
		)
	}

	return ""
}

type recordCustomersMsg struct {
	customers []*customer.Customer
	err       error
}

type recordSavedMsg struct {
	movement *ledger.Movement
	err      error
}

func (m RecordModel) loadCustomersCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		customers, err := m.customerService.List(ctx, customer.ListFilter{ActiveOnly: true})

		return recordCustomersMsg{customers: customers, err: err}
	}
}

func (m RecordModel) saveCmd(params ledger.RecordParams) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		mv, err := m.ledgerService.Record(ctx, params)
		if err != nil {
			return recordSavedMsg{err: err}
		}

		m.auditService.Record(ctx, audit.Entry{
			Action:   audit.ActionRecord,
			Entity:   "cash_movement",
			EntityID: &mv.ID,
			Payload: map[string]any{
				"kind":   mv.Kind,
				"method": mv.Method,
				"amount": mv.Amount.StringFixed(2),
				"source": "tui",
			},
		})

		return recordSavedMsg{movement: mv}
	}
}
