package main

import (
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/patio/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/patio/internal/audit"
	auditStore "github.com/MrJamesThe3rd/patio/internal/audit/store"
	"github.com/MrJamesThe3rd/patio/internal/config"
	"github.com/MrJamesThe3rd/patio/internal/customer"
	customerStore "github.com/MrJamesThe3rd/patio/internal/customer/store"
	"github.com/MrJamesThe3rd/patio/internal/database"
	"github.com/MrJamesThe3rd/patio/internal/export"
	"github.com/MrJamesThe3rd/patio/internal/importer"
	"github.com/MrJamesThe3rd/patio/internal/ledger"
	ledgerStore "github.com/MrJamesThe3rd/patio/internal/ledger/store"
	"github.com/MrJamesThe3rd/patio/internal/logging"
)

type model struct {
	appName string

	ledgerService   *ledger.Service
	customerService *customer.Service
	auditService    *audit.Service
	importService   *importer.Service
	exportService   *export.Service

	ticketHeader []string
	ticketCols   int

	currentView View

	recordView   view.RecordModel
	listView     view.ListModel
	accountsView view.AccountsModel
	importView   view.ImportModel
	exportView   view.ExportModel
}

type View int

const (
	ViewMenu     View = 0
	ViewRecord   View = 1
	ViewList     View = 2
	ViewAccounts View = 3
	ViewImport   View = 4
	ViewExport   View = 5
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// The screen belongs to bubbletea, so only warnings and errors reach stderr.
	slog.SetDefault(logging.New("warn", cfg.Log.Format))

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	ledgerSvc := ledger.NewService(ledgerStore.New(db), ledger.Options{
		HistoryLimit:    cfg.Ledger.HistoryLimit,
		ListLimit:       cfg.Ledger.ListLimit,
		StrictSelection: cfg.Ledger.StrictSelection,
	})
	customerSvc := customer.NewService(customerStore.New(db))
	auditSvc := audit.NewService(auditStore.New(db))
	impSvc := importer.NewService()
	expSvc := export.NewService(ledgerSvc)

	return model{
		appName:         cfg.App.Name,
		ledgerService:   ledgerSvc,
		customerService: customerSvc,
		auditService:    auditSvc,
		importService:   impSvc,
		exportService:   expSvc,
		ticketHeader:    cfg.Ticket.Header,
		ticketCols:      cfg.Ticket.Cols,
		currentView:     ViewMenu,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewRecord
				m.recordView = view.NewRecordModel(m.ledgerService, m.customerService, m.auditService, m.ticketHeader, m.ticketCols)

				return m, m.recordView.Init()
			case "2":
				m.currentView = ViewList
				m.listView = view.NewListModel(m.ledgerService, m.ticketHeader, m.ticketCols)

				return m, m.listView.Init()
			case "3":
				m.currentView = ViewAccounts
				m.accountsView = view.NewAccountsModel(m.ledgerService, m.customerService, m.auditService)

				return m, m.accountsView.Init()
			case "4":
				m.currentView = ViewImport
				m.importView = view.NewImportModel(m.customerService, m.importService, m.auditService)

				return m, m.importView.Init()
			case "5":
				m.currentView = ViewExport
				m.exportView = view.NewExportModel(m.ledgerService, m.exportService)

				return m, m.exportView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewRecord:
		var newModel tea.Model
		newModel, cmd = m.recordView.Update(msg)
		m.recordView = newModel.(view.RecordModel)
	case ViewList:
		var newModel tea.Model
		newModel, cmd = m.listView.Update(msg)
		m.listView = newModel.(view.ListModel)
	case ViewAccounts:
		var newModel tea.Model
		newModel, cmd = m.accountsView.Update(msg)
		m.accountsView = newModel.(view.AccountsModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	case ViewExport:
		var newModel tea.Model
		newModel, cmd = m.exportView.Update(msg)
		m.exportView = newModel.(view.ExportModel)
	}

	return m, cmd
}

func (m model) View() string {
	var current view.View

	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			m.appName + "\n\n" +
				"1. Registrar movimento\n" +
				"2. Movimentos\n" +
				"3. Contas de clientes (fiado)\n" +
				"4. Importar clientes\n" +
				"5. Fechamento de caixa\n\n" +
				"q. Sair",
		)
	case ViewRecord:
		current = m.recordView
	case ViewList:
		current = m.listView
	case ViewAccounts:
		current = m.accountsView
	case ViewImport:
		current = m.importView
	case ViewExport:
		current = m.exportView
	default:
		return "Tela desconhecida"
	}

	title := lipgloss.NewStyle().Bold(true).PaddingLeft(1).Render(current.Title())
	help := lipgloss.NewStyle().Faint(true).PaddingLeft(1).Render(current.ShortHelp())

	return lipgloss.JoinVertical(lipgloss.Left, title, current.View(), help)
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
