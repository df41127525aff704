package view

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/patio/internal/audit"
	"github.com/MrJamesThe3rd/patio/internal/customer"
	"github.com/MrJamesThe3rd/patio/internal/importer"
)

const importTimeout = 2 * time.Minute

type importState int

const (
	importStateFilePick importState = iota
	importStatePreview
	importStateImporting
	importStateResult
)

// ImportModel loads customers from a spreadsheet export.
type ImportModel struct {
	CommonModel
	customerService *customer.Service
	importService   *importer.Service
	auditService    *audit.Service

	state      importState
	filePicker filepicker.Model

	path   string
	params []customer.CreateParams

	status string
	err    error
}

func NewImportModel(customerSvc *customer.Service, impSvc *importer.Service, auditSvc *audit.Service) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".txt"}
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	return ImportModel{
		customerService: customerSvc,
		importService:   impSvc,
		auditService:    auditSvc,
		filePicker:      fp,
	}
}

func (m ImportModel) Title() string { return "Importar clientes" }

func (m ImportModel) ShortHelp() string {
	if m.state == importStatePreview {
		return "Enter: importar | Esc: cancelar"
	}

	return "Esc: voltar | Enter: selecionar"
}

func (m ImportModel) Init() tea.Cmd {
	return m.filePicker.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.handleEsc()
		}

		if m.state == importStatePreview && msg.Type == tea.KeyEnter {
			m.state = importStateImporting
			m.status = fmt.Sprintf("Importando %d clientes...", len(m.params))

			return m, m.createCmd()
		}

	case parseResultMsg:
		if msg.err != nil {
			m.state = importStateResult
			m.err = msg.err
			m.status = fmt.Sprintf("Erro: %v", msg.err)

			return m, nil
		}

		m.params = msg.params
		m.state = importStatePreview

		return m, nil

	case createResultMsg:
		m.state = importStateResult
		if msg.err != nil {
			m.err = msg.err
			m.status = fmt.Sprintf("Erro após %d clientes: %v", msg.count, msg.err)

			return m, nil
		}

		m.status = fmt.Sprintf("%d clientes importados, %d linhas ignoradas.", msg.count, len(m.params)-msg.count)

		return m, nil
	}

	if m.state != importStateFilePick {
		return m, nil
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.path = path
		m.state = importStateImporting
		m.status = fmt.Sprintf("Lendo %s...", path)

		return m, m.parseCmd(path)
	}

	return m, cmd
}

func (m ImportModel) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case importStatePreview, importStateResult:
		m.state = importStateFilePick
		m.params = nil
		m.err = nil
		m.status = ""

		return m, m.filePicker.Init()
	case importStateImporting:
		return m, nil
	}

	return m, Back
}

func (m ImportModel) View() string {
	switch m.state {
	case importStateFilePick:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("Selecione a planilha (CSV separado por ;):\n\n%s", m.filePicker.View()),
		)
	case importStatePreview:
		return m.viewPreview()
	case importStateImporting:
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	case importStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ImportModel) viewPreview() string {
	s := fmt.Sprintf("%s\n\n%d linhas encontradas.\n\n", m.path, len(m.params))

	for i, p := range m.params {
		if i == 10 {
			s += fmt.Sprintf("  ... e mais %d\n", len(m.params)-i)
			break
		}

		s += fmt.Sprintf("  %-30s %-18s %s\n", p.Name, p.Document, p.City)
	}

	return lipgloss.NewStyle().Padding(2).Render(s)
}

func (m ImportModel) viewResult() string {
	style := lipgloss.NewStyle().Padding(2)
	if m.err != nil {
		return style.Render(errorStyle(m.status) + "\n\n(Esc para voltar)")
	}

	return style.Render(successStyle(m.status) + "\n\n(Esc para voltar)")
}

type parseResultMsg struct {
	params []customer.CreateParams
	err    error
}

type createResultMsg struct {
	count int
	err   error
}

func (m ImportModel) parseCmd(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return parseResultMsg{err: err}
		}
		defer f.Close()

		params, err := m.importService.Import(importer.FormatSheet, f)

		return parseResultMsg{params: params, err: err}
	}
}

func (m ImportModel) createCmd() tea.Cmd {
	params := m.params
	path := m.path

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		created, err := m.customerService.CreateMany(ctx, params)

		payload := map[string]any{"file": path, "rows": len(params), "created": len(created)}
		if err != nil {
			payload["error"] = err.Error()
		}

		m.auditService.Record(ctx, audit.Entry{
			Action:  audit.ActionCustomerImport,
			Entity:  "customer",
			Payload: payload,
		})

		return createResultMsg{count: len(created), err: err}
	}
}
