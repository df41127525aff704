package movement

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/patio/internal/audit"
	"github.com/MrJamesThe3rd/patio/internal/http/render"
	"github.com/MrJamesThe3rd/patio/internal/ledger"
	"github.com/MrJamesThe3rd/patio/internal/ticket"
)

type Handler struct {
	svc          *ledger.Service
	audit        *audit.Service
	ticketHeader []string
	ticketCols   int
}

func NewHandler(svc *ledger.Service, auditSvc *audit.Service, ticketHeader []string, ticketCols int) *Handler {
	return &Handler{
		svc:          svc,
		audit:        auditSvc,
		ticketHeader: ticketHeader,
		ticketCols:   ticketCols,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Get("/{id}/ticket", h.ticket)
}

type createMovementRequest struct {
	Kind        ledger.Kind     `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Method      ledger.Method   `json:"method"`
	Description string          `json:"description"`
	TicketRef   string          `json:"ticket_ref"`
	Plate       string          `json:"plate"`
	Material    string          `json:"material"`
	WeightKg    *float64        `json:"weight_kg"`
	CustomerID  *uuid.UUID      `json:"customer_id"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createMovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Message(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	operator := render.OperatorID(r)

	m, err := h.svc.Record(r.Context(), ledger.RecordParams{
		Kind:        ledger.Kind(strings.ToUpper(string(req.Kind))),
		Amount:      req.Amount,
		Method:      ledger.Method(strings.ToUpper(string(req.Method))),
		Description: req.Description,
		TicketRef:   req.TicketRef,
		Plate:       req.Plate,
		Material:    req.Material,
		WeightKg:    req.WeightKg,
		CustomerID:  req.CustomerID,
		OperatorID:  operator,
	})
	if err != nil {
		render.Error(w, r, err)
		return
	}

	h.audit.Record(r.Context(), audit.Entry{
		Actor:    operator,
		Action:   audit.ActionRecord,
		Entity:   "cash_movement",
		EntityID: &m.ID,
		Payload: map[string]any{
			"kind":   m.Kind,
			"method": m.Method,
			"amount": m.Amount.StringFixed(2),
		},
	})

	render.JSON(w, http.StatusCreated, ToResponse(m))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := ledger.ListFilter{Query: r.URL.Query().Get("q")}

	if s := r.URL.Query().Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil {
			render.Message(w, http.StatusBadRequest, "invalid limit")
			return
		}

		filter.Limit = limit
	}

	if s := r.URL.Query().Get("customer_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			render.Message(w, http.StatusBadRequest, "invalid customer_id")
			return
		}

		filter.CustomerID = &id
	}

	movements, err := h.svc.List(r.Context(), filter)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, listResponse{
		Movements:   ToResponseList(movements),
		CashBalance: ledger.CashBalance(movements).StringFixed(2),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	m, ok := h.load(w, r)
	if !ok {
		return
	}

	render.JSON(w, http.StatusOK, ToResponse(m))
}

func (h *Handler) ticket(w http.ResponseWriter, r *http.Request) {
	m, ok := h.load(w, r)
	if !ok {
		return
	}

	lines := ticket.ForMovement(h.ticketHeader, h.ticketCols, m)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(strings.Join(lines, "\n")))
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*ledger.Movement, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Message(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}

	m, err := h.svc.Get(r.Context(), id)
	if err != nil {
		render.Error(w, r, err)
		return nil, false
	}

	return m, true
}
