package customer

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/patio/internal/audit"
	"github.com/MrJamesThe3rd/patio/internal/customer"
	"github.com/MrJamesThe3rd/patio/internal/http/movement"
	"github.com/MrJamesThe3rd/patio/internal/http/render"
	"github.com/MrJamesThe3rd/patio/internal/importer"
	"github.com/MrJamesThe3rd/patio/internal/ledger"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

type Handler struct {
	customers *customer.Service
	ledger    *ledger.Service
	importer  *importer.Service
	audit     *audit.Service
	validate  *validator.Validate
}

func NewHandler(customers *customer.Service, ledgerSvc *ledger.Service, importSvc *importer.Service, auditSvc *audit.Service) *Handler {
	return &Handler{
		customers: customers,
		ledger:    ledgerSvc,
		importer:  importSvc,
		audit:     auditSvc,
		validate:  newValidator(),
	}
}

// newValidator reports fields by their JSON name.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Post("/import", h.importCSV)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Get("/{id}/statement", h.statement)
	r.Post("/{id}/settlements", h.settle)
}

type createCustomerRequest struct {
	Name     string `json:"name" validate:"max=120"`
	Document string `json:"document" validate:"max=20"`
	Phone    string `json:"phone" validate:"max=30"`
	Email    string `json:"email" validate:"omitempty,email"`
	City     string `json:"city" validate:"max=80"`
}

type updateCustomerRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=120"`
	Document *string `json:"document" validate:"omitempty,max=20"`
	Phone    *string `json:"phone" validate:"omitempty,max=30"`
	Email    *string `json:"email" validate:"omitempty,email"`
	City     *string `json:"city" validate:"omitempty,max=80"`
	Active   *bool   `json:"active"`
}

type settleRequest struct {
	MovementIDs   []uuid.UUID   `json:"movement_ids" validate:"required,min=1,max=500"`
	PaymentMethod ledger.Method `json:"payment_method"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if !h.decode(w, r, &req) {
		return
	}

	c, err := h.customers.Create(r.Context(), customer.CreateParams(req))
	if err != nil {
		render.Error(w, r, err)
		return
	}

	h.audit.Record(r.Context(), audit.Entry{
		Actor:    render.OperatorID(r),
		Action:   audit.ActionCustomerCreate,
		Entity:   "customer",
		EntityID: &c.ID,
		Payload:  req,
	})

	render.JSON(w, http.StatusCreated, toResponse(c))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := customer.ListFilter{Query: r.URL.Query().Get("q")}

	if s := r.URL.Query().Get("active"); s != "" {
		active, err := strconv.ParseBool(s)
		if err != nil {
			render.Message(w, http.StatusBadRequest, "invalid active flag")
			return
		}

		filter.ActiveOnly = active
	}

	customers, err := h.customers.List(r.Context(), filter)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toResponseList(customers))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	c, ok := h.load(w, r)
	if !ok {
		return
	}

	render.JSON(w, http.StatusOK, toResponse(c))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req updateCustomerRequest
	if !h.decode(w, r, &req) {
		return
	}

	c, err := h.customers.Update(r.Context(), id, customer.UpdateParams(req))
	if err != nil {
		render.Error(w, r, err)
		return
	}

	h.audit.Record(r.Context(), audit.Entry{
		Actor:    render.OperatorID(r),
		Action:   audit.ActionCustomerUpdate,
		Entity:   "customer",
		EntityID: &c.ID,
		Payload:  req,
	})

	render.JSON(w, http.StatusOK, toResponse(c))
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		render.Message(w, http.StatusBadRequest, "failed to parse form: "+err.Error())
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		render.Message(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	params, err := h.importer.Import(importer.Format(r.FormValue("format")), file)
	if err != nil {
		render.Message(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.customers.CreateMany(r.Context(), params)
	if err != nil {
		h.audit.Record(r.Context(), audit.Entry{
			Actor:   render.OperatorID(r),
			Action:  audit.ActionCustomerImport,
			Entity:  "customer",
			Payload: map[string]any{"rows": len(params), "imported": 0, "error": err.Error()},
		})

		render.Error(w, r, err)
		return
	}

	h.audit.Record(r.Context(), audit.Entry{
		Actor:   render.OperatorID(r),
		Action:  audit.ActionCustomerImport,
		Entity:  "customer",
		Payload: map[string]int{"rows": len(params), "imported": len(created)},
	})

	render.JSON(w, http.StatusCreated, importResponse{
		Imported:  len(created),
		Customers: toResponseList(created),
	})
}

func (h *Handler) statement(w http.ResponseWriter, r *http.Request) {
	c, ok := h.load(w, r)
	if !ok {
		return
	}

	st, err := h.ledger.Statement(r.Context(), c.ID)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, statementResponse{
		Customer: toResponse(c),
		Pending:  movement.ToResponseList(st.Pending),
		History:  movement.ToResponseList(st.History),
		TotalDue: st.TotalDue.StringFixed(2),
	})
}

func (h *Handler) settle(w http.ResponseWriter, r *http.Request) {
	c, ok := h.load(w, r)
	if !ok {
		return
	}

	var req settleRequest
	if !h.decode(w, r, &req) {
		return
	}

	operator := render.OperatorID(r)

	result, err := h.ledger.Settle(r.Context(), ledger.SettleParams{
		CustomerID:  c.ID,
		MovementIDs: req.MovementIDs,
		Method:      ledger.Method(strings.ToUpper(string(req.PaymentMethod))),
		OperatorID:  operator,
	})
	if err != nil {
		render.Error(w, r, err)
		return
	}

	resp := toSettlementResponse(result)

	h.audit.Record(r.Context(), audit.Entry{
		Actor:    operator,
		Action:   audit.ActionSettle,
		Entity:   "cash_movement",
		EntityID: &result.Payment.ID,
		Payload: map[string]any{
			"customer_id": c.ID,
			"amount":      resp.Payment.Amount,
			"method":      result.Payment.Method,
			"settled":     resp.Settled,
			"skipped":     resp.Skipped,
		},
	})

	render.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*customer.Customer, bool) {
	id, ok := parseID(w, r)
	if !ok {
		return nil, false
	}

	c, err := h.customers.Get(r.Context(), id)
	if err != nil {
		render.Error(w, r, err)
		return nil, false
	}

	return c, true
}

// decode reads a JSON body into v and checks its validate tags.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			render.Message(w, http.StatusRequestEntityTooLarge, "body too large")
			return false
		}

		render.Message(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return false
	}

	if err := h.validate.Struct(v); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			render.Message(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid %s: failed %q", strings.ToLower(fe.Field()), fe.Tag()))

			return false
		}

		render.Message(w, http.StatusBadRequest, err.Error())

		return false
	}

	return true
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Message(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}

	return id, true
}
