package till

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/patio/internal/export"
	"github.com/MrJamesThe3rd/patio/internal/http/render"
	"github.com/MrJamesThe3rd/patio/internal/ledger"
)

type Handler struct {
	ledger *ledger.Service
	export *export.Service
}

func NewHandler(ledgerSvc *ledger.Service, exportSvc *export.Service) *Handler {
	return &Handler{ledger: ledgerSvc, export: exportSvc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/summary", h.summary)
	r.Get("/export", h.exportCSV)
}

type summaryResponse struct {
	Start    time.Time         `json:"start"`
	End      time.Time         `json:"end"`
	Inflow   map[string]string `json:"inflow"`
	Outflow  map[string]string `json:"outflow"`
	TotalIn  string            `json:"total_in"`
	TotalOut string            `json:"total_out"`
	Balance  string            `json:"balance"`
	Count    int               `json:"count"`
	Text     string            `json:"text"`
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	start, end, err := ParseRange(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		render.Message(w, http.StatusBadRequest, err.Error())
		return
	}

	sum, err := h.ledger.Summary(r.Context(), start, end)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	resp := summaryResponse{
		Start:    sum.Start,
		End:      sum.End,
		Inflow:   make(map[string]string, len(sum.Inflow)),
		Outflow:  make(map[string]string, len(sum.Outflow)),
		TotalIn:  sum.TotalIn.StringFixed(2),
		TotalOut: sum.TotalOut.StringFixed(2),
		Balance:  sum.Balance.StringFixed(2),
		Count:    len(sum.Movements),
		Text:     export.GenerateSummary(sum),
	}

	for m, v := range sum.Inflow {
		resp.Inflow[string(m)] = v.StringFixed(2)
	}

	for k, v := range sum.Outflow {
		resp.Outflow[string(k)] = v.StringFixed(2)
	}

	render.JSON(w, http.StatusOK, resp)
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	start, end, err := ParseRange(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		render.Message(w, http.StatusBadRequest, err.Error())
		return
	}

	if end.Before(start) {
		render.Error(w, r, ledger.ErrInvalidRange)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="caixa_%s_%s.csv"`, start.Format("20060102"), end.Format("20060102")))

	if err := h.export.Period(r.Context(), start, end, w); err != nil {
		render.Error(w, r, err)
	}
}

// ParseRange reads RFC 3339 timestamps or YYYY-MM-DD dates. A date-only end covers the
// whole day. Missing values default to today.
func ParseRange(startStr, endStr string) (time.Time, time.Time, error) {
	today := time.Now().Format(time.DateOnly)

	if startStr == "" {
		startStr = today
	}

	if endStr == "" {
		endStr = today
	}

	start, _, err := parseBound(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start: %w", err)
	}

	end, dateOnly, err := parseBound(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end: %w", err)
	}

	// The last instant before the next local midnight, so DST days and sub-second
	// timestamps are covered.
	if dateOnly {
		y, m, d := end.Date()
		end = time.Date(y, m, d+1, 0, 0, 0, 0, end.Location()).Add(-time.Nanosecond)
	}

	return start, end, nil
}

func parseBound(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}

	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("expected RFC 3339 or YYYY-MM-DD, got %q", s)
	}

	return t, true, nil
}
