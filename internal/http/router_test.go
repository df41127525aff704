package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/patio/internal/audit"
	"github.com/MrJamesThe3rd/patio/internal/customer"
	"github.com/MrJamesThe3rd/patio/internal/export"
	patioHttp "github.com/MrJamesThe3rd/patio/internal/http"
	customerHandler "github.com/MrJamesThe3rd/patio/internal/http/customer"
	movementHandler "github.com/MrJamesThe3rd/patio/internal/http/movement"
	tillHandler "github.com/MrJamesThe3rd/patio/internal/http/till"
	"github.com/MrJamesThe3rd/patio/internal/importer"
	"github.com/MrJamesThe3rd/patio/internal/ledger"
	"github.com/MrJamesThe3rd/patio/internal/metrics"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func newRouter(t *testing.T, db patioHttp.Pinger) (http.Handler, *ledger.MockRepository) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := ledger.NewMockRepository(ctrl)

	ledgerSvc := ledger.NewService(repo, ledger.Options{})
	auditSvc := audit.NewService(audit.NewMockRepository(ctrl))

	router := patioHttp.New(
		patioHttp.Options{CORSOrigins: []string{"http://caixa.local"}, Metrics: metrics.New(), DB: db},
		movementHandler.NewHandler(ledgerSvc, auditSvc, nil, 40),
		customerHandler.NewHandler(customer.NewService(customer.NewMockRepository(ctrl)), ledgerSvc, importer.NewService(), auditSvc),
		tillHandler.NewHandler(ledgerSvc, export.NewService(ledgerSvc)),
	)

	return router, repo
}

func TestRouter_Healthz(t *testing.T) {
	ok, _ := newRouter(t, pingFunc(func(context.Context) error { return nil }))

	rec := httptest.NewRecorder()
	ok.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	down, _ := newRouter(t, pingFunc(func(context.Context) error { return errors.New("refused") }))

	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_MovementsRequireJSON(t *testing.T) {
	router, _ := newRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/movements", strings.NewReader("kind=SALE"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestRouter_MetricsAndCORS(t *testing.T) {
	router, repo := newRouter(t, nil)

	repo.EXPECT().ListMovements(gomock.Any(), gomock.Any()).Return(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/movements", nil)
	req.Header.Set("Origin", "http://caixa.local")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://caixa.local", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.JSONEq(t, `{"movements":[],"cash_balance":"0.00"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Regexp(t, `patio_http_requests_total\{method="GET",route="/api/v1/movements/?",status="200"\} 1`, rec.Body.String())
}
