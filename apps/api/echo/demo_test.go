package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alisaqulain/madarcrm-sub000/core"
	"github.com/Alisaqulain/madarcrm-sub000/core/demo"
	logsvc "github.com/Alisaqulain/madarcrm-sub000/services/logger"
	"github.com/Alisaqulain/madarcrm-sub000/services/metrics"
	dummydb "github.com/Alisaqulain/madarcrm-sub000/storage/database/dummy"
)

var errDiskFull = errors.New("disk full")

type failingRepo struct {
	demo.Repository
}

func (failingRepo) InsertAttendance(context.Context, []demo.AttendanceMark) error {
	return errDiskFull
}

type testApp struct {
	srv  *Server
	repo demo.Repository
}

func setup(t *testing.T, apiKey string, wrap ...func(demo.Repository) demo.Repository) testApp {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)

	var repo demo.Repository = dummydb.NewDemoRepository(db)
	for _, w := range wrap {
		repo = w(repo)
	}

	validate, translator := core.NewValidator()
	demo.InitValidators(validate, translator)
	logger := logsvc.NewNop()

	plan := demo.DefaultPlan()
	plan.Persons = demo.Range{Min: 10, Max: 10}
	plan.Staff = demo.Range{Min: 2, Max: 2}
	plan.AttendanceMonths = 1
	plan.FeeMonths = 1

	reg := prometheus.NewRegistry()
	rec, err := metrics.NewRecorder(reg)
	require.NoError(t, err)

	ctl, err := demo.NewController(demo.Deps{
		Repo:                repo,
		Logger:              logger,
		Validate:            validate,
		Translator:          translator,
		Plan:                plan,
		PlaceholderPassword: "Demo#Pass123",
		Metrics:             rec,
	})
	require.NoError(t, err)

	conf := &core.Config{
		AppName:  "MadarCRM",
		TestMode: true,
		Server:   core.ServerConfig{DisableReqLogs: true, APIKey: apiKey},
	}
	return testApp{
		srv: NewServer(ServerDeps{
			Conf:       conf,
			Logger:     logger,
			DemoCtl:    ctl,
			Validate:   validate,
			Translator: translator,
			Gatherer:   reg,
		}),
		repo: repo,
	}
}

func (app testApp) do(method, path string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	app.srv.ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) demo.Result {
	t.Helper()
	var res demo.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func Test_demoApi_lifecycle(t *testing.T) {
	app := setup(t, "")

	tests := []struct {
		name       string
		method     string
		path       string
		wantCode   int
		wantStatus demo.Status
		wantPhase  string
	}{
		{"status of unknown tenant", http.MethodGet, "/v1/tenants/T1/demo", http.StatusOK, demo.StatusOK, "off"},
		{"enable", http.MethodPost, "/v1/tenants/T1/demo/enable", http.StatusOK, demo.StatusOK, "enabled-empty"},
		{"load", http.MethodPost, "/v1/tenants/T1/demo/load", http.StatusOK, demo.StatusOK, "enabled-loaded"},
		{"load again", http.MethodPost, "/v1/tenants/T1/demo/load", http.StatusOK, demo.StatusNoop, "enabled-loaded"},
		{"reset", http.MethodPost, "/v1/tenants/T1/demo/reset", http.StatusOK, demo.StatusOK, "enabled-loaded"},
		{"disable keeps data", http.MethodPost, "/v1/tenants/T1/demo/disable", http.StatusOK, demo.StatusOK, "disabled-loaded"},
		{"clear", http.MethodPost, "/v1/tenants/T1/demo/clear", http.StatusOK, demo.StatusOK, "off"},
		{"trailing slash", http.MethodGet, "/v1/tenants/T1/demo/", http.StatusOK, demo.StatusOK, "off"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(tt.method, tt.path)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			res := decodeResult(t, rec)
			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, "T1", res.TenantID)
			assert.Equal(t, tt.wantPhase, res.State.Phase())
		})
	}

	res := decodeResult(t, app.do(http.MethodGet, "/v1/tenants/T1/demo"))
	assert.Zero(t, res.Counts.Total())
}

func Test_demoApi_loadCounts(t *testing.T) {
	app := setup(t, "")

	res := decodeResult(t, app.do(http.MethodPost, "/v1/tenants/T1/demo/load"))
	assert.Equal(t, 10, res.Counts.Persons)
	assert.Equal(t, 2, res.Counts.Staff)
	assert.Equal(t, 10, res.Counts.Fees)

	status := decodeResult(t, app.do(http.MethodGet, "/v1/tenants/T1/demo"))
	assert.Equal(t, res.Counts, status.Counts)

	other := decodeResult(t, app.do(http.MethodGet, "/v1/tenants/T2/demo"))
	assert.Zero(t, other.Counts.Total())
}

func Test_demoApi_invalidTenant(t *testing.T) {
	app := setup(t, "")

	rec := app.do(http.MethodPost, "/v1/tenants/bad%20tenant/demo/load")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid tenant identifier", body["tenant"])
}

func Test_demoApi_busy(t *testing.T) {
	app := setup(t, "")

	now := time.Now().UTC()
	_, err := app.repo.AcquireState(context.Background(), "T1", demo.OpReset, now, now.Add(-time.Minute))
	require.NoError(t, err)

	rec := app.do(http.MethodPost, "/v1/tenants/T1/demo/load")
	assert.Equal(t, http.StatusConflict, rec.Code)

	res := decodeResult(t, rec)
	assert.Equal(t, demo.StatusBusy, res.Status)
	assert.Equal(t, demo.OpReset, res.State.Operation)
}

func Test_demoApi_storageError(t *testing.T) {
	app := setup(t, "", func(r demo.Repository) demo.Repository { return failingRepo{r} })

	rec := app.do(http.MethodPost, "/v1/tenants/T1/demo/load")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	res := decodeResult(t, rec)
	assert.Equal(t, demo.StatusError, res.Status)
	assert.Contains(t, res.Message, errDiskFull.Error())
	assert.False(t, res.State.DemoDataLoaded)

	// the partial load was rolled back
	status := decodeResult(t, app.do(http.MethodGet, "/v1/tenants/T1/demo"))
	assert.Zero(t, status.Counts.Total())
}

func Test_apiKey(t *testing.T) {
	app := setup(t, "s3cret")

	tests := []struct {
		name     string
		header   []string
		wantCode int
	}{
		{"missing key", nil, http.StatusBadRequest},
		{"wrong key", []string{apiKeyHeader, "nope"}, http.StatusUnauthorized},
		{"valid key", []string{apiKeyHeader, "s3cret"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(http.MethodGet, "/v1/tenants/T1/demo", tt.header...)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}

	// outside of /v1
	assert.Equal(t, http.StatusOK, app.do(http.MethodGet, "/").Code)
}

func Test_metrics(t *testing.T) {
	app := setup(t, "")
	app.do(http.MethodPost, "/v1/tenants/T1/demo/enable")

	rec := app.do(http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `madarcrm_demo_operations_total{operation="enable",status="ok"} 1`)
}
