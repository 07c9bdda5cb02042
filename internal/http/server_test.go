package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"fintool/internal/amqp"
	"fintool/internal/core"
	"fintool/internal/log"
	"fintool/internal/middleware/ratelimit"
	"fintool/internal/reports"
	"fintool/internal/services"
)

type fakeReports struct {
	err        error
	gotHorizon int
}

func (f *fakeReports) Build(_ context.Context, kind reports.Kind, horizonDays int) (reports.Tabular, error) {
	f.gotHorizon = horizonDays
	if f.err != nil {
		return nil, f.err
	}
	return reports.Assets([]core.MasterAccount{{
		AccountID: "chk", AccountName: "Checking", FinancialType: core.Asset, Value: decimal.NewFromInt(1200),
	}}), nil
}

func (f *fakeReports) BuildMany(ctx context.Context, kinds []reports.Kind, horizonDays int) ([]reports.Tabular, error) {
	f.gotHorizon = horizonDays
	if f.err != nil {
		return nil, f.err
	}
	out := make([]reports.Tabular, 0, len(kinds))
	for _, k := range kinds {
		if k == reports.KindAssets {
			t, _ := f.Build(ctx, k, horizonDays)
			out = append(out, t)
			continue
		}
		out = append(out, reports.Table[reports.AssetRow]{Name: k, Columns: reports.AssetColumns, Rows: []reports.AssetRow{}})
	}
	return out, nil
}

func (f *fakeReports) Project(_ context.Context, horizonDays int) ([]core.Transaction, error) {
	f.gotHorizon = horizonDays
	if f.err != nil {
		return nil, f.err
	}
	return []core.Transaction{{ID: "p1", Date: "2024-04-01", AccountID: "chk", Amount: decimal.NewFromInt(-1500), Status: core.StatusPending}}, nil
}

func (f *fakeReports) Cashflow(context.Context) (reports.CashflowTotals, error) {
	return reports.CashflowTotals{Income: decimal.NewFromInt(5000)}, f.err
}

type fakePublisher struct {
	got []*amqp.ExportRequest
	err error
}

func (f *fakePublisher) PublishExport(_ context.Context, req *amqp.ExportRequest) error {
	f.got = append(f.got, req)
	return f.err
}

type fakeExporter struct{ kinds []reports.Kind }

func (f *fakeExporter) Export(_ context.Context, kinds []reports.Kind, _ int) ([]services.ExportResult, error) {
	f.kinds = kinds
	return []services.ExportResult{{Report: kinds[0], Ref: "mem:x:1", Rows: 2}}, nil
}

type fakeSyncer struct{ err error }

func (f fakeSyncer) Run(context.Context) (services.SyncResult, error) {
	return services.SyncResult{Accounts: 2, Transactions: 10}, f.err
}

func newTestServer(svc ReportService, opts ...Option) *Server {
	return NewServer(":0", svc, log.New(log.Config{Writer: &bytes.Buffer{}}), opts...)
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(&fakeReports{})
	defer srv.Shutdown(context.Background())

	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := do(t, srv, http.MethodGet, path, ""); rr.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rr.Code)
		}
	}

	failing := newTestServer(&fakeReports{}, WithReadinessCheck("sqlite", func(context.Context) error {
		return errors.New("database is locked")
	}))
	defer failing.Shutdown(context.Background())
	rr := do(t, failing, http.MethodGet, "/readyz", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status = %d, want 503", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "database is locked") {
		t.Errorf("readyz body = %s", rr.Body.String())
	}
}

func TestReportEndpoint(t *testing.T) {
	svc := &fakeReports{}
	srv := newTestServer(svc)
	defer srv.Shutdown(context.Background())

	rr := do(t, srv, http.MethodGet, "/api/reports/Assets?days=30", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if svc.gotHorizon != 30 {
		t.Errorf("horizon = %d, want 30", svc.gotHorizon)
	}
	var body struct {
		Name    string           `json:"name"`
		Columns []string         `json:"columns"`
		Rows    []map[string]any `json:"rows"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Name != "assets" || len(body.Rows) != 2 {
		t.Errorf("body = %+v, want assets with one account and a total", body)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID not set")
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers not applied")
	}
}

func TestReportEndpointXLSX(t *testing.T) {
	srv := newTestServer(&fakeReports{})
	defer srv.Shutdown(context.Background())

	rr := do(t, srv, http.MethodGet, "/api/reports/assets?format=xlsx", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("Content-Type = %q", ct)
	}
	f, err := excelize.OpenReader(rr.Body)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Assets")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("sheet has %d rows, want header, account and total", len(rows))
	}
}

func TestReportEndpointErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		err    error
		want   int
	}{
		{name: "unknown report", target: "/api/reports/networth", want: http.StatusNotFound},
		{name: "bad days", target: "/api/reports/projection?days=abc", want: http.StatusBadRequest},
		{name: "days out of range", target: "/api/reports/projection?days=0", want: http.StatusBadRequest},
		{name: "bad format", target: "/api/reports/assets?format=pdf", want: http.StatusBadRequest},
		{
			name:   "unsupported frequency",
			target: "/api/reports/projection",
			err:    &core.UnsupportedFrequencyError{ItemID: "x", Frequency: "weekly"},
			want:   http.StatusUnprocessableEntity,
		},
		{
			name:   "non-positive period",
			target: "/api/reports/budget",
			err:    &core.ArithmeticPreconditionError{Item: "Internet", Field: "period_months"},
			want:   http.StatusUnprocessableEntity,
		},
		{
			name:   "malformed date",
			target: "/api/reports/projection",
			err:    &core.ParseError{Field: "start_date", Value: "2024-13-01"},
			want:   http.StatusUnprocessableEntity,
		},
		{name: "source failure", target: "/api/reports/assets", err: errors.New("disk gone"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&fakeReports{err: tt.err})
			defer srv.Shutdown(context.Background())
			rr := do(t, srv, http.MethodGet, tt.target, "")
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tt.want, rr.Body.String())
			}
			if tt.want == http.StatusInternalServerError && strings.Contains(rr.Body.String(), "disk gone") {
				t.Error("internal error details leaked to the client")
			}
		})
	}
}

func TestProjectionAndCashflow(t *testing.T) {
	svc := &fakeReports{}
	srv := newTestServer(svc)
	defer srv.Shutdown(context.Background())

	rr := do(t, srv, http.MethodGet, "/api/projection?days=90", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("projection status = %d", rr.Code)
	}
	var proj projectionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &proj); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if proj.Count != 1 || proj.Transactions[0].Status != core.StatusPending || svc.gotHorizon != 90 {
		t.Errorf("projection = %+v, horizon %d", proj, svc.gotHorizon)
	}

	rr = do(t, srv, http.MethodGet, "/api/cashflow", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"income":"5000"`) {
		t.Errorf("cashflow status = %d body %s", rr.Code, rr.Body.String())
	}
}

func TestListReports(t *testing.T) {
	svc := &fakeReports{}
	srv := newTestServer(svc)
	defer srv.Shutdown(context.Background())

	rr := do(t, srv, http.MethodGet, "/api/reports?days=30", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Reports []struct {
			Name    string            `json:"name"`
			Columns []string          `json:"columns"`
			Rows    []json.RawMessage `json:"rows"`
		} `json:"reports"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Reports) != len(reports.Kinds) {
		t.Fatalf("got %d reports, want %d", len(body.Reports), len(reports.Kinds))
	}
	for i, k := range reports.Kinds {
		if body.Reports[i].Name != string(k) {
			t.Errorf("reports[%d].name = %q, want %q", i, body.Reports[i].Name, k)
		}
		if len(body.Reports[i].Columns) == 0 {
			t.Errorf("reports[%d] has no columns", i)
		}
	}
	if len(body.Reports[0].Rows) != 2 {
		t.Errorf("assets rows = %d, want 2", len(body.Reports[0].Rows))
	}
	if svc.gotHorizon != 30 {
		t.Errorf("horizon = %d, want 30", svc.gotHorizon)
	}

	rr = do(t, srv, http.MethodGet, "/api/reports?days=abc", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("days=abc status = %d, want 400", rr.Code)
	}

	failing := newTestServer(&fakeReports{err: &core.ArithmeticPreconditionError{Item: "b1", Field: "period_months"}})
	defer failing.Shutdown(context.Background())
	rr = do(t, failing, http.MethodGet, "/api/reports", "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("failing build status = %d, want 422", rr.Code)
	}
}

func TestCreateExport(t *testing.T) {
	t.Run("queued", func(t *testing.T) {
		pub := &fakePublisher{}
		srv := newTestServer(&fakeReports{}, WithPublisher(pub))
		defer srv.Shutdown(context.Background())

		rr := do(t, srv, http.MethodPost, "/api/exports", `{"report":"projection","horizon_days":45}`)
		if rr.Code != http.StatusAccepted {
			t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
		}
		if len(pub.got) != 1 || pub.got[0].Report != "projection" || pub.got[0].HorizonDays != 45 {
			t.Errorf("published %+v", pub.got)
		}
	})

	t.Run("in process", func(t *testing.T) {
		exp := &fakeExporter{}
		srv := newTestServer(&fakeReports{}, WithExporter(exp))
		defer srv.Shutdown(context.Background())

		rr := do(t, srv, http.MethodPost, "/api/exports", `{"report":"budget"}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
		}
		if len(exp.kinds) != 1 || exp.kinds[0] != reports.KindBudget {
			t.Errorf("exported %v", exp.kinds)
		}
	})

	tests := []struct {
		name string
		opts []Option
		body string
		want int
	}{
		{name: "not configured", body: `{"report":"budget"}`, want: http.StatusServiceUnavailable},
		{name: "empty body", opts: []Option{WithPublisher(&fakePublisher{})}, want: http.StatusBadRequest},
		{name: "missing report", opts: []Option{WithPublisher(&fakePublisher{})}, body: `{"horizon_days":10}`, want: http.StatusBadRequest},
		{name: "unknown field", opts: []Option{WithPublisher(&fakePublisher{})}, body: `{"report":"budget","x":1}`, want: http.StatusBadRequest},
		{name: "unknown report", opts: []Option{WithPublisher(&fakePublisher{})}, body: `{"report":"networth"}`, want: http.StatusBadRequest},
		{name: "horizon too long", opts: []Option{WithPublisher(&fakePublisher{})}, body: `{"report":"projection","horizon_days":5000}`, want: http.StatusBadRequest},
		{name: "broker down", opts: []Option{WithPublisher(&fakePublisher{err: amqp.ErrCircuitOpen})}, body: `{"report":"all"}`, want: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&fakeReports{}, tt.opts...)
			defer srv.Shutdown(context.Background())
			if rr := do(t, srv, http.MethodPost, "/api/exports", tt.body); rr.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestWriteEndpointsAreRateLimited(t *testing.T) {
	srv := newTestServer(&fakeReports{},
		WithBankSync(fakeSyncer{}),
		WithRateLimit(ratelimit.Config{Requests: 2, Window: time.Minute}))
	defer srv.Shutdown(context.Background())

	var codes []int
	for range 3 {
		codes = append(codes, do(t, srv, http.MethodPost, "/api/sync", "").Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("status codes = %v, want [200 200 429]", codes)
	}

	// reads are not limited
	for range 5 {
		if rr := do(t, srv, http.MethodGet, "/api/reports/assets", ""); rr.Code != http.StatusOK {
			t.Fatalf("read status = %d", rr.Code)
		}
	}
}

func TestSync(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want int
	}{
		{name: "not configured", want: http.StatusServiceUnavailable},
		{name: "ok", opts: []Option{WithBankSync(fakeSyncer{})}, want: http.StatusOK},
		{name: "no token", opts: []Option{WithBankSync(fakeSyncer{err: services.ErrNoAccessToken})}, want: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&fakeReports{}, tt.opts...)
			defer srv.Shutdown(context.Background())
			if rr := do(t, srv, http.MethodPost, "/api/sync", ""); rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(&fakeReports{})
	defer srv.Shutdown(context.Background())
	if rr := do(t, srv, http.MethodDelete, "/api/reports/assets", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rr.Code)
	}
}
