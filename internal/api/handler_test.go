package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ndjaka/mineral-tax/internal/api/metrics"
	"ndjaka/mineral-tax/internal/logging"
	"ndjaka/mineral-tax/internal/models"
	"ndjaka/mineral-tax/internal/report"
	"ndjaka/mineral-tax/internal/store"
	"ndjaka/mineral-tax/internal/taxrate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// HandlerSuite exercises the router with the built-in rate table.
type HandlerSuite struct {
	suite.Suite
	router  http.Handler
	logger  *logging.MockLogger
	metrics *metrics.Metrics
}

func (s *HandlerSuite) SetupTest() {
	s.logger = logging.NewMockLogger()
	s.metrics = metrics.New()

	resolver := taxrate.NewResolver(nil)
	machines := store.NewMockMachineStore(models.Machine{ID: "TRAC-01", TaxasActivity: "agriculture_with_direct"})
	generator := report.NewGenerator(s.logger, taxrate.NewCalculator(resolver), machines)
	s.router = New(generator, resolver, s.logger, s.metrics).Routes()
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestHealth() {
	rec := s.do(http.MethodGet, "/healthz", "")
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"status":"ok"}`, rec.Body.String())
	s.True(s.logger.HasEntry("INFO", "HTTP request"))
}

func (s *HandlerSuite) TestRate() {
	tests := []struct {
		name     string
		query    string
		rate     string
		era      string
		fuel     string
		standard bool
	}{
		{"post reform agriculture", "date=2026-01-15&activity=agriculture_with_direct&fuel=diesel", "0.6005", "post_reform", "diesel", false},
		{"pre reform agriculture", "date=2025-12-31&activity=agriculture_with_direct&fuel=diesel", "0.3406", "pre_reform", "diesel", true},
		{"post reform gasoline", "date=2026-01-01&activity=agriculture_with_direct&fuel=gasoline", "0.5924", "post_reform", "gasoline", false},
		{"construction", "date=2026-06-01&activity=construction&fuel=diesel", "0.3406", "post_reform", "diesel", true},
		{"no activity, unknown fuel", "date=15.01.2026&fuel=kerosene", "0.3406", "post_reform", "diesel", true},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.do(http.MethodGet, "/v1/rate?"+tt.query, "")
			s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

			var resp RateResponse
			s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
			s.Equal(tt.rate, resp.RatePerLiter)
			s.Equal(tt.era, resp.Era)
			s.Equal(tt.fuel, resp.FuelType)
			s.Equal(tt.standard, resp.StandardRate)
			s.Equal(taxrate.DefaultTableVersion, resp.RateTable)
		})
	}
}

func (s *HandlerSuite) TestRate_BadDate() {
	for _, q := range []string{"", "date=", "date=2026-02-30", "date=tomorrow"} {
		rec := s.do(http.MethodGet, "/v1/rate?"+q, "")
		s.Equal(http.StatusBadRequest, rec.Code, q)
		s.Contains(rec.Body.String(), `"status":"invalid request"`)
	}
}

func (s *HandlerSuite) TestRate_OffsetDateUsesUTCDay() {
	rec := s.do(http.MethodGet, "/v1/rate?date=2026-01-01T00:30:00%2B01:00&activity=agriculture_with_direct&fuel=diesel", "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp RateResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal("2025-12-31", resp.Date)
	s.Equal("pre_reform", resp.Era)
	s.Equal("0.3406", resp.RatePerLiter)
}

func (s *HandlerSuite) TestReimbursements_Factures() {
	body := `{"entries":[
		{"date":"2025-12-15","invoice_number":"A-2025-118","machine_id":"TRAC-01","activity":"agriculture_with_direct","fuel_type":"diesel","volume_liters":1000},
		{"date":"2026-01-15","invoice_number":"B-2026-004","machine_id":"TRAC-01","fuel_type":"diesel","volume_liters":"1000"}
	]}`

	rec := s.do(http.MethodPost, "/v1/reimbursements", body)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp ReimbursementResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Require().Len(resp.Lines, 2)
	s.NotEmpty(resp.ReportID)

	s.Equal("A-2025-118", resp.Lines[0].InvoiceNumber)
	s.Equal("340.60", resp.Lines[0].AmountCHF)
	s.Equal("0.3406", resp.Lines[0].RatePerLiter)
	s.Equal("pre_reform", resp.Lines[0].Era)

	s.Equal("B-2026-004", resp.Lines[1].InvoiceNumber)
	s.Equal("agriculture_with_direct", resp.Lines[1].Activity)
	s.Equal("600.50", resp.Lines[1].AmountCHF)
	s.Equal("post_reform", resp.Lines[1].Era)

	s.Equal("2000.00", resp.TotalVolume)
	s.Equal("941.10", resp.TotalAmount)

	metricsRec := s.do(http.MethodGet, "/metrics", "")
	s.Equal(http.StatusOK, metricsRec.Code)
	s.Contains(metricsRec.Body.String(), `mineraltax_calculations_total{era="post_reform",sector="agriculture_with_direct"} 1`)
	s.Contains(metricsRec.Body.String(), `route="/v1/reimbursements"`)
}

func (s *HandlerSuite) TestReimbursements_Correction() {
	body := `{"entries":[{"date":"2026-01-15","activity":"agriculture_with_direct","fuel_type":"diesel","volume_liters":-10}]}`

	rec := s.do(http.MethodPost, "/v1/reimbursements", body)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp ReimbursementResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal("-6.01", resp.TotalAmount)
	s.Equal(1, resp.Corrections)
}

func (s *HandlerSuite) TestReimbursements_OffsetDateUsesUTCDay() {
	body := `{"entries":[{"date":"2026-01-01T00:30:00+01:00","activity":"agriculture_with_direct","fuel_type":"diesel","volume_liters":1000}]}`

	rec := s.do(http.MethodPost, "/v1/reimbursements", body)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp ReimbursementResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Require().Len(resp.Lines, 1)
	s.Equal("2025-12-31", resp.Lines[0].Date)
	s.Equal("pre_reform", resp.Lines[0].Era)
	s.Equal("340.60", resp.Lines[0].AmountCHF)
}

func (s *HandlerSuite) TestReimbursements_BodyTooLarge() {
	body := `{"entries":[{"date":"2026-01-01","fuel_type":"diesel","volume_liters":1,"supplier":"` +
		strings.Repeat("x", MaxRequestBytes) + `"}]}`

	rec := s.do(http.MethodPost, "/v1/reimbursements", body)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.True(s.logger.HasEntry("WARN", "Rejected request"))
}

func (s *HandlerSuite) TestReimbursements_BadRequests() {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "not valid json"},
		{"no entries", `{"entries":[]}`},
		{"bad date", `{"entries":[{"date":"2026-13-01","fuel_type":"diesel","volume_liters":1}]}`},
		{"bad volume", `{"entries":[{"date":"2026-01-01","fuel_type":"diesel","volume_liters":"lots"}]}`},
		{"missing volume", `{"entries":[{"date":"2026-01-01","fuel_type":"diesel"}]}`},
		{"missing fuel", `{"entries":[{"date":"2026-01-01","volume_liters":1}]}`},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.do(http.MethodPost, "/v1/reimbursements", tt.body)
			s.Equal(http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestReimbursementRequest_TooManyEntries(t *testing.T) {
	req := &ReimbursementRequest{Entries: make([]EntryRequest, MaxEntriesPerRequest+1)}
	err := req.Bind(httptest.NewRequest(http.MethodPost, "/", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many entries")
}

func TestNew_Defaults(t *testing.T) {
	h := New(nil, nil, logging.NewMockLogger(), nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/rate?date=2026-01-15&activity=agriculture_with_direct", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rate_per_liter":"0.6005"`)

	rec = httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	logger := logging.NewMockLogger()
	srv := NewServer(ServerConfig{ReadTimeout: time.Second, WriteTimeout: time.Second}, New(nil, nil, logger, nil).Routes())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, srv, ln, logger) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout):
		t.Fatal("server did not shut down")
	}
	assert.True(t, logger.HasEntry("INFO", "Shutting down HTTP server"))
}
