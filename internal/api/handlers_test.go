package api

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/MeteOShape/shapebot/internal/dispatch"
	"github.com/MeteOShape/shapebot/internal/flow"
	"github.com/MeteOShape/shapebot/internal/messaging"
	"github.com/MeteOShape/shapebot/internal/store"
	"github.com/MeteOShape/shapebot/internal/testutil"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	guarded := store.NewGuarded(store.NewInMemoryStore())
	engine := flow.NewEngine(guarded)
	cfg := dispatch.Config{Location: time.UTC, CheckinWeekday: time.Monday, CheckinHour: 8}
	dispatcher := dispatch.NewDispatcher(guarded, messaging.NewDryRunService(), cfg)
	return NewServer(engine, dispatcher)
}

func TestRootAndHealthRoutes(t *testing.T) {
	handler := newTestServer(t).Handler()
	cases := []struct {
		path   string
		status int
		want   string
	}{
		{"/", http.StatusOK, "OK / (root)"},
		{"/health", http.StatusOK, "ok"},
		{"/admin/ping", http.StatusOK, "OK /admin/ping"},
		{"/nope", http.StatusNotFound, "404"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		testutil.AssertHTTPStatus(t, tc.status, rec.Code, "GET "+tc.path)
		if !strings.Contains(rec.Body.String(), tc.want) {
			t.Errorf("GET %s: body %q missing %q", tc.path, rec.Body.String(), tc.want)
		}
	}
}

func TestAdminCron(t *testing.T) {
	handler := newTestServer(t).Handler()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/cron", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "cron ok – sent=0" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestBotGetIsHealthCheck(t *testing.T) {
	handler := newTestServer(t).Handler()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bot", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "use POST via Twilio") {
		t.Errorf("GET /bot: %d %q", rec.Code, rec.Body.String())
	}
}

func postForm(handler http.Handler, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/bot", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestBotWebhookRepliesTwiML(t *testing.T) {
	handler := newTestServer(t).Handler()
	rec := postForm(handler, url.Values{
		"Body": {"oi"},
		"From": {"whatsapp:+5511999998888"},
		"WaId": {"5511999998888"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "application/xml") {
		t.Errorf("content type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<Message>") || !strings.Contains(body, "Bem-vindo ao Mete o Shape") {
		t.Errorf("twiml body = %q", body)
	}
}

func TestBotWebhookStatefulAcrossRequests(t *testing.T) {
	handler := newTestServer(t).Handler()
	form := url.Values{
		"From": {"whatsapp:+5511999998888"},
		"WaId": {"5511999998888"},
	}
	form.Set("Body", "oi")
	postForm(handler, form)
	form.Set("Body", "Carlos")
	rec := postForm(handler, form)
	if !strings.Contains(rec.Body.String(), "Prazer, Carlos") {
		t.Errorf("second reply = %q", rec.Body.String())
	}
}

func TestMediaURLs(t *testing.T) {
	form := url.Values{
		"NumMedia":  {"5"},
		"MediaUrl0": {"https://cdn.example/a.jpg"},
		"MediaUrl1": {"https://cdn.example/b.jpg"},
		"MediaUrl2": {"https://cdn.example/c.jpg"},
		"MediaUrl3": {"https://cdn.example/d.jpg"},
	}
	req := httptest.NewRequest(http.MethodPost, "/bot", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if err := req.ParseForm(); err != nil {
		t.Fatalf("parse form: %v", err)
	}
	urls := mediaURLs(req)
	if len(urls) != 3 {
		t.Errorf("media urls = %d, want 3 (capped)", len(urls))
	}

	req2 := httptest.NewRequest(http.MethodPost, "/bot", strings.NewReader("NumMedia=0"))
	req2.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	_ = req2.ParseForm()
	if urls := mediaURLs(req2); urls != nil {
		t.Errorf("expected nil for NumMedia=0, got %v", urls)
	}
}
