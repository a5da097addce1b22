package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/arnatngaw/portfolio/internal/analytics"
	"github.com/arnatngaw/portfolio/internal/config"
	"github.com/arnatngaw/portfolio/internal/contact"
	"github.com/arnatngaw/portfolio/internal/content"
	"github.com/arnatngaw/portfolio/internal/nav"
)

type relayFunc func(ctx context.Context, sub contact.Submission) error

func (f relayFunc) Deliver(ctx context.Context, sub contact.Submission) error { return f(ctx, sub) }

type testSite struct {
	t       *testing.T
	srv     *server
	router  *gin.Engine
	store   *analytics.Store
	cookies []*http.Cookie
}

func newTestSite(t *testing.T, relay contact.Relay) *testSite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Port:             "0",
		TemplatesGlob:    "templates/*",
		VisitorRetention: 24 * time.Hour,
		Contact: config.ContactConfig{
			Relay:      "http",
			Endpoint:   "http://example.invalid/form",
			Timeout:    time.Second,
			ConfirmFor: 3 * time.Second,
			SessionTTL: time.Minute,
		},
		Log: config.LogConfig{Format: "text", Level: "error"},
	}

	site, err := content.Load("content.yaml")
	require.NoError(t, err)
	store, err := analytics.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := newServer(cfg, log, site, store, relay)
	return &testSite{t: t, srv: srv, router: srv.routes(), store: store}
}

// do sends a request carrying the cookies collected so far.
func (s *testSite) do(method, target string, body url.Values) *httptest.ResponseRecorder {
	s.t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(body.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("DNT", "1")
	for _, c := range s.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		s.setCookie(c)
	}
	return rec
}

func (s *testSite) setCookie(c *http.Cookie) {
	for i, existing := range s.cookies {
		if existing.Name == c.Name {
			s.cookies[i] = c
			return
		}
	}
	s.cookies = append(s.cookies, c)
}

func navQuery(y, vh string, active string) string {
	q := url.Values{}
	q.Set("y", y)
	q.Set("vh", vh)
	q.Set("active", active)
	q.Set("anchor[home]", "0")
	q.Set("anchor[skills]", "800")
	q.Set("anchor[contact]", "1600")
	return q.Encode()
}

func okRelay() contact.Relay {
	return relayFunc(func(context.Context, contact.Submission) error { return nil })
}

func TestIndex(t *testing.T) {
	s := newTestSite(t, okRelay())

	rec := s.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `id="floating-nav"`)
	require.Contains(t, body, `data-active="home"`)
	require.Contains(t, body, `id="skills"`)
	require.Contains(t, body, `id="contact-form"`)
	require.Contains(t, body, "King Mongkut")

	require.NotEmpty(t, s.cookies)
	require.Equal(t, visitorCookie, s.cookies[0].Name)
}

func TestNav_ResolvesActiveSection(t *testing.T) {
	s := newTestSite(t, okRelay())

	cases := []struct {
		y    string
		want string
	}{
		{"0", "home"},
		{"700", "skills"},
		{"1500", "contact"},
	}
	for _, tc := range cases {
		rec := s.do(http.MethodGet, "/nav?"+navQuery(tc.y, "900", "home"), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `data-active="`+tc.want+`"`, "y=%s", tc.y)
	}

	sections, err := s.store.Sections(context.Background())
	require.NoError(t, err)
	require.Len(t, sections, 2)
}

func TestNav_SameSampleRecordsNoTransition(t *testing.T) {
	s := newTestSite(t, okRelay())

	for i := 0; i < 2; i++ {
		rec := s.do(http.MethodGet, "/nav?"+navQuery("700", "900", "skills"), nil)
		require.Contains(t, rec.Body.String(), `data-active="skills"`)
	}

	sections, err := s.store.Sections(context.Background())
	require.NoError(t, err)
	require.Empty(t, sections)
}

func TestNav_UnknownActiveFallsBackToFirst(t *testing.T) {
	s := newTestSite(t, okRelay())

	rec := s.do(http.MethodGet, "/nav?y=0&vh=900&active=blog", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `data-active="home"`)
}

func TestNavGo(t *testing.T) {
	s := newTestSite(t, okRelay())

	rec := s.do(http.MethodGet, "/nav/go/skills?"+navQuery("0", "900", "home"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var target struct {
		ID  string  `json:"id"`
		Top float64 `json:"top"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &target))
	require.Equal(t, "skills", target.ID)
	require.Equal(t, 800.0, target.Top)

	rec = s.do(http.MethodGet, "/nav/go/blog?"+navQuery("0", "900", "home"), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Registered section whose anchor is not on the page.
	rec = s.do(http.MethodGet, "/nav/go/work?"+navQuery("0", "900", "home"), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestContact_SuccessThenConfirmation(t *testing.T) {
	var got contact.Submission
	s := newTestSite(t, relayFunc(func(_ context.Context, sub contact.Submission) error {
		got = sub
		return nil
	}))
	s.do(http.MethodGet, "/", nil)

	rec := s.do(http.MethodPost, "/contact", url.Values{
		"name":    {"Ann"},
		"email":   {"ann@example.com"},
		"message": {"hello"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Thank you for your message")
	require.Contains(t, rec.Body.String(), "load delay:3000ms")
	require.Equal(t, "Ann", got.Name)
	require.Equal(t, "hello", got.Message)

	rec = s.do(http.MethodGet, "/contact-form", nil)
	require.Contains(t, rec.Body.String(), "Thank you for your message")
}

func TestContact_FailureKeepsForm(t *testing.T) {
	s := newTestSite(t, relayFunc(func(context.Context, contact.Submission) error {
		return errors.New("connection refused")
	}))
	s.do(http.MethodGet, "/", nil)

	rec := s.do(http.MethodPost, "/contact", url.Values{
		"name":    {"Ann"},
		"email":   {"ann@example.com"},
		"message": {"hello there"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "there was an error sending your message")
	require.Contains(t, body, `value="Ann"`)
	require.Contains(t, body, "hello there</textarea>")
	require.NotContains(t, body, "Thank you")
}

func TestThemeToggle(t *testing.T) {
	s := newTestSite(t, okRelay())

	rec := s.do(http.MethodPost, "/theme", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Switch to dark theme")
	require.Contains(t, rec.Body.String(), "if (event.detail.successful)")

	rec = s.do(http.MethodGet, "/", nil)
	require.Contains(t, rec.Body.String(), `class="scroll-smooth light"`)

	rec = s.do(http.MethodPost, "/theme", nil)
	require.Contains(t, rec.Body.String(), "Switch to light theme")
}

func TestAdmin_LoginAndDashboard(t *testing.T) {
	s := newTestSite(t, okRelay())

	rec := s.do(http.MethodGet, "/admin/dashboard", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/admin/login", rec.Header().Get("Location"))

	rec = s.do(http.MethodPost, "/admin/login", url.Values{"username": {"admin"}, "password": {"wrong"}})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/admin/login", url.Values{"username": {"admin"}, "password": {"admin123"}})
	require.Equal(t, http.StatusFound, rec.Code)

	s.do(http.MethodGet, "/nav?"+navQuery("700", "900", "home"), nil)

	rec = s.do(http.MethodGet, "/admin/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats analytics.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.EqualValues(t, 1, stats.SectionEntries)

	rec = s.do(http.MethodGet, "/admin/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "skills")
}

func TestHashIP_Consistent(t *testing.T) {
	s := newTestSite(t, okRelay())
	a := s.srv.admin

	require.Equal(t, a.hashIP("10.0.0.1"), a.hashIP("10.0.0.1"))
	require.NotEqual(t, a.hashIP("10.0.0.1"), a.hashIP("10.0.0.2"))
	require.Len(t, a.hashIP("10.0.0.1"), 16)
}

func TestPrintSections(t *testing.T) {
	site, err := content.Load("content.yaml")
	require.NoError(t, err)

	var out strings.Builder
	layout := navLayout(700, 900)
	require.NoError(t, printSections(&out, site.Registry(), layout))
	require.Contains(t, out.String(), "trigger line: 1000")
	require.Contains(t, out.String(), "> 2. skills")
}

func navLayout(y, vh float64) nav.Layout {
	return nav.Layout{
		Offset:   y,
		Viewport: vh,
		Anchors:  map[string]float64{"home": 0, "skills": 800, "contact": 1600},
	}
}

func TestIndex_AnonymousVisitsAllocateNoForms(t *testing.T) {
	s := newTestSite(t, okRelay())

	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("DNT", "1")
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	require.Zero(t, s.srv.sessions.Len())

	rec := s.do(http.MethodGet, "/contact-form", nil)
	require.Contains(t, rec.Body.String(), `id="contact-form"`)
	require.Zero(t, s.srv.sessions.Len())

	s.do(http.MethodPost, "/contact", url.Values{"name": {"Ann"}, "email": {"ann@example.com"}, "message": {"hi"}})
	require.Equal(t, 1, s.srv.sessions.Len())
}

func TestTemplateTitle(t *testing.T) {
	title := templateFuncs["title"].(func(string) string)

	require.Equal(t, "Programming", title("programming"))
	require.Equal(t, "Écriture", title("écriture"))
	require.True(t, utf8.ValidString(title("écriture")))
	require.Equal(t, "", title(""))
}
