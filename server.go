package main

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/arnatngaw/portfolio/internal/analytics"
	"github.com/arnatngaw/portfolio/internal/config"
	"github.com/arnatngaw/portfolio/internal/contact"
	"github.com/arnatngaw/portfolio/internal/content"
	"github.com/arnatngaw/portfolio/internal/nav"
	"github.com/arnatngaw/portfolio/internal/theme"
)

const visitorCookie = "visitor_id"

type server struct {
	cfg      *config.Config
	log      *slog.Logger
	content  *content.Content
	registry *nav.Registry
	sessions *contact.Sessions
	store    *analytics.Store
	admin    *admin
}

func newServer(cfg *config.Config, log *slog.Logger, c *content.Content, store *analytics.Store, relay contact.Relay) *server {
	s := &server{
		cfg:      cfg,
		log:      log,
		content:  c,
		registry: c.Registry(),
		store:    store,
	}
	s.sessions = contact.NewSessions(func() *contact.Form {
		return contact.NewForm(relay,
			contact.WithConfirmFor(cfg.Contact.ConfirmFor),
			contact.WithLogger(log.With("component", "contact")),
		)
	})
	s.admin = newAdmin(cfg, store, log.With("component", "admin"))
	return s
}

// newRelay picks where contact submissions go.
func newRelay(cfg *config.Config) contact.Relay {
	if cfg.Contact.Relay == "smtp" {
		return contact.NewSMTPRelay(contact.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			To:       cfg.SMTP.To,
		})
	}
	return contact.NewHTTPRelay(cfg.Contact.Endpoint, cfg.Contact.Timeout)
}

var templateFuncs = template.FuncMap{
	"title": func(s string) string {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError {
			return s
		}
		return string(unicode.ToUpper(r)) + s[size:]
	},
	"initial": func(s string) string {
		for _, r := range s {
			return string(r)
		}
		return ""
	},
}

func (s *server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log), s.visitorSession(), s.admin.visitorTrackingMiddleware())
	r.SetFuncMap(templateFuncs)
	r.LoadHTMLGlob(s.cfg.TemplatesGlob)

	r.Static("/static", "./static")

	r.GET("/", s.handleIndex)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Navigation highlight, refreshed by HTMX on every scroll event.
	r.GET("/nav", s.handleNav)
	r.GET("/nav/go/:id", s.handleNavGo)

	// HTMX contact form fragments
	r.GET("/contact-form", s.handleContactForm)
	r.POST("/contact", s.handleContactSubmit)

	r.POST("/theme", s.handleThemeToggle)

	s.admin.setupRoutes(r)
	return r
}

// visitorSession gives every browser a stable id for its contact form.
func (s *server) visitorSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(visitorCookie)
		if err != nil || id == "" {
			id = s.sessions.NewID()
			c.SetCookie(visitorCookie, id, 0, "/", "", false, true)
		}
		c.Set(visitorCookie, id)
		c.Next()
	}
}

func (s *server) form(c *gin.Context) *contact.Form {
	return s.sessions.Form(c.GetString(visitorCookie))
}

// formView reads the visitor's form without allocating one; visitors who
// never submitted see an idle, empty form.
func (s *server) formView(c *gin.Context) contact.View {
	if f, ok := s.sessions.Peek(c.GetString(visitorCookie)); ok {
		return f.View()
	}
	return contact.View{}
}

type navItem struct {
	ID     string
	Label  string
	Active bool
}

type navView struct {
	Active string
	Items  []navItem
}

func (s *server) navView(active string) navView {
	v := navView{Active: active}
	for _, sec := range s.registry.Sections() {
		v.Items = append(v.Items, navItem{ID: sec.ID, Label: sec.Label, Active: sec.ID == active})
	}
	return v
}

func (s *server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"content": s.content,
		"nav":     s.navView(s.registry.First()),
		"theme":   theme.Read(c.Request).String(),
		"form":    s.formData(s.formView(c)),
	})
}

// layoutFromQuery reads the scroll sample and anchor offsets the browser
// posts with each scroll event. Unparseable anchors are treated as absent.
func layoutFromQuery(c *gin.Context) nav.Layout {
	l := nav.Layout{
		Offset:   queryFloat(c, "y"),
		Viewport: queryFloat(c, "vh"),
		Anchors:  make(map[string]float64),
	}
	for id, raw := range c.QueryMap("anchor") {
		top, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		l.Anchors[id] = top
	}
	return l
}

func queryFloat(c *gin.Context, key string) float64 {
	f, err := strconv.ParseFloat(c.Query(key), 64)
	if err != nil {
		return 0
	}
	return f
}

func (s *server) handleNav(c *gin.Context) {
	layout := layoutFromQuery(c)

	tracker := nav.NewTracker(s.registry, layout)
	tracker.Restore(c.Query("active"))
	cancel := tracker.Subscribe(func(id string) {
		s.recordSectionEntry(c.Request.Context(), id)
	})
	defer cancel()

	active := tracker.Handle(layout.Sample())
	c.HTML(http.StatusOK, "nav.html", s.navView(active))
}

func (s *server) recordSectionEntry(ctx context.Context, id string) {
	if s.store == nil {
		return
	}
	if err := s.store.RecordSectionEntry(ctx, id); err != nil {
		s.log.Warn("record section entry", "section", id, "error", err)
	}
}

// scrollTarget captures the offset a Navigator asks to scroll to; the
// browser performs the smooth scroll itself.
type scrollTarget struct {
	top    float64
	issued bool
}

func (t *scrollTarget) SmoothScrollTo(y float64) {
	t.top, t.issued = y, true
}

func (s *server) handleNavGo(c *gin.Context) {
	id := c.Param("id")
	target := &scrollTarget{}
	if !s.registry.Contains(id) || !nav.NewNavigator(layoutFromQuery(c), target).Go(id) {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "top": target.top})
}

func (s *server) formData(v contact.View) gin.H {
	h := gin.H{
		"values":    v.Values,
		"submitted": v.Submitted(),
		"confirmMs": s.cfg.Contact.ConfirmFor.Milliseconds(),
	}
	if v.Err != nil {
		h["error"] = "Sorry, there was an error sending your message. Please try again later."
	}
	return h
}

func (s *server) handleContactForm(c *gin.Context) {
	v := s.formView(c)
	if v.Submitted() {
		c.HTML(http.StatusOK, "contact-success.html", s.formData(v))
		return
	}
	c.HTML(http.StatusOK, "contact.html", s.formData(v))
}

func (s *server) handleContactSubmit(c *gin.Context) {
	var sub contact.Submission
	if err := c.ShouldBind(&sub); err != nil {
		data := s.formData(contact.View{Values: sub})
		data["error"] = "Could not read the form."
		c.HTML(http.StatusBadRequest, "contact.html", data)
		return
	}

	form := s.form(c)
	err := form.Submit(c.Request.Context(), sub)
	switch {
	case errors.Is(err, contact.ErrBusy):
		s.handleContactForm(c)
	case err != nil:
		// Values stay on the form so the visitor can try again.
		c.HTML(http.StatusOK, "contact.html", s.formData(form.View()))
	default:
		c.HTML(http.StatusOK, "contact-success.html", s.formData(form.View()))
	}
}

func (s *server) handleThemeToggle(c *gin.Context) {
	next := theme.Read(c.Request).Toggle()
	theme.Write(c.Writer, next)
	c.HTML(http.StatusOK, "theme-toggle.html", gin.H{"theme": next.String()})
}
