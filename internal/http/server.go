package http

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"xiaofei/internal/core"
	"xiaofei/internal/log"
	"xiaofei/internal/middleware/ratelimit"
	"xiaofei/internal/middleware/security"
	"xiaofei/internal/middleware/trace"
	"xiaofei/internal/page"
	"xiaofei/internal/session"
	"xiaofei/internal/ui"
	appweb "xiaofei/web"
)

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Addr     string
	Flows    *page.Flows
	Loader   *page.Loader
	Sessions *session.Store
	Limiter  *ratelimit.Limiter
	Logger   *log.Logger

	// TrustedProxies are CIDRs whose forwarded client address is believed.
	TrustedProxies []string

	// Ready reports whether the backend is reachable; nil means always ready.
	Ready func(ctx context.Context) error

	// TemplatesFS and StaticFS default to the embedded web assets.
	TemplatesFS fs.FS
	StaticFS    fs.FS
}

type Server struct {
	http.Server
	templates *template.Template
	flows     *page.Flows
	loader    *page.Loader
	sessions  *session.Store
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	logger    *log.Logger
	ready     func(ctx context.Context) error

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = log.New(log.DefaultConfig())
	}
	if d.Limiter == nil {
		d.Limiter = ratelimit.NewLimiter(ratelimit.DefaultConfig())
	}
	if d.TemplatesFS == nil {
		d.TemplatesFS = appweb.TemplatesFS
	}
	if d.StaticFS == nil {
		d.StaticFS = appweb.StaticFS
	}

	s := &Server{
		flows:    d.Flows,
		loader:   d.Loader,
		sessions: d.Sessions,
		limiter:  d.Limiter,
		detector: security.NewDetector(),
		logger:   d.Logger.WithComponent(log.ComponentHTTP),
		ready:    d.Ready,
	}

	for _, cidr := range d.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			s.logger.WithComponent(log.ComponentSecurity).Warn("Ignoring trusted proxy", log.FieldError, err.Error())
		}
	}

	t, err := template.New("").Funcs(templateFuncs()).ParseFS(d.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.WithComponent(log.ComponentTemplate).Warn("Failed parsing templates", log.FieldError, err.Error())
	} else {
		s.templates = t
	}

	s.Server = http.Server{
		Addr:              d.Addr,
		Handler:           s.routes(d.StaticFS),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes(static fs.FS) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(log.Middleware(s.logger))
	r.Use(trace.NewMiddleware(s.detector.ExtractClientIP).Middleware)
	r.Use(s.detector.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("页面不存在").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		MethodNotAllowedError().Write(w)
	})

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	if sub, err := fs.Sub(static, "static"); err == nil {
		r.With(security.StaticAssetMiddleware(3600)).
			Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(sub))))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err.Error())
	}

	r.Group(func(r chi.Router) {
		r.Use(log.ComponentMiddleware(log.ComponentPage))
		r.Use(s.sessions.Middleware)
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.rateLimited))

		for _, p := range page.All() {
			s.mountPage(r, p)
		}
		r.Route("/ui/dialog", func(r chi.Router) {
			r.Post("/resolve", s.handleDialogResolve)
			r.Post("/execute", s.handleDialogExecute)
			r.Post("/close", s.handleDialogClose)
		})
	})
	return r
}

// fragmentRoute is an interaction endpoint that exists under a page only when
// the page renders the fragment.
type fragmentRoute struct {
	fragment page.Fragment
	method   string
	pattern  string
	handler  func(s *Server, p page.Page) http.HandlerFunc
}

func plain(h func(*Server, http.ResponseWriter, *http.Request)) func(*Server, page.Page) http.HandlerFunc {
	return func(s *Server, _ page.Page) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) { h(s, w, r) }
	}
}

var fragmentRoutes = []fragmentRoute{
	{page.CreateForm, http.MethodPost, "/consumption", plain((*Server).handleCreate)},
	{page.StatisticsPanel, http.MethodGet, "/statistics", plain((*Server).handleStatistics)},
	{page.DeleteControls, http.MethodPost, "/consumption/{id}/delete", plain((*Server).handleDelete)},
	{page.TagSelect, http.MethodPut, "/consumption/{id}/tag", plain((*Server).handleRetag)},
	{page.DailyPriceModal, http.MethodGet, "/consumption/{id}/daily-price", (*Server).handleOpenDailyPrice},
	{page.DailyPriceModal, http.MethodPost, "/daily-price", plain((*Server).handleSaveDailyPrice)},
	{page.ReceiveControls, http.MethodPost, "/consumption/{id}/receive", plain((*Server).handleReceive)},
	{page.PriceQuery, http.MethodGet, "/price-history", plain((*Server).handlePriceQuery)},
	{page.TagLists, http.MethodPost, "/consumption/{id}/remove-tag", plain((*Server).handleRemoveTag)},
}

// mountPage registers the page and the endpoints of the fragments it declares.
func (s *Server) mountPage(r chi.Router, p page.Page) {
	r.Get(p.Path, s.handlePage(p))

	prefix := pagePrefix(p)
	for _, fr := range fragmentRoutes {
		if p.Has(fr.fragment) {
			r.Method(fr.method, prefix+fr.pattern, fr.handler(s, p))
		}
	}
}

func pagePrefix(p page.Page) string {
	return strings.TrimSuffix(p.Path, "/")
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"prefix":         pagePrefix,
		"formatAmount":   ui.FormatAmount,
		"formatDate":     ui.FormatDateDisplay,
		"formatPrice":    func(d decimal.NullDecimal) string { return ui.FormatCurrency(d, 2) },
		"tagLabel":       func(t core.Tag) string { return t.Label() },
		"has":            func(p page.Page, f string) bool { return p.Has(page.Fragment(f)) },
		"isPending":      func(c core.Consumption) bool { return c.ReceiveStatus == core.Pending },
		"isMarkup":       func(o ui.Overlay) bool { return o.Variant == ui.MarkupConfirmOverlay },
		"isAlert":        func(o ui.Overlay) bool { return o.Variant == ui.AlertOverlay },
		"loadFailedMsg":  func() string { return page.MsgLoadFailed },
		"deleteConfirm":  func(id int64) string { return fmt.Sprintf(page.MsgDeleteConfirm, strconv.FormatInt(id, 10)) },
		"receiveConfirm": func() string { return page.MsgReceiveConfirm },
		"dict":           dict,
	}
}

// dict builds a map from alternating keys and values for sub-template calls.
func dict(kv ...any) (map[string]any, error) {
	if len(kv)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
		}
		m[k] = kv[i+1]
	}
	return m, nil
}

// renderFragment executes a named template into a buffer so a failed render
// never leaves a half-written response.
func (s *Server) renderFragment(name string, data any) ([]byte, error) {
	if s.templates == nil {
		return nil, fmt.Errorf("templates not loaded")
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err.Error())
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("backend unavailable"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
