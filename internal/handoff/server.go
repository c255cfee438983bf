package handoff

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/Faultbox/beanbag/internal/ar"
	"github.com/Faultbox/beanbag/internal/assets"
	"github.com/Faultbox/beanbag/internal/config"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server serves hand-off pages for stored sessions.
type Server struct {
	cfg   config.HandoffConfig
	arCfg config.ARConfig
	store *Store
	tmpl  *template.Template
	mux   *http.ServeMux
	log   *zap.Logger
}

// NewServer creates a server over store.
func NewServer(cfg config.HandoffConfig, arCfg config.ARConfig, store *Store, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"safeCSS": func(s string) template.CSS { return template.CSS(s) },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s := &Server{
		cfg:   cfg,
		arCfg: arCfg,
		store: store,
		tmpl:  tmpl,
		mux:   http.NewServeMux(),
		log:   log,
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /ar/{id}", s.handleSession)
	s.mux.HandleFunc("GET /model/{id}", s.handleModel)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

// Handler returns the HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return Chain(s.mux, Recovery(s.log), Logging(s.log))
}

// Register stores req and returns the session and the page URL other devices
// open to continue it.
func (s *Server) Register(req ar.SessionRequest) (*Session, string) {
	sess := s.store.Add(req)
	s.log.Info("handoff session registered",
		zap.String("id", sess.ID),
		zap.String("model", req.ModelURL),
		zap.String("color", req.ColorHex))
	return sess, s.PageURL(sess.ID)
}

// PageURL returns the public page address of a session.
func (s *Server) PageURL(id string) string {
	return s.base() + "/ar/" + id
}

// ModelURL returns the address phones fetch a session's model from. Remote
// models are linked directly; local files are served by this server.
func (s *Server) ModelURL(sess *Session) string {
	if assets.IsRemote(sess.Request.ModelURL) {
		return sess.Request.ModelURL
	}
	return s.base() + "/model/" + sess.ID
}

func (s *Server) base() string {
	return strings.TrimRight(s.cfg.PublicURL, "/")
}

// ListenAndServe serves on the configured address until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("handoff listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("handoff server listening",
			zap.String("addr", ln.Addr().String()),
			zap.String("public_url", s.cfg.PublicURL))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("handoff shutdown: %w", err)
	}
	<-errCh
	s.log.Info("handoff server stopped")
	return nil
}

type indexPage struct {
	Session *Session
	PageURL string
	QRURL   string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var page indexPage
	if sess, ok := s.store.Latest(); ok {
		page.Session = sess
		page.PageURL = s.PageURL(sess.ID)
		page.QRURL = ar.QRCodeURL(s.arCfg.QRServiceURL, s.arCfg.QRSize, page.PageURL)
	}
	s.render(w, "index.html", page)
}

type sessionPage struct {
	Request        ar.SessionRequest
	Route          string
	Platform       string
	LaunchURL      template.URL
	AutoActivateMS int64
	PageURL        string
	QRURL          string
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	device := ar.Classify(r.UserAgent())
	route := ar.RouteFor(device)
	page := sessionPage{
		Request:  sess.Request,
		Route:    route.String(),
		Platform: device.Platform.String(),
		PageURL:  s.PageURL(sess.ID),
	}

	switch route {
	case ar.RouteNative:
		req := sess.Request
		req.ModelURL = s.ModelURL(sess)
		// Scene Viewer intents are not plain http links.
		page.LaunchURL = template.URL(ar.LaunchURL(req, device.Platform))
		page.AutoActivateMS = s.arCfg.AutoActivateDelay.Milliseconds()
	case ar.RouteDesktop:
		page.QRURL = ar.QRCodeURL(s.arCfg.QRServiceURL, s.arCfg.QRSize, page.PageURL)
	}

	s.log.Debug("handoff page",
		zap.String("id", sess.ID),
		zap.Stringer("device", device),
		zap.Stringer("route", route))
	s.render(w, "ar.html", page)
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if assets.IsRemote(sess.Request.ModelURL) {
		http.Redirect(w, r, sess.Request.ModelURL, http.StatusFound)
		return
	}
	switch strings.ToLower(filepath.Ext(sess.Request.ModelURL)) {
	case ".glb":
		w.Header().Set("Content-Type", "model/gltf-binary")
	case ".gltf":
		w.Header().Set("Content-Type", "model/gltf+json")
	}
	http.ServeFile(w, r, sess.Request.ModelURL)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "ok %d\n", s.store.Len())
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.log.Error("render template", zap.String("template", name), zap.Error(err))
	}
}
