package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"grocery-cli/internal/session"
	"grocery-cli/internal/status"
	"grocery-cli/internal/store"
	"grocery-cli/internal/watch"
)

//go:embed templates/*.html static/*.css
var assetsFS embed.FS

const (
	defaultToastTTL      = 3 * time.Second
	defaultOnlineRecheck = 30 * time.Second
)

type ServerConfig struct {
	Session *session.Session

	// ToastTTL is how long a status message stays on the page (default 3s).
	ToastTTL time.Duration
	// OnlineRecheck is how often Run probes the remote host (default 30s, <0 disables).
	OnlineRecheck time.Duration
}

type Server struct {
	sess *session.Session
	log  *slog.Logger
	tmpl *template.Template
	hub  *resourceHub

	toastTTL      time.Duration
	onlineRecheck time.Duration

	mu       sync.Mutex
	toast    status.Message
	toastSeq uint64
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Session == nil {
		return nil, errors.New("web: session is nil")
	}
	tmpl, err := template.New("base").ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	srv := &Server{
		sess:          cfg.Session,
		log:           cfg.Session.Logger(),
		tmpl:          tmpl,
		hub:           newResourceHub(),
		toastTTL:      cfg.ToastTTL,
		onlineRecheck: cfg.OnlineRecheck,
	}
	if srv.toastTTL <= 0 {
		srv.toastTTL = defaultToastTTL
	}
	if srv.onlineRecheck == 0 {
		srv.onlineRecheck = defaultOnlineRecheck
	}
	cfg.Session.SetNotify(srv.pushToast)
	cfg.Session.Engine.OnChange(srv.hub.broadcast)
	return srv, nil
}

// Run keeps the page in step with the outside world until ctx is done: it reloads the list
// when another process writes it and refreshes the online state periodically.
func (s *Server) Run(ctx context.Context) {
	if w, err := watch.New(s.sess.Store.Dir, store.SQLiteFileName, 0); err != nil {
		s.log.Warn("file watch disabled", "err", err)
	} else {
		defer w.Close()
		go func() {
			err := w.Run(ctx, func() {
				if err := s.sess.Engine.Reload(ctx); err != nil {
					s.log.Warn("reload failed", "err", err)
				}
			})
			if err != nil {
				s.log.Warn("file watch stopped", "err", err)
			}
		}()
	}

	if s.onlineRecheck >= 0 {
		s.sess.CheckOnline(ctx)
	}
	// Opening the list picks up what other devices wrote; silent when not connected.
	s.sess.Syncer().Trigger()

	if s.onlineRecheck < 0 {
		<-ctx.Done()
		return
	}
	t := time.NewTicker(s.onlineRecheck)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.sess.CheckOnline(ctx)
			s.hub.broadcast()
		}
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /static/app.css", s.handleAppCSS)
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /print", s.handlePrint)
	mux.HandleFunc("GET /export", s.handleExport)
	mux.HandleFunc("POST /import", s.handleImport)
	mux.HandleFunc("POST /items", s.handleItemCreate)
	mux.HandleFunc("POST /items/{itemId}/toggle", s.handleItemToggle)
	mux.HandleFunc("POST /items/{itemId}/edit", s.handleItemEdit)
	mux.HandleFunc("POST /items/{itemId}/quantity", s.handleItemQuantity)
	mux.HandleFunc("POST /items/{itemId}/category", s.handleItemCategory)
	mux.HandleFunc("POST /items/{itemId}/delete", s.handleItemDelete)
	mux.HandleFunc("POST /clear-completed", s.handleClearCompleted)
	mux.HandleFunc("POST /clear", s.handleClearAll)
	mux.HandleFunc("POST /sync", s.handleSync)
	mux.HandleFunc("POST /remote/connect", s.handleRemoteConnect)
	mux.HandleFunc("POST /remote/disconnect", s.handleRemoteDisconnect)
	mux.HandleFunc("POST /theme/toggle", s.handleThemeToggle)
	return mux
}

func redirectBack(w http.ResponseWriter, r *http.Request, fallback string) {
	ref := strings.TrimSpace(r.Header.Get("Referer"))
	if ref != "" {
		http.Redirect(w, r, ref, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, fallback, http.StatusSeeOther)
}

// isDatastar reports whether the request came from a data-on:* action rather than a plain
// form submit. Those get 204 and see the result over /events.
func isDatastar(r *http.Request) bool {
	return strings.EqualFold(strings.TrimSpace(r.Header.Get("Datastar-Request")), "true")
}

func (s *Server) done(w http.ResponseWriter, r *http.Request) {
	if isDatastar(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	redirectBack(w, r, "/")
}

func (s *Server) handleAppCSS(w http.ResponseWriter, r *http.Request) {
	b, err := assetsFS.ReadFile("static/app.css")
	if err != nil || len(b) == 0 {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) renderTemplate(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *Server) writeHTMLTemplate(w http.ResponseWriter, name string, data any) {
	html, err := s.renderTemplate(name, data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, html)
}

// pushToast shows msg on every open page, then clears it after the TTL unless a newer
// message replaced it.
func (s *Server) pushToast(msg string, kind status.Kind) {
	s.mu.Lock()
	s.toastSeq++
	seq := s.toastSeq
	s.toast = status.Message{Text: msg, Kind: kind}
	s.mu.Unlock()
	s.hub.broadcast()

	time.AfterFunc(s.toastTTL, func() {
		s.mu.Lock()
		if s.toastSeq != seq {
			s.mu.Unlock()
			return
		}
		s.toast = status.Message{}
		s.mu.Unlock()
		s.hub.broadcast()
	})
}

func (s *Server) currentToast() status.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toast
}
