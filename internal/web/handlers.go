package web

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"grocery-cli/internal/grocery"
	"grocery-cli/internal/model"
	"grocery-cli/internal/store"
)

const maxImportBytes = 10 << 20

// fail answers a mutation error. Validation problems were already shown as a toast, so the
// browser is just sent back to the page.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if grocery.IsValidation(err) {
		s.done(w, r)
		return
	}
	s.log.Warn("web request failed", "path", r.URL.Path, "err", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func itemID(r *http.Request) model.ItemID {
	return model.ItemID(strings.TrimSpace(r.PathValue("itemId")))
}

func confirmed(r *http.Request) bool {
	switch strings.ToLower(strings.TrimSpace(r.Form.Get("confirm"))) {
	case "yes", "true", "1", "on":
		return true
	}
	return false
}

func (s *Server) handleItemCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	qty, err := strconv.Atoi(strings.TrimSpace(r.Form.Get("quantity")))
	if err != nil {
		qty = 1
	}
	if _, err := s.sess.Engine.Add(r.Context(), r.Form.Get("name"), qty, r.Form.Get("category")); err != nil {
		s.fail(w, r, err)
		return
	}
	s.done(w, r)
}

func (s *Server) handleItemToggle(w http.ResponseWriter, r *http.Request) {
	if _, _, err := s.sess.Engine.Toggle(r.Context(), itemID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	s.done(w, r)
}

func (s *Server) handleItemEdit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, _, err := s.sess.Engine.Edit(r.Context(), itemID(r), r.Form.Get("name")); err != nil {
		s.fail(w, r, err)
		return
	}
	s.done(w, r)
}

func (s *Server) handleItemQuantity(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	qty, err := strconv.Atoi(strings.TrimSpace(r.Form.Get("quantity")))
	if err != nil {
		http.Error(w, "quantity must be a whole number", http.StatusBadRequest)
		return
	}
	if _, _, err := s.sess.Engine.SetQuantity(r.Context(), itemID(r), qty); err != nil {
		s.fail(w, r, err)
		return
	}
	s.done(w, r)
}

func (s *Server) handleItemCategory(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, _, err := s.sess.Engine.SetItemCategory(r.Context(), itemID(r), r.Form.Get("category")); err != nil {
		s.fail(w, r, err)
		return
	}
	s.done(w, r)
}

func (s *Server) handleItemDelete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := s.sess.Engine.Delete(r.Context(), itemID(r), confirmed(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	s.done(w, r)
}

func (s *Server) handleClearCompleted(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := s.sess.Engine.ClearCompleted(r.Context(), confirmed(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	s.done(w, r)
}

func (s *Server) handleClearAll(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := s.sess.Engine.ClearAll(r.Context(), confirmed(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	s.done(w, r)
}

// handleSync runs an explicit sync. Its outcome reaches the page as a toast.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if _, err := s.sess.Syncer().SyncNow(r.Context()); err != nil {
		s.log.Debug("sync from web failed", "err", err)
	}
	s.hub.broadcast()
	s.done(w, r)
}

func (s *Server) handleRemoteConnect(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	backend, err := store.ParseBackend(r.Form.Get("backend"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.sess.Connect(r.Context(), r.Form.Get("endpoint"), backend); err != nil {
		s.log.Debug("connect from web failed", "err", err)
	}
	s.hub.broadcast()
	s.done(w, r)
}

func (s *Server) handleRemoteDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.sess.Disconnect(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	s.hub.broadcast()
	s.done(w, r)
}

func (s *Server) handleThemeToggle(w http.ResponseWriter, r *http.Request) {
	next := s.sess.Theme(r.Context()).Toggle()
	if err := s.sess.SetTheme(r.Context(), next); err != nil {
		s.fail(w, r, err)
		return
	}
	// The theme is a page-level class; a full reload picks it up.
	redirectBack(w, r, "/")
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	b, err := s.sess.Engine.Export()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+grocery.ExportFileName+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// handleImport accepts either a multipart upload (field "file") or a raw JSON body.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	var raw []byte
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		f, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		raw, err = io.ReadAll(f)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	} else {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		raw = b
	}

	if _, err := s.sess.Engine.Import(r.Context(), raw); err != nil {
		s.fail(w, r, err)
		return
	}
	s.done(w, r)
}
