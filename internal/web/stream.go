package web

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/starfederation/datastar-go/datastar"
)

const keepAliveInterval = 25 * time.Second

// handleEvents streams the list for the requesting page: the #grocery-list element plus the
// stats/toast signals, re-sent whenever the collection or the status changes.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := queryFromRequest(r)

	ch, cancel := s.hub.subscribe()
	defer cancel()

	sse := datastar.NewSSE(w, r)
	push := func() {
		html, err := s.renderList(q)
		if err != nil {
			_ = sse.ExecuteScript(fmt.Sprintf(`console.error(%q)`, err.Error()))
			return
		}
		if strings.TrimSpace(html) != "" {
			_ = sse.PatchElements(html, datastar.WithSelector("#grocery-list"), datastar.WithMode(datastar.ElementPatchModeOuter))
		}
		_ = sse.MarshalAndPatchSignals(s.signals())
	}
	push()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-sse.Context().Done():
			return
		case <-keepAlive.C:
			_ = sse.PatchSignals([]byte(`{}`))
		case <-ch:
			push()
		}
	}
}
