package web

import (
	"encoding/json"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"grocery-cli/internal/grocery"
	"grocery-cli/internal/model"
	"grocery-cli/internal/publish"
	"grocery-cli/internal/session"
	"grocery-cli/internal/store"
	"grocery-cli/internal/view"
)

// queryFromRequest reads the view state from the page URL. Each browser tab keeps its own
// filter, search and category; they never touch the engine's shared query.
func queryFromRequest(r *http.Request) model.Query {
	v := r.URL.Query()
	q := model.Query{Filter: model.FilterAll}
	if f, ok := model.ParseFilter(v.Get("filter")); ok {
		q.Filter = f
	}
	q.Search = strings.TrimSpace(v.Get("search"))
	if c := strings.TrimSpace(v.Get("category")); c != "" {
		q.Category = model.NormalizeCategory(c)
	}
	return q
}

func queryValues(q model.Query) url.Values {
	v := url.Values{}
	if q.Filter != "" && q.Filter != model.FilterAll {
		v.Set("filter", string(q.Filter))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Category != "" {
		v.Set("category", string(q.Category))
	}
	return v
}

type filterLink struct {
	Label  string
	Href   string
	Active bool
}

type homeVM struct {
	List        template.HTML
	Stats       grocery.Stats
	Query       model.Query
	Filters     []filterLink
	Categories  []model.Category
	Remote      session.RemoteInfo
	Dark        bool
	StreamURL   string
	Signals     string
	PrintURL    string
	Toast       string
	ToastKind   string
	ConfirmDel  string
	ConfirmDone string
	ConfirmAll  string
}

func (s *Server) renderList(q model.Query) (string, error) {
	return view.HTML(view.Render(s.sess.Engine.Items(), q))
}

func (s *Server) homeVM(r *http.Request) (homeVM, error) {
	q := queryFromRequest(r)
	list, err := s.renderList(q)
	if err != nil {
		return homeVM{}, err
	}

	filters := []filterLink{}
	for _, f := range []model.Filter{model.FilterAll, model.FilterActive, model.FilterCompleted} {
		fq := q
		fq.Filter = f
		label := strings.ToUpper(string(f[:1])) + string(f[1:])
		filters = append(filters, filterLink{Label: label, Href: "/?" + queryValues(fq).Encode(), Active: q.Filter == f})
	}

	stream := "/events"
	if enc := queryValues(q).Encode(); enc != "" {
		stream += "?" + enc
	}
	sig, err := json.Marshal(s.signals())
	if err != nil {
		return homeVM{}, err
	}
	toast := s.currentToast()
	return homeVM{
		List:        template.HTML(list),
		Stats:       s.sess.Engine.Stats(),
		Query:       q,
		Filters:     filters,
		Categories:  model.Categories(),
		Remote:      s.sess.RemoteInfo(),
		Dark:        s.sess.Theme(r.Context()) == store.ThemeDark,
		StreamURL:   stream,
		Signals:     string(sig),
		PrintURL:    "/print?" + queryValues(q).Encode(),
		Toast:       toast.Text,
		ToastKind:   string(toast.Kind),
		ConfirmDel:  grocery.ConfirmDelete,
		ConfirmDone: grocery.ConfirmClearCompleted,
		ConfirmAll:  grocery.ConfirmClearAll,
	}, nil
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	vm, err := s.homeVM(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeHTMLTemplate(w, "index.html", vm)
}

type printVM struct {
	Body template.HTML
	Dark bool
}

func (s *Server) handlePrint(w http.ResponseWriter, r *http.Request) {
	q := queryFromRequest(r)
	items := []model.Item{}
	for _, it := range s.sess.Engine.Items() {
		if q.Match(it) {
			items = append(items, it)
		}
	}
	byCat := r.URL.Query().Get("by_category") != ""
	md := publish.RenderChecklist(items, publish.RenderOptions{ByCategory: byCat})
	s.writeHTMLTemplate(w, "print.html", printVM{
		Body: publish.RenderHTML(md),
		Dark: s.sess.Theme(r.Context()) == store.ThemeDark,
	})
}

// signals is the client-side state patched on every change.
func (s *Server) signals() map[string]any {
	st := s.sess.Engine.Stats()
	info := s.sess.RemoteInfo()
	toast := s.currentToast()
	return map[string]any{
		"total":     st.Total,
		"active":    st.Active,
		"completed": st.Completed,
		"online":    info.Online,
		"connected": info.Connected,
		"toast":     toast.Text,
		"toastKind": string(toast.Kind),
	}
}
