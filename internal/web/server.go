// Package web serves the live chart, its JSON API and the viewer stream.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"quotechart/internal/chart"
	"quotechart/internal/metrics"
	"quotechart/internal/series"
	"quotechart/internal/stream"
)

// SnapshotFunc reads the current series.
type SnapshotFunc func(ctx context.Context) (series.Snapshot, error)

// Page holds the static parts of the HTML page.
type Page struct {
	Title  string
	Symbol string
	Width  int
	Height int
}

type Deps struct {
	Snapshot SnapshotFunc
	Charts   *chart.Cache
	Hub      *stream.Hub
	Metrics  *metrics.Metrics
	Log      *zap.Logger
	Page     Page

	// Attach hands new viewers the series and subscribes them atomically.
	Attach stream.AttachFunc
	// RequestTimeout bounds reads of the series; zero means 5s.
	RequestTimeout time.Duration
}

type handler struct {
	Deps
}

// NewRouter wires every route. The websocket route stays outside the
// compression middleware because it hijacks the connection.
func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 5 * time.Second
	}
	h := &handler{Deps: d}

	r := chi.NewRouter()
	r.Use(recoverPanic(d.Log))

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	r.Get("/chart.png", h.handleChart(chart.PNG))
	if d.Hub != nil {
		r.Get("/ws", d.Hub.Handler(d.Attach))
	}

	r.Group(func(r chi.Router) {
		r.Use(withGzip)
		r.Get("/", h.handleIndex)
		r.Get("/chart.svg", h.handleChart(chart.SVG))
		r.Route("/api", func(r chi.Router) {
			r.Use(withJSONHeaders)
			r.Get("/series", h.handleSeries)
			r.Get("/quote", h.handleQuote)
		})
	})
	return r
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (h *handler) snapshot(r *http.Request) (series.Snapshot, error) {
	ctx, cancel := context.WithTimeout(r.Context(), h.RequestTimeout)
	defer cancel()
	return h.Snapshot(ctx)
}

type seriesResponse struct {
	Symbol  string         `json:"symbol"`
	Points  []series.Point `json:"points"`
	Summary series.Summary `json:"summary"`
}

func (h *handler) handleSeries(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshot(r)
	if err != nil {
		h.writeError(w, http.StatusServiceUnavailable, "series unavailable")
		h.Log.Warn("snapshot", zap.Error(err))
		return
	}
	points := snap.Points
	if points == nil {
		points = []series.Point{}
	}
	h.writeJSON(w, http.StatusOK, seriesResponse{Symbol: h.Page.Symbol, Points: points, Summary: snap.Summary})
}

type quoteResponse struct {
	Symbol string `json:"symbol"`
	series.Point
}

func (h *handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshot(r)
	if err != nil {
		h.writeError(w, http.StatusServiceUnavailable, "series unavailable")
		h.Log.Warn("snapshot", zap.Error(err))
		return
	}
	if len(snap.Points) == 0 {
		h.writeError(w, http.StatusNotFound, "no quote yet")
		return
	}
	h.writeJSON(w, http.StatusOK, quoteResponse{Symbol: h.Page.Symbol, Point: snap.Points[len(snap.Points)-1]})
}

func (h *handler) handleChart(f chart.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.RequestTimeout)
		defer cancel()
		body, err := h.Charts.Get(ctx, f)
		switch {
		case errors.Is(err, chart.ErrEmpty):
			w.WriteHeader(http.StatusNoContent)
			return
		case err != nil:
			h.Log.Warn("render chart", zap.String("format", string(f)), zap.Error(err))
			http.Error(w, "chart unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", f.ContentType())
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(body)
	}
}

func (h *handler) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, h.Page); err != nil {
		h.Log.Warn("render page", zap.Error(err))
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func (h *handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg, Code: status})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		h.Log.Debug("write response", zap.Error(err))
	}
}

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
#last { font-size: 1.4rem; margin: 1rem 0; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div id="last">{{.Symbol}}: waiting for first quote</div>
<img id="chart" src="/chart.svg" width="{{.Width}}" height="{{.Height}}" alt="{{.Symbol}} price chart">
<script>
(function () {
  var symbol = {{.Symbol}};
  var img = document.getElementById("chart");
  var last = document.getElementById("last");
  function show(p) {
    last.textContent = symbol + " #" + p.index + ": " + p.value.toFixed(2);
    img.src = "/chart.svg?v=" + p.index;
  }
  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onmessage = function (ev) {
      var msg = JSON.parse(ev.data);
      if (msg.type === "point") {
        show(msg.point);
      } else if (msg.type === "snapshot" && msg.snapshot.points && msg.snapshot.points.length) {
        show(msg.snapshot.points[msg.snapshot.points.length - 1]);
      }
    };
    ws.onclose = function () { setTimeout(connect, 2000); };
  }
  connect();
})();
</script>
</body>
</html>
`))
