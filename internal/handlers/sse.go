package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"nexus-analytics/internal/models"
	"nexus-analytics/internal/services"
	"github.com/starfederation/datastar-go/datastar"
)

var kpiCardsTemplate = template.Must(template.New("kpiCards").Parse(`
<div id="kpi-cards" class="kpi-row">
<div class="metric-card"><div class="metric-title">Total Revenue</div><div class="metric-value">${{printf "%.0f" .TotalRevenue}}</div>{{if .RevenueDelta.Defined}}<div class="metric-delta">{{printf "%+.1f" .RevenueDelta.Pct}}% vs prior period</div>{{end}}</div>
<div class="metric-card"><div class="metric-title">Total Orders</div><div class="metric-value">{{.TotalOrders}}</div>{{if .OrdersDelta.Defined}}<div class="metric-delta">{{printf "%+.1f" .OrdersDelta.Pct}}% vs prior period</div>{{end}}</div>
<div class="metric-card"><div class="metric-title">Avg Order Value</div><div class="metric-value">{{if .AvgOrderValue.Defined}}${{printf "%.2f" .AvgOrderValue.Value}}{{else}}&ndash;{{end}}</div></div>
<div class="metric-card"><div class="metric-title">Active Customers</div><div class="metric-value">{{.ActiveCustomers}}</div></div>
</div>`))

// SSEHandlers push dashboard updates over datastar server-sent events:
// metric cards as HTML patches, chart data as signal patches.
type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{analytics: analytics, logger: logger}
}

func (h *SSEHandlers) renderKPICards(summary models.KPISummary) (string, error) {
	var buf strings.Builder
	err := kpiCardsTemplate.Execute(&buf, summary)
	return buf.String(), err
}

func (h *SSEHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	rng, err := parseRange(r)
	if err != nil {
		h.logger.Warn("bad kpi sse range", "error", err)
		return
	}

	html, err := h.renderKPICards(h.analytics.KPIs(rng))
	if err != nil {
		h.logger.Error("render kpi cards", "error", err)
		return
	}
	sse.PatchElements(html)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleCharts(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	rng, err := parseRange(r)
	if err != nil {
		h.logger.Warn("bad charts sse range", "error", err)
		return
	}

	signals, err := h.chartSignals(rng)
	if err != nil {
		h.logger.Error("marshal chart signals", "error", err)
		return
	}
	sse.PatchSignals(signals)
	sse.PatchElements(`<div id="charts-status">charts updated</div>`)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	rng, err := parseRange(r)
	if err != nil {
		h.logger.Warn("bad refresh sse range", "error", err)
		return
	}

	html, err := h.renderKPICards(h.analytics.KPIs(rng))
	if err != nil {
		h.logger.Error("render kpi cards", "error", err)
		return
	}
	sse.PatchElements(html)

	signals, err := h.chartSignals(rng)
	if err != nil {
		h.logger.Error("marshal chart signals", "error", err)
		return
	}
	sse.PatchSignals(signals)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) chartSignals(rng models.DateRange) ([]byte, error) {
	return json.Marshal(map[string]any{
		"trendData":    h.analytics.RevenueTrend(models.GranularityMonth, rng),
		"categoryData": h.analytics.Categories(rng),
		"heatmapData":  h.analytics.Heatmap(rng),
		"paretoData":   h.analytics.Pareto(models.GroupByProduct, rng),
		"rfmData":      h.analytics.RFM(rng),
	})
}
