package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Dashboard returns the single-page dashboard shell. All data arrives over
// the datastar SSE endpoints after load; the page itself is static.
func Dashboard() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, dashboardPage)
		return err
	})
}

const dashboardPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8"/>
<meta name="viewport" content="width=device-width, initial-scale=1"/>
<title>Nexus Analytics Hub</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@main/bundles/datastar.js"></script>
<style>
body { background-color: #0E1117; color: #FAFAFA; font-family: system-ui, sans-serif; margin: 0; padding: 24px; }
h1 { font-weight: 700; }
.kpi-row { display: flex; gap: 16px; flex-wrap: wrap; }
.metric-card { background-color: #262730; border: 1px solid #363945; padding: 20px; border-radius: 12px; min-width: 180px; text-align: center; }
.metric-title { color: #A3A8B8; font-size: 0.9rem; text-transform: uppercase; letter-spacing: 1px; }
.metric-value { font-size: 1.8rem; font-weight: 700; margin-top: 5px; }
.metric-delta { font-size: 0.8rem; margin-top: 5px; color: #00ff88; }
.panel { background-color: #262730; border-radius: 12px; padding: 20px; margin-top: 24px; }
#charts-status { color: #A3A8B8; font-size: 0.8rem; margin-top: 16px; }
</style>
</head>
<body data-signals="{trendData: [], categoryData: [], heatmapData: {}, paretoData: {}, rfmData: {}}" data-on-load="@get('/sse/refresh-all')">
<h1>&#9889; Nexus Analytics Hub</h1>
<div id="kpi-cards" class="kpi-row"></div>
<div class="panel">
<h2>Revenue Trend</h2>
<pre data-text="JSON.stringify($trendData, null, 1)"></pre>
</div>
<div class="panel">
<h2>Pareto (80/20)</h2>
<pre data-text="JSON.stringify($paretoData, null, 1)"></pre>
</div>
<div class="panel">
<h2>Customer Segments</h2>
<pre data-text="JSON.stringify($rfmData.segments, null, 1)"></pre>
<p><a href="/api/rfm/export">Download segment CSV</a></p>
</div>
<div id="charts-status"></div>
</body>
</html>`
