package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/deskhub-app/deskhub/internal/service"
)

// NewServer exposes a read-only cost dashboard plus JSON endpoints backed by
// the same services the RPC surface uses. Writes only go through RPC.
func NewServer(addr string, costs *service.CostService, presets *service.PresetService) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(dashboardPageHTML))
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	mux.HandleFunc("/api/summary-totals", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, costs.SummaryTotals())
	})
	mux.HandleFunc("/api/daily-summaries", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		writeJSON(w, http.StatusOK, costs.DailySummaries(
			strings.TrimSpace(query.Get("start_date")),
			strings.TrimSpace(query.Get("end_date")),
		))
	})
	mux.HandleFunc("/api/model-breakdown", func(w http.ResponseWriter, r *http.Request) {
		costRange, err := parseRange(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, costs.ModelBreakdown(costRange))
	})
	mux.HandleFunc("/api/cost-history", func(w http.ResponseWriter, r *http.Request) {
		costRange, err := parseRange(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		entries := costs.History(costRange)
		limit := 200
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": "limit must be a non-negative integer"})
				return
			}
			limit = parsed
		}
		if limit > 0 && len(entries) > limit {
			entries = entries[len(entries)-limit:]
		}
		writeJSON(w, http.StatusOK, entries)
	})
	mux.HandleFunc("/api/presets", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, presets.List())
	})

	return &http.Server{
		Addr:    addr,
		Handler: mux,
	}
}

func parseRange(r *http.Request) (*service.CostRange, error) {
	query := r.URL.Query()
	start := strings.TrimSpace(query.Get("start"))
	end := strings.TrimSpace(query.Get("end"))
	if start == "" && end == "" {
		return nil, nil
	}
	return &service.CostRange{Start: start, End: end}, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.WithError(err).Warn("http json encode error")
	}
}

const dashboardPageHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>DeskHub Cost Dashboard</title>
  <link rel="preconnect" href="https://fonts.googleapis.com">
  <link rel="preconnect" href="https://fonts.gstatic.com" crossorigin>
  <link href="https://fonts.googleapis.com/css2?family=Space+Grotesk:wght@400;600;700&family=JetBrains+Mono:wght@400;600&display=swap" rel="stylesheet">
  <style>
    :root {
      --bg: #0b1220;
      --bg2: #17233a;
      --card: rgba(15, 24, 42, 0.8);
      --line: #2c3f62;
      --text: #e8f0ff;
      --muted: #9fb2d4;
      --accent: #6fe3a5;
      --accent2: #5aa7ff;
      --warn: #ffca63;
      --danger: #ff6b7d;
    }
    * { box-sizing: border-box; }
    body {
      margin: 0;
      color: var(--text);
      background:
        radial-gradient(800px 500px at 10% -20%, rgba(90, 167, 255, 0.28), transparent 70%),
        radial-gradient(900px 540px at 100% 0%, rgba(111, 227, 165, 0.18), transparent 65%),
        linear-gradient(130deg, var(--bg), var(--bg2));
      font-family: "Space Grotesk", "Segoe UI", sans-serif;
      min-height: 100vh;
    }
    .shell {
      max-width: 1120px;
      margin: 0 auto;
      padding: 28px 18px 40px;
    }
    .headline {
      display: flex;
      justify-content: space-between;
      align-items: end;
      gap: 14px;
      margin-bottom: 18px;
    }
    h1 {
      margin: 0;
      letter-spacing: 0.04em;
      font-weight: 700;
      font-size: clamp(1.5rem, 2vw, 2.1rem);
    }
    .tag {
      color: var(--muted);
      font-family: "JetBrains Mono", monospace;
      font-size: 12px;
    }
    .cards {
      display: grid;
      grid-template-columns: repeat(6, minmax(0, 1fr));
      gap: 10px;
      margin-bottom: 14px;
    }
    .card {
      background: var(--card);
      border: 1px solid var(--line);
      border-radius: 12px;
      padding: 12px;
      backdrop-filter: blur(8px);
    }
    .k {
      font-family: "JetBrains Mono", monospace;
      font-size: 11px;
      color: var(--muted);
      margin-bottom: 8px;
      text-transform: uppercase;
      letter-spacing: 0.06em;
    }
    .v {
      font-size: 1.2rem;
      font-weight: 700;
    }
    .sub {
      font-family: "JetBrains Mono", monospace;
      font-size: 11px;
      color: var(--muted);
      margin-top: 4px;
    }
    button {
      border-radius: 10px;
      border: 1px solid #3f5f91;
      background: linear-gradient(90deg, rgba(90, 167, 255, 0.22), rgba(111, 227, 165, 0.2));
      color: var(--text);
      padding: 10px 14px;
      font: inherit;
      cursor: pointer;
      font-weight: 600;
    }
    .table-wrap {
      background: var(--card);
      border: 1px solid var(--line);
      border-radius: 12px;
      overflow: auto;
      margin-bottom: 14px;
    }
    table {
      width: 100%;
      border-collapse: collapse;
      min-width: 720px;
    }
    th, td {
      padding: 10px 11px;
      text-align: left;
      border-bottom: 1px solid rgba(44, 63, 98, 0.55);
      font-size: 14px;
    }
    th {
      font-size: 11px;
      color: var(--muted);
      text-transform: uppercase;
      letter-spacing: 0.07em;
    }
    .mono { font-family: "JetBrains Mono", monospace; }
    @media (max-width: 920px) {
      .cards { grid-template-columns: repeat(2, minmax(0, 1fr)); }
    }
  </style>
</head>
<body>
  <main class="shell">
    <section class="headline">
      <div>
        <h1>DeskHub Cost Dashboard</h1>
        <div class="tag">Read-only view of model usage cost, rolled up per day and per model.</div>
      </div>
      <button id="refreshBtn">Refresh</button>
    </section>

    <section class="cards">
      <article class="card"><div class="k">Today</div><div id="today" class="v">-</div><div id="todayReq" class="sub">-</div></article>
      <article class="card"><div class="k">Yesterday</div><div id="yesterday" class="v">-</div><div id="yesterdayReq" class="sub">-</div></article>
      <article class="card"><div class="k">This Week</div><div id="thisWeek" class="v">-</div><div id="thisWeekReq" class="sub">-</div></article>
      <article class="card"><div class="k">Last Week</div><div id="lastWeek" class="v">-</div><div id="lastWeekReq" class="sub">-</div></article>
      <article class="card"><div class="k">This Month</div><div id="thisMonth" class="v">-</div><div id="thisMonthReq" class="sub">-</div></article>
      <article class="card"><div class="k">Last Month</div><div id="lastMonth" class="v">-</div><div id="lastMonthReq" class="sub">-</div></article>
    </section>

    <section class="table-wrap">
      <table>
        <thead>
          <tr>
            <th>Model</th>
            <th>Cost</th>
            <th>Requests</th>
            <th>Tokens</th>
          </tr>
        </thead>
        <tbody id="modelRows"></tbody>
      </table>
    </section>

    <section class="table-wrap">
      <table>
        <thead>
          <tr>
            <th>Date</th>
            <th>Cost</th>
            <th>Requests</th>
            <th>Models</th>
          </tr>
        </thead>
        <tbody id="dayRows"></tbody>
      </table>
    </section>
  </main>
  <script>
    async function fetchJSON(url) {
      const res = await fetch(url);
      if (!res.ok) throw new Error(await res.text());
      return res.json();
    }
    function usd(v) { return "$" + Number(v || 0).toFixed(4); }
    function reqs(v) { return Number(v || 0) + " req"; }

    async function refresh() {
      const totals = await fetchJSON("/api/summary-totals");
      for (const key of ["today", "yesterday", "thisWeek", "lastWeek", "thisMonth", "lastMonth"]) {
        const period = totals[key] || {};
        document.getElementById(key).textContent = usd(period.cost);
        document.getElementById(key + "Req").textContent = reqs(period.requests);
      }

      const breakdown = await fetchJSON("/api/model-breakdown");
      const modelRows = document.getElementById("modelRows");
      modelRows.innerHTML = "";
      breakdown.forEach((item) => {
        const tr = document.createElement("tr");
        tr.innerHTML =
          '<td class="mono">' + (item.model || "-") + '</td>' +
          '<td class="mono">' + usd(item.cost) + '</td>' +
          '<td class="mono">' + (item.requests || 0) + '</td>' +
          '<td class="mono">' + (item.tokens || 0) + '</td>';
        modelRows.appendChild(tr);
      });

      const days = await fetchJSON("/api/daily-summaries");
      const dayRows = document.getElementById("dayRows");
      dayRows.innerHTML = "";
      days.slice().reverse().forEach((item) => {
        const models = Object.keys(item.summary.byModel || {}).join(", ");
        const tr = document.createElement("tr");
        tr.innerHTML =
          '<td class="mono">' + item.date + '</td>' +
          '<td class="mono">' + usd(item.summary.totalCost) + '</td>' +
          '<td class="mono">' + (item.summary.requestCount || 0) + '</td>' +
          '<td>' + (models || "-") + '</td>';
        dayRows.appendChild(tr);
      });
    }

    document.getElementById("refreshBtn").addEventListener("click", () => refresh().catch(console.error));
    refresh().catch(console.error);
  </script>
</body>
</html>`
