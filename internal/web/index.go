package web

import "net/http"

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>adspot</title>
    <script src="https://unpkg.com/htmx.org@1.9.10"></script>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }

        :root {
            --bg-primary: #f5f5f5;
            --bg-secondary: white;
            --text-primary: #333;
            --text-muted: #7f8c8d;
            --border-color: #eee;
            --accent-color: #1db954;
            --error-color: #c0392b;
            --shadow: rgba(0,0,0,0.1);
        }

        @media (prefers-color-scheme: dark) {
            :root {
                --bg-primary: #1a1a1a;
                --bg-secondary: #2d2d2d;
                --text-primary: #e0e0e0;
                --text-muted: #a0a0a0;
                --border-color: #404040;
                --shadow: rgba(0,0,0,0.3);
            }
        }

        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: var(--bg-primary);
            padding: 20px;
            color: var(--text-primary);
        }

        h1 {
            font-size: 2rem;
            margin-bottom: 30px;
        }

        .dashboard {
            display: flex;
            gap: 20px;
            flex-wrap: wrap;
        }

        .box {
            flex: 1;
            min-width: 280px;
            background: var(--bg-secondary);
            border-radius: 8px;
            box-shadow: 0 2px 4px var(--shadow);
            padding: 24px;
        }

        .box h2 {
            font-size: 1.3rem;
            margin-bottom: 16px;
            border-bottom: 2px solid var(--accent-color);
            padding-bottom: 8px;
        }

        .state {
            font-size: 1.6rem;
            font-weight: 600;
            margin-bottom: 8px;
        }

        .detail, .span-time, .loading {
            color: var(--text-muted);
        }

        .error {
            color: var(--error-color);
            margin-top: 8px;
            word-break: break-word;
        }

        .header-btn {
            margin-top: 16px;
            background: var(--bg-secondary);
            color: var(--text-primary);
            border: 2px solid var(--accent-color);
            border-radius: 50px;
            padding: 6px 18px;
            cursor: pointer;
        }

        .span-item {
            display: flex;
            justify-content: space-between;
            padding: 8px 4px;
            border-bottom: 1px solid var(--border-color);
        }

        .listing {
            overflow-y: auto;
            max-height: 360px;
        }

        .total {
            margin-top: 16px;
            font-weight: 600;
        }
    </style>
</head>
<body>
    <h1>adspot</h1>
    <div class="dashboard">
        <div class="box">
            <h2>Monitor</h2>
            <div id="status" hx-get="/api/status" hx-trigger="load, every 2s" hx-swap="innerHTML">
                <div class="loading">Loading...</div>
            </div>
        </div>

        <div class="box">
            <h2>Today</h2>
            <div hx-get="/api/report?period=day" hx-trigger="load, every 30s" hx-swap="innerHTML">
                <div class="loading">Loading...</div>
            </div>
        </div>

        <div class="box">
            <h2>This Week</h2>
            <div hx-get="/api/report?period=week" hx-trigger="load, every 30s" hx-swap="innerHTML">
                <div class="loading">Loading...</div>
            </div>
        </div>
    </div>
</body>
</html>`
