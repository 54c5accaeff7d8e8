// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, metrics, and the built-in test page.
package server

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// WebSocketHandler handles WebSocket upgrade requests and manages client connections.
// It validates that the request uses the GET method, upgrades the HTTP connection
// to WebSocket, creates a new Client instance, and hands it to the hub.
func (s *Server) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.String("addr", r.RemoteAddr), zap.Error(err))
		return
	}

	client := NewClient(conn, s.hub, r.RemoteAddr, s.cfg)

	// The hub registers the client and launches the pump goroutines.
	s.hub.Serve(client, s.router)
}

// HealthHandler provides a simple health check endpoint that returns server status.
// It responds with a plain text message indicating the server is running.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Exchange chat server is running!")
}

// MetricsHandler exposes the Prometheus collectors.
func (s *Server) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})
}

// TestPageHandler serves a browser client for the chat. Exchange replies are
// rendered as rate tables; every other line is shown as sent.
func TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = fmt.Fprint(w, testPage)
}

const testPage = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Exchange Chat</title>
    <style>
        body { font-family: sans-serif; margin: 20px; max-width: 720px; }
        #log { border: 1px solid #ccc; height: 360px; overflow-y: auto; padding: 8px; background: #fafafa; }
        #log > div { margin: 4px 0; white-space: pre-wrap; }
        table { border-collapse: collapse; margin: 4px 0; }
        th, td { border: 1px solid #ddd; padding: 2px 8px; text-align: right; }
        th:first-child, td:first-child { text-align: left; }
        .system { color: #888; }
        .bar { margin: 8px 0; }
        .bar input[type=text] { width: 320px; }
    </style>
</head>
<body>
    <h1>Exchange Chat</h1>
    <div class="bar">
        <span id="state">offline</span>
        <button id="toggle">Connect</button>
    </div>
    <div id="log"></div>
    <div class="bar">
        <input type="text" id="line" placeholder="Message" disabled>
        <button id="send" disabled>Send</button>
    </div>
    <div class="bar">
        <button class="cmd" data-line="Hello server" disabled>Hello server</button>
        <button class="cmd" data-line="exchange" disabled>Today's rates</button>
        <label>last <input type="number" id="days" min="1" max="10" value="3" style="width:3em"> days</label>
        <button id="range" disabled>Rates</button>
    </div>

    <script>
        let ws = null;
        const log = document.getElementById('log');
        const line = document.getElementById('line');
        const state = document.getElementById('state');
        const toggle = document.getElementById('toggle');
        const controls = [line, document.getElementById('send'), document.getElementById('range'),
            ...document.querySelectorAll('.cmd')];

        function append(node) {
            log.appendChild(node);
            log.scrollTop = log.scrollHeight;
        }

        function note(text) {
            const div = document.createElement('div');
            div.className = 'system';
            div.textContent = text;
            append(div);
        }

        // An exchange reply is a JSON array of {date: {currency: {sale, purchase}}}.
        function rateTables(data) {
            let days;
            try { days = JSON.parse(data); } catch (e) { return null; }
            if (!Array.isArray(days)) { return null; }
            const wrap = document.createElement('div');
            if (days.length === 0) {
                wrap.textContent = 'No rates available.';
                return wrap;
            }
            for (const day of days) {
                for (const [date, rates] of Object.entries(day)) {
                    const table = document.createElement('table');
                    table.insertRow().innerHTML = '<th></th><th>sale</th><th>purchase</th>';
                    table.createCaption().textContent = date;
                    for (const [currency, q] of Object.entries(rates)) {
                        const row = table.insertRow();
                        for (const v of [currency, q.sale, q.purchase]) {
                            row.insertCell().textContent = v;
                        }
                    }
                    wrap.appendChild(table);
                }
            }
            return wrap;
        }

        function receive(data) {
            const tables = rateTables(data);
            if (tables) {
                append(tables);
                return;
            }
            const div = document.createElement('div');
            div.textContent = data;
            append(div);
        }

        function setOnline(online) {
            state.textContent = online ? 'online' : 'offline';
            toggle.textContent = online ? 'Disconnect' : 'Connect';
            controls.forEach(c => c.disabled = !online);
        }

        function send(text) {
            if (ws && ws.readyState === WebSocket.OPEN && text !== '') {
                ws.send(text);
            }
        }

        toggle.onclick = function() {
            if (ws) {
                ws.close();
                return;
            }
            ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws');
            ws.onopen = () => setOnline(true);
            ws.onmessage = (event) => receive(event.data);
            ws.onclose = () => { note('disconnected'); setOnline(false); ws = null; };
        };

        document.getElementById('send').onclick = () => { send(line.value); line.value = ''; };
        line.addEventListener('keydown', (e) => {
            if (e.key === 'Enter') { send(line.value); line.value = ''; }
        });
        document.querySelectorAll('.cmd').forEach(b => b.onclick = () => send(b.dataset.line));
        document.getElementById('range').onclick = () => send('exchange ' + document.getElementById('days').value);
    </script>
</body>
</html>`
