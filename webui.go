package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // read-only feed
	},
}

// historyLen is how many cycle reports the status page keeps.
const historyLen = 20

// StatusServer serves the recent cycle reports as JSON and pushes new
// ones to websocket clients.
type StatusServer struct {
	mu      sync.Mutex
	history []CycleReport
	clients map[*statusClient]struct{}
}

type statusClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *statusClient) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func NewStatusServer() *StatusServer {
	return &StatusServer{
		clients: make(map[*statusClient]struct{}),
	}
}

// Publish records a report and fans it out. It is safe to use as
// Checker.OnReport.
func (s *StatusServer) Publish(report CycleReport) {
	s.mu.Lock()
	s.history = append(s.history, report)
	if len(s.history) > historyLen {
		s.history = s.history[len(s.history)-historyLen:]
	}
	clients := make([]*statusClient, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		if err := c.send(report); err != nil {
			log.Printf("WebSocket write error: %v\n", err)
			s.drop(c)
		}
	}
}

// History returns a copy of the stored reports, oldest first.
func (s *StatusServer) History() []CycleReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CycleReport, len(s.history))
	copy(out, s.history)
	return out
}

func (s *StatusServer) drop(c *statusClient) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	c.conn.Close()
}

func (s *StatusServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v\n", err)
		return
	}

	// Register and replay history before any Publish can reach the client.
	client := &statusClient{conn: conn}
	s.mu.Lock()
	history := make([]CycleReport, len(s.history))
	copy(history, s.history)
	s.clients[client] = struct{}{}
	client.mu.Lock()
	s.mu.Unlock()

	var replayErr error
	for _, report := range history {
		if replayErr = client.conn.WriteJSON(report); replayErr != nil {
			break
		}
	}
	client.mu.Unlock()
	if replayErr != nil {
		s.drop(client)
		return
	}
	log.Println("Status client connected")

	// Nothing is expected from the client; reading detects the disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.drop(client)
	log.Println("Status client disconnected")
}

func (s *StatusServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.History()); err != nil {
		log.Printf("History encode error: %v\n", err)
	}
}

func (s *StatusServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/history", s.handleHistory)
	mux.HandleFunc("/", serveHTML)
	return mux
}

// Start serves the status page until the listener fails.
func (s *StatusServer) Start(port int) {
	addr := fmt.Sprintf("localhost:%d", port)
	log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	log.Printf("🌐 Status page: http://%s\n", addr)
	log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")

	if err := http.ListenAndServe(addr, s.Handler()); err != nil {
		log.Printf("❌ Status server error: %v\n", err)
	}
}

func serveHTML(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, htmlContent)
}

const htmlContent = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Clinic Watch</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: 'SF Mono', 'Monaco', 'Courier New', monospace;
            background: #1a1a1a;
            color: #00ff00;
        }
        header {
            background: #0a0a0a;
            padding: 15px 20px;
            border-bottom: 2px solid #00ff00;
        }
        h1 { font-size: 18px; letter-spacing: 2px; }
        .status { font-size: 12px; color: #888; margin-top: 5px; }
        .status.connected { color: #00ff00; }
        .status.disconnected { color: #ff0000; }
        main { padding: 20px; }
        .report { border-bottom: 1px solid #333; padding: 10px 0; }
        .report .when { color: #888; font-size: 12px; }
        .report .new { color: #ffaa00; }
        .report .error { color: #ff6666; }
    </style>
</head>
<body>
    <header>
        <h1>CLINIC WATCH</h1>
        <div class="status" id="status">Connecting...</div>
    </header>
    <main id="reports"></main>
    <script>
        const statusEl = document.getElementById('status');
        const reportsEl = document.getElementById('reports');

        function render(r) {
            const div = document.createElement('div');
            div.className = 'report';
            const when = document.createElement('div');
            when.className = 'when';
            when.textContent = r.started_at + ' (' + r.elapsed + ')';
            div.appendChild(when);
            const body = document.createElement('div');
            if (r.error) {
                body.className = 'error';
                body.textContent = '❌ ' + r.error;
            } else if (r.new && r.new.length) {
                body.className = 'new';
                body.textContent = '⚠️ NEW: ' + r.new.join(', ');
            } else {
                body.textContent = '✅ ' + (r.clinics || []).length + ' clinics, nothing new';
            }
            div.appendChild(body);
            reportsEl.insertBefore(div, reportsEl.firstChild);
        }

        const ws = new WebSocket('ws://' + window.location.host + '/ws');
        ws.onopen = () => {
            statusEl.textContent = '✅ Connected';
            statusEl.className = 'status connected';
        };
        ws.onclose = () => {
            statusEl.textContent = '❌ Disconnected - Refresh to reconnect';
            statusEl.className = 'status disconnected';
        };
        ws.onmessage = (event) => render(JSON.parse(event.data));
    </script>
</body>
</html>
`
