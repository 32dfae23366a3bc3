// Package httpapi is the HTTP/WebSocket front door (component E) that
// bridges a supervisor.Manager to a desktop app's renderer process over
// localhost: REST for control operations, one WebSocket per attached
// connection for the raw-pty-data/exit/name-changed event streams.
package httpapi

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/relayterm/termcore/supervisor"
)

// Config configures a Server.
type Config struct {
	// StaticDir, when non-empty, serves a built SPA bundle at "/".
	StaticDir string

	// Manager is the supervisor this server fronts. Required.
	Manager *supervisor.Manager

	// Logger receives request-level HTTP logs; defaults to a no-op.
	Logger supervisor.Logger

	// InputRateBytesPerSec/InputBurstBytes configure the per-connection
	// input byte-rate limiter. Zero selects conservative defaults.
	InputRateBytesPerSec int
	InputBurstBytes      int
}

// Server is a runnable HTTP/WebSocket server fronting one supervisor.Manager.
type Server struct {
	manager   *supervisor.Manager
	staticDir string
	logger    supervisor.Logger
	limiter   *byteRateLimiter

	subs []*supervisor.Subscription

	wsMu        sync.RWMutex
	wsBySession map[string]map[*wsClient]struct{}
	wsConnRefs  map[string]map[string]int
}

// New constructs a Server and subscribes it to cfg.Manager's event
// streams so they can be fanned out over WebSocket.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = supervisor.NopLogger{}
	}

	rate := cfg.InputRateBytesPerSec
	if rate <= 0 {
		rate = 1 << 20 // 1 MiB/s
	}
	burst := cfg.InputBurstBytes
	if burst <= 0 {
		burst = 256 * 1024
	}

	s := &Server{
		manager:     cfg.Manager,
		staticDir:   cfg.StaticDir,
		logger:      logger,
		limiter:     newByteRateLimiter(rate, burst),
		wsBySession: make(map[string]map[*wsClient]struct{}),
		wsConnRefs:  make(map[string]map[string]int),
	}
	s.subscribeToManager()
	return s
}

func (s *Server) subscribeToManager() {
	dataSub, err := s.manager.On(supervisor.EventRawPTYData, supervisor.DataListener(s.onData))
	if err == nil {
		s.subs = append(s.subs, dataSub)
	}
	agentSub, err := s.manager.On(supervisor.EventAgentData, supervisor.AgentDataListener(s.onAgentData))
	if err == nil {
		s.subs = append(s.subs, agentSub)
	}
	exitSub, err := s.manager.On(supervisor.EventExit, supervisor.ExitListener(s.onExit))
	if err == nil {
		s.subs = append(s.subs, exitSub)
	}
	nameSub, err := s.manager.On(supervisor.EventNameChanged, supervisor.NameChangedListener(s.onNameChanged))
	if err == nil {
		s.subs = append(s.subs, nameSub)
	}
	errSub, err := s.manager.On(supervisor.EventError, supervisor.ErrorListener(s.onSessionError))
	if err == nil {
		s.subs = append(s.subs, errSub)
	}
}

// Handler builds the full chi router: CORS, REST, WebSocket, and
// optionally the SPA static bundle.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(s.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			return strings.HasPrefix(origin, "tauri://") ||
				strings.HasPrefix(origin, "http://localhost") ||
				strings.HasPrefix(origin, "http://127.0.0.1")
		},
		AllowedMethods:   []string{"GET", "POST", "DELETE"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api/sessions", func(r chi.Router) {
		r.Get("/", s.handleListSessions)
		r.Post("/", s.handleCreateSession)

		r.Route("/{id}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteSession)
			r.Post("/rename", s.handleRename)
			r.Post("/attach", s.handleAttach)
			r.Post("/resize", s.handleResize)
			r.Post("/input", s.handleInput)
			r.Post("/interrupt", s.handleInterrupt)
			r.Get("/history", s.handleHistory)
			r.Post("/clear", s.handleClear)
		})
	})

	r.Get("/ws", s.handleWS)

	if strings.TrimSpace(s.staticDir) != "" {
		r.Handle("/*", spaFileServer(s.staticDir))
	}

	return r
}

// logRequests writes one debug line per HTTP request to s.logger.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, req)
		s.logger.Debug("http request", "method", req.Method, "path", req.URL.Path, "duration", time.Since(start))
	})
}

// Close unsubscribes from the manager and drops every attached WebSocket
// connection. It does not itself call KillAll; that's the caller's own
// shutdown responsibility so an HTTP restart doesn't kill live sessions.
func (s *Server) Close() {
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}

	s.wsMu.Lock()
	clients := s.wsBySession
	s.wsBySession = make(map[string]map[*wsClient]struct{})
	s.wsMu.Unlock()

	for _, set := range clients {
		for client := range set {
			client.close("server shutting down")
		}
	}
}
