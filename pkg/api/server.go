package api

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/patrickmn/go-cache"
	"golang.org/x/net/netutil"

	"github.com/dixieflatline76/Framer/pkg/studio"
	"github.com/dixieflatline76/Framer/util/log"
)

// Options configures a Server.
type Options struct {
	Addr           string
	MaxUploadBytes int64
	MaxConnections int
	UpdateCheck    bool
	FaceAware      bool
	Web            fs.FS        // static page; nil serves no page
	HTTPClient     *http.Client // outbound client for the update check
}

// Server represents the local REST/WebSocket server.
type Server struct {
	studio     *studio.Studio
	opts       Options
	httpServer *http.Server
	serverMu   sync.Mutex
	mux        *http.ServeMux
	upgrader   websocket.Upgrader
	versions   *cache.Cache

	// WebSocket management
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	views     chan studio.View
	done      chan struct{}
}

// NewServer creates a new API server and starts forwarding view changes to
// WebSocket clients.
func NewServer(st *studio.Studio, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 20 << 20
	}
	s := &Server{
		studio: st,
		opts:   opts,
		mux:    http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		versions: cache.New(time.Hour, 2*time.Hour),
		clients:  make(map[*websocket.Conn]bool),
		views:    st.Subscribe(),
		done:     make(chan struct{}),
	}
	s.setupRoutes()
	go s.forwardViews()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)

	s.mux.HandleFunc("GET /api/options", s.handleOptions)
	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("POST /api/generate", s.handleGenerate)
	s.mux.HandleFunc("POST /api/retry", s.handleRetry)
	s.mux.HandleFunc("POST /api/dismiss", s.handleDismiss)
	s.mux.HandleFunc("POST /api/enhance", s.handleEnhance)
	s.mux.HandleFunc("GET /api/images/{id}", s.handleImage)
	s.mux.HandleFunc("GET /api/version", s.handleVersion)

	if s.opts.Web != nil {
		s.mux.Handle("GET /", http.FileServerFS(s.opts.Web))
	}
}

// enableCORS adds CORS headers to the handler.
func (s *Server) enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.enableCORS(s.mux.ServeHTTP)
}

// Start listens on the configured address and serves until Stop. The number
// of simultaneous connections is capped by MaxConnections.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	if s.opts.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.opts.MaxConnections)
	}

	s.serverMu.Lock()
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.serverMu.Unlock()

	log.Printf("Listening on http://%s", ln.Addr())
	// This is blocking
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop closes WebSocket clients and shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	select {
	case <-s.done:
	default:
		close(s.done)
		s.studio.Unsubscribe(s.views)
	}

	s.clientsMu.Lock()
	for client := range s.clients {
		client.Close()
		delete(s.clients, client)
	}
	s.clientsMu.Unlock()

	s.serverMu.Lock()
	srv := s.httpServer
	s.serverMu.Unlock()
	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

// forwardViews broadcasts every studio view change until Stop.
func (s *Server) forwardViews() {
	for view := range s.views {
		s.Broadcast(view)
	}
}

// Broadcast sends msg as JSON to all connected clients.
func (s *Server) Broadcast(msg any) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	for client := range s.clients {
		if err := client.WriteJSON(msg); err != nil {
			log.Printf("Failed to broadcast to client: %v", err)
			client.Close()
			delete(s.clients, client)
		}
	}
}
