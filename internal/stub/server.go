// Package stub is a demo PC-Estoque chat backend. It keeps per-session
// logins in memory and answers the same commands as the production demo.
package stub

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"estoquechat/pkg/logger"
)

const defaultSessionID = "web_default"

// Config tunes the stub server.
type Config struct {
	// Available is reported as chatbot_disponivel on /api/status.
	Available bool
	// Delay is added before every chat reply. Useful to exercise timeouts.
	Delay time.Duration
	// RateLimit caps requests per client IP per minute. Zero disables it.
	RateLimit int
}

// Server handles the demo API.
type Server struct {
	cfg       Config
	log       *logger.Logger
	available atomic.Bool

	mu     sync.Mutex
	logins map[string]Seller
}

func NewServer(cfg Config, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{cfg: cfg, log: log, logins: make(map[string]Seller)}
	s.available.Store(cfg.Available)
	return s
}

// SetAvailable flips what /api/status reports.
func (s *Server) SetAvailable(v bool) {
	s.available.Store(v)
}

// Router mounts the API under /api.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogging(s.log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	if s.cfg.RateLimit > 0 {
		r.Use(httprate.Limit(s.cfg.RateLimit, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			}),
		))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.Chat)
		r.Get("/status", s.Status)
		r.Get("/usuarios", s.Users)
	})
	return r
}

type chatRequest struct {
	Message   string `json:"mensagem"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Reply    string          `json:"resposta"`
	Success  bool            `json:"sucesso"`
	Kind     string          `json:"tipo"`
	Features map[string]bool `json:"features"`
}

// Chat handles POST /api/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusUnprocessableEntity, "mensagem is required")
		return
	}
	if req.SessionID == "" {
		req.SessionID = defaultSessionID
	}

	if s.cfg.Delay > 0 {
		select {
		case <-time.After(s.cfg.Delay):
		case <-r.Context().Done():
			return
		}
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Reply:    s.Process(req.SessionID, req.Message),
		Success:  true,
		Kind:     "basico_rapido",
		Features: map[string]bool{"commands": true, "ai": false, "database": false},
	})
}

// Process answers one message for a session.
func (s *Server) Process(sessionID, message string) string {
	trimmed := strings.TrimSpace(message)
	command := strings.ToLower(trimmed)

	s.mu.Lock()
	defer s.mu.Unlock()

	seller, loggedIn := s.logins[sessionID]
	if strings.HasPrefix(command, "identificar") {
		parts := strings.Fields(trimmed)
		if len(parts) != 2 {
			return missingParameter
		}
		found, ok := DemoSellers[parts[1]]
		if !ok {
			return sellerNotFound(parts[1])
		}
		s.logins[sessionID] = found
		s.log.Info("seller identified", zap.String("session_id", sessionID), zap.String("seller_id", found.ID))
		return welcomeText(found)
	}
	if !loggedIn {
		return identificationRequired()
	}

	switch command {
	case "logout":
		delete(s.logins, sessionID)
		return loggedOut(seller.Name)
	case "estoque-baixo":
		return lowStock
	case "listar":
		return productList
	default:
		return echo(trimmed, seller)
	}
}

// Status handles GET /api/status.
func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	n := len(s.logins)
	s.mu.Unlock()

	available := s.available.Load()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "online",
		"chatbot_disponivel": available,
		"database_available": false,
		"usuarios_logados":   n,
		"features": map[string]bool{
			"commands": true,
			"ai":       available,
			"database": false,
		},
	})
}

type activeUser struct {
	SessionID string `json:"session_id"`
	Name      string `json:"nome"`
	Level     string `json:"nivel"`
}

// Users handles GET /api/usuarios. Session ids are shortened.
func (s *Server) Users(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	users := make([]activeUser, 0, len(s.logins))
	for sid, seller := range s.logins {
		if len(sid) > 8 {
			sid = sid[:8]
		}
		users = append(users, activeUser{SessionID: sid + "...", Name: seller.Name, Level: seller.Level})
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"total": len(users), "usuarios": users})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"detail": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogging(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", requestID)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			log.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", requestID),
				zap.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}
