package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/octafabbri/hey/internal/conversation"
	httpmiddleware "github.com/octafabbri/hey/internal/http/middleware"
	"github.com/octafabbri/hey/internal/notify"
	"github.com/octafabbri/hey/internal/realtime"
	"github.com/octafabbri/hey/internal/workorder"
	"github.com/octafabbri/hey/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	ConversationHandler *conversation.Handler
	WorkOrderHandler    *workorder.Handler
	NotificationHandler *notify.Handler
	RealtimeHub         *realtime.Hub
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string

	// Requests per second per client IP. Zero disables rate limiting.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.RateLimitPerSecond > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.ConversationHandler != nil {
		r.Route("/conversations", func(conv chi.Router) {
			conv.Post("/", cfg.ConversationHandler.Start)
			conv.Post("/{conversationID}/messages", cfg.ConversationHandler.Turn)
		})
	}

	if cfg.WorkOrderHandler != nil {
		wo := cfg.WorkOrderHandler
		r.Route("/workorders", func(orders chi.Router) {
			orders.Get("/", wo.History)
			orders.Get("/actionable", wo.Actionable)
			orders.Get("/active", wo.Active)
			orders.Route("/{requestID}", func(order chi.Router) {
				order.Get("/", wo.Get)
				order.Get("/document", wo.Document)
				order.Post("/accept", wo.Accept)
				order.Post("/reject", wo.Reject)
				order.Post("/counter", wo.Counter)
				order.Get("/proposals", wo.Proposals)
				order.Post("/complete", wo.Complete)
				order.Post("/cancel", wo.Cancel)
			})
		})
		r.Route("/proposals/{proposalID}", func(proposal chi.Router) {
			proposal.Post("/approve", wo.ApproveProposal)
			proposal.Post("/reject", wo.RejectProposal)
		})
	}

	if cfg.NotificationHandler != nil {
		r.Route("/notifications", func(n chi.Router) {
			n.Get("/unread", cfg.NotificationHandler.Unread)
			n.Post("/read", cfg.NotificationHandler.MarkRead)
		})
	}

	if cfg.RealtimeHub != nil {
		r.Get("/ws", cfg.RealtimeHub.HandleWebSocket)
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
