package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/ride-lifecycle/internal/accounts"
	"github.com/example/ride-lifecycle/internal/config"
	"github.com/example/ride-lifecycle/internal/drivers"
	"github.com/example/ride-lifecycle/internal/events"
	"github.com/example/ride-lifecycle/internal/lifecycle"
	"github.com/example/ride-lifecycle/internal/payments"
	"github.com/example/ride-lifecycle/internal/queue"
	"github.com/example/ride-lifecycle/internal/rewards"
	"github.com/example/ride-lifecycle/internal/storage"
)

// Server binds the lifecycle engine to HTTP.
type Server struct {
	Engine    *lifecycle.Service
	Accounts  *accounts.Store
	Directory drivers.Directory
	WSReg     *events.WSRegistry

	logger *slog.Logger
	mux    *mux.Router
}

// NewServer wires the engine from configuration: Postgres or in-memory ride
// store, Redis or in-memory driver directory, Kafka and WebSocket event
// transports, optional Stripe holds.
func NewServer(cfg config.ServerConfig, logger *slog.Logger) *Server {
	var store storage.RideStore
	if cfg.PGDSN != "" {
		if ps, err := storage.NewPostgresStore(cfg.PGDSN); err == nil {
			store = ps
		} else {
			logger.Warn("postgres unavailable, using memory store", "error", err)
		}
	}
	if store == nil {
		store = storage.NewMemoryStore()
	}

	var directory drivers.Directory
	if cfg.RedisAddr != "" {
		directory = drivers.NewRedisDirectory(cfg.RedisAddr, cfg.RedisPassword)
	} else {
		directory = drivers.NewRegistry()
	}

	wsreg := events.NewWSRegistry()
	pubs := events.Fanout{wsreg, &events.LogPublisher{Logger: logger}}
	if len(cfg.KafkaBrokers) > 0 {
		pubs = append(pubs, events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.RideEventsTopic))
	}

	acct := accounts.NewStore()

	engine := lifecycle.NewService(store, queue.NewPendingQueue(), acct, pubs)
	engine.Directory = directory
	engine.Policy = rewards.Policy{
		PointsPerFare:        cfg.PointsPerFare,
		RatingBonusPoints:    cfg.RatingBonusPoints,
		PriorityRatingCutoff: cfg.PriorityRatingCutoff,
		PriorityBonusPercent: cfg.PriorityBonusPercent,
	}
	if cfg.StripeAPIKey != "" {
		engine.Payments = payments.NewStripeClient(cfg.StripeAPIKey)
	}

	s := &Server{
		Engine:    engine,
		Accounts:  acct,
		Directory: directory,
		WSReg:     wsreg,
		logger:    logger,
		mux:       mux.NewRouter(),
	}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.mux.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/rides/request", s.handleRequestRide).Methods("POST")
	api.HandleFunc("/rides/pending", s.handleListPending).Methods("GET")
	api.HandleFunc("/rides/{id}/accept", s.handleAcceptRide).Methods("POST")
	api.HandleFunc("/rides/{id}/reject", s.handleRejectRide).Methods("POST")
	api.HandleFunc("/rides/{id}/start", s.handleStartRide).Methods("POST")
	api.HandleFunc("/rides/{id}/confirm/rider", s.handleConfirmRider).Methods("POST")
	api.HandleFunc("/rides/{id}/confirm/driver", s.handleConfirmDriver).Methods("POST")
	api.HandleFunc("/rides/{id}/confirmation", s.handleConfirmationStatus).Methods("GET")
	api.HandleFunc("/rides/{id}/cancel", s.handleCancelRide).Methods("POST")
	api.HandleFunc("/rides/{id}", s.handleGetRide).Methods("GET")
	api.HandleFunc("/users", s.handleCreateUser).Methods("POST")
	api.HandleFunc("/users/{id}", s.handleGetUser).Methods("GET")
	api.HandleFunc("/users/{id}/rides", s.handleUserRides).Methods("GET")
	api.HandleFunc("/drivers", s.handleListDrivers).Methods("GET")
	api.HandleFunc("/leaderboard", s.handleLeaderboard).Methods("GET")

	s.mux.HandleFunc("/ws/{user_id}", s.handleWS)
	s.mux.HandleFunc("/healthz", s.handleHealthz).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
}

func newID() string { b := make([]byte, 8); _, _ = rand.Read(b); return hex.EncodeToString(b) }
