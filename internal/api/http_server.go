package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"rentbook/internal/config"
	"rentbook/internal/domain"
	"rentbook/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps wires the HTTP surface to the services.
type Deps struct {
	Bookings      *service.BookingService
	Notifications *service.NotificationService
	Ratings       *service.RatingService
	Products      *service.ProductService
	Users         *service.UserService
	Verifier      domain.TokenVerifier
	Limiter       domain.RateLimitStore
	Store         Pinger
	// UploadsDir is served under /uploads when images are kept on disk.
	UploadsDir string
}

type handler struct {
	bookings      *service.BookingService
	notifications *service.NotificationService
	ratings       *service.RatingService
	products      *service.ProductService
	users         *service.UserService
	store         Pinger
	maxUpload     int64
	logger        *zerolog.Logger
}

// HTTPServer exposes the marketplace REST API.
type HTTPServer struct {
	server *http.Server
	logger *zerolog.Logger
}

func NewHTTPServer(cfg *config.Config, deps Deps, logger *zerolog.Logger) *HTTPServer {
	serverLogger := logger.With().Str("component", "http_server").Logger()
	writeTimeout := time.Duration(cfg.HTTP.WriteTimeoutSecond) * time.Second
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}

	return &HTTPServer{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
			Handler:           NewRouter(cfg, deps, logger),
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      writeTimeout,
		},
		logger: &serverLogger,
	}
}

// Handler returns the root handler, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// NewRouter builds the route tree.
func NewRouter(cfg *config.Config, deps Deps, logger *zerolog.Logger) chi.Router {
	h := &handler{
		bookings:      deps.Bookings,
		notifications: deps.Notifications,
		ratings:       deps.Ratings,
		products:      deps.Products,
		users:         deps.Users,
		store:         deps.Store,
		maxUpload:     int64(cfg.HTTP.MaxUploadMB) << 20,
		logger:        logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.HTTP.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if cfg.HTTP.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(requestLogger(logger))
	r.Use(identify(deps.Verifier))
	r.Use(rateLimit(deps.Limiter, cfg.RateLimit.Requests, cfg.RateLimit.Window(), logger))

	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)
	if deps.UploadsDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(deps.UploadsDir))))
	}

	r.Route("/products", func(pr chi.Router) {
		pr.Get("/", h.listProducts)
		pr.Get("/{id}", h.getProduct)

		pr.Group(func(ar chi.Router) {
			ar.Use(requireAuth)
			ar.Post("/", h.createProduct)
			ar.Post("/images", h.uploadProductImage)
			ar.Put("/{id}", h.updateProduct)
			ar.Delete("/{id}", h.deleteProduct)
		})
	})

	r.Group(func(ar chi.Router) {
		ar.Use(requireAuth)

		ar.Route("/bookings", func(br chi.Router) {
			br.Get("/", h.listBookings)
			br.Post("/", h.createBooking)
			br.Get("/user/{userId}", h.listCustomerBookings)
			br.Get("/seller/{sellerId}", h.listSellerBookings)
			br.Get("/{id}", h.getBooking)
			br.Patch("/{id}/status", h.updateBookingStatus)
			br.Post("/{id}/cancel", h.cancelBooking)
			br.Post("/{id}/rate", h.rateBooking)
			br.Delete("/{id}", h.deleteBooking)
		})

		ar.Route("/ratings", func(rr chi.Router) {
			rr.Post("/", h.createRating)
			rr.Get("/product/{productId}", h.listProductRatings)
			rr.Get("/product/{productId}/average", h.productAverageRating)
			rr.Get("/user/{userId}", h.listUserRatings)
			rr.Get("/{id}", h.getRating)
			rr.Put("/{id}", h.updateRating)
			rr.Delete("/{id}", h.deleteRating)
		})

		ar.Route("/notifications", func(nr chi.Router) {
			nr.Get("/", h.listNotifications)
			nr.Get("/unread-count", h.unreadCount)
			nr.Patch("/read-all", h.markAllNotificationsRead)
			nr.Patch("/{id}/read", h.markNotificationRead)
		})

		ar.Route("/auth/profile", func(pr chi.Router) {
			pr.Get("/", h.getProfile)
			pr.Post("/", h.saveProfile)
			pr.Put("/", h.saveProfile)
		})

		ar.Route("/admin", func(adm chi.Router) {
			adm.Use(h.requireAdmin)
			adm.Get("/bookings/export", h.exportBookings)
			adm.Post("/bookings/{id}/complete", h.completeBooking)
			adm.Put("/users/{uid}/role", h.setUserRole)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
