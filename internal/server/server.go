package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"parking-lot/internal/logging"
)

type Server struct {
	httpServer *http.Server
	handler    *Handler
}

func NewServer(port, serviceName string, service ParkingService) *Server {
	handler := NewHandler(service, serviceName)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		NewAvailabilityCollector(service),
	)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      newRouter(handler, serviceName, registry),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
	}
}

func newRouter(handler *Handler, serviceName string, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	r.Use(RecoveryMiddleware)
	r.Use(RequestIDMiddleware)
	r.Use(TracingMiddleware(serviceName))
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)

	r.Get("/health", handler.HealthCheck)
	r.Get("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}).ServeHTTP)

	r.Route("/api/parking-lot", func(r chi.Router) {
		r.Get("/vehicle-types", handler.ListVehicleTypes)
		r.Get("/payment-methods", handler.ListPaymentMethods)
		r.Get("/plans", handler.ListPlans)
		r.Get("/gates", handler.ListGates)
		r.Get("/availability", handler.GetAvailability)
		r.Get("/spots/nearest", handler.FindNearestSpot)

		r.Post("/bookings", handler.CreateBooking)
		r.Get("/bookings/{id}", handler.GetBooking)
		r.Post("/bookings/{id}/release", handler.ReleaseBooking)
		r.Post("/bookings/{id}/charging", handler.RequestCharging)

		r.Get("/parked", handler.ListParked)
		r.Get("/history", handler.ListHistory)
		r.Get("/history.xlsx", handler.ExportHistory)

		r.Get("/subscriptions", handler.ListSubscriptions)
		r.Post("/subscriptions", handler.CreateSubscription)
	})

	return r
}

// Handler returns the router, for serving without a listener.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	logging.Info(context.Background(), "starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info(ctx, "shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return fmt.Sprintf("http://localhost%s", s.httpServer.Addr)
}
