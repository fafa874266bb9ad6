package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "ticketing/docs"
	"ticketing/internal/delivery/http/controllers"
	"ticketing/internal/delivery/http/middleware"
	"ticketing/internal/delivery/http/site"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(eventController *controllers.EventController, attendeeController *controllers.AttendeeController, metricsHandler http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	// API Routes
	mux.HandleFunc("POST /events", eventController.CreateEvent)
	mux.HandleFunc("GET /events", eventController.ListEvents)
	mux.HandleFunc("DELETE /events/{eventName}", eventController.DeleteEvent)
	mux.HandleFunc("GET /event-registrations", eventController.ListRegistrationCounts)
	mux.HandleFunc("POST /register", attendeeController.Register)

	// Operations
	mux.HandleFunc("GET /healthz", controllers.Health)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	// Swagger
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// Demo page
	mux.Handle("GET /", site.Handler())

	return mux
}

// NewHandler wraps router with the middleware chain: request ID, metrics,
// request logging and CORS, outermost first. metrics may be nil.
func NewHandler(router http.Handler, logger *slog.Logger, metrics *middleware.Metrics, allowedOrigins []string) http.Handler {
	h := middleware.CORS(allowedOrigins, router)
	h = middleware.LoggingMiddleware(logger, h)
	if metrics != nil {
		h = metrics.Middleware(h)
	}
	return middleware.RequestID(h)
}
