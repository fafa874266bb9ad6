package controllers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"ticketing/internal/delivery/http/helpers"
	"ticketing/internal/domain"
)

// CreateEventRequest is the request body for POST /events.
type CreateEventRequest struct {
	EventName string `json:"eventName"`
}

// Validate implements Validator.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if c.EventName == "" {
		errs = append(errs, "eventName is required")
	}
	return errs
}

// CreateEventSuccessResponse is the success response envelope for POST /events (201).
type CreateEventSuccessResponse struct {
	Data  helpers.MessageResponse `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateEvent godoc
// @Summary Create a new event
// @Description Create an event identified by its name. The event starts with no registrations and a registration count of 0.
// @Tags events
// @Accept json
// @Produce json
// @Param event body CreateEventRequest true "Event name"
// @Success 201 {object} controllers.CreateEventSuccessResponse "data contains a confirmation message"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (event already exists)"
// @Failure 500 {object} helpers.APIResponse "error.code: storage_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.CreateEvent(r.Context(), req.EventName); err != nil {
		writeServiceError(w, r, c.Logger, err, "event already exists")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, helpers.MessageResponse{
		Message: fmt.Sprintf("Event %q created successfully.", req.EventName),
		Event:   req.EventName,
	})
}

// ListEvents godoc
// @Summary List all events
// @Description Returns the whole events table verbatim, without the response envelope: event name to its registrations (name and email of every attendee).
// @Tags events
// @Produce json
// @Success 200 {object} map[string]domain.Event "event name to event"
// @Failure 500 {object} helpers.APIResponse "error.code: storage_error"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := c.Service.ListEvents(r.Context())
	if err != nil {
		writeServiceError(w, r, c.Logger, err, "")
		return
	}
	if events == nil {
		events = domain.EventsTable{}
	}
	helpers.WriteJSON(w, http.StatusOK, events)
}

// ListRegistrationCounts godoc
// @Summary Registration count per event
// @Description Returns the whole registration counts table verbatim, without the response envelope: event name to number of registrations.
// @Tags events
// @Produce json
// @Success 200 {object} map[string]int "event name to registration count"
// @Failure 500 {object} helpers.APIResponse "error.code: storage_error"
// @Router /event-registrations [get]
func (c *EventController) ListRegistrationCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := c.Service.ListRegistrationCounts(r.Context())
	if err != nil {
		writeServiceError(w, r, c.Logger, err, "")
		return
	}
	if counts == nil {
		counts = domain.CountsTable{}
	}
	helpers.WriteJSON(w, http.StatusOK, counts)
}

// DeleteEventSuccessResponse is the success response envelope for DELETE /events/{eventName} (200).
type DeleteEventSuccessResponse struct {
	Data  helpers.MessageResponse `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Removes the event and its registration count.
// @Tags events
// @Produce json
// @Param eventName path string true "Event name (URL-escaped)"
// @Success 200 {object} controllers.DeleteEventSuccessResponse "data contains a confirmation message"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: storage_error"
// @Router /events/{eventName} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventName := r.PathValue("eventName")
	if eventName == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventName")
		return
	}
	if err := c.Service.DeleteEvent(r.Context(), eventName); err != nil {
		writeServiceError(w, r, c.Logger, err, "")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, helpers.MessageResponse{
		Message: fmt.Sprintf("Event %q deleted successfully.", eventName),
		Event:   eventName,
	})
}

// writeServiceError maps service errors onto the response envelope. conflictMsg is the message
// for domain.ErrConflict on the calling endpoint.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, conflictMsg string) {
	var storageErr *domain.StorageError
	switch {
	case errors.Is(err, domain.ErrValidation):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
	case errors.Is(err, domain.ErrConflict):
		if conflictMsg == "" {
			conflictMsg = err.Error()
		}
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, conflictMsg)
	case errors.As(err, &storageErr):
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeStorage,
			fmt.Sprintf("failed to %s %s table", storageErr.Op, storageErr.Table))
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}
