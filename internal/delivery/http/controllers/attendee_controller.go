package controllers

import (
	"fmt"
	"log/slog"
	"net/http"

	"ticketing/internal/delivery/http/helpers"
	"ticketing/internal/domain"
)

type AttendeeController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewAttendeeController(logger *slog.Logger, svc domain.EventService) *AttendeeController {
	return &AttendeeController{
		Logger:  logger,
		Service: svc,
	}
}

// RegisterRequest is the request body for POST /register.
type RegisterRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Event string `json:"event"`
}

// Validate implements helpers.Validator. Only presence is checked.
func (r RegisterRequest) Validate() []string {
	var errs []string
	if r.Name == "" {
		errs = append(errs, "name is required")
	}
	if r.Email == "" {
		errs = append(errs, "email is required")
	}
	if r.Event == "" {
		errs = append(errs, "event is required")
	}
	return errs
}

// RegisterResponse is the data payload for POST /register (201).
type RegisterResponse struct {
	helpers.MessageResponse
	Registration *domain.Registration `json:"registration"`
}

// RegisterSuccessResponse is the success response envelope for POST /register (201).
type RegisterSuccessResponse struct {
	Data  RegisterResponse  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// Register godoc
// @Summary Register an attendee for an event
// @Description Appends (name, email) to the event's registrations and updates its registration count. An email can register only once per event (exact, case-sensitive match). No capacity limit applies.
// @Tags attendee
// @Accept json
// @Produce json
// @Param body body controllers.RegisterRequest true "Attendee and event name"
// @Success 201 {object} controllers.RegisterSuccessResponse "data contains a confirmation message and the registration"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already registered)"
// @Failure 500 {object} helpers.APIResponse "error.code: storage_error"
// @Router /register [post]
func (c *AttendeeController) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	reg, err := c.Service.RegisterAttendee(r.Context(), req.Event, domain.NewRegistration(req.Name, req.Email))
	if err != nil {
		writeServiceError(w, r, c.Logger, err, "user already registered for this event")
		return
	}

	helpers.WriteJSONSuccess(w, http.StatusCreated, RegisterResponse{
		MessageResponse: helpers.MessageResponse{
			Message: fmt.Sprintf("Successfully registered %s for %s.", req.Name, req.Event),
			Event:   req.Event,
		},
		Registration: reg,
	})
}
