package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/healthconnect-api/internal/dto"
	"github.com/noah-isme/healthconnect-api/internal/models"
	appErrors "github.com/noah-isme/healthconnect-api/pkg/errors"
	"github.com/noah-isme/healthconnect-api/pkg/response"
)

const msgAssigned = "Appointment assigned successfully"

type appointmentService interface {
	List(ctx context.Context, userID string) ([]dto.AppointmentDetail, error)
	Get(ctx context.Context, userID string, id int64) (*dto.AppointmentDetail, error)
	Create(ctx context.Context, userID string, req dto.CreateAppointmentRequest) (*dto.AppointmentDetail, error)
	Update(ctx context.Context, userID string, id int64, req dto.UpdateAppointmentRequest) error
	Delete(ctx context.Context, userID string, id int64) error
	Assign(ctx context.Context, userID string, id int64, req dto.AssignAppointmentRequest) error
	Slots(ctx context.Context, date models.Date) (*dto.DaySlots, error)
}

// AppointmentHandler exposes the appointment lifecycle over HTTP.
type AppointmentHandler struct {
	service appointmentService
}

// NewAppointmentHandler constructs the handler.
func NewAppointmentHandler(svc appointmentService) *AppointmentHandler {
	return &AppointmentHandler{service: svc}
}

// List godoc
// @Summary List appointments
// @Description Students see their own bookings, nurses their assignments, admins everything. Newest first.
// @Tags Appointments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /appointments [get]
func (h *AppointmentHandler) List(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// Get godoc
// @Summary Get appointment
// @Tags Appointments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Appointment ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /appointments/{id} [get]
func (h *AppointmentHandler) Get(c *gin.Context) {
	userID, id, err := h.target(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.service.Get(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item)
}

// Create godoc
// @Summary Book an appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateAppointmentRequest true "Booking"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /appointments [post]
func (h *AppointmentHandler) Create(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateAppointmentRequest
	if err := bindJSON(c, &req, "invalid appointment payload"); err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update an appointment
// @Description Only fields present in the body are applied; null clears notes or prescription.
// @Tags Appointments
// @Accept json
// @Security BearerAuth
// @Param id path int true "Appointment ID"
// @Param payload body dto.UpdateAppointmentRequest true "Changes"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /appointments/{id} [put]
func (h *AppointmentHandler) Update(c *gin.Context) {
	userID, id, err := h.target(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateAppointmentRequest
	if err := bindJSON(c, &req, "invalid appointment payload"); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Update(c.Request.Context(), userID, id, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Cancel an appointment
// @Tags Appointments
// @Security BearerAuth
// @Param id path int true "Appointment ID"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /appointments/{id} [delete]
func (h *AppointmentHandler) Delete(c *gin.Context) {
	userID, id, err := h.target(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), userID, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Assign godoc
// @Summary Assign a nurse
// @Tags Appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Appointment ID"
// @Param payload body dto.AssignAppointmentRequest true "Nurse"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /appointments/{id}/assign [post]
func (h *AppointmentHandler) Assign(c *gin.Context) {
	userID, id, err := h.target(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.AssignAppointmentRequest
	if err := bindJSON(c, &req, "invalid assignment payload"); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Assign(c.Request.Context(), userID, id, req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, msgAssigned)
}

// Slots godoc
// @Summary Clinic slot availability
// @Tags Appointments
// @Produce json
// @Security BearerAuth
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /appointments/slots [get]
func (h *AppointmentHandler) Slots(c *gin.Context) {
	date, err := models.ParseDate(c.Query("date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidArgument, "date must be formatted as YYYY-MM-DD"))
		return
	}
	slots, err := h.service.Slots(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots)
}

func (h *AppointmentHandler) target(c *gin.Context) (string, int64, error) {
	userID, err := currentUserID(c)
	if err != nil {
		return "", 0, err
	}
	id, err := appointmentID(c)
	if err != nil {
		return "", 0, err
	}
	return userID, id, nil
}
