package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/healthconnect-api/internal/dto"
	"github.com/noah-isme/healthconnect-api/internal/models"
	"github.com/noah-isme/healthconnect-api/pkg/response"
)

type authService interface {
	RegisterStudent(ctx context.Context, req dto.RegisterStudentRequest) (*dto.RegisterResponse, error)
	RegisterNurse(ctx context.Context, req dto.RegisterNurseRequest) (*dto.NurseSummary, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Me(ctx context.Context, userID string) (*models.UserInfo, error)
	ListNurses(ctx context.Context) ([]dto.NurseSummary, error)
	SetNurseAvailability(ctx context.Context, nurseID string, req dto.SetAvailabilityRequest) (*dto.NurseSummary, error)
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Register godoc
// @Summary Register a student
// @Description Self-service student sign-up
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body dto.RegisterStudentRequest true "Student registration"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterStudentRequest
	if err := bindJSON(c, &req, "invalid registration payload"); err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.service.RegisterStudent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// RegisterNurse godoc
// @Summary Register a nurse
// @Tags Authentication
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.RegisterNurseRequest true "Nurse registration"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /auth/register-nurse [post]
func (h *AuthHandler) RegisterNurse(c *gin.Context) {
	var req dto.RegisterNurseRequest
	if err := bindJSON(c, &req, "invalid registration payload"); err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.service.RegisterNurse(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate user by email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := bindJSON(c, &req, "invalid login payload"); err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// Me godoc
// @Summary Current user profile
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	info, err := h.service.Me(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info)
}

// ListNurses godoc
// @Summary List nurses
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /auth/nurses [get]
func (h *AuthHandler) ListNurses(c *gin.Context) {
	nurses, err := h.service.ListNurses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, nurses)
}

// SetNurseAvailability godoc
// @Summary Toggle nurse availability
// @Tags Authentication
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Nurse ID"
// @Param payload body dto.SetAvailabilityRequest true "Availability"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /auth/nurses/{id}/availability [put]
func (h *AuthHandler) SetNurseAvailability(c *gin.Context) {
	var req dto.SetAvailabilityRequest
	if err := bindJSON(c, &req, "invalid availability payload"); err != nil {
		response.Error(c, err)
		return
	}

	nurse, err := h.service.SetNurseAvailability(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, nurse)
}
