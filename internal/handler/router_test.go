package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/healthconnect-api/internal/dto"
	"github.com/noah-isme/healthconnect-api/internal/middleware"
	"github.com/noah-isme/healthconnect-api/internal/models"
	"github.com/noah-isme/healthconnect-api/internal/service"
	appErrors "github.com/noah-isme/healthconnect-api/pkg/errors"
	"github.com/noah-isme/healthconnect-api/pkg/response"
)

type authServiceStub struct {
	registerErr error
	lastLogin   models.LoginRequest
}

func (s *authServiceStub) RegisterStudent(ctx context.Context, req dto.RegisterStudentRequest) (*dto.RegisterResponse, error) {
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return &dto.RegisterResponse{Message: "Registration successful", User: models.UserInfo{Email: req.Email, Role: models.RoleStudent}}, nil
}

func (s *authServiceStub) RegisterNurse(ctx context.Context, req dto.RegisterNurseRequest) (*dto.NurseSummary, error) {
	return &dto.NurseSummary{Email: req.Email, Role: models.RoleNurse, IsAvailable: true}, nil
}

func (s *authServiceStub) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	s.lastLogin = req
	if req.Password != "Passw0rd!" {
		return nil, appErrors.ErrInvalidCredentials
	}
	return &models.LoginResponse{Token: "token"}, nil
}

func (s *authServiceStub) Me(ctx context.Context, userID string) (*models.UserInfo, error) {
	return &models.UserInfo{ID: userID}, nil
}

func (s *authServiceStub) ListNurses(ctx context.Context) ([]dto.NurseSummary, error) {
	return []dto.NurseSummary{{ID: "nurse-1"}}, nil
}

func (s *authServiceStub) SetNurseAvailability(ctx context.Context, nurseID string, req dto.SetAvailabilityRequest) (*dto.NurseSummary, error) {
	return &dto.NurseSummary{ID: nurseID, IsAvailable: *req.IsAvailable}, nil
}

type appointmentServiceStub struct {
	lastUser   string
	lastID     int64
	lastUpdate dto.UpdateAppointmentRequest
	err        error
}

func (s *appointmentServiceStub) List(ctx context.Context, userID string) ([]dto.AppointmentDetail, error) {
	s.lastUser = userID
	return []dto.AppointmentDetail{}, s.err
}

func (s *appointmentServiceStub) Get(ctx context.Context, userID string, id int64) (*dto.AppointmentDetail, error) {
	s.lastUser, s.lastID = userID, id
	if s.err != nil {
		return nil, s.err
	}
	return &dto.AppointmentDetail{ID: id, StudentID: userID}, nil
}

func (s *appointmentServiceStub) Create(ctx context.Context, userID string, req dto.CreateAppointmentRequest) (*dto.AppointmentDetail, error) {
	s.lastUser = userID
	if s.err != nil {
		return nil, s.err
	}
	return &dto.AppointmentDetail{ID: 1, StudentID: userID, TimeSlot: req.TimeSlot, Status: models.StatusPending}, nil
}

func (s *appointmentServiceStub) Update(ctx context.Context, userID string, id int64, req dto.UpdateAppointmentRequest) error {
	s.lastUser, s.lastID, s.lastUpdate = userID, id, req
	return s.err
}

func (s *appointmentServiceStub) Delete(ctx context.Context, userID string, id int64) error {
	s.lastUser, s.lastID = userID, id
	return s.err
}

func (s *appointmentServiceStub) Assign(ctx context.Context, userID string, id int64, req dto.AssignAppointmentRequest) error {
	s.lastUser, s.lastID = userID, id
	return s.err
}

func (s *appointmentServiceStub) Slots(ctx context.Context, date models.Date) (*dto.DaySlots, error) {
	return &dto.DaySlots{Date: date, Slots: []dto.SlotAvailability{{TimeSlot: "09:00", Available: true}}}, nil
}

type reportServiceStub struct {
	hit bool
}

func (s *reportServiceStub) Summary(ctx context.Context) (*dto.AppointmentStats, bool, error) {
	return &dto.AppointmentStats{Total: 4}, s.hit, nil
}

func (s *reportServiceStub) Export(ctx context.Context, format string) (*service.ExportFile, error) {
	if format == "xlsx" {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, "unsupported export format")
	}
	return &service.ExportFile{Filename: "appointments-2025-03-05.csv", ContentType: "text/csv; charset=utf-8", Payload: []byte("ID\n")}, nil
}

// userLoaderStub treats every "user-<Role>" subject as an active account of
// that role unless listed in inactive.
type userLoaderStub struct {
	inactive map[string]bool
}

func (s *userLoaderStub) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	if s.inactive[userID] {
		return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "account is inactive")
	}
	return &models.User{ID: userID, Role: models.UserRole(strings.TrimPrefix(userID, "user-")), Active: true}, nil
}

type testAPI struct {
	router       *gin.Engine
	auth         *authServiceStub
	appointments *appointmentServiceStub
	reports      *reportServiceStub
	users        *userLoaderStub
}

func buildTestRouter() *testAPI {
	gin.SetMode(gin.TestMode)
	api := &testAPI{
		router:       gin.New(),
		auth:         &authServiceStub{},
		appointments: &appointmentServiceStub{},
		reports:      &reportServiceStub{},
		users:        &userLoaderStub{inactive: map[string]bool{}},
	}
	testAuth := func(c *gin.Context) {
		if role := c.GetHeader("X-Test-Role"); role != "" {
			middleware.SetClaims(c, &models.JWTClaims{
				UserID: "user-" + role,
				Role:   models.UserRole(role),
			})
			c.Next()
			return
		}
		response.Error(c, appErrors.ErrUnauthenticated)
		c.Abort()
	}

	RegisterRoutes(api.router.Group("/api"), Routes{
		Auth:         NewAuthHandler(api.auth),
		Appointments: NewAppointmentHandler(api.appointments),
		Reports:      NewReportHandler(api.reports),
		Authenticate: testAuth,
		Users:        api.users,
	})
	return api
}

func (a *testAPI) do(method, path, role, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRouterRoleGates(t *testing.T) {
	api := buildTestRouter()
	student, nurse, admin := string(models.RoleStudent), string(models.RoleNurse), string(models.RoleAdmin)

	cases := []struct {
		name   string
		method string
		path   string
		role   string
		body   string
		status int
	}{
		{"list requires auth", http.MethodGet, "/api/appointments", "", "", http.StatusUnauthorized},
		{"list student", http.MethodGet, "/api/appointments", student, "", http.StatusOK},
		{"list unknown role", http.MethodGet, "/api/appointments", "Janitor", "", http.StatusForbidden},
		{"create nurse", http.MethodPost, "/api/appointments", nurse, `{}`, http.StatusForbidden},
		{"create admin", http.MethodPost, "/api/appointments", admin, `{}`, http.StatusForbidden},
		{"assign nurse", http.MethodPost, "/api/appointments/4/assign", nurse, `{"nurseId":"n"}`, http.StatusForbidden},
		{"assign admin", http.MethodPost, "/api/appointments/4/assign", admin, `{"nurseId":"n"}`, http.StatusOK},
		{"stats student", http.MethodGet, "/api/appointments/stats", student, "", http.StatusForbidden},
		{"stats admin", http.MethodGet, "/api/appointments/stats", admin, "", http.StatusOK},
		{"export nurse", http.MethodGet, "/api/appointments/export", nurse, "", http.StatusForbidden},
		{"slots nurse", http.MethodGet, "/api/appointments/slots?date=2025-03-10", nurse, "", http.StatusOK},
		{"nurses student", http.MethodGet, "/api/auth/nurses", student, "", http.StatusForbidden},
		{"nurses admin", http.MethodGet, "/api/auth/nurses", admin, "", http.StatusOK},
		{"register nurse by nurse", http.MethodPost, "/api/auth/register-nurse", nurse, `{}`, http.StatusForbidden},
		{"availability admin", http.MethodPut, "/api/auth/nurses/n1/availability", admin, `{"isAvailable":false}`, http.StatusOK},
		{"me anonymous", http.MethodGet, "/api/auth/me", "", "", http.StatusUnauthorized},
		{"me nurse", http.MethodGet, "/api/auth/me", nurse, "", http.StatusOK},
		{"register anonymous", http.MethodPost, "/api/auth/register", "", `{"email":"a@b.c"}`, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := api.do(tc.method, tc.path, tc.role, tc.body)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}
}

func TestAppointmentEndpoints(t *testing.T) {
	api := buildTestRouter()
	student := string(models.RoleStudent)

	t.Run("create returns 201", func(t *testing.T) {
		w := api.do(http.MethodPost, "/api/appointments", student,
			`{"appointmentDate":"2025-03-10","timeSlot":"10:00","consultationType":"InPerson","symptomsDescription":"Headache"}`)
		require.Equal(t, http.StatusCreated, w.Code)
		data := decodeEnvelope(t, w)["data"].(map[string]interface{})
		assert.Equal(t, "10:00", data["timeSlot"])
		assert.Equal(t, "user-Student", api.appointments.lastUser)
	})

	t.Run("malformed body", func(t *testing.T) {
		w := api.do(http.MethodPost, "/api/appointments", student, `{"appointmentDate":"tomorrow"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", decodeEnvelope(t, w)["error"].(map[string]interface{})["code"])
	})

	t.Run("get parses id", func(t *testing.T) {
		w := api.do(http.MethodGet, "/api/appointments/42", student, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int64(42), api.appointments.lastID)
	})

	t.Run("bad id", func(t *testing.T) {
		w := api.do(http.MethodGet, "/api/appointments/abc", student, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("update is 204 and keeps presence", func(t *testing.T) {
		w := api.do(http.MethodPut, "/api/appointments/7", student, `{"notes":null,"symptomsDescription":"Worse"}`)
		require.Equal(t, http.StatusNoContent, w.Code)
		assert.True(t, api.appointments.lastUpdate.Notes.Null)
		assert.Equal(t, "Worse", api.appointments.lastUpdate.SymptomsDescription.Value)
		assert.False(t, api.appointments.lastUpdate.Status.Set)
	})

	t.Run("delete is 204", func(t *testing.T) {
		w := api.do(http.MethodDelete, "/api/appointments/7", student, "")
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("service errors map to status", func(t *testing.T) {
		api.appointments.err = appErrors.Clone(appErrors.ErrInvalidState, "Cannot cancel confirmed appointments")
		defer func() { api.appointments.err = nil }()

		w := api.do(http.MethodDelete, "/api/appointments/7", student, "")
		require.Equal(t, http.StatusBadRequest, w.Code)
		errBody := decodeEnvelope(t, w)["error"].(map[string]interface{})
		assert.Equal(t, "INVALID_STATE", errBody["code"])
		assert.Equal(t, "Cannot cancel confirmed appointments", errBody["message"])
	})

	t.Run("assign message", func(t *testing.T) {
		w := api.do(http.MethodPost, "/api/appointments/7/assign", string(models.RoleAdmin), `{"nurseId":"nurse-1"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Appointment assigned successfully", decodeEnvelope(t, w)["data"].(map[string]interface{})["message"])
	})

	t.Run("slots require a date", func(t *testing.T) {
		w := api.do(http.MethodGet, "/api/appointments/slots", student, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReportEndpoints(t *testing.T) {
	api := buildTestRouter()
	admin := string(models.RoleAdmin)

	api.reports.hit = true
	w := api.do(http.MethodGet, "/api/appointments/stats", admin, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeEnvelope(t, w)["meta"].(map[string]interface{})["cache_hit"])
	assert.Equal(t, "HIT", w.Header().Get(middleware.CacheHeader))

	w = api.do(http.MethodGet, "/api/appointments/export?format=csv", admin, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "appointments-2025-03-05.csv")
	assert.Equal(t, "ID\n", w.Body.String())

	w = api.do(http.MethodGet, "/api/appointments/export?format=xlsx", admin, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginEndpoint(t *testing.T) {
	api := buildTestRouter()

	w := api.do(http.MethodPost, "/api/auth/login", "", `{"email":"a@mandela.ac.za","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "a@mandela.ac.za", api.auth.lastLogin.Email)

	w = api.do(http.MethodPost, "/api/auth/login", "", `{"email":"a@mandela.ac.za","password":"Passw0rd!"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "token", decodeEnvelope(t, w)["data"].(map[string]interface{})["token"])

	w = api.do(http.MethodPost, "/api/auth/login", "", `not-json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterValidationDetails(t *testing.T) {
	api := buildTestRouter()
	api.auth.registerErr = appErrors.WithDetails(appErrors.ErrValidation, map[string]string{"email": "Email is already registered"})

	w := api.do(http.MethodPost, "/api/auth/register", "", `{"email":"a@mandela.ac.za"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	details := decodeEnvelope(t, w)["error"].(map[string]interface{})["details"].(map[string]interface{})
	assert.Equal(t, "Email is already registered", details["email"])
}

func TestInactiveAdminLosesAdminRoutes(t *testing.T) {
	api := buildTestRouter()
	admin := string(models.RoleAdmin)
	api.users.inactive["user-"+admin] = true

	nurse := `{"email":"nurse@mandela.ac.za","password":"Passw0rd!","fullName":"Nurse N","employeeNumber":"E1","specialization":"General"}`
	for _, tc := range []struct{ method, path, body string }{
		{http.MethodPost, "/api/auth/register-nurse", nurse},
		{http.MethodGet, "/api/auth/nurses", ""},
		{http.MethodGet, "/api/appointments/export?format=csv", ""},
		{http.MethodGet, "/api/appointments/stats", ""},
	} {
		w := api.do(tc.method, tc.path, admin, tc.body)
		assert.Equal(t, http.StatusUnauthorized, w.Code, tc.path)
		body := decodeEnvelope(t, w)
		assert.Equal(t, "UNAUTHENTICATED", body["error"].(map[string]interface{})["code"], tc.path)
	}

	delete(api.users.inactive, "user-"+admin)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/appointments/export?format=csv", admin, "").Code)
}
