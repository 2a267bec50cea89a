package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/healthconnect-api/internal/dto"
	"github.com/noah-isme/healthconnect-api/internal/models"
	"github.com/noah-isme/healthconnect-api/internal/repository"
	appErrors "github.com/noah-isme/healthconnect-api/pkg/errors"
)

type mockAuthRepo struct {
	users          map[string]*models.User
	createErr      error
	availabilityOK bool
}

func newMockAuthRepo(users ...*models.User) *mockAuthRepo {
	m := &mockAuthRepo{users: map[string]*models.User{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, err := m.FindByEmail(ctx, user.Email); err == nil {
		return repository.ErrDuplicateEmail
	}
	user.ID = "generated-" + user.Email
	m.users[user.ID] = user
	return nil
}

func (m *mockAuthRepo) UpdateAvailability(ctx context.Context, id string, available bool) error {
	u, ok := m.users[id]
	if !ok || u.Role != models.RoleNurse {
		return sql.ErrNoRows
	}
	u.IsAvailable = available
	m.availabilityOK = true
	return nil
}

func newAuthService(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: 7 * 24 * time.Hour,
		Issuer:            "healthconnect-api",
		Audience:          []string{"healthconnect-client"},
	})
}

func studentRegistration() dto.RegisterStudentRequest {
	return dto.RegisterStudentRequest{
		Email:         "Thabo@Mandela.ac.za ",
		Password:      "Secret123",
		FullName:      "Thabo Mokoena",
		StudentNumber: "s221",
		Campus:        "South",
		Course:        "BSc Computer Science",
		PhoneNumber:   "0821234567",
	}
}

func TestRegisterStudent(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthService(repo)

	resp, err := svc.RegisterStudent(context.Background(), studentRegistration())
	require.NoError(t, err)
	assert.Equal(t, "Student registration successful", resp.Message)
	assert.Equal(t, models.RoleStudent, resp.User.Role)
	assert.Equal(t, "thabo@mandela.ac.za", resp.User.Email)

	stored := repo.users[resp.User.ID]
	require.NotNil(t, stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("Secret123")))
	assert.Nil(t, stored.EmployeeNumber)
}

func TestRegisterStudentDuplicateEmail(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthService(repo)
	_, err := svc.RegisterStudent(context.Background(), studentRegistration())
	require.NoError(t, err)

	_, err = svc.RegisterStudent(context.Background(), studentRegistration())
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Details, "email")
}

func TestRegisterStudentWeakPassword(t *testing.T) {
	svc := newAuthService(newMockAuthRepo())
	req := studentRegistration()
	req.Password = "password"
	req.Campus = ""

	_, err := svc.RegisterStudent(context.Background(), req)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Details, "password")
	assert.Contains(t, appErr.Details, "campus")
}

func TestRegisterNurseStartsAvailable(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthService(repo)

	summary, err := svc.RegisterNurse(context.Background(), dto.RegisterNurseRequest{
		Email:          "lindiwe@mandela.ac.za",
		Password:       "Nurse1234",
		FullName:       "Lindiwe K",
		EmployeeNumber: "E100",
		Specialization: "Primary Care",
		PhoneNumber:    "0831234567",
	})
	require.NoError(t, err)
	assert.True(t, summary.IsAvailable)
	assert.Equal(t, models.RoleNurse, summary.Role)
	assert.Equal(t, "E100", summary.EmployeeNumber)

	nurses, err := svc.ListNurses(context.Background())
	require.NoError(t, err)
	require.Len(t, nurses, 1)
	assert.Equal(t, "Primary Care", nurses[0].Specialization)
}

func TestLoginIssuesToken(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("Secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := newMockAuthRepo(&models.User{ID: "n1", Email: "nurse@mandela.ac.za", PasswordHash: string(hash), FullName: "Nurse", Role: models.RoleNurse, Active: true, Specialization: models.StringPtr("Primary Care")})
	svc := newAuthService(repo)
	now := time.Date(2025, 3, 5, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "NURSE@mandela.ac.za", Password: "Secret123"})
	require.NoError(t, err)
	assert.True(t, now.Add(7*24*time.Hour).Equal(resp.ExpiresAt))
	assert.Equal(t, "Primary Care", models.StringValue(resp.User.Specialization))

	parser := jwt.NewParser(jwt.WithTimeFunc(func() time.Time { return now }))
	claims := &models.JWTClaims{}
	_, err = parser.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) { return []byte("test-secret"), nil })
	require.NoError(t, err)
	assert.Equal(t, "n1", claims.UserID)
	assert.Equal(t, models.RoleNurse, claims.Role)
	assert.Equal(t, "healthconnect-api", claims.Issuer)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("Secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := newMockAuthRepo(&models.User{ID: "s1", Email: "s@mandela.ac.za", PasswordHash: string(hash), Role: models.RoleStudent, Active: true})
	svc := newAuthService(repo)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "s@mandela.ac.za", Password: "Wrong123"})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
	assert.Equal(t, "Invalid login attempt", appErr.Message)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "missing@mandela.ac.za", Password: "Secret123"})
	assert.Equal(t, "Invalid login attempt", appErrors.FromError(err).Message)
}

func TestValidateToken(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("Secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := newMockAuthRepo(&models.User{ID: "a1", Email: "admin@mandela.ac.za", PasswordHash: string(hash), Role: models.RoleAdmin, Active: true})
	svc := newAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@mandela.ac.za", Password: "Secret123"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	other := NewAuthService(repo, nil, nil, AuthConfig{AccessTokenSecret: "test-secret", Issuer: "healthconnect-api", Audience: []string{"someone-else"}})
	_, err = other.ValidateToken(resp.Token)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthenticated.Code))

	_, err = svc.ValidateToken(resp.Token + "x")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthenticated.Code))
}

func TestSetNurseAvailability(t *testing.T) {
	repo := newMockAuthRepo(
		&models.User{ID: "n1", Email: "n@mandela.ac.za", Role: models.RoleNurse, IsAvailable: true},
		&models.User{ID: "s1", Email: "s@mandela.ac.za", Role: models.RoleStudent},
	)
	svc := newAuthService(repo)
	off := false

	summary, err := svc.SetNurseAvailability(context.Background(), "n1", dto.SetAvailabilityRequest{IsAvailable: &off})
	require.NoError(t, err)
	assert.False(t, summary.IsAvailable)

	_, err = svc.SetNurseAvailability(context.Background(), "s1", dto.SetAvailabilityRequest{IsAvailable: &off})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound.Code))

	_, err = svc.SetNurseAvailability(context.Background(), "n1", dto.SetAvailabilityRequest{})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))
}

func TestMe(t *testing.T) {
	repo := newMockAuthRepo(&models.User{ID: "s1", Email: "s@mandela.ac.za", Role: models.RoleStudent, Campus: models.StringPtr("North")})
	svc := newAuthService(repo)

	info, err := svc.Me(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "North", models.StringValue(info.Campus))

	_, err = svc.Me(context.Background(), "gone")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthenticated.Code))
}

func TestCurrentUserRequiresActiveAccount(t *testing.T) {
	repo := newMockAuthRepo(
		&models.User{ID: "a1", Email: "a@mandela.ac.za", Role: models.RoleAdmin, Active: true},
		&models.User{ID: "a2", Email: "b@mandela.ac.za", Role: models.RoleAdmin, Active: false},
	)
	svc := newAuthService(repo)

	user, err := svc.CurrentUser(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)

	for _, id := range []string{"a2", "gone", ""} {
		_, err = svc.CurrentUser(context.Background(), id)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthenticated.Code), id)
	}
}

func TestEnsureAdmin(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthService(repo)
	seed := AdminSeed{Email: "Admin@Mandela.ac.za", Password: "Admin123!", FullName: "System Administrator", EmployeeNumber: "A123456", Department: "Clinic Administration"}

	created, err := svc.EnsureAdmin(context.Background(), seed)
	require.NoError(t, err)
	assert.True(t, created)

	admin, err := repo.FindByEmail(context.Background(), "admin@mandela.ac.za")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, "Clinic Administration", models.StringValue(admin.Department))

	created, err = svc.EnsureAdmin(context.Background(), seed)
	require.NoError(t, err)
	assert.False(t, created, "second run is a no-op")
}

func TestEnsureAdminRejectsWeakPasswordAndRoleClash(t *testing.T) {
	repo := newMockAuthRepo(&models.User{ID: "s1", Email: "admin@mandela.ac.za", Role: models.RoleStudent})
	svc := newAuthService(repo)

	_, err := svc.EnsureAdmin(context.Background(), AdminSeed{Email: "ops@mandela.ac.za", Password: "weak", FullName: "Ops"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))

	_, err = svc.EnsureAdmin(context.Background(), AdminSeed{Email: "admin@mandela.ac.za", Password: "Admin123!", FullName: "Admin"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict.Code))
}
