package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/healthconnect-api/internal/dto"
	"github.com/noah-isme/healthconnect-api/internal/models"
	"github.com/noah-isme/healthconnect-api/internal/repository"
	appErrors "github.com/noah-isme/healthconnect-api/pkg/errors"
	"github.com/noah-isme/healthconnect-api/pkg/validation"
)

const (
	msgRegistered         = "Student registration successful"
	msgInvalidLogin       = "Invalid login attempt"
	msgEmailAlreadyExists = "Email is already registered"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateAvailability(ctx context.Context, id string, available bool) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
	Audience          []string
}

// AuthService provides registration, login and nurse directory use cases.
type AuthService struct {
	repo      authUserRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 7 * 24 * time.Hour
	}
	return &AuthService{repo: repo, validator: validate, logger: logger, config: config, now: time.Now}
}

// RegisterStudent creates a student account.
func (s *AuthService) RegisterStudent(ctx context.Context, req dto.RegisterStudentRequest) (*dto.RegisterResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validate(req, "invalid registration payload"); err != nil {
		return nil, err
	}

	user := &models.User{
		Email:         req.Email,
		FullName:      strings.TrimSpace(req.FullName),
		PhoneNumber:   models.StringPtr(req.PhoneNumber),
		Role:          models.RoleStudent,
		StudentNumber: models.StringPtr(req.StudentNumber),
		Campus:        models.StringPtr(req.Campus),
		Course:        models.StringPtr(req.Course),
		Active:        true,
	}
	if err := s.createUser(ctx, user, req.Password); err != nil {
		return nil, err
	}
	s.logger.Info("student registered", zap.String("user_id", user.ID))
	return &dto.RegisterResponse{Message: msgRegistered, User: models.NewUserInfo(user)}, nil
}

// RegisterNurse creates a nurse account. Nurses start available.
func (s *AuthService) RegisterNurse(ctx context.Context, req dto.RegisterNurseRequest) (*dto.NurseSummary, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validate(req, "invalid nurse payload"); err != nil {
		return nil, err
	}

	user := &models.User{
		Email:          req.Email,
		FullName:       strings.TrimSpace(req.FullName),
		PhoneNumber:    models.StringPtr(req.PhoneNumber),
		Role:           models.RoleNurse,
		EmployeeNumber: models.StringPtr(req.EmployeeNumber),
		Specialization: models.StringPtr(req.Specialization),
		IsAvailable:    true,
		Active:         true,
	}
	if err := s.createUser(ctx, user, req.Password); err != nil {
		return nil, err
	}
	s.logger.Info("nurse registered", zap.String("user_id", user.ID))
	summary := dto.NewNurseSummary(user)
	return &summary, nil
}

// AdminSeed describes the bootstrap administrator account.
type AdminSeed struct {
	Email          string `validate:"required,email"`
	Password       string `validate:"required,strongpassword"`
	FullName       string `validate:"required"`
	EmployeeNumber string
	Department     string
}

// EnsureAdmin creates the administrator unless the email is already taken.
// It reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, seed AdminSeed) (bool, error) {
	seed.Email = normalizeEmail(seed.Email)
	if err := s.validate(seed, "invalid admin seed"); err != nil {
		return false, err
	}

	existing, err := s.repo.FindByEmail(ctx, seed.Email)
	switch {
	case err == nil:
		if existing.Role != models.RoleAdmin {
			return false, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("%s is registered as %s", seed.Email, existing.Role))
		}
		return false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up admin")
	}

	user := &models.User{
		Email:          seed.Email,
		FullName:       strings.TrimSpace(seed.FullName),
		Role:           models.RoleAdmin,
		EmployeeNumber: models.StringPtr(seed.EmployeeNumber),
		Department:     models.StringPtr(seed.Department),
		Active:         true,
	}
	if err := s.createUser(ctx, user, seed.Password); err != nil {
		return false, err
	}
	s.logger.Info("admin account created", zap.String("user_id", user.ID))
	return true, nil
}

func (s *AuthService) validate(req interface{}, message string) error {
	if err := s.validator.Struct(req); err != nil {
		details := validation.Details(err)
		if details == nil {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
		}
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, message), details)
	}
	return nil
}

func (s *AuthService) createUser(ctx context.Context, user *models.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	user.PasswordHash = string(hash)

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, msgEmailAlreadyExists), map[string]string{"email": msgEmailAlreadyExists})
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	return nil
}

// Login authenticates a user and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validate(req, "invalid login payload"); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, msgInvalidLogin)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, msgInvalidLogin)
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}

	token, expiresAt, err := s.generateAccessToken(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	s.logger.Info("user logged in", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))

	return &models.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      models.NewUserInfo(user),
	}, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthenticated.Code, appErrors.ErrUnauthenticated.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "invalid token claims")
	}
	if !s.audienceAccepted(claims.Audience) {
		return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "token audience mismatch")
	}
	return claims, nil
}

func (s *AuthService) audienceAccepted(aud jwt.ClaimStrings) bool {
	if len(s.config.Audience) == 0 {
		return true
	}
	for _, want := range s.config.Audience {
		for _, got := range aud {
			if want == got {
				return true
			}
		}
	}
	return false
}

// Me returns the profile of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.UserInfo, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "user no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	info := models.NewUserInfo(user)
	return &info, nil
}

// CurrentUser loads the active account behind a token subject.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	return loadActiveUser(ctx, s.repo, userID)
}

// ListNurses returns every nurse account.
func (s *AuthService) ListNurses(ctx context.Context) ([]dto.NurseSummary, error) {
	nurses, err := s.repo.ListByRole(ctx, models.RoleNurse)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list nurses")
	}
	result := make([]dto.NurseSummary, 0, len(nurses))
	for i := range nurses {
		result = append(result, dto.NewNurseSummary(&nurses[i]))
	}
	return result, nil
}

// SetNurseAvailability toggles whether a nurse is taking appointments.
func (s *AuthService) SetNurseAvailability(ctx context.Context, nurseID string, req dto.SetAvailabilityRequest) (*dto.NurseSummary, error) {
	if err := s.validate(req, "invalid availability payload"); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateAvailability(ctx, nurseID, *req.IsAvailable); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "nurse not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update availability")
	}
	nurse, err := s.repo.FindByID(ctx, nurseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload nurse")
	}
	summary := dto.NewNurseSummary(nurse)
	return &summary, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, time.Time, error) {
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.config.AccessTokenExpiry)
	claims := &models.JWTClaims{
		UserID:   user.ID,
		Role:     user.Role,
		Email:    user.Email,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			Audience:  s.config.Audience,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
