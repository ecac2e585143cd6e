package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"car-portal/internal/config"
	"car-portal/internal/domain"
	"car-portal/internal/repository"
	"car-portal/internal/service/email"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrRoleMismatch       = errors.New("role not allowed for this login")
)

const purposePasswordReset = "password_reset"

type Service interface {
	Register(ctx context.Context, input domain.RegisterInput) (*domain.User, string, error)
	Login(ctx context.Context, input domain.LoginInput) (*domain.User, string, error)
	ValidateAccessToken(token string) (*Claims, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, input domain.ResetPasswordInput) error
}

type Claims struct {
	UserID  uuid.UUID       `json:"user_id"`
	Role    domain.UserRole `json:"role,omitempty"`
	Purpose string          `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

type service struct {
	userRepo     repository.UserRepository
	emailService email.Service
	cfg          *config.Config
	logger       *zap.Logger
	bcryptCost   int
}

func NewService(userRepo repository.UserRepository, emailService email.Service, cfg *config.Config, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		userRepo:     userRepo,
		emailService: emailService,
		cfg:          cfg,
		logger:       logger.Named("auth"),
		bcryptCost:   bcrypt.DefaultCost,
	}
}

func (s *service) Register(ctx context.Context, input domain.RegisterInput) (*domain.User, string, error) {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Email = normalizeEmail(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)

	if input.FirstName == "" || input.LastName == "" || input.Email == "" || input.Phone == "" ||
		input.Password == "" || input.ConfirmPassword == "" {
		return nil, "", domain.NewValidationError("", "All fields are required")
	}
	if input.Password != input.ConfirmPassword {
		return nil, "", domain.NewValidationError("confirmPassword", "Passwords do not match")
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, "", err
	}

	user := &domain.User{
		ID:           uuid.New(),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Name:         input.FirstName + " " + input.LastName,
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: string(hashedPassword),
		Role:         domain.RoleUser,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.sign(user, "", s.cfg.JWTAccessExpiry)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID.String()))
	return user, token, nil
}

func (s *service) Login(ctx context.Context, input domain.LoginInput) (*domain.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	loginType := input.LoginType
	if loginType == "" {
		loginType = domain.RoleUser
	}
	if user.Role != loginType {
		return nil, "", fmt.Errorf("%w: you are not authorized to login as %s", ErrRoleMismatch, loginType)
	}

	token, err := s.sign(user, "", s.cfg.JWTAccessExpiry)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *service) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *service) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// RequestPasswordReset mails a reset link when the address is known. Unknown
// addresses and delivery failures are not reported to the caller.
func (s *service) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return domain.NewValidationError("email", "Email is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	resetToken, err := s.sign(user, purposePasswordReset, s.cfg.JWTResetExpiry)
	if err != nil {
		return err
	}

	resetLink := strings.TrimRight(s.cfg.FrontendURL, "/") + "/reset-password?token=" + url.QueryEscape(resetToken)
	if err := s.emailService.SendPasswordResetEmail(ctx, user.Email, user.Name, resetLink); err != nil {
		s.logger.Error("failed to send password reset email",
			zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	return nil
}

func (s *service) ResetPassword(ctx context.Context, input domain.ResetPasswordInput) error {
	if input.Token == "" || input.NewPassword == "" || input.ConfirmPassword == "" {
		return domain.NewValidationError("", "All fields are required")
	}
	if input.NewPassword != input.ConfirmPassword {
		return domain.NewValidationError("confirmPassword", "Passwords do not match")
	}

	claims, err := s.parse(input.Token)
	if err != nil {
		return err
	}
	if claims.Purpose != purposePasswordReset {
		return ErrInvalidToken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), s.bcryptCost)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdatePassword(ctx, claims.UserID, string(hashedPassword)); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	s.logger.Info("password reset", zap.String("user_id", claims.UserID.String()))
	return nil
}

func (s *service) sign(user *domain.User, purpose string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:  user.ID,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   user.ID.String(),
		},
	}
	if purpose == "" {
		claims.Role = user.Role
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *service) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
