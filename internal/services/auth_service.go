package services

import (
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"github.com/offthegrid/booking-backend/internal/database"
	"github.com/offthegrid/booking-backend/internal/models"
	"github.com/offthegrid/booking-backend/pkg/jwt"
)

// AuthService handles credential login and session token issuance
type AuthService struct {
	userRepo *database.UserRepository
	jwtSvc   *jwt.Service
	logger   *logrus.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo *database.UserRepository, jwtSvc *jwt.Service, logger *logrus.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		jwtSvc:   jwtSvc,
		logger:   logger,
	}
}

// Login verifies credentials and issues a session token. A wrong password
// and an unknown email both return ErrUnauthorized so the response does not
// leak which accounts exist.
func (s *AuthService) Login(req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(req.Email)
	if err == models.ErrNotFound {
		return nil, models.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, models.ErrUnauthorized
	}

	token, expiresAt, err := s.jwtSvc.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User logged in")

	return &models.LoginResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        user,
	}, nil
}

// HashPassword hashes a plaintext password for storage
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
