package service

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/varuna-next/internal/config"
	"github.com/varuna-next/internal/constants"
	"github.com/varuna-next/internal/logger"
	"github.com/varuna-next/internal/models"
	"github.com/varuna-next/internal/repository"
)

const minPasswordLength = 8

// UserAuthService 用户认证服务
type UserAuthService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
}

// NewUserAuthService 创建用户认证服务
func NewUserAuthService(cfg *config.Config, userRepo repository.UserRepository) *UserAuthService {
	return &UserAuthService{cfg: cfg, userRepo: userRepo}
}

// UserJWTClaims 用户 JWT 声明
type UserJWTClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateUserJWT 生成用户 JWT Token
func (s *UserAuthService) GenerateUserJWT(user *models.User) (string, time.Time, error) {
	expireHours := s.cfg.UserJWT.ExpireHours
	if expireHours <= 0 {
		expireHours = 24
	}
	expiresAt := time.Now().Add(time.Duration(expireHours) * time.Hour)
	claims := UserJWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.UserJWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseUserJWT 解析用户 JWT Token
func (s *UserAuthService) ParseUserJWT(tokenString string) (*UserJWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &UserJWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.UserJWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*UserJWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// Register 注册新用户并签发登录态
func (s *UserAuthService) Register(email, password, fullName, phone string) (*models.User, string, time.Time, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if len(password) < minPasswordLength {
		return nil, "", time.Time{}, fmt.Errorf("%w: at least %d characters", ErrPasswordTooWeak, minPasswordLength)
	}

	existing, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return nil, "", time.Time{}, fmt.Errorf("load user: %w", err)
	}
	if existing != nil {
		return nil, "", time.Time{}, ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", time.Time{}, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        normalized,
		PasswordHash: string(hashedPassword),
		FullName:     strings.TrimSpace(fullName),
		Phone:        strings.TrimSpace(phone),
		Role:         constants.UserRoleCustomer,
		IsActive:     true,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, "", time.Time{}, fmt.Errorf("create user: %w", err)
	}

	tokenString, expiresAt, err := s.GenerateUserJWT(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	logger.Infow("user registered", "user_id", user.ID, "email", user.Email)
	return user, tokenString, expiresAt, nil
}

// Login 校验凭据并签发登录态
func (s *UserAuthService) Login(email, password string) (*models.User, string, time.Time, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return nil, "", time.Time{}, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, "", time.Time{}, ErrAccountDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(user); err != nil {
		logger.Warnw("update last login failed", "user_id", user.ID, "error", err)
	}

	tokenString, expiresAt, err := s.GenerateUserJWT(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, tokenString, expiresAt, nil
}

// GetUserByID 查询用户
func (s *UserAuthService) GetUserByID(id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

func normalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(normalized); err != nil {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}
