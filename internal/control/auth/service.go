package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotFound    = errors.New("token not found")
	ErrOperatorNotFound = errors.New("operator not found")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrOperatorExists   = errors.New("operator already exists")
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6"`
}

type AuthResponse struct {
	Operator     OperatorResponse `json:"operator"`
	AccessToken  string           `json:"token"`
	RefreshToken string           `json:"refreshToken"`
	ExpiresAt    time.Time        `json:"expiresAt"`
}

// JWTClaims identifies the operator a bearer token was issued to.
type JWTClaims struct {
	OperatorID uint   `json:"operator_id"`
	Username   string `json:"username"`
	jwt.RegisteredClaims
}

// Service issues and validates JWTs for the control plane, backed by
// gorm-managed Operator/RefreshToken tables.
type Service struct {
	db              *gorm.DB
	jwtSecret       []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

// NewService wires a Service to db, which must already have the
// Operator and RefreshToken tables migrated.
func NewService(db *gorm.DB) *Service {
	secret := os.Getenv("BQM_JWT_SECRET")
	if secret == "" {
		secret = "bqm-development-secret-change-in-production"
	}

	accessTTL := 15 * time.Minute
	if raw := os.Getenv("BQM_ACCESS_TOKEN_TTL"); raw != "" {
		if ttl, err := time.ParseDuration(raw); err == nil {
			accessTTL = ttl
		}
	}

	refreshTTL := 7 * 24 * time.Hour
	if raw := os.Getenv("BQM_REFRESH_TOKEN_TTL"); raw != "" {
		if ttl, err := time.ParseDuration(raw); err == nil {
			refreshTTL = ttl
		}
	}

	return &Service{
		db:              db,
		jwtSecret:       []byte(secret),
		accessTokenTTL:  accessTTL,
		refreshTokenTTL: refreshTTL,
	}
}

func (s *Service) Register(req RegisterRequest) (*AuthResponse, error) {
	var existing Operator
	if err := s.db.Where("username = ?", req.Username).First(&existing).Error; err == nil {
		return nil, ErrOperatorExists
	}

	operator := Operator{Username: req.Username, Password: req.Password, IsActive: true}
	if err := s.db.Create(&operator).Error; err != nil {
		return nil, fmt.Errorf("auth: create operator: %w", err)
	}

	return s.issueTokens(operator)
}

func (s *Service) Login(req LoginRequest) (*AuthResponse, error) {
	var operator Operator
	if err := s.db.Where("username = ?", req.Username).First(&operator).Error; err != nil {
		return nil, ErrOperatorNotFound
	}
	if !operator.IsActive {
		return nil, ErrOperatorNotFound
	}
	if !operator.CheckPassword(req.Password) {
		return nil, ErrInvalidPassword
	}

	now := time.Now()
	operator.LastLogin = &now
	s.db.Model(&operator).Update("last_login", now)

	return s.issueTokens(operator)
}

func (s *Service) RefreshToken(tokenString string) (*AuthResponse, error) {
	var refresh RefreshToken
	if err := s.db.Where("token = ?", tokenString).First(&refresh).Error; err != nil {
		return nil, ErrTokenNotFound
	}
	if refresh.IsRevoked {
		return nil, ErrInvalidToken
	}
	if time.Now().After(refresh.ExpiresAt) {
		s.db.Model(&refresh).Update("is_revoked", true)
		return nil, ErrExpiredToken
	}

	var operator Operator
	if err := s.db.First(&operator, refresh.OperatorID).Error; err != nil {
		return nil, fmt.Errorf("auth: load operator: %w", err)
	}
	if !operator.IsActive {
		s.db.Model(&refresh).Update("is_revoked", true)
		return nil, ErrOperatorNotFound
	}

	response, err := s.issueTokens(operator)
	if err != nil {
		return nil, err
	}
	s.db.Model(&refresh).Update("is_revoked", true)
	return response, nil
}

func (s *Service) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("auth: parse token: %w", err)
	}
	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

func (s *Service) RevokeRefreshToken(tokenString string) error {
	var refresh RefreshToken
	if err := s.db.Where("token = ?", tokenString).First(&refresh).Error; err != nil {
		return ErrTokenNotFound
	}
	return s.db.Model(&refresh).Update("is_revoked", true).Error
}

func (s *Service) issueTokens(operator Operator) (*AuthResponse, error) {
	expiresAt := time.Now().Add(s.accessTokenTTL)
	claims := &JWTClaims{
		OperatorID: operator.OperatorID,
		Username:   operator.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "bqm",
			Subject:   strconv.FormatUint(uint64(operator.OperatorID), 10),
		},
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("auth: sign access token: %w", err)
	}

	refreshBytes := make([]byte, 32)
	if _, err := rand.Read(refreshBytes); err != nil {
		return nil, fmt.Errorf("auth: generate refresh token: %w", err)
	}
	refreshString := hex.EncodeToString(refreshBytes)

	refresh := RefreshToken{
		OperatorID: operator.OperatorID,
		Token:      refreshString,
		ExpiresAt:  time.Now().Add(s.refreshTokenTTL),
	}
	if err := s.db.Create(&refresh).Error; err != nil {
		return nil, fmt.Errorf("auth: save refresh token: %w", err)
	}

	return &AuthResponse{
		Operator:     operator.ToResponse(),
		AccessToken:  accessToken,
		RefreshToken: refreshString,
		ExpiresAt:    expiresAt,
	}, nil
}
