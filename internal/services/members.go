package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/billstock/billstock-api/internal/models"
	"github.com/billstock/billstock-api/internal/storage"
)

var (
	// ErrInvalidCredentials signals wrong email or password.
	ErrInvalidCredentials = errors.New("members: invalid credentials")
	// ErrWeakPassword signals the password doesn't meet requirements.
	ErrWeakPassword = errors.New("members: password must be at least 8 characters")
	// ErrMemberNotFound signals the requested member does not exist.
	ErrMemberNotFound = errors.New("members: not found")
	// ErrEmailTaken signals a member with this e-mail already exists.
	ErrEmailTaken = errors.New("members: email already registered")
	// ErrInvalidToken signals a malformed, expired or mis-signed token.
	ErrInvalidToken = errors.New("members: invalid token")
)

// MemberService handles member accounts and bearer-token authentication.
type MemberService struct {
	repo      MemberRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *logrus.Logger
}

type memberClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// NewMemberService creates a new member service
func NewMemberService(repo MemberRepository, jwtSecret string, tokenTTL time.Duration, logger *logrus.Logger) *MemberService {
	return &MemberService{
		repo:      repo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

// Create registers a new member account.
func (s *MemberService) Create(ctx context.Context, req models.CreateMemberRequest) (*models.Member, error) {
	if len(req.Password) < 8 {
		return nil, ErrWeakPassword
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	fullName := strings.TrimSpace(req.FullName)
	if email == "" || fullName == "" {
		return nil, fmt.Errorf("members: email and full_name are required")
	}

	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = models.RoleOperator
	}
	if role != models.RoleOperator && role != models.RoleAdmin {
		return nil, fmt.Errorf("members: unknown role %q", role)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("members: hash password: %w", err)
	}

	member := models.Member{
		ID:           uuid.New().String(),
		Email:        email,
		FullName:     fullName,
		Role:         role,
		PasswordHash: string(passwordHash),
		CreatedAt:    time.Now(),
	}

	if err := s.repo.Create(ctx, member); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("members: create: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"member_id": member.ID,
		"email":     member.Email,
		"role":      member.Role,
	}).Info("Member created")

	return &member, nil
}

// Get fetches a member by id.
func (s *MemberService) Get(ctx context.Context, id string) (*models.Member, error) {
	member, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("members: get: %w", err)
	}
	return &member, nil
}

// List returns all members.
func (s *MemberService) List(ctx context.Context) ([]models.Member, error) {
	members, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("members: list: %w", err)
	}
	if members == nil {
		members = []models.Member{}
	}
	return members, nil
}

// Update applies partial changes to a member.
func (s *MemberService) Update(ctx context.Context, id string, req models.UpdateMemberRequest) (*models.Member, error) {
	member, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("members: get for update: %w", err)
	}

	if name := strings.TrimSpace(req.FullName); name != "" {
		member.FullName = name
	}
	if role := strings.TrimSpace(req.Role); role != "" {
		if role != models.RoleOperator && role != models.RoleAdmin {
			return nil, fmt.Errorf("members: unknown role %q", role)
		}
		member.Role = role
	}
	if req.Password != "" {
		if len(req.Password) < 8 {
			return nil, ErrWeakPassword
		}
		passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("members: hash password: %w", err)
		}
		member.PasswordHash = string(passwordHash)
	}

	if err := s.repo.Update(ctx, member); err != nil {
		return nil, fmt.Errorf("members: update: %w", err)
	}
	return &member, nil
}

// Delete removes a member by id.
func (s *MemberService) Delete(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrMemberNotFound
	}
	if err != nil {
		return fmt.Errorf("members: delete: %w", err)
	}
	return nil
}

// Login verifies credentials and issues a signed bearer token.
func (s *MemberService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	member, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("members: login lookup: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	claims := memberClaims{
		Role: member.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   member.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("members: sign token: %w", err)
	}

	return &models.LoginResponse{Token: token, Member: member}, nil
}

// VerifyToken validates a bearer token and returns the member id and role.
func (s *MemberService) VerifyToken(token string) (string, string, error) {
	var claims memberClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return "", "", ErrInvalidToken
	}
	return claims.Subject, claims.Role, nil
}
