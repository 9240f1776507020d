package services

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/kizunavi/kizunavi/internal/models"
)

type AuthStore interface {
	FindUserByEmail(email string) (*models.User, error)
	GetUser(id string) (*models.User, error)
	AddUser(u *models.User) error
}

// TokenSigner issues a bearer token carrying the server-side role claim.
type TokenSigner func(uid, companyID, email string, role models.Role, ttl time.Duration) (string, error)

type AuthService struct {
	store     AuthStore
	now       func() time.Time
	idGen     func(prefix string, n int) string
	signToken TokenSigner
	tokenTTL  time.Duration
}

// AuthResult mirrors the login envelope: the user record with freshly
// derived permissions plus the signed token.
type AuthResult struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expires_in"`
}

func NewAuthService(store AuthStore, signer TokenSigner) *AuthService {
	return &AuthService{
		store:     store,
		now:       func() time.Time { return time.Now().UTC() },
		idGen:     func(prefix string, n int) string { return prefix + shortID(n) },
		signToken: signer,
		tokenTTL:  30 * 24 * time.Hour,
	}
}

// Register creates an account with an explicit role. The role is assigned
// here, server-side; nothing about the email string influences it.
func (s *AuthService) Register(email, password, companyID string, role models.Role) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, NewInvalidError("email/password required")
	}
	if PermissionsForRole(role) == (models.Permissions{}) {
		return nil, NewInvalidError("unknown role")
	}
	existing, err := s.store.FindUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewConflictError("email exists")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		ID:          s.idGen("u", 7),
		Email:       email,
		CompanyID:   companyID,
		Role:        role,
		Permissions: PermissionsForRole(role),
		PassHash:    hash,
		CreatedAt:   s.now(),
	}
	if err := s.store.AddUser(u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Login(email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, NewInvalidError("email/password required")
	}
	u, err := s.store.FindUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(u.PassHash, []byte(password)); err != nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	return s.result(u)
}

// Validate resolves the user behind a verified token claim and re-derives
// permissions from the stored role.
func (s *AuthService) Validate(uid string) (*models.User, error) {
	u, err := s.store.GetUser(uid)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewUnauthorizedError("invalid token")
	}
	u.Permissions = PermissionsForRole(u.Role)
	return u, nil
}

func (s *AuthService) result(u *models.User) (*AuthResult, error) {
	u.Permissions = PermissionsForRole(u.Role)
	if s.signToken == nil {
		return nil, NewInvalidError("token signer not configured")
	}
	token, err := s.signToken(u.ID, u.CompanyID, u.Email, u.Role, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u, Token: token, ExpiresIn: int64(s.tokenTTL / time.Second)}, nil
}

func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}
