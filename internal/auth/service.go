// Package auth registers and logs in users and gates admin-only routes.
//
// Admin identity comes from the raw x-user-id request header. Nothing binds
// that value to the caller, so any client can claim any id; this is a known
// weak point kept for compatibility with existing clients.
package auth

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/petermazzocco/cloud-vault/internal/apperr"
	"github.com/petermazzocco/cloud-vault/internal/logging"
	"github.com/petermazzocco/cloud-vault/models"
	"golang.org/x/crypto/bcrypt"
)

const HashCost = 10

const msgInvalidCredentials = "Invalid username or password"

type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindFirstAdmin(ctx context.Context) (*models.User, error)
	Create(ctx context.Context, username, passwordHash, role string) (*models.User, error)
}

// Identity is what clients learn about a user after register or login.
type Identity struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func identityOf(u *models.User) *Identity {
	return &Identity{ID: u.ID, Username: u.Username, Role: u.Role}
}

// dummyHash is compared against when the username is unknown so both login
// failure paths pay for a bcrypt comparison.
var dummyHash = mustHash("cloud-vault-dummy-password")

func mustHash(password string) []byte {
	h, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		panic(err)
	}
	return h
}

// leadingID matches the decimal prefix of an x-user-id value, so "7abc"
// and "7.0" both name user 7.
var leadingID = regexp.MustCompile(`^[+-]?[0-9]+`)

type Service struct {
	users UserStore
	log   logging.Logger
}

func NewService(users UserStore, log logging.Logger) *Service {
	return &Service{
		users: users,
		log:   log.With("component", "auth"),
	}
}

func (s *Service) Register(ctx context.Context, username, password string) (*Identity, error) {
	if username == "" || password == "" {
		return nil, apperr.Validation("Username and password required")
	}

	_, err := s.users.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return nil, apperr.Conflict("Username already exists")
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	u, err := s.users.Create(ctx, username, hash, models.RoleUser)
	if err != nil {
		// lost a race with a concurrent registration of the same name
		if errors.Is(err, apperr.ErrDuplicate) {
			return nil, apperr.Conflict("Username already exists")
		}
		return nil, err
	}

	s.log.Info(ctx, "user registered", "user_id", u.ID, "username", u.Username)
	return identityOf(u), nil
}

// Login fails with the same Auth error whether the username is unknown or the
// password is wrong.
func (s *Service) Login(ctx context.Context, username, password string) (*Identity, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, apperr.Auth(msgInvalidCredentials)
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, apperr.Auth(msgInvalidCredentials)
	}
	return identityOf(u), nil
}

// RequireAdmin resolves the x-user-id header value to an admin user.
func (s *Service) RequireAdmin(ctx context.Context, userID string) (*models.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperr.Auth("Authentication required")
	}

	id, ok := parseUserID(userID)
	if !ok {
		return nil, apperr.Forbidden("Only administrators can access this")
	}

	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Forbidden("Only administrators can access this")
		}
		return nil, err
	}
	if u.Role != models.RoleAdmin {
		return nil, apperr.Forbidden("Only administrators can access this")
	}
	return u, nil
}

// EnsureAdmin creates the admin account unless some admin already exists.
// It reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	_, err := s.users.FindFirstAdmin(ctx)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return false, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return false, err
	}
	if _, err := s.users.Create(ctx, username, hash, models.RoleAdmin); err != nil {
		return false, err
	}
	return true, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperr.Validation("Password is too long")
		}
		return "", err
	}
	return string(hash), nil
}

// parseUserID reads the leading integer of v. Values without one, and
// non-positive ids, name no user.
func parseUserID(v string) (uint, bool) {
	m := leadingID.FindString(v)
	if m == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(m, 10, 64)
	if err != nil || n <= 0 || uint64(n) > uint64(^uint(0)) {
		return 0, false
	}
	return uint(n), true
}
