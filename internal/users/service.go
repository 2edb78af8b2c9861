package users

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/friendloop/backend/internal/apperr"
	"github.com/friendloop/backend/internal/auth"
	"github.com/friendloop/backend/internal/logging"
	appmail "github.com/friendloop/backend/internal/mail"
	"github.com/friendloop/backend/internal/models"
	"github.com/friendloop/backend/internal/repositories"
)

// RegisterInput carries the fields accepted on account creation.
type RegisterInput struct {
	Name            string
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Service implements the account lifecycle: registration, login, access token
// rotation and password recovery.
type Service struct {
	users    repositories.UserRepository
	tokens   *auth.Tokens
	mail     appmail.Dispatcher
	resetTTL time.Duration
	resetURL string

	// NowFunc overrides the clock in tests.
	NowFunc func() time.Time
}

// NewService wires the account service.
func NewService(users repositories.UserRepository, tokens *auth.Tokens, dispatcher appmail.Dispatcher, resetTTL time.Duration, resetURL string) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		mail:     dispatcher,
		resetTTL: resetTTL,
		resetURL: resetURL,
	}
}

// Register validates the input, enforces email and username uniqueness and
// stores the new account with a hashed credential.
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)

	if msg := validateRegistration(in); msg != "" {
		return models.User{}, apperr.Validation("Some data does not match.").WithData(map[string]string{"error": msg})
	}

	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return models.User{}, apperr.Conflict("This email is already registered.")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return models.User{}, apperr.Internal(err)
	}

	if in.Username != "" {
		if _, err := s.users.FindByUsername(ctx, in.Username); err == nil {
			return models.User{}, apperr.Conflict("The provided userName is already registered.")
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, apperr.Internal(err)
		}
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, apperr.Internal(err)
	}

	now := s.now()
	user := models.User{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Username:  in.Username,
		Email:     in.Email,
		Password:  hashed,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration; the pre-checks above
		// passed, so the violated constraint tells us which field collided.
		var conflict *repositories.ConflictError
		if errors.As(err, &conflict) && strings.Contains(conflict.Constraint, "username") {
			return models.User{}, apperr.Conflict("The provided userName is already registered.")
		}
		if errors.Is(err, repositories.ErrConflict) {
			return models.User{}, apperr.Conflict("This email is already registered.")
		}
		return models.User{}, apperr.Internal(err)
	}

	return user, nil
}

// Login verifies the credential and issues a signed token pair.
func (s *Service) Login(ctx context.Context, email, password string) (models.TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.TokenPair{}, apperr.AccessDenied("No user found with this e-mail.")
		}
		return models.TokenPair{}, apperr.Internal(err)
	}

	if !auth.CheckPassword(password, user.Password) {
		return models.TokenPair{}, apperr.AccessDenied("Wrong password.")
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Email)
	if err != nil {
		return models.TokenPair{}, apperr.Internal(err)
	}

	return pair, nil
}

// RotateAccessToken exchanges an expired access token plus a live refresh
// token for a fresh access token. Only the (expired access, valid refresh)
// combination succeeds.
func (s *Service) RotateAccessToken(ctx context.Context, accessToken, refreshToken string) (string, error) {
	if accessToken == "" || refreshToken == "" {
		return "", apperr.Validation("Some input data is missing.")
	}

	if _, err := s.tokens.VerifyAccessToken(accessToken); err == nil {
		return "", apperr.New(http.StatusBadRequest, "accessToken is still valid")
	}

	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return "", apperr.NotAcceptable("Refresh token expired.")
	}

	user, err := s.users.FindByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", apperr.NotAcceptable("The user is no longer available.")
		}
		return "", apperr.Internal(err)
	}

	token, _, err := s.tokens.IssueAccessToken(user.ID, user.Email)
	if err != nil {
		return "", apperr.Internal(err)
	}

	return token, nil
}

// RequestPasswordReset stores a time-boxed single-use token on the account
// and dispatches the recovery mail. The unknown-email response deliberately
// differs from success, matching the documented contract.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperr.AccessDenied("No user found with this e-mail.")
		}
		return apperr.Internal(err)
	}

	token, err := auth.NewResetToken()
	if err != nil {
		return apperr.Internal(err)
	}

	expiresAt := s.now().Add(s.resetTTL)
	user.PasswordResetToken = &token
	user.PasswordResetExpiresAt = &expiresAt
	user.UpdatedAt = s.now()

	if err := s.users.Update(ctx, user); err != nil {
		return apperr.Internal(err)
	}

	link := fmt.Sprintf("%s/%s", strings.TrimRight(s.resetURL, "/"), token)
	body := fmt.Sprintf(`<p>Hello %s,</p><p>Follow <a href=%q>this link</a> to reset your password. The link expires in %d minutes.</p>`,
		user.Name, link, int(s.resetTTL.Minutes()))

	// Fire-and-forget: delivery failures are logged, never surfaced.
	go func(ctx context.Context) {
		if err := s.mail.Send(ctx, user.Email, "Reset your FriendLoop password", body); err != nil {
			logging.FromContext(ctx).Error("password reset mail failed", "error", err, "userId", user.ID)
		}
	}(context.WithoutCancel(ctx))

	return nil
}

// ConsumePasswordReset validates the single-use token and atomically replaces
// the credential while clearing the token, so it cannot be replayed.
func (s *Service) ConsumePasswordReset(ctx context.Context, token, newPassword, confirm string) error {
	if token == "" || newPassword == "" || confirm == "" {
		return apperr.Validation("Some input data is missing.")
	}
	if newPassword != confirm {
		return apperr.Validation("Passwords do not match.")
	}

	user, err := s.users.FindByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperr.Validation("Invalid or expired token")
		}
		return apperr.Internal(err)
	}

	if user.PasswordResetExpiresAt == nil || s.now().After(*user.PasswordResetExpiresAt) {
		return apperr.Validation("Invalid or expired token")
	}

	hashed, err := auth.HashPassword(newPassword)
	if err != nil {
		return apperr.Internal(err)
	}

	user.Password = hashed
	user.PasswordResetToken = nil
	user.PasswordResetExpiresAt = nil
	user.UpdatedAt = s.now()

	if err := s.users.Update(ctx, user); err != nil {
		return apperr.Internal(err)
	}

	return nil
}

// GetUser resolves a user profile by id.
func (s *Service) GetUser(ctx context.Context, id string) (models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, apperr.AccessDenied(fmt.Sprintf("No user found for the id: %s", id))
		}
		return models.User{}, apperr.Internal(err)
	}
	return user, nil
}

func (s *Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now().UTC()
}

func validateRegistration(in RegisterInput) string {
	switch {
	case in.Name == "":
		return "name is required"
	case len(in.Name) < 3 || len(in.Name) > 30 || !isAlphanumeric(in.Name):
		return "name must be 3-30 alphanumeric characters"
	case in.Email == "":
		return "email is required"
	case in.Password == "":
		return "password is required"
	case in.Password != in.ConfirmPassword:
		return "confirmPassword must match password"
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return "email must be a valid address"
	}
	return ""
}

func isAlphanumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
