package users

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/friendloop/backend/internal/apperr"
	"github.com/friendloop/backend/internal/auth"
	"github.com/friendloop/backend/internal/models"
	"github.com/friendloop/backend/internal/repositories"
)

type inMemoryUserRepo struct {
	mu    sync.Mutex
	users map[string]models.User

	// createErr fails the next Create call, simulating an insert-time
	// constraint violation that the pre-checks did not see.
	createErr error
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[string]models.User)}
}

func (r *inMemoryUserRepo) Create(_ context.Context, user models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		err := r.createErr
		r.createErr = nil
		return err
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return &repositories.ConflictError{Constraint: "users_email_key"}
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *inMemoryUserRepo) FindByID(_ context.Context, id string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (r *inMemoryUserRepo) FindByEmail(_ context.Context, email string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (r *inMemoryUserRepo) FindByUsername(_ context.Context, username string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (r *inMemoryUserRepo) FindByResetToken(_ context.Context, token string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.PasswordResetToken != nil && *u.PasswordResetToken == token {
			return u, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (r *inMemoryUserRepo) Update(_ context.Context, user models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.users[user.ID] = user
	return nil
}

func (r *inMemoryUserRepo) delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

type captureDispatcher struct {
	mu   sync.Mutex
	sent []sentMail
	done chan struct{}
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func newCaptureDispatcher() *captureDispatcher {
	return &captureDispatcher{done: make(chan struct{}, 4)}
}

func (d *captureDispatcher) Send(_ context.Context, to, subject, body string) error {
	d.mu.Lock()
	d.sent = append(d.sent, sentMail{to: to, subject: subject, body: body})
	d.mu.Unlock()
	d.done <- struct{}{}
	return nil
}

func (d *captureDispatcher) waitForMail(t *testing.T) sentMail {
	t.Helper()
	select {
	case <-d.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for mail dispatch")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sent[len(d.sent)-1]
}

func newTestService(t *testing.T) (*Service, *inMemoryUserRepo, *captureDispatcher, *time.Time) {
	t.Helper()

	tokens, err := auth.NewTokens("test-secret", 10*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}

	repo := newInMemoryUserRepo()
	dispatcher := newCaptureDispatcher()
	svc := NewService(repo, tokens, dispatcher, 5*time.Minute, "http://localhost:3000/recover_password")

	// One clock drives both the service and token issuance/verification, so
	// advancing it genuinely expires previously issued tokens.
	current := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	svc.NowFunc = func() time.Time { return current }
	tokens.NowFunc = func() time.Time { return current }
	return svc, repo, dispatcher, &current
}

func register(t *testing.T, svc *Service, name, email string) models.User {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterInput{
		Name:            name,
		Username:        name,
		Email:           email,
		Password:        "pw",
		ConfirmPassword: "pw",
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return user
}

func expectStatus(t *testing.T, err error, status int) *apperr.Error {
	t.Helper()
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperr.Error got %v", err)
	}
	if appErr.Status != status {
		t.Fatalf("expected status %d got %d (%s)", status, appErr.Status, appErr.Message)
	}
	return appErr
}

func TestRegisterHashesPasswordAndNormalizesEmail(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	user := register(t, svc, "Alice", "  A@X.com ")

	if user.Email != "a@x.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}

	stored, err := repo.FindByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("expected stored user: %v", err)
	}
	if stored.Password == "pw" {
		t.Fatal("password must be stored hashed")
	}
	if !auth.CheckPassword("pw", stored.Password) {
		t.Fatal("stored hash must verify the plaintext")
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	register(t, svc, "Alice", "a@x.com")

	_, err := svc.Register(context.Background(), RegisterInput{
		Name: "Alice2", Username: "other", Email: "a@x.com", Password: "pw", ConfirmPassword: "pw",
	})
	expectStatus(t, err, http.StatusConflict)

	_, err = svc.Register(context.Background(), RegisterInput{
		Name: "Alice2", Username: "Alice", Email: "b@x.com", Password: "pw", ConfirmPassword: "pw",
	})
	expectStatus(t, err, http.StatusConflict)
}

func TestRegisterInsertRaceNamesCollidingField(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	repo.createErr = &repositories.ConflictError{Constraint: "users_username_key"}
	_, err := svc.Register(context.Background(), RegisterInput{
		Name: "Alice", Username: "alice", Email: "a@x.com", Password: "pw", ConfirmPassword: "pw",
	})
	appErr := expectStatus(t, err, http.StatusConflict)
	if appErr.Message != "The provided userName is already registered." {
		t.Fatalf("username race must report the username, got %q", appErr.Message)
	}

	repo.createErr = &repositories.ConflictError{Constraint: "users_email_key"}
	_, err = svc.Register(context.Background(), RegisterInput{
		Name: "Alice", Username: "alice", Email: "a@x.com", Password: "pw", ConfirmPassword: "pw",
	})
	appErr = expectStatus(t, err, http.StatusConflict)
	if appErr.Message != "This email is already registered." {
		t.Fatalf("email race must report the email, got %q", appErr.Message)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	cases := []RegisterInput{
		{Name: "", Email: "a@x.com", Password: "pw", ConfirmPassword: "pw"},
		{Name: "ab", Email: "a@x.com", Password: "pw", ConfirmPassword: "pw"},
		{Name: "has space", Email: "a@x.com", Password: "pw", ConfirmPassword: "pw"},
		{Name: "Alice", Email: "not-an-email", Password: "pw", ConfirmPassword: "pw"},
		{Name: "Alice", Email: "a@x.com", Password: "", ConfirmPassword: ""},
		{Name: "Alice", Email: "a@x.com", Password: "pw", ConfirmPassword: "other"},
	}

	for _, in := range cases {
		_, err := svc.Register(context.Background(), in)
		appErr := expectStatus(t, err, http.StatusBadRequest)
		if appErr.Data == nil {
			t.Fatalf("validation error should carry detail, input %+v", in)
		}
	}
}

func TestLogin(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	register(t, svc, "Alice", "a@x.com")

	pair, err := svc.Login(context.Background(), "a@x.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected token pair, got %+v", pair)
	}

	_, err = svc.Login(context.Background(), "a@x.com", "wrong")
	expectStatus(t, err, http.StatusUnauthorized)

	_, err = svc.Login(context.Background(), "nobody@x.com", "pw")
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestRotateAccessToken(t *testing.T) {
	svc, repo, _, current := newTestService(t)
	user := register(t, svc, "Alice", "a@x.com")

	pair, err := svc.Login(context.Background(), "a@x.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// Still-valid access token is rejected.
	_, err = svc.RotateAccessToken(context.Background(), pair.AccessToken, pair.RefreshToken)
	expectStatus(t, err, http.StatusBadRequest)

	// Expired access + live refresh rotates.
	*current = current.Add(11 * time.Minute)
	rotated, err := svc.RotateAccessToken(context.Background(), pair.AccessToken, pair.RefreshToken)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if rotated == "" || rotated == pair.AccessToken {
		t.Fatal("expected a fresh access token")
	}

	// Missing input.
	_, err = svc.RotateAccessToken(context.Background(), "", pair.RefreshToken)
	expectStatus(t, err, http.StatusBadRequest)

	// Account gone between issuance and rotation.
	repo.delete(user.ID)
	_, err = svc.RotateAccessToken(context.Background(), pair.AccessToken, pair.RefreshToken)
	expectStatus(t, err, http.StatusNotAcceptable)
}

func TestRotateAccessTokenRefreshExpired(t *testing.T) {
	svc, _, _, current := newTestService(t)
	register(t, svc, "Alice", "a@x.com")

	pair, err := svc.Login(context.Background(), "a@x.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	*current = current.Add(25 * time.Hour)
	_, err = svc.RotateAccessToken(context.Background(), pair.AccessToken, pair.RefreshToken)
	expectStatus(t, err, http.StatusNotAcceptable)
}

func TestRequestPasswordReset(t *testing.T) {
	svc, repo, dispatcher, _ := newTestService(t)
	user := register(t, svc, "Alice", "a@x.com")

	if err := svc.RequestPasswordReset(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}

	stored, err := repo.FindByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.PasswordResetToken == nil || len(*stored.PasswordResetToken) != 64 {
		t.Fatalf("expected persisted 64-char reset token, got %+v", stored.PasswordResetToken)
	}
	if stored.PasswordResetExpiresAt == nil {
		t.Fatal("expected persisted expiry")
	}

	msg := dispatcher.waitForMail(t)
	if msg.to != "a@x.com" {
		t.Fatalf("expected mail to user, got %q", msg.to)
	}
	if !strings.Contains(msg.body, *stored.PasswordResetToken) {
		t.Fatal("mail body must embed the reset link token")
	}

	// Unknown email: explicit 401, preserved behavior.
	expectStatus(t, svc.RequestPasswordReset(context.Background(), "nobody@x.com"), http.StatusUnauthorized)
}

func TestConsumePasswordReset(t *testing.T) {
	svc, repo, dispatcher, current := newTestService(t)
	user := register(t, svc, "Alice", "a@x.com")

	if err := svc.RequestPasswordReset(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	dispatcher.waitForMail(t)

	stored, _ := repo.FindByID(context.Background(), user.ID)
	token := *stored.PasswordResetToken

	// Mismatched confirmation.
	expectStatus(t, svc.ConsumePasswordReset(context.Background(), token, "new", "other"), http.StatusBadRequest)

	// Unknown token.
	expectStatus(t, svc.ConsumePasswordReset(context.Background(), "bogus", "new", "new"), http.StatusBadRequest)

	if err := svc.ConsumePasswordReset(context.Background(), token, "newpw", "newpw"); err != nil {
		t.Fatalf("consume: %v", err)
	}

	stored, _ = repo.FindByID(context.Background(), user.ID)
	if stored.PasswordResetToken != nil || stored.PasswordResetExpiresAt != nil {
		t.Fatal("reset token must be cleared after consumption")
	}
	if !auth.CheckPassword("newpw", stored.Password) {
		t.Fatal("new password must verify")
	}

	// Single use: replay fails.
	expectStatus(t, svc.ConsumePasswordReset(context.Background(), token, "again", "again"), http.StatusBadRequest)

	// Expired window leaves the password untouched.
	if err := svc.RequestPasswordReset(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("second reset: %v", err)
	}
	dispatcher.waitForMail(t)
	stored, _ = repo.FindByID(context.Background(), user.ID)
	token = *stored.PasswordResetToken
	before := stored.Password

	*current = current.Add(6 * time.Minute)
	expectStatus(t, svc.ConsumePasswordReset(context.Background(), token, "late", "late"), http.StatusBadRequest)

	stored, _ = repo.FindByID(context.Background(), user.ID)
	if stored.Password != before {
		t.Fatal("expired reset must not mutate the password")
	}
}

func TestGetUser(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	user := register(t, svc, "Alice", "a@x.com")

	got, err := svc.GetUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("unexpected user %+v", got)
	}

	_, err = svc.GetUser(context.Background(), "missing")
	expectStatus(t, err, http.StatusUnauthorized)
}
