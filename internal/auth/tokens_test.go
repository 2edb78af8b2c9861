package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestTokens(t *testing.T) (*Tokens, *time.Time) {
	t.Helper()

	tokens, err := NewTokens("test-secret", 10*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}

	current := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	tokens.NowFunc = func() time.Time { return current }
	return tokens, &current
}

func TestNewTokensRequiresSecret(t *testing.T) {
	if _, err := NewTokens("", time.Minute, time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tokens, _ := newTestTokens(t)

	token, expiresAt, err := tokens.IssueAccessToken("user-1", "a@x.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !expiresAt.Equal(time.Date(2024, time.June, 1, 12, 10, 0, 0, time.UTC)) {
		t.Fatalf("unexpected expiry %v", expiresAt)
	}

	claims, err := tokens.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "a@x.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestRefreshTokenOmitsUserID(t *testing.T) {
	tokens, _ := newTestTokens(t)

	token, _, err := tokens.IssueRefreshToken("a@x.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := tokens.VerifyRefreshToken(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "" {
		t.Fatalf("refresh token should carry email only, got user id %q", claims.UserID)
	}
	if claims.Email != "a@x.com" {
		t.Fatalf("unexpected email %q", claims.Email)
	}
}

func TestVerifyRejectsWrongKind(t *testing.T) {
	tokens, _ := newTestTokens(t)

	access, _, err := tokens.IssueAccessToken("user-1", "a@x.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := tokens.VerifyRefreshToken(access); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid got %v", err)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	tokens, current := newTestTokens(t)

	access, _, err := tokens.IssueAccessToken("user-1", "a@x.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	*current = current.Add(11 * time.Minute)

	if _, err := tokens.VerifyAccessToken(access); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired got %v", err)
	}
}

func TestVerifyTamperedToken(t *testing.T) {
	tokens, _ := newTestTokens(t)

	other, err := NewTokens("other-secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}

	forged, _, err := other.IssueAccessToken("user-1", "a@x.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := tokens.VerifyAccessToken(forged); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid got %v", err)
	}

	if _, err := tokens.VerifyAccessToken("not-a-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for garbage, got %v", err)
	}
}

func TestIssuePair(t *testing.T) {
	tokens, _ := newTestTokens(t)

	pair, err := tokens.IssuePair("user-1", "a@x.com")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", pair)
	}
	if !pair.RefreshExpiresAt.After(pair.AccessExpiresAt) {
		t.Fatalf("refresh should outlive access: %+v", pair)
	}
}

func TestPasswordHashing(t *testing.T) {
	hashed, err := HashPassword("pw")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hashed == "pw" {
		t.Fatal("hash must not equal plaintext")
	}
	if !CheckPassword("pw", hashed) {
		t.Fatal("expected password to verify")
	}
	if CheckPassword("wrong", hashed) {
		t.Fatal("expected mismatch to fail")
	}
}

func TestNewResetToken(t *testing.T) {
	token, err := NewResetToken()
	if err != nil {
		t.Fatalf("reset token: %v", err)
	}
	if len(token) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(token))
	}

	again, err := NewResetToken()
	if err != nil {
		t.Fatalf("reset token: %v", err)
	}
	if token == again {
		t.Fatal("expected distinct tokens")
	}
}
