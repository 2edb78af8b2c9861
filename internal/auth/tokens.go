package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/friendloop/backend/internal/models"
)

var (
	// ErrTokenInvalid indicates a token that fails signature, shape or kind checks.
	ErrTokenInvalid = errors.New("token is invalid")
	// ErrTokenExpired indicates a well-formed token whose lifetime has elapsed.
	ErrTokenExpired = errors.New("token has expired")
)

// TokenKind distinguishes the two signed credentials the service issues.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Claims is the signed payload carried by access and refresh tokens. Access
// tokens embed the user id and email; refresh tokens carry the email only.
type Claims struct {
	UserID string    `json:"userId,omitempty"`
	Email  string    `json:"email"`
	Kind   TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies the self-contained signed credentials. The
// signing secret is loaded once at startup and immutable thereafter; there is
// no server-side session state.
type Tokens struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration

	// NowFunc overrides the clock in tests. It governs both issuance
	// timestamps and expiry checks during verification.
	NowFunc func() time.Time
}

// NewTokens constructs the token service. An empty secret is a configuration
// error and refuses construction.
func NewTokens(secret string, accessTTL, refreshTTL time.Duration) (*Tokens, error) {
	if secret == "" {
		return nil, errors.New("auth: token secret must not be empty")
	}
	return &Tokens{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

func (t *Tokens) now() time.Time {
	if t.NowFunc != nil {
		return t.NowFunc()
	}
	return time.Now()
}

// IssueAccessToken signs a short-lived token embedding the user identity.
func (t *Tokens) IssueAccessToken(userID, email string) (string, time.Time, error) {
	expiresAt := t.now().Add(t.accessTTL)
	token, err := t.sign(Claims{UserID: userID, Email: email, Kind: KindAccess}, expiresAt)
	return token, expiresAt, err
}

// IssueRefreshToken signs a longer-lived token carrying the email only.
func (t *Tokens) IssueRefreshToken(email string) (string, time.Time, error) {
	expiresAt := t.now().Add(t.refreshTTL)
	token, err := t.sign(Claims{Email: email, Kind: KindRefresh}, expiresAt)
	return token, expiresAt, err
}

// IssuePair issues the access/refresh pair returned on login.
func (t *Tokens) IssuePair(userID, email string) (models.TokenPair, error) {
	access, accessExpires, err := t.IssueAccessToken(userID, email)
	if err != nil {
		return models.TokenPair{}, err
	}

	refresh, refreshExpires, err := t.IssueRefreshToken(email)
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExpires,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExpires,
	}, nil
}

// VerifyAccessToken validates signature, expiry and kind of an access token.
func (t *Tokens) VerifyAccessToken(token string) (*Claims, error) {
	return t.verify(token, KindAccess)
}

// VerifyRefreshToken validates signature, expiry and kind of a refresh token.
func (t *Tokens) VerifyRefreshToken(token string) (*Claims, error) {
	return t.verify(token, KindRefresh)
}

func (t *Tokens) sign(claims Claims, expiresAt time.Time) (string, error) {
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(t.now()),
		Issuer:    "friendloop",
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, &claims).SignedString(t.secret)
}

func (t *Tokens) verify(tokenString string, expected TokenKind) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return t.now() }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Kind != expected {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
