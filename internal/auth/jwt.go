package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/isdelr/taskdeck-be/internal/api/respond"
	"github.com/isdelr/taskdeck-be/internal/models"
	"github.com/isdelr/taskdeck-be/internal/services"
	"github.com/rs/zerolog/log"
)

// Authorization failure kinds. All of them surface to the client as a
// generic 401; the distinction exists for logging only.
var (
	ErrMissingCredential = errors.New("missing bearer credential")
	ErrTokenInvalid      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token expired")
	ErrUnknownIdentity   = errors.New("unknown identity")
)

// Claims defines the JWT claims structure.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies bearer tokens. The signing key and token
// lifetime are injected at construction; nothing here is derived from
// request data.
type TokenService struct {
	key []byte
	ttl time.Duration
}

// NewTokenService creates a TokenService with the given signing secret and
// token lifetime.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{key: []byte(secret), ttl: ttl}
}

// Issue creates a signed token carrying the user's ID and an expiry.
func (ts *TokenService) Issue(userID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ts.key)
}

// Verify parses and validates a token string, returning the user ID it was
// issued for. Expired tokens yield ErrTokenExpired; any other defect (bad
// signature, malformed structure, wrong algorithm) yields ErrTokenInvalid.
func (ts *TokenService) Verify(tokenStr string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return ts.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}
	if !token.Valid || claims.UserID == "" {
		return "", ErrTokenInvalid
	}
	return claims.UserID, nil
}

// IdentityResolver loads a user record for a verified token subject.
type IdentityResolver interface {
	GetUserByID(ctx context.Context, id string) (models.User, error)
}

type contextKey string

const userIDKey = contextKey("userID")

// UserID extracts the authenticated caller's ID from a request context.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// Middleware builds the authorization gate protecting task routes: it
// resolves the Authorization header to a known user before the handler
// runs, or rejects the request with a generic 401.
func Middleware(tokens *TokenService, users IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := resolve(r, tokens, users)
			if err != nil {
				if isAuthFailure(err) {
					log.Warn().Err(err).Str("path", r.URL.Path).Msg("Rejected unauthorized request")
					respond.Fail(w, http.StatusUnauthorized, "Authentication required", "")
					return
				}
				log.Error().Err(err).Str("path", r.URL.Path).Msg("Identity lookup failed")
				respond.Fail(w, http.StatusInternalServerError, "Something went wrong", "")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolve is the gate itself: a pure function of the request header, the
// token service and the credential store.
func resolve(r *http.Request, tokens *TokenService, users IdentityResolver) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingCredential
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrMissingCredential
	}

	userID, err := tokens.Verify(parts[1])
	if err != nil {
		return "", err
	}

	// The user may have been removed after the token was issued; treat that
	// as unauthorized, not a server error.
	if _, err := users.GetUserByID(r.Context(), userID); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return "", ErrUnknownIdentity
		}
		return "", err
	}

	return userID, nil
}

func isAuthFailure(err error) bool {
	return errors.Is(err, ErrMissingCredential) ||
		errors.Is(err, ErrTokenInvalid) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrUnknownIdentity)
}
