package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"reserva/internal/models"
)

// Claims carried by bearer tokens.
type Claims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies HS256 tokens.
type Authenticator struct {
	secret []byte
	now    func() time.Time
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret), now: time.Now}
}

// IssueToken signs a token for sub with the given role.
func (a *Authenticator) IssueToken(sub string, role models.Role, ttl time.Duration) (string, error) {
	claims := Claims{
		Sub:  sub,
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(a.now()),
			ExpiresAt: jwt.NewNumericDate(a.now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ParseCaller validates tokenStr and returns the identity it carries.
func (a *Authenticator) ParseCaller(tokenStr string) (models.Caller, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return models.Caller{}, err
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return models.Caller{}, errors.New("invalid token")
	}
	if c.Sub == "" {
		return models.Caller{}, errors.New("token has no subject")
	}
	role := models.Role(c.Role)
	if role != models.RoleAdmin && role != models.RoleClient {
		return models.Caller{}, errors.New("token has unknown role")
	}
	return models.Caller{ID: c.Sub, Role: role}, nil
}

type callerKey struct{}

func withCaller(ctx context.Context, c models.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the identity resolved by the auth middleware.
func CallerFrom(ctx context.Context) (models.Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(models.Caller)
	return c, ok
}

// authenticate resolves the bearer token into a Caller.
func (s *HTTPServer) authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		caller, err := s.auth.ParseCaller(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			s.logger.Debug().Err(err).Msg("Rejected token")
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}
		next(w, r.WithContext(withCaller(r.Context(), caller)))
	}
}
