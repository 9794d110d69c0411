package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	apperrors "github.com/kbukum/taskflow/errors"
)

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator func(token string) (map[string]any, error)

// AuthConfig configures the bearer-token middleware.
type AuthConfig struct {
	Validator TokenValidator
	// SkipPaths are URL path prefixes that bypass authentication.
	SkipPaths []string
}

type claimsKey struct{}

// ClaimsFromContext returns the claims Auth stored for the request.
func ClaimsFromContext(ctx context.Context) (map[string]any, bool) {
	claims, ok := ctx.Value(claimsKey{}).(map[string]any)
	return claims, ok
}

// Auth rejects requests without a valid "Authorization: Bearer" token.
// Validated claims are stored in the request context.
func Auth(cfg AuthConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.SkipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, apperrors.Unauthorized("authorization header required"))
				return
			}
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				writeError(w, apperrors.Unauthorized("invalid authorization header format"))
				return
			}

			claims, err := cfg.Validator(token)
			if err != nil {
				writeError(w, apperrors.Unauthorized("invalid token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
		})
	}
}

// HMACValidator returns a TokenValidator for HS256 tokens signed with
// secret. A non-empty issuer must match the "iss" claim.
func HMACValidator(secret, issuer string) TokenValidator {
	key := []byte(secret)
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, gojwt.WithIssuer(issuer))
	}
	return func(token string) (map[string]any, error) {
		claims := gojwt.MapClaims{}
		parsed, err := gojwt.ParseWithClaims(token, claims, func(*gojwt.Token) (any, error) {
			return key, nil
		}, opts...)
		if err != nil {
			return nil, fmt.Errorf("jwt: parse token: %w", err)
		}
		if !parsed.Valid {
			return nil, errors.New("jwt: invalid token")
		}
		return claims, nil
	}
}

// SignToken issues an HS256 token for subject that expires after ttl.
func SignToken(secret, issuer, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := gojwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    issuer,
		IssuedAt:  gojwt.NewNumericDate(now),
		ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, nil
}
