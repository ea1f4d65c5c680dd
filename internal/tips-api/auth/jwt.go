package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type ctxKey struct{}

const bearerSchema = "Bearer "

// Subject devolve o "sub" do token validado
func Subject(ctx context.Context) string {
	s, _ := ctx.Value(ctxKey{}).(string)
	return s
}

// Middleware valida o bearer token HS256. Segredo vazio desliga a verificação (ambiente local).
func Middleware(secret string, log *zap.Logger) func(http.Handler) http.Handler {
	if secret == "" {
		log.Warn("JWT secret not configured; auth disabled")
		return func(next http.Handler) http.Handler { return next }
	}
	key := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				deny(w, "authorization header is required")
				return
			}
			if !strings.HasPrefix(header, bearerSchema) {
				deny(w, "authorization header must start with Bearer")
				return
			}

			token, err := jwt.Parse(strings.TrimPrefix(header, bearerSchema), func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return key, nil
			})
			if err != nil {
				log.Debug("token rejected", zap.Error(err))
				if errors.Is(err, jwt.ErrTokenExpired) {
					deny(w, "token has expired")
				} else {
					deny(w, "invalid token")
				}
				return
			}

			sub, _ := token.Claims.GetSubject()
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, sub)))
		})
	}
}

// Issue assina um token HS256 (uso em dev e testes; o login real é externo)
func Issue(secret, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func deny(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}
