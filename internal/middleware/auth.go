// Package middleware implements the HTTP request middleware shared across
// handlers: bearer-JWT authentication with a Redis token blacklist, adapted
// from the delivery-service's Auth middleware. Every authenticated route
// requires a userid header plus an Authorization: Bearer <JWT>.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/domain"
	tspredis "github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/redis"
)

// ContextKey namespaces values this middleware stores on the request context.
type ContextKey string

// UserIDKey is the context key for the authenticated caller's user ID.
const UserIDKey ContextKey = "userId"

// Claims is the JWT payload issued by the (out-of-scope) session service.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Auth validates the userid header against the Bearer JWT's userId claim and
// rejects blacklisted tokens. Session/JWT issuance is out of scope for
// this service — this middleware only consumes tokens minted upstream.
func Auth(cache *tspredis.CacheClient, jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userIDHeader := r.Header.Get("userid")
			if userIDHeader == "" {
				writeFail(w, domain.CodeMissingHeader, "missing userid header", 400)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				writeFail(w, domain.CodeBadAuth, "missing or malformed authorization header", 401)
				return
			}
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")

			if revoked, err := cache.Exists(r.Context(), "token:blacklist:"+tokenString); err != nil {
				log.Error().Err(err).Msg("middleware: blacklist check failed")
			} else if revoked {
				writeFail(w, domain.CodeBadAuth, "token has been revoked", 401)
				return
			}

			token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
				return []byte(jwtSecret), nil
			})
			if err != nil {
				writeFail(w, domain.CodeBadAuth, "invalid token", 401)
				return
			}
			claims, ok := token.Claims.(*Claims)
			if !ok || !token.Valid {
				writeFail(w, domain.CodeBadAuth, "invalid token claims", 401)
				return
			}
			if claims.UserID != userIDHeader {
				writeFail(w, domain.CodeBadAuth, "userid header does not match token subject", 401)
				return
			}

			userID, err := strconv.ParseInt(userIDHeader, 10, 64)
			if err != nil {
				writeFail(w, domain.CodeMalformedRequest, "userid header is not numeric", 400)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID extracts the authenticated user ID from context.
func GetUserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserIDKey).(int64)
	return id, ok
}

func writeFail(w http.ResponseWriter, code domain.APICode, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"result": "fail",
		"error":  map[string]any{"code": code, "msg": msg},
	})
}
