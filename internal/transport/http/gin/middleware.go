package httpgin

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kirinyoku/busgo/internal/auth"
	redisrepo "github.com/kirinyoku/busgo/internal/repository/redis"
)

const (
	ctxRequestID = "request_id"
	ctxAdmin     = "admin"
)

func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}

		c.Writer.Header().Set("X-Request-ID", reqID)
		c.Set(ctxRequestID, reqID)

		c.Next()
	}
}

func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{
			"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Requested-With",
			"X-Request-ID",
			"Idempotency-Key",
			"If-None-Match",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
			"ETag",
			"Cache-Control",
			"Retry-After",
		},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowOrigins = nil
		cfg.AllowAllOrigins = true
	}

	return cors.New(cfg)
}

func LoggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery
		c.Next()

		latency := time.Since(start)
		if raw != "" {
			path = path + "?" + raw
		}

		reqID, _ := c.Get(ctxRequestID)

		attrs := []any{
			slog.Int("status", c.Writer.Status()),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("ip", c.ClientIP()),
			slog.String("ua", c.Request.UserAgent()),
			slog.Any("request_id", reqID),
			slog.Duration("latency", latency),
			slog.Int("bytes_out", c.Writer.Size()),
		}

		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
			logger.Error("http", slog.Group("http", attrs...))
		} else {
			logger.Info("http", slog.Group("http", attrs...))
		}
	}
}

// RequireAdmin accepts only requests carrying a valid admin bearer token.
func RequireAdmin(a *auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, UnauthorizedResponse{
				Error:         "authentication required",
				RequiresLogin: true,
			})
			return
		}

		subject, err := a.Verify(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, UnauthorizedResponse{
				Error:         "invalid or expired token",
				RequiresLogin: true,
			})
			return
		}

		c.Set(ctxAdmin, subject)
		c.Next()
	}
}

// bodyRecorder keeps a copy of everything written so the response can be
// stored for idempotent replay.
type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response for a repeated Idempotency-Key.
// A duplicate that arrives while the first request still runs gets 409,
// and a key reused with a different method, path or body gets 422.
// Only 2xx responses are stored; anything else releases the key.
func Idempotency(store *redisrepo.IdempotencyStore, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			badRequest(c, "could not read request body")
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		fingerprint := requestFingerprint(c.Request.Method, c.Request.URL.Path, body)

		claim, err := store.Claim(ctx, key)
		if err != nil {
			logger.Warn("idempotency store unavailable", "error", err)
			c.Next()
			return
		}

		c.Header("Idempotency-Key", key)

		if claim.Replay != nil {
			if claim.Replay.Fingerprint != "" && claim.Replay.Fingerprint != fingerprint {
				c.AbortWithStatusJSON(http.StatusUnprocessableEntity, ErrorResponse{
					Error: "Idempotency-Key was already used with a different request",
				})
				return
			}
			c.Header("Idempotent-Replayed", "true")
			c.Data(claim.Replay.Status, "application/json; charset=utf-8", claim.Replay.Body)
			c.Abort()
			return
		}

		if !claim.Acquired {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusConflict, ErrorResponse{
				Error: "a request with this Idempotency-Key is in progress",
			})
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec

		c.Next()

		saveCtx := context.WithoutCancel(ctx)
		status := rec.Status()
		if status >= 200 && status < 300 {
			err = store.Save(saveCtx, key, redisrepo.StoredResponse{
				Status:      status,
				Body:        rec.body.Bytes(),
				Fingerprint: fingerprint,
			})
		} else {
			err = store.Release(saveCtx, key)
		}
		if err != nil {
			logger.Warn("idempotency store update failed", "error", err, "status", status)
		}
	}
}

// requestFingerprint identifies a request by method, path and body.
func requestFingerprint(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{'\n'})
	h.Write([]byte(path))
	h.Write([]byte{'\n'})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
