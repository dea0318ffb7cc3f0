package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	JWTSigningKey string
	TokenTTL      time.Duration
	// AuditBuffer > 0 switches the audit publisher to async mode.
	AuditBuffer int
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("CLINICA_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development fallback; must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	tokenTTL := 7 * 24 * time.Hour
	if raw := os.Getenv("TOKEN_TTL_MINUTES"); raw != "" {
		if minutes, err := strconv.Atoi(raw); err == nil && minutes > 0 {
			tokenTTL = time.Duration(minutes) * time.Minute
		}
	}

	auditBuffer := 0
	if raw := os.Getenv("AUDIT_BUFFER"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			auditBuffer = n
		}
	}

	return Server{
		Addr:          addr,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		JWTSigningKey: jwtSigningKey,
		TokenTTL:      tokenTTL,
		AuditBuffer:   auditBuffer,
	}
}
