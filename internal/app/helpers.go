package app

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/devicelink/core/internal/config"
	jwtpkg "github.com/devicelink/core/internal/pkg/jwt"
	"go.uber.org/zap"
)

func applyRuntimeSettings(cfg *config.AppConfig, logger *zap.Logger) error {
	if cfg.JWTSecret != "" {
		jwtpkg.SetSecret(cfg.JWTSecret)
	} else {
		logger.Warn("jwt_secret is empty, using built-in default secret")
	}

	if cfg.Timezone == "" {
		return nil
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	time.Local = loc
	return nil
}

// extractOriginHost returns the "host[:port]" portion of an origin URL.
func extractOriginHost(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return origin
	}
	return u.Host
}

// matchOriginPattern reports whether host matches pattern. Patterns are exact
// hosts, "*.example.com" for any subdomain, or "localhost:*" for any port.
func matchOriginPattern(pattern, host string) bool {
	if pattern == host {
		return true
	}
	if strings.HasPrefix(pattern, "*.") {
		return strings.HasSuffix(host, pattern[1:])
	}
	if strings.HasSuffix(pattern, ":*") {
		return strings.HasPrefix(host, pattern[:len(pattern)-1])
	}
	return false
}
