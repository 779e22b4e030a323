package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// Rules decides which paths need a user and where browsers are sent.
//
// Unauthenticated requests under a Protected prefix are redirected to
// LoginPath with a redirect parameter, or answered with 401 under
// APIPrefix. Signed-in users asking for one of the AuthPaths (login,
// signup) are sent to DashboardPath.
type Rules struct {
	Protected     []string `mapstructure:"protected"`
	AuthPaths     []string `mapstructure:"auth_paths"`
	LoginPath     string   `mapstructure:"login_path"`
	DashboardPath string   `mapstructure:"dashboard_path"`
	APIPrefix     string   `mapstructure:"api_prefix"`
}

// DefaultRules protects the dashboard
func DefaultRules() Rules {
	return Rules{
		Protected:     []string{"/dashboard"},
		AuthPaths:     []string{"/login", "/signup"},
		LoginPath:     "/login",
		DashboardPath: "/dashboard",
		APIPrefix:     "/api/",
	}
}

func matches(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, strings.TrimRight(p, "/")+"/") {
			return true
		}
	}
	return false
}

// Middleware attaches the authenticated user, if any, to every request
// context and enforces rules
func Middleware(p Provider, rules Rules, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := p.Authenticate(r)
			if err == nil {
				r = r.WithContext(WithUser(r.Context(), user))
			}
			path := r.URL.Path

			if user != nil && matches(path, rules.AuthPaths) && r.Method == http.MethodGet {
				http.Redirect(w, r, rules.DashboardPath, http.StatusSeeOther)
				return
			}

			if user == nil && matches(path, rules.Protected) {
				if rules.APIPrefix != "" && strings.HasPrefix(path, rules.APIPrefix) {
					Unauthorized(w)
					return
				}
				logger.Debug("redirecting to login", "path", path)
				target := rules.LoginPath + "?redirect=" + url.QueryEscape(path)
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Require answers 401 unless the request carries a user
func Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFrom(r.Context()); !ok {
			Unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Unauthorized writes a JSON 401
func Unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="cognilink"`)
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": ErrUnauthenticated.Error()})
}

// SafeRedirect returns target if it is a local absolute path, else fallback
func SafeRedirect(target, fallback string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, `\`) {
		return fallback
	}
	u, err := url.Parse(target)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return fallback
	}
	return target
}
