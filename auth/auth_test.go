package auth

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
)

func provider() *TokenProvider {
	return NewTokenProvider(map[string]User{
		"tok-ada": {Email: "ada@example.com", Name: "Ada"},
		"":        {Email: "nobody@example.com"},
	})
}

func TestToken(t *testing.T) {
	c := qt.New(t)

	r := httptest.NewRequest("GET", "/", nil)
	c.Assert(Token(r), qt.Equals, "")

	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "from-cookie"})
	c.Assert(Token(r), qt.Equals, "from-cookie")

	r.Header.Set("Authorization", "Bearer  from-header ")
	c.Assert(Token(r), qt.Equals, "from-header")

	r.Header.Set("Authorization", "Basic abc")
	c.Assert(Token(r), qt.Equals, "")
}

func TestTokenProvider(t *testing.T) {
	c := qt.New(t)

	p := provider()
	u, err := p.Lookup("tok-ada")
	c.Assert(err, qt.IsNil)
	c.Assert(u.Email, qt.Equals, "ada@example.com")

	_, err = p.Lookup("")
	c.Assert(errors.Is(err, ErrUnauthenticated), qt.IsTrue)
	_, err = p.Lookup("tok-bob")
	c.Assert(errors.Is(err, ErrUnauthenticated), qt.IsTrue)
}

func serve(c *qt.C, method, path, token string) *httptest.ResponseRecorder {
	var seen *User
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFrom(r.Context())
		if seen != nil {
			io.WriteString(w, seen.Email)
		}
	})
	h := Middleware(provider(), DefaultRules(), nil)(inner)

	r := httptest.NewRequest(method, path, nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestMiddleware(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		about    string
		method   string
		path     string
		token    string
		status   int
		location string
		body     string
	}{{
		about:    "protected page redirects to login",
		method:   "GET",
		path:     "/dashboard/graphs",
		status:   http.StatusSeeOther,
		location: "/login?redirect=%2Fdashboard%2Fgraphs",
	}, {
		about:  "protected page with user",
		method: "GET",
		path:   "/dashboard",
		token:  "tok-ada",
		status: http.StatusOK,
		body:   "ada@example.com",
	}, {
		about:    "login page with user goes to dashboard",
		method:   "GET",
		path:     "/login",
		token:    "tok-ada",
		status:   http.StatusSeeOther,
		location: "/dashboard",
	}, {
		about:  "login page without user",
		method: "GET",
		path:   "/signup",
		status: http.StatusOK,
	}, {
		about:  "public page",
		method: "GET",
		path:   "/share/abc",
		status: http.StatusOK,
	}, {
		about:  "prefix must end at a path boundary",
		method: "GET",
		path:   "/dashboards",
		status: http.StatusOK,
	}}
	for _, test := range tests {
		c.Run(test.about, func(c *qt.C) {
			w := serve(c, test.method, test.path, test.token)
			c.Assert(w.Code, qt.Equals, test.status)
			c.Assert(w.Header().Get("Location"), qt.Equals, test.location)
			if test.body != "" {
				c.Assert(w.Body.String(), qt.Equals, test.body)
			}
		})
	}
}

func TestMiddlewareProtectedAPI(t *testing.T) {
	c := qt.New(t)

	rules := DefaultRules()
	rules.Protected = append(rules.Protected, "/api/graphs")
	h := Middleware(provider(), rules, nil)(http.NotFoundHandler())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/api/graphs", nil))
	c.Assert(w.Code, qt.Equals, http.StatusUnauthorized)
	c.Assert(w.Body.String(), qt.Contains, `"error":"unauthenticated"`)
}

func TestRequire(t *testing.T) {
	c := qt.New(t)

	h := Middleware(provider(), DefaultRules(), nil)(Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/api/graphs", nil))
	c.Assert(w.Code, qt.Equals, http.StatusUnauthorized)

	w = httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/api/graphs", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tok-ada"})
	h.ServeHTTP(w, r)
	c.Assert(w.Code, qt.Equals, http.StatusNoContent)
}

func TestLoginHandler(t *testing.T) {
	c := qt.New(t)

	h := LoginHandler(provider(), DefaultRules(), false)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/login?redirect=/dashboard/x", nil))
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	c.Assert(w.Body.String(), qt.Contains, `value="/dashboard/x"`)

	form := url.Values{"token": {"tok-ada"}, "redirect": {"/dashboard/x"}}
	r := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	c.Assert(w.Code, qt.Equals, http.StatusSeeOther)
	c.Assert(w.Header().Get("Location"), qt.Equals, "/dashboard/x")
	c.Assert(w.Result().Cookies()[0].Value, qt.Equals, "tok-ada")

	form = url.Values{"token": {"wrong"}, "redirect": {"https://evil.example"}}
	r = httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	c.Assert(w.Code, qt.Equals, http.StatusUnauthorized)
	c.Assert(w.Body.String(), qt.Contains, "Invalid token")
	c.Assert(w.Body.String(), qt.Contains, `value="/dashboard"`)
}

func TestSafeRedirect(t *testing.T) {
	c := qt.New(t)

	c.Assert(SafeRedirect("/share/1", "/"), qt.Equals, "/share/1")
	c.Assert(SafeRedirect("//evil.example", "/"), qt.Equals, "/")
	c.Assert(SafeRedirect("https://evil.example", "/"), qt.Equals, "/")
	c.Assert(SafeRedirect(`/\evil.example`, "/"), qt.Equals, "/")
	c.Assert(SafeRedirect("", "/dashboard"), qt.Equals, "/dashboard")
}
