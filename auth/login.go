package auth

import (
	"html/template"
	"net/http"
)

var loginPage = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>CogniLink - Sign in</title>
<style>
body { font-family: sans-serif; background: #023047; color: #fff; display: flex; justify-content: center; padding-top: 10vh; }
form { display: flex; flex-direction: column; gap: 8px; width: 280px; }
input, button { padding: 8px; border-radius: 4px; border: none; }
button { background: #ffb703; cursor: pointer; }
.error { color: #fb8500; }
</style>
</head>
<body>
<form method="post" action="{{.Action}}">
<h2>Sign in</h2>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<input type="password" name="token" placeholder="Access token" autofocus>
<input type="hidden" name="redirect" value="{{.Redirect}}">
<button type="submit">Continue</button>
</form>
</body>
</html>
`))

type loginView struct {
	Action   string
	Redirect string
	Error    string
}

// LoginHandler serves the sign-in form and exchanges a valid token for the
// session cookie
func LoginHandler(p Provider, rules Rules, secure bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		view := loginView{
			Action:   rules.LoginPath,
			Redirect: SafeRedirect(r.FormValue("redirect"), rules.DashboardPath),
		}

		switch r.Method {
		case http.MethodGet:
		case http.MethodPost:
			token := r.PostFormValue("token")
			if _, err := p.Lookup(token); err == nil {
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    token,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
				http.Redirect(w, r, view.Redirect, http.StatusSeeOther)
				return
			}
			view.Error = "Invalid token"
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusUnauthorized)
			loginPage.Execute(w, view)
			return
		default:
			w.Header().Set("Allow", "GET, POST")
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		loginPage.Execute(w, view)
	})
}

// LogoutHandler clears the session cookie
func LogoutHandler(rules Rules) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		})
		http.Redirect(w, r, rules.LoginPath, http.StatusSeeOther)
	})
}
