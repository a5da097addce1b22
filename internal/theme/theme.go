// Package theme stores the visitor's light/dark preference in a cookie.
package theme

import (
	"net/http"
	"strings"
)

type Preference int

const (
	Dark Preference = iota
	Light
)

const (
	CookieName = "theme"
	// CookieMaxAge keeps the preference for a year.
	CookieMaxAge = 365 * 24 * 3600
)

// Default is used when no preference has been stored.
const Default = Dark

func (p Preference) String() string {
	if p == Light {
		return "light"
	}
	return "dark"
}

// Toggle returns the other preference.
func (p Preference) Toggle() Preference {
	if p == Light {
		return Dark
	}
	return Light
}

// Parse reads a stored value; anything unrecognised yields Default.
func Parse(s string) (Preference, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "light":
		return Light, true
	case "dark":
		return Dark, true
	default:
		return Default, false
	}
}

// Read returns the preference stored on the request.
func Read(r *http.Request) Preference {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return Default
	}
	p, _ := Parse(c.Value)
	return p
}

// Write persists p for future visits.
func Write(w http.ResponseWriter, p Preference) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    p.String(),
		Path:     "/",
		MaxAge:   CookieMaxAge,
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
	})
}
