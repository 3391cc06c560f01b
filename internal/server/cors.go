package server

import (
	"net/http"
	"strings"

	"github.com/flamego/flamego"
)

// fixedOrigins are always allowed; one more origin comes from
// FRONTEND_URL, and any *.vercel.app deployment passes so preview
// builds work without config changes.
var fixedOrigins = []string{
	"http://localhost:5173",
	"http://localhost:3000",
	"https://secondview.ca",
	"https://www.secondview.ca",
}

// CORS answers preflight requests and sets allow headers for known
// origins. Requests without an Origin header (curl, mobile apps,
// server-to-server) always pass untouched.
func CORS(frontendURL string) flamego.Handler {
	allowed := make([]string, 0, len(fixedOrigins)+1)
	allowed = append(allowed, fixedOrigins...)
	if frontendURL != "" {
		allowed = append(allowed, frontendURL)
	}

	return func(c flamego.Context) {
		origin := c.Request().Header.Get("Origin")
		if origin != "" && originAllowed(origin, allowed) {
			header := c.ResponseWriter().Header()
			header.Set("Access-Control-Allow-Origin", origin)
			header.Set("Access-Control-Allow-Credentials", "true")
			header.Add("Vary", "Origin")

			if c.Request().Method == http.MethodOptions {
				header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				c.ResponseWriter().WriteHeader(http.StatusNoContent)
				return
			}
		}
		c.Next()
	}
}

func originAllowed(origin string, allowed []string) bool {
	for _, a := range allowed {
		if origin == strings.TrimSuffix(a, "/") {
			return true
		}
	}
	return strings.Contains(origin, ".vercel.app")
}
