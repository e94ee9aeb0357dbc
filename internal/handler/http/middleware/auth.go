package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/hris-dtr/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-dtr/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

// AuthRequired rejects requests without a valid access token, read from the
// Authorization header or the "jwt" cookie.
func AuthRequired(jwtService jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			tokenString := jwtauth.TokenFromHeader(r)
			if tokenString == "" {
				tokenString = jwtauth.TokenFromCookie(r)
			}
			if tokenString == "" {
				response.Unauthorized(w, "Access token required")
				return
			}

			if _, err := jwtService.ValidateAccessToken(tokenString); err != nil {
				response.HandleError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}
