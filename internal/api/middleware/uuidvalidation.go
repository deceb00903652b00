// Package middleware provides HTTP middleware for request validation and processing.
package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/api/response"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/validation"
)

// RequireUUIDParam rejects requests whose URL parameter param is missing or
// not a UUID with 400 Bad Request, naming resource in the error. Handlers
// behind it can pass the parameter straight to the services.
//
//	r.Route("/shares/{uuid}", func(r chi.Router) {
//	    r.Use(middleware.RequireUUIDParam("uuid", "share"))
//	    r.Get("/", handler.GetShare)
//	})
func RequireUUIDParam(param, resource string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, param)
			if id == "" {
				response.RespondError(w, http.StatusBadRequest, resource+" id is required", "")
				return
			}
			if err := validation.ValidateUUID(id); err != nil {
				response.RespondError(w, http.StatusBadRequest, "invalid "+resource+" id", err.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
