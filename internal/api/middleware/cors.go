package middleware

import (
	"github.com/go-chi/cors"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/config"
)

// NewCORS allows browser clients from cfg.AllowedOrigins. The API only reads
// and posts, and clients may correlate requests through X-Request-Id.
func NewCORS(cfg config.CORSConfig) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
