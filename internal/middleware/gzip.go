package middleware

import (
	"compress/gzip"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// compressible - типы содержимого, которые имеет смысл сжимать.
var compressible = []string{"application/json", "text/html", "text/plain"}

// Compress сжимает ответы витрины, если клиент это поддерживает.
func Compress() func(http.Handler) http.Handler {
	return middleware.Compress(5, compressible...)
}

// GzipMiddleware распаковывает тело запроса, сжатое gzip.
func GzipMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		zr, err := gzip.NewReader(r.Body)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		defer zr.Close()

		r.Body = zr
		r.Header.Del("Content-Encoding")
		r.Header.Del("Content-Length")
		r.ContentLength = -1

		next.ServeHTTP(w, r)
	})
}
