// Package middleware содержит HTTP middleware витрины.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const sessionIDKey contextKey = "sessionID"

const (
	sessionCookieName = "storefront_session"
	sessionCookieTTL  = 30 * 24 * time.Hour
)

// SessionMiddleware привязывает запрос к сессии покупателя по подписанному cookie.
// Если cookie нет или подпись не сходится, выдаётся новая сессия.
type SessionMiddleware struct {
	secretKey []byte
}

// NewSessionMiddleware создаёт новый экземпляр SessionMiddleware с указанным секретным ключом.
// Пустой ключ заменяется случайным: сессии тогда не переживают перезапуск.
func NewSessionMiddleware(secret string) *SessionMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &SessionMiddleware{
		secretKey: key,
	}
}

// Middleware читает cookie сессии и добавляет идентификатор сессии в контекст запроса.
func (m *SessionMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sessionID string
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			if id, ok := m.parseCookie(cookie.Value); ok {
				sessionID = id
			}
		}

		if sessionID == "" {
			sessionID = uuid.NewString()
			m.SetSessionCookie(w, sessionID)
		}

		ctx := WithSessionID(r.Context(), sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SetSessionCookie устанавливает cookie для указанного идентификатора сессии.
func (m *SessionMiddleware) SetSessionCookie(w http.ResponseWriter, sessionID string) {
	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    m.sign(sessionID),
		Path:     "/",
		Expires:  time.Now().Add(sessionCookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	http.SetCookie(w, cookie)
}

func (m *SessionMiddleware) sign(sessionID string) string {
	mac := hmac.New(sha256.New, m.secretKey)
	mac.Write([]byte(sessionID))
	return sessionID + "." + hex.EncodeToString(mac.Sum(nil))
}

func (m *SessionMiddleware) parseCookie(cookieValue string) (string, bool) {
	id, signature, found := strings.Cut(cookieValue, ".")
	if !found {
		return "", false
	}

	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}

	_, expected, _ := strings.Cut(m.sign(id), ".")
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return "", false
	}

	return id, true
}

// GetSessionIDFromContext извлекает идентификатор сессии из контекста запроса.
func GetSessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok && id != ""
}

// WithSessionID кладёт идентификатор сессии в контекст.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}
