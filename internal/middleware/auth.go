// Package middleware содержит HTTP middleware для сервиса лаунчпада.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strings"
	"time"
)

type contextKey string

const accountKey contextKey = "account"

const (
	authCookieName = "auth_token"
	authCookieTTL  = 365 * 24 * time.Hour
)

// AuthMiddleware выполняет проверку аутентификации пользователя по подписанному cookie.
type AuthMiddleware struct {
	secretKey []byte
}

// NewAuthMiddleware создаёт новый экземпляр AuthMiddleware с указанным секретным ключом.
// Без ключа генерируется случайный, и cookie становятся недействительными после перезапуска.
func NewAuthMiddleware(secret string) *AuthMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &AuthMiddleware{
		secretKey: key,
	}
}

// Middleware проверяет cookie авторизации и добавляет идентичность аккаунта в контекст запроса.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(authCookieName)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		account, ok := a.parseCookie(cookie.Value)
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := WithAccount(r.Context(), account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SetAuthCookie устанавливает cookie авторизации для указанного аккаунта.
func (a *AuthMiddleware) SetAuthCookie(w http.ResponseWriter, account string) {
	cookie := &http.Cookie{
		Name:     authCookieName,
		Value:    a.sign(account),
		Path:     "/",
		Expires:  time.Now().Add(authCookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	http.SetCookie(w, cookie)
}

func (a *AuthMiddleware) signature(encoded string) string {
	mac := hmac.New(sha256.New, a.secretKey)
	mac.Write([]byte(encoded))
	return hex.EncodeToString(mac.Sum(nil))
}

// sign кодирует аккаунт в base64url, чтобы разделитель подписи не встречался в значении.
func (a *AuthMiddleware) sign(account string) string {
	encoded := base64.RawURLEncoding.EncodeToString([]byte(account))
	return encoded + "." + a.signature(encoded)
}

func (a *AuthMiddleware) parseCookie(cookieValue string) (string, bool) {
	encoded, signature, found := strings.Cut(cookieValue, ".")
	if !found {
		return "", false
	}

	if !hmac.Equal([]byte(signature), []byte(a.signature(encoded))) {
		return "", false
	}

	account, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil || len(account) == 0 {
		return "", false
	}

	return string(account), true
}

// GetAccountFromContext извлекает идентичность аккаунта из контекста запроса.
func GetAccountFromContext(ctx context.Context) (string, bool) {
	account, ok := ctx.Value(accountKey).(string)
	return account, ok && account != ""
}

// WithAccount возвращает контекст с идентичностью аккаунта.
func WithAccount(ctx context.Context, account string) context.Context {
	return context.WithValue(ctx, accountKey, account)
}
