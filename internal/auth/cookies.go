package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

const (
	AccessCookie  = "session-access-token"
	RefreshCookie = "session-refresh-token"
)

// CookieCodec подписывает значения cookie HMAC-ом, чтобы клиент не мог
// подменить токен, не зная секрета.
type CookieCodec struct {
	sc     *securecookie.SecureCookie
	secure bool
}

// NewCookieCodec создает кодек. secure выставляет атрибут Secure (production).
func NewCookieCodec(secret string, secure bool) (*CookieCodec, error) {
	if secret == "" {
		return nil, errors.New("auth: cookie secret must not be empty")
	}
	sc := securecookie.New([]byte(secret), nil)
	sc.MaxAge(int(RefreshTokenTTL / time.Second))
	return &CookieCodec{sc: sc, secure: secure}, nil
}

// Read возвращает значения обеих cookie. Неподписанные или поврежденные
// значения считаются отсутствующими.
func (c *CookieCodec) Read(r *http.Request) (access, refresh string) {
	return c.read(r, AccessCookie), c.read(r, RefreshCookie)
}

func (c *CookieCodec) read(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	var value string
	if err := c.sc.Decode(name, cookie.Value, &value); err != nil {
		return ""
	}
	return value
}

// Write выставляет обе cookie: сначала access, затем refresh.
func (c *CookieCodec) Write(w http.ResponseWriter, pair TokenPair) error {
	access, err := c.sc.Encode(AccessCookie, pair.Access)
	if err != nil {
		return err
	}
	refresh, err := c.sc.Encode(RefreshCookie, pair.Refresh)
	if err != nil {
		return err
	}

	http.SetCookie(w, c.cookie(AccessCookie, access, int(AccessTokenTTL/time.Second)))
	http.SetCookie(w, c.cookie(RefreshCookie, refresh, int(RefreshTokenTTL/time.Second)))
	return nil
}

// Clear удаляет обе cookie.
func (c *CookieCodec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie(AccessCookie, "", -1))
	http.SetCookie(w, c.cookie(RefreshCookie, "", -1))
}

func (c *CookieCodec) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
