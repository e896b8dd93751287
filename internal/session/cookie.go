package session

import (
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
)

const clientIDKey = "client_id"

// NewCookieManager returns the scs manager that gives every browser client a stable id.
func NewCookieManager(cookieName string, lifetime time.Duration, secure bool) *scs.SessionManager {
	sm := scs.New()
	sm.Lifetime = lifetime
	sm.Cookie.Name = cookieName
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = secure
	return sm
}
