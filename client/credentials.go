package client

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
)

// CredentialStore keeps the bearer access token between requests. The
// refresh token never passes through it; it lives in the cookie jar.
type CredentialStore interface {
	AccessToken() string
	SetAccessToken(token string)
	Clear()
}

type MemoryCredentials struct {
	mu    sync.RWMutex
	token string
}

func (c *MemoryCredentials) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *MemoryCredentials) SetAccessToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *MemoryCredentials) Clear() {
	c.SetAccessToken("")
}

// sessionJar is a cookie jar that can be emptied while requests are in flight.
type sessionJar struct {
	mu  sync.RWMutex
	jar http.CookieJar
}

func newSessionJar() *sessionJar {
	j := &sessionJar{}
	j.Reset()
	return j
}

func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	j.jar.SetCookies(u, cookies)
}

func (j *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.jar.Cookies(u)
}

func (j *sessionJar) Reset() {
	// cookiejar.New only fails on a bad PublicSuffixList, and none is passed.
	jar, _ := cookiejar.New(nil)
	j.mu.Lock()
	defer j.mu.Unlock()
	j.jar = jar
}
