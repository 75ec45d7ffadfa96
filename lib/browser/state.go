package browser

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

// StoredCookie is the persisted form of a cookie, the fields follow the
// storage state files written by headless browsers.
type StoredCookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HttpOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	HostOnly bool    `json:"hostOnly,omitempty"`
}

type StorageState struct {
	Cookies []StoredCookie `json:"cookies"`
}

func ParseStorageState(data []byte) (StorageState, error) {
	var state StorageState
	if len(data) == 0 {
		return state, nil
	}
	err := json.Unmarshal(data, &state)
	return state, err
}

type cookieKey struct {
	domain string
	path   string
	name   string
}

// recordingJar is a cookiejar that remembers the attributes of every cookie
// it was given so the session can be written back out.
type recordingJar struct {
	*cookiejar.Jar

	mu      sync.Mutex
	cookies map[cookieKey]StoredCookie
}

func newRecordingJar() (*recordingJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &recordingJar{
		Jar:     jar,
		cookies: make(map[cookieKey]StoredCookie),
	}, nil
}

func (j *recordingJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.Jar.SetCookies(u, cookies)

	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now()
	for _, c := range cookies {
		stored := StoredCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   strings.TrimPrefix(c.Domain, "."),
			Path:     c.Path,
			Expires:  -1,
			HttpOnly: c.HttpOnly,
			Secure:   c.Secure,
		}
		if stored.Domain == "" {
			stored.Domain = u.Hostname()
			stored.HostOnly = true
		}
		if stored.Path == "" {
			stored.Path = "/"
		}

		key := cookieKey{domain: stored.Domain, path: stored.Path, name: stored.Name}
		switch {
		case c.MaxAge < 0:
			delete(j.cookies, key)
			continue
		case c.MaxAge > 0:
			stored.Expires = float64(now.Add(time.Duration(c.MaxAge) * time.Second).Unix())
		case !c.Expires.IsZero():
			if !c.Expires.After(now) {
				delete(j.cookies, key)
				continue
			}
			stored.Expires = float64(c.Expires.Unix())
		}
		j.cookies[key] = stored
	}
}

func (j *recordingJar) restore(state StorageState, scheme string) {
	now := float64(time.Now().Unix())
	for _, c := range state.Cookies {
		if c.Expires > 0 && c.Expires <= now {
			continue
		}
		cookie := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			HttpOnly: c.HttpOnly,
			Secure:   c.Secure,
		}
		if !c.HostOnly {
			cookie.Domain = c.Domain
		}
		if c.Expires > 0 {
			cookie.Expires = time.Unix(int64(c.Expires), 0)
		}
		u := &url.URL{Scheme: scheme, Host: c.Domain, Path: "/"}
		if c.Secure {
			u.Scheme = "https"
		}
		j.SetCookies(u, []*http.Cookie{cookie})
	}
}

func (j *recordingJar) state() StorageState {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := float64(time.Now().Unix())
	state := StorageState{Cookies: []StoredCookie{}}
	for _, c := range j.cookies {
		if c.Expires > 0 && c.Expires <= now {
			continue
		}
		state.Cookies = append(state.Cookies, c)
	}
	sort.Slice(state.Cookies, func(i, k int) bool {
		a, b := state.Cookies[i], state.Cookies[k]
		if a.Domain != b.Domain {
			return a.Domain < b.Domain
		}
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return a.Name < b.Name
	})
	return state
}
