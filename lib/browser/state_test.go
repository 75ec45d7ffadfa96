package browser

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecordingJar(t *testing.T) {
	jar, err := newRecordingJar()
	require.NoError(t, err)

	site := &url.URL{Scheme: "https", Host: "center.example.org", Path: "/"}
	jar.SetCookies(site, []*http.Cookie{
		{Name: "session", Value: "a"},
		{Name: "prefs", Value: "he", Domain: ".example.org", Path: "/", MaxAge: 3600},
		{Name: "stale", Value: "x", Expires: time.Now().Add(-time.Hour)},
	})

	state := jar.state()
	require.Len(t, state.Cookies, 2)
	require.Equal(t, "center.example.org", state.Cookies[0].Domain)
	require.Equal(t, "session", state.Cookies[0].Name)
	require.True(t, state.Cookies[0].HostOnly)
	require.Equal(t, float64(-1), state.Cookies[0].Expires)

	require.Equal(t, "example.org", state.Cookies[1].Domain)
	require.Equal(t, "prefs", state.Cookies[1].Name)
	require.False(t, state.Cookies[1].HostOnly)
	require.Greater(t, state.Cookies[1].Expires, float64(time.Now().Unix()))

	// deleting a cookie drops it from the state
	jar.SetCookies(site, []*http.Cookie{{Name: "session", Value: "", MaxAge: -1}})
	require.Len(t, jar.state().Cookies, 1)

	restored, err := newRecordingJar()
	require.NoError(t, err)
	restored.restore(state, "https")
	require.Len(t, restored.state().Cookies, 2)
	require.Len(t, restored.Cookies(site), 2)
}

func TestRestoreSkipsExpired(t *testing.T) {
	jar, err := newRecordingJar()
	require.NoError(t, err)
	jar.restore(StorageState{Cookies: []StoredCookie{{
		Name:    "old",
		Value:   "v",
		Domain:  "center.example.org",
		Path:    "/",
		Expires: float64(time.Now().Add(-time.Minute).Unix()),
	}}}, "https")
	require.Empty(t, jar.state().Cookies)
}

func TestParseStorageState(t *testing.T) {
	state, err := ParseStorageState(nil)
	require.NoError(t, err)
	require.Empty(t, state.Cookies)

	_, err = ParseStorageState([]byte("{"))
	require.Error(t, err)
}
