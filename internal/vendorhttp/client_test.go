package vendorhttp

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientDefaults(t *testing.T) {
	c := NewClient()
	assert.Equal(t, defaultTimeout, c.Timeout)
	assert.Nil(t, c.Jar)
	assert.Nil(t, c.CheckRedirect)

	assert.Equal(t, 5*time.Second, NewClient(WithTimeout(5*time.Second)).Timeout)
	assert.Equal(t, defaultTimeout, NewClient(WithTimeout(0)).Timeout)
}

func TestCookieJarKeepsSession(t *testing.T) {
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			http.SetCookie(w, &http.Cookie{Name: "SESSION", Value: "abc", Path: "/"})
			return
		}
		if ck, err := r.Cookie("SESSION"); err == nil {
			seen = ck.Value
		}
	}))
	defer srv.Close()

	c := NewClient(WithCookieJar())
	resp, err := c.Get(srv.URL + "/login")
	require.NoError(t, err)
	resp.Body.Close()
	resp, err = c.Get(srv.URL + "/next")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "abc", seen)
}

func TestWithoutRedirectsReturnsRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	}))
	defer srv.Close()

	resp, err := NewClient(WithoutRedirects()).Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}
