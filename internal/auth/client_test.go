package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/acme/contact-center-samples/pkg/errors"
)

type memoryCache struct {
	mu     sync.Mutex
	tokens map[string]string
	ttls   map[string]time.Duration
}

func newMemoryCache() *memoryCache {
	return &memoryCache{tokens: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCache) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.tokens[key]
	return v, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[key] = token
	m.ttls[key] = ttl
	return nil
}

var testGrant = PasswordGrant{
	ClientID:     "cid",
	ClientSecret: "secret",
	Username:     "agent",
	Password:     "pw",
}

func TestBasicAuthorization(t *testing.T) {
	// base64("cid:secret")
	assert.Equal(t, "Basic Y2lkOnNlY3JldA==", BasicAuthorization("cid", "secret"))
}

func TestRetrieveTokenSendsPasswordGrant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v3/oauth/token", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Basic Y2lkOnNlY3JldA==", r.Header.Get("Authorization"))
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))
		assert.Equal(t, "*", r.PostForm.Get("scope"))
		assert.Equal(t, "cid", r.PostForm.Get("client_id"))
		assert.Equal(t, "agent", r.PostForm.Get("username"))
		assert.Equal(t, "pw", r.PostForm.Get("password"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","token_type":"bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	token, err := NewClient(srv.URL, "key").RetrieveToken(context.Background(), testGrant)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token.AccessToken)
	assert.Equal(t, 3600, token.ExpiresIn)
}

func TestRetrieveTokenDoesNotFollowRedirects(t *testing.T) {
	followed := false
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v3/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	})
	mux.HandleFunc("/elsewhere", func(w http.ResponseWriter, r *http.Request) {
		followed = true
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := NewClient(srv.URL, "key").RetrieveToken(context.Background(), testGrant)
	require.Error(t, err)
	assert.False(t, followed)

	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusFound, authErr.StatusCode)
	assert.ErrorIs(t, err, apperrors.ErrVendor)
}

func TestRetrieveTokenRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Bad credentials"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "key").RetrieveToken(context.Background(), testGrant)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.Contains(t, err.Error(), "Bad credentials")
}

func TestRetrieveTokenUsesCache(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"access_token":"tok-cached","token_type":"bearer","expires_in":120}`))
	}))
	defer srv.Close()

	cache := newMemoryCache()
	client := NewClient(srv.URL, "key", WithTokenCache(cache, 30*time.Second))

	first, err := client.RetrieveToken(context.Background(), testGrant)
	require.NoError(t, err)
	second, err := client.RetrieveToken(context.Background(), testGrant)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first.AccessToken, second.AccessToken)
	assert.Equal(t, 90*time.Second, cache.ttls["cid:agent"])
}

func TestRetrieveTokenValidatesGrant(t *testing.T) {
	_, err := NewClient("http://127.0.0.1:0", "key").RetrieveToken(context.Background(), PasswordGrant{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestRetrieveTokenWithoutCacheRequestsEachTime(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":120}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key")
	for i := 0; i < 2; i++ {
		_, err := client.RetrieveToken(context.Background(), testGrant)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
}
