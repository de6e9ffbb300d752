package poster

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autopost/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *XClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	t.Setenv("X_ACCESS_TOKEN", "token-123")
	c, err := NewXClient(config.PostingConfig{BaseURL: srv.URL, MaxLength: 280, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

func TestXClientPost(t *testing.T) {
	var gotAuth, gotPath string
	var gotReq createTweetRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"1850000000000000001","text":"秋の朝"}}`))
	})

	res, err := c.Post(context.Background(), "秋の朝")
	require.NoError(t, err)

	assert.Equal(t, "Bearer token-123", gotAuth)
	assert.Equal(t, "/2/tweets", gotPath)
	assert.Equal(t, "秋の朝", gotReq.Text)
	assert.Equal(t, &PostResult{ExternalID: "1850000000000000001", Text: "秋の朝"}, res)
	assert.Equal(t, 280, c.MaxLength())
}

func TestXClientRejectsTooLongTextWithoutCalling(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := c.Post(context.Background(), strings.Repeat("あ", 281))
	assert.ErrorIs(t, err, ErrTextTooLong)
	assert.True(t, IsPermanent(err))
	assert.False(t, called)

	// 280 자는 허용된다.
	_, err = c.Post(context.Background(), strings.Repeat("あ", 280))
	assert.NotErrorIs(t, err, ErrTextTooLong)
}

func TestXClientHTTPErrors(t *testing.T) {
	tests := []struct {
		status    int
		permanent bool
	}{
		{http.StatusUnauthorized, true},
		{http.StatusForbidden, true},
		{http.StatusTooManyRequests, false},
		{http.StatusServiceUnavailable, false},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"title":"error"}`))
			})

			_, err := c.Post(context.Background(), "hello")
			var httpErr *HTTPError
			require.True(t, errors.As(err, &httpErr))
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, tt.permanent, IsPermanent(err))
		})
	}
}

func TestXClientRejectsResponseWithoutID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{}}`))
	})

	_, err := c.Post(context.Background(), "hello")
	assert.Error(t, err)
	assert.False(t, IsPermanent(err))
}

func TestNewXClientRequiresToken(t *testing.T) {
	t.Setenv("X_ACCESS_TOKEN", "")
	_, err := NewXClient(config.PostingConfig{})
	assert.ErrorContains(t, err, "X_ACCESS_TOKEN")
}
