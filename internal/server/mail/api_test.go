package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPISender_Send(t *testing.T) {
	var (
		gotAuth    string
		gotPayload apiPayload
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewAPISender(srv.URL, "key-123", srv.Client())
	err := s.Send(context.Background(), Message{From: "a@x", To: "b@y", Subject: "hi", HTML: "<p>x</p>"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer key-123", gotAuth)
	assert.Equal(t, apiPayload{From: "a@x", To: []string{"b@y"}, Subject: "hi", HTML: "<p>x</p>"}, gotPayload)
}

func TestAPISender_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"bad key"}`))
	}))
	defer srv.Close()

	err := NewAPISender(srv.URL, "bad", nil).Send(context.Background(), Message{To: "b@y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "bad key")
}

func TestAPISender_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewAPISender(srv.URL, "k", nil).Send(ctx, Message{To: "b@y"})
	assert.ErrorIs(t, err, context.Canceled)
}
