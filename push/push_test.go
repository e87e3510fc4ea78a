package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPush(t *testing.T) {
	var received Result
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	t.Setenv("TEST_DB_URL", srv.URL)
	t.Setenv("DEPLOY_SCENARIO", "ha-mode")

	c := NewClient(log.New())
	require.True(t, c.Enabled())

	err := c.Push(context.Background(), Result{
		ProjectName: "proj",
		CaseName:    "connection-check",
		Criteria:    "PASS",
		StartDate:   time.Now().Add(-time.Minute),
		StopDate:    time.Now(),
	})
	require.NoError(t, err)

	assert.Equal(t, "connection-check", received.CaseName)
	assert.Equal(t, "PASS", received.Criteria)
	assert.Equal(t, "ha-mode", received.Scenario, "ambient scenario fills empty fields")
	assert.NotEmpty(t, received.ID, "an id is generated when absent")
}

func TestPushServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	t.Setenv("TEST_DB_URL", srv.URL)
	c := NewClient(log.New())
	require.Error(t, c.Push(context.Background(), Result{CaseName: "x"}))
}

func TestPushDisabledClient(t *testing.T) {
	t.Setenv("TEST_DB_URL", "")
	c := NewClient(log.New())
	assert.False(t, c.Enabled())
	assert.NoError(t, c.Push(context.Background(), Result{CaseName: "x"}))
}
