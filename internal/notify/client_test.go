package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/beverages-system/internal/model"
)

func testNotification() model.Notification {
	return model.Notification{
		ID:     "n1",
		UserID: "u1",
		Title:  "Order is ready",
		Body:   "Your order abc is now READY",
		Type:   model.NotificationTypeOrderStatus,
		Data:   map[string]string{"orderId": "abc", "status": "READY"},
	}
}

func TestSend_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/push", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req PushRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "n1", req.NotificationID)
		assert.Equal(t, "u1", req.UserID)
		assert.Equal(t, "READY", req.Data["status"])
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, client.Send(ctx, testNotification()))
}

func TestSend_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, nil)

	err := client.Send(context.Background(), testNotification())
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestSend_ServerErrorRetried(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, nil)
	client.httpClient.RetryWaitMin = time.Millisecond
	client.httpClient.RetryWaitMax = 5 * time.Millisecond

	require.NoError(t, client.Send(context.Background(), testNotification()))
	assert.EqualValues(t, 2, calls.Load())
}

func TestNewClient_AddsScheme(t *testing.T) {
	c := NewClient("localhost:9090/", nil)
	assert.Equal(t, "http://localhost:9090", c.baseURL)
}
