package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/beverages-system/internal/model"
)

type recordingPublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return p.err
}

func TestGateway_PublishesSharedAndPrivate(t *testing.T) {
	pub := &recordingPublisher{}
	g := NewGateway(pub, nil)

	o := &model.Order{ID: "o1", EmployeeID: "u1", Status: model.OrderStatusReady}
	g.OrderChanged(context.Background(), o)

	require.Equal(t, []string{SharedTopic, "/user/u1/queue/orders"}, pub.topics)

	var frame Frame
	require.NoError(t, json.Unmarshal(pub.payloads[1], &frame))
	assert.Equal(t, "/user/u1/queue/orders", frame.Topic)
	require.NotNil(t, frame.Order)
	assert.Equal(t, "o1", frame.Order.ID)
	assert.Equal(t, model.OrderStatusReady, frame.Order.Status)
}

func TestGateway_SwallowsPublishErrors(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	g := NewGateway(pub, nil)

	assert.NotPanics(t, func() {
		g.OrderChanged(context.Background(), &model.Order{ID: "o1", EmployeeID: "u1"})
	})
	assert.Len(t, pub.topics, 2)
}

func dialHub(t *testing.T, hub *Hub, userID string, role model.Role) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.ServeClient(conn, userID, role)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(msg)
}

func TestHub_DeliversByTopic(t *testing.T) {
	hub := NewHub(nil)
	ctx := context.Background()

	employee := dialHub(t, hub, "emp", model.RoleEmployee)
	worker := dialHub(t, hub, "wrk", model.RoleWorker)

	require.Eventually(t, func() bool { return hub.Clients() == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(ctx, SharedTopic, []byte("shared")))
	require.NoError(t, hub.Publish(ctx, UserTopic("emp"), []byte("private-emp")))

	assert.Equal(t, "shared", readText(t, worker))
	assert.Equal(t, "private-emp", readText(t, employee), "employees must not receive the shared feed")
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub := NewHub(nil)

	conn := dialHub(t, hub, "u1", model.RoleAdmin)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}
