package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-vault/pkg/solana"
)

type incoming struct {
	ID     int           `json:"id"`
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
}

type testEnv struct {
	server   *httptest.Server
	client   *Client
	requests chan incoming
}

// setup starts a pubsub server that answers subscriptions with id 42 and then
// runs notify against the connection.
func setup(t *testing.T, notify func(conn *websocket.Conn)) *testEnv {
	env := &testEnv{
		requests: make(chan incoming, 10),
	}

	upgrader := websocket.Upgrader{}
	env.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			var req incoming
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			env.requests <- req

			switch req.Method {
			case "signatureSubscribe":
				if notify == nil {
					_ = conn.WriteJSON(map[string]interface{}{
						"jsonrpc": "2.0",
						"id":      req.ID,
						"error":   map[string]interface{}{"code": -32602, "message": "Invalid Request"},
					})
					continue
				}

				_ = conn.WriteJSON(map[string]interface{}{
					"jsonrpc": "2.0",
					"id":      req.ID,
					"result":  42,
				})
				notify(conn)
			case "signatureUnsubscribe":
				_ = conn.WriteJSON(map[string]interface{}{
					"jsonrpc": "2.0",
					"id":      req.ID,
					"result":  true,
				})
			}
		}
	}))
	t.Cleanup(env.server.Close)

	env.client = New("ws" + strings.TrimPrefix(env.server.URL, "http"))
	return env
}

func notification(subscription uint64, err interface{}) map[string]interface{} {
	return map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  "signatureNotification",
		"params": map[string]interface{}{
			"result": map[string]interface{}{
				"context": map[string]interface{}{"slot": 5207624},
				"value":   map[string]interface{}{"err": err},
			},
			"subscription": subscription,
		},
	}
}

func TestSubscribeSignature_Success(t *testing.T) {
	env := setup(t, func(conn *websocket.Conn) {
		// Notifications for other subscriptions are ignored
		_ = conn.WriteJSON(notification(7, "AccountInUse"))
		_ = conn.WriteJSON(notification(42, nil))
	})

	sig := solana.Signature{1, 2, 3}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := env.client.SubscribeSignature(ctx, sig, solana.CommitmentConfirmed)
	require.NoError(t, err)
	defer sub.Close()

	req := <-env.requests
	assert.Equal(t, "signatureSubscribe", req.Method)
	require.Len(t, req.Params, 2)
	assert.Equal(t, sig.String(), req.Params[0])
	assert.Equal(t, map[string]interface{}{"commitment": "confirmed"}, req.Params[1])

	result, err := sub.Recv(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5207624, result.Slot)
	assert.Nil(t, result.Err)

	require.NoError(t, sub.Close())
	assert.NoError(t, sub.Close())
}

func TestSubscribeSignature_TransactionError(t *testing.T) {
	env := setup(t, func(conn *websocket.Conn) {
		_ = conn.WriteJSON(notification(42, map[string]interface{}{
			"InstructionError": []interface{}{0, map[string]interface{}{"Custom": 6000}},
		}))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := env.client.SubscribeSignature(ctx, solana.Signature{9}, solana.CommitmentFinalized)
	require.NoError(t, err)
	defer sub.Close()

	result, err := sub.Recv(ctx)
	require.NoError(t, err)
	require.NotNil(t, result.Err)
	assert.Equal(t, solana.TransactionErrorInstructionError, result.Err.ErrorKey())
	assert.Equal(t, solana.CustomError(6000), *result.Err.InstructionError().CustomError())
}

func TestSubscribeSignature_Rejected(t *testing.T) {
	env := setup(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := env.client.SubscribeSignature(ctx, solana.Signature{1}, solana.CommitmentConfirmed)
	assert.Error(t, err)
}

func TestSubscribeSignature_DialFailure(t *testing.T) {
	client := New("ws://127.0.0.1:1")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.SubscribeSignature(ctx, solana.Signature{1}, solana.CommitmentConfirmed)
	assert.Error(t, err)
}

func TestSubscription_RecvCancelled(t *testing.T) {
	// The server never notifies
	env := setup(t, func(conn *websocket.Conn) {})

	sub, err := env.client.SubscribeSignature(context.Background(), solana.Signature{1}, solana.CommitmentConfirmed)
	require.NoError(t, err)
	defer sub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = sub.Recv(ctx)
	assert.Equal(t, context.DeadlineExceeded, err)
	assert.True(t, time.Since(start) < time.Second)
}
