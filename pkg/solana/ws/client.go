// Package ws provides a minimal Solana pubsub client for observing transaction
// signatures over a websocket.
//
// Reference: https://solana.com/docs/rpc/websocket/signaturesubscribe
package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-vault/pkg/solana"
)

const (
	subscribeRequestID   = 1
	unsubscribeRequestID = 2

	signatureNotificationMethod = "signatureNotification"
)

var (
	ErrSubscriptionClosed = errors.New("subscription closed")
)

// SignatureResult is the outcome of a signature once it reaches the requested
// commitment. Err is nil when the transaction executed successfully.
type SignatureResult struct {
	Slot uint64
	Err  *solana.TransactionError
}

// Client opens signature subscriptions against a pubsub endpoint.
type Client struct {
	log      *logrus.Entry
	endpoint string
	dialer   *websocket.Dialer
}

// New returns a client for the provided ws:// or wss:// endpoint.
func New(endpoint string) *Client {
	return &Client{
		log:      logrus.StandardLogger().WithField("type", "solana/ws"),
		endpoint: endpoint,
		dialer:   websocket.DefaultDialer,
	}
}

type request struct {
	Version string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type message struct {
	ID     *int            `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
	Method string          `json:"method"`
	Params *struct {
		Result struct {
			Context struct {
				Slot uint64 `json:"slot"`
			} `json:"context"`
			Value json.RawMessage `json:"value"`
		} `json:"result"`
		Subscription uint64 `json:"subscription"`
	} `json:"params"`
}

// Subscription is a single signatureSubscribe stream. The node sends one
// notification and then drops the subscription on its side.
type Subscription struct {
	log  *logrus.Entry
	conn *websocket.Conn
	id   uint64

	closeOnce sync.Once
}

// SubscribeSignature opens a connection and subscribes to sig at the provided
// commitment. The returned subscription must be closed by the caller.
func (c *Client) SubscribeSignature(ctx context.Context, sig solana.Signature, commitment solana.Commitment) (*Subscription, error) {
	log := c.log.WithFields(logrus.Fields{
		"method":    "SubscribeSignature",
		"signature": sig.String(),
	})

	conn, _, err := c.dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "error dialing pubsub endpoint")
	}

	req := request{
		Version: "2.0",
		ID:      subscribeRequestID,
		Method:  "signatureSubscribe",
		Params:  []interface{}{sig.String(), commitment},
	}
	if err := conn.WriteJSON(req); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "error sending subscription request")
	}

	var id uint64
	err = boundedRead(ctx, conn, func(msg *message) (bool, error) {
		if msg.ID == nil || *msg.ID != subscribeRequestID {
			return false, nil
		}
		if msg.Error != nil {
			return true, errors.Errorf("subscription rejected: %d %s", msg.Error.Code, msg.Error.Message)
		}
		if err := json.Unmarshal(msg.Result, &id); err != nil {
			return true, errors.Wrap(err, "invalid subscription id")
		}
		return true, nil
	})
	if err != nil {
		conn.Close()
		return nil, err
	}

	log.WithField("subscription", id).Debug("subscription started")

	return &Subscription{
		log:  log.WithField("subscription", id),
		conn: conn,
		id:   id,
	}, nil
}

// Recv blocks until the signature notification arrives or ctx is done.
func (s *Subscription) Recv(ctx context.Context) (*SignatureResult, error) {
	var result *SignatureResult
	err := boundedRead(ctx, s.conn, func(msg *message) (bool, error) {
		if msg.Method != signatureNotificationMethod || msg.Params == nil {
			return false, nil
		}
		if msg.Params.Subscription != s.id {
			return false, nil
		}

		parsed, err := parseSignatureValue(msg.Params.Result.Value)
		if err != nil {
			return true, err
		}

		parsed.Slot = msg.Params.Result.Context.Slot
		result = parsed
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Close unsubscribes and closes the underlying connection.
func (s *Subscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		// Best effort, the node also cleans up when the connection drops
		_ = s.conn.WriteJSON(request{
			Version: "2.0",
			ID:      unsubscribeRequestID,
			Method:  "signatureUnsubscribe",
			Params:  []interface{}{s.id},
		})

		err = s.conn.Close()
		s.log.Debug("subscription stopped")
	})
	return err
}

// boundedRead reads messages until handle reports it is done, or ctx is
// done. The connection is closed when ctx ends first so the reader unblocks.
func boundedRead(ctx context.Context, conn *websocket.Conn, handle func(*message) (bool, error)) error {
	done := make(chan error, 1)
	go func() {
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					err = ErrSubscriptionClosed
				}
				done <- err
				return
			}

			var msg message
			if err := json.Unmarshal(raw, &msg); err != nil {
				continue
			}

			finished, err := handle(&msg)
			if finished || err != nil {
				done <- err
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
		conn.Close()
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func parseSignatureValue(value json.RawMessage) (*SignatureResult, error) {
	var decoded struct {
		Err interface{} `json:"err"`
	}

	decoder := json.NewDecoder(bytes.NewReader(value))
	decoder.UseNumber()
	if err := decoder.Decode(&decoded); err != nil {
		return nil, errors.Wrap(err, "invalid signature notification")
	}

	txErr, err := solana.ParseTransactionError(decoded.Err)
	if txErr == nil && err != nil {
		return nil, errors.Wrap(err, "invalid transaction error in notification")
	}

	return &SignatureResult{Err: txErr}, nil
}
