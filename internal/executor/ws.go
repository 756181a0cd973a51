package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/tracelabs/evmtracer/internal/log"
	"github.com/tracelabs/evmtracer/internal/metrics"
	"github.com/tracelabs/evmtracer/internal/state"
)

const (
	methodRunTask    = "executor_runTask"
	methodGetStorage = "executor_getStorage"
)

type wsMessage struct {
	ID     uint64          `json:"id"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *string         `json:"error,omitempty"`
}

// WSClient talks to a wasm executor sidecar over a websocket. The sidecar
// runs the runtime binary and reads the state view through storage callbacks
// served from this side of the connection. Tasks run strictly one at a time.
type WSClient struct {
	conn   *websocket.Conn
	logger zerolog.Logger
	nextID uint64
}

func NewWSClient(url string) (*WSClient, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial executor at %s: %v", url, err)
	}
	return &WSClient{
		conn:   conn,
		logger: log.NewLogger("executor"),
	}, nil
}

func (c *WSClient) Close() error {
	return c.conn.Close()
}

func (c *WSClient) RunTask(ctx context.Context, task Task, view state.Reader) (*TaskResult, error) {
	start := time.Now()
	defer func() {
		metrics.RuntimeTaskDuration.Observe(time.Since(start).Seconds())
	}()

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
	}

	c.nextID++
	requestID := c.nextID

	params, err := json.Marshal(task)
	if err != nil {
		return nil, err
	}
	request := wsMessage{ID: requestID, Method: methodRunTask, Params: params}
	if err := c.conn.WriteJSON(request); err != nil {
		return nil, fmt.Errorf("failed to send runtime task: %v", err)
	}
	c.logger.Debug().Str("entryPoint", task.EntryPoint).Msg("Runtime task sent")

	for {
		var msg wsMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return nil, fmt.Errorf("executor connection failed: %v", err)
		}

		if msg.Method == methodGetStorage {
			if err := c.serveStorageRead(ctx, msg, view); err != nil {
				return nil, err
			}
			continue
		}

		if msg.ID != requestID {
			return nil, fmt.Errorf("executor replied to unknown request id %d", msg.ID)
		}
		if msg.Error != nil {
			return nil, fmt.Errorf("executor fault: %s", *msg.Error)
		}

		var result TaskResult
		if err := json.Unmarshal(msg.Result, &result); err != nil {
			return nil, fmt.Errorf("malformed executor result: %v", err)
		}
		if result.Error != "" {
			metrics.RuntimeTaskErrors.Inc()
		}
		return &result, nil
	}
}

func (c *WSClient) serveStorageRead(ctx context.Context, msg wsMessage, view state.Reader) error {
	var params []string
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return fmt.Errorf("malformed storage read request: %v", err)
	}
	if len(params) != 1 {
		return fmt.Errorf("storage read request with %d params", len(params))
	}

	value, err := view.Get(ctx, params[0])
	if err != nil {
		return fmt.Errorf("failed to read storage key %s: %v", params[0], err)
	}

	result, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.conn.WriteJSON(wsMessage{ID: msg.ID, Result: result})
}
