package directline

import (
	"context"
	"encoding/json"
	"errors"
	"net"

	"github.com/gorilla/websocket"
)

// StreamActivities listens on a conversation's streaming socket,
// accumulating activities until done reports the reply has arrived or
// the context deadline elapses. On a clean timeout the activities
// collected so far are returned without error; the caller decides what
// an absent reply means.
func (c *Client) StreamActivities(ctx context.Context, streamURL string, done func([]Activity) bool) ([]Activity, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, streamURL, nil)
	if err != nil {
		te := &TransportError{Op: "stream", Err: err}
		if resp != nil {
			te.Status = resp.StatusCode
		}
		return nil, te
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
	}

	var all []Activity
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				return all, nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return all, nil
			}
			return all, &TransportError{Op: "stream", Err: err}
		}

		// Direct Line sends empty frames as keepalives.
		if len(msg) == 0 {
			continue
		}

		var set ActivitySet
		if err := json.Unmarshal(msg, &set); err != nil {
			c.log.Warn().Err(err).Msg("discarding malformed stream frame")
			continue
		}
		all = append(all, set.Activities...)

		if done(all) {
			return all, nil
		}
	}
}
