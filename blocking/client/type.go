// Package client implements the blocking client engine: lock a read or
// write quorum, perform the operation, then release. Unlike ABD there is no
// write-back on read — the exclusive lock discipline is what makes the
// protocol linearizable.
package client

import (
	"fmt"
	"time"

	"github.com/averywhite/quorumreg/protocol"
	"github.com/averywhite/quorumreg/ts"
)

// rpcTimeout is the per-RPC deadline applied to the blocking protocol's
// lock, read, write, and unlock RPCs.
const rpcTimeout = 5 * time.Second

// Client is a blocking client engine bound to a fixed replica set, quorum
// sizes, and a stable client identifier.
type Client struct {
	Servers  []protocol.Connection
	R, W     int
	ClientID int32

	clock *ts.ClientClock
	pool  *protocol.Pool
}

// New returns a Client configured against servers with read quorum r, write
// quorum w, and the given stable clientID.
func New(servers []protocol.Connection, r, w int, clientID int32) (*Client, error) {
	if r > len(servers) || w > len(servers) {
		return nil, fmt.Errorf("quorum (r=%d, w=%d) exceeds replica count %d", r, w, len(servers))
	}
	return &Client{
		Servers:  servers,
		R:        r,
		W:        w,
		ClientID: clientID,
		clock:    ts.NewClientClock(),
		pool:     protocol.NewPool(),
	}, nil
}

// CurrentTimestamp returns the client's logical clock value without
// mutating it, satisfying the register.Register façade.
func (c *Client) CurrentTimestamp() int64 {
	return c.clock.Peek()
}

// Close releases pooled connections.
func (c *Client) Close() {
	c.pool.Close()
}
