package client

import (
	"context"
	"fmt"

	"github.com/averywhite/quorumreg/protocol"
	"github.com/charmbracelet/log"
)

// call performs one synchronous RPC over the pooled connection to conn,
// evicting it from the pool on any failure so the next attempt re-dials.
func (c *Client) call(ctx context.Context, conn protocol.Connection, method string, args, reply any) error {
	rctx, cancel := context.WithTimeout(ctx, rpcTimeout)
	defer cancel()

	rc, err := c.pool.Get(rctx, conn)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- rc.Call(method, args, reply) }()

	select {
	case err := <-errCh:
		if err != nil {
			c.pool.Evict(conn)
			return err
		}
		return nil
	case <-rctx.Done():
		c.pool.Evict(conn)
		return rctx.Err()
	}
}

// acquireAll dispatches AcquireLock to every replica in parallel and
// returns, per replica index, whether the lock was granted.
func (c *Client) acquireAll(ctx context.Context, key string) []bool {
	granted := make([]bool, len(c.Servers))
	done := make(chan struct{}, len(c.Servers))

	for i, conn := range c.Servers {
		go func(i int, conn protocol.Connection) {
			defer func() { done <- struct{}{} }()
			var resp protocol.BlockingLockResp
			req := protocol.BlockingLockReq{Key: key, ClientID: c.ClientID}
			if err := c.call(ctx, conn, "BlockingServer.HandleAcquireLock", &req, &resp); err == nil {
				granted[i] = resp.Granted
			}
		}(i, conn)
	}
	for range c.Servers {
		<-done
	}
	return granted
}

// releaseIndices best-effort releases the lock on key at every replica index
// in indices, in parallel. A release that itself fails is silently accepted;
// the server's lock timeout is the safety net for a client that never
// manages to release.
func (c *Client) releaseIndices(ctx context.Context, key string, indices []int) {
	done := make(chan struct{}, len(indices))
	for _, idx := range indices {
		go func(idx int) {
			defer func() { done <- struct{}{} }()
			var resp protocol.BlockingUnlockResp
			req := protocol.BlockingUnlockReq{Key: key, ClientID: c.ClientID}
			_ = c.call(ctx, c.Servers[idx], "BlockingServer.HandleReleaseLock", &req, &resp)
		}(idx)
	}
	for range indices {
		<-done
	}
}

func grantedIndices(granted []bool) []int {
	var out []int
	for i, g := range granted {
		if g {
			out = append(out, i)
		}
	}
	return out
}

// Write locks a write quorum, applies the write to every replica it locked,
// releases all held locks, and succeeds iff at least W writes landed.
func (c *Client) Write(ctx context.Context, key string, value []byte) error {
	granted := c.acquireAll(ctx, key)
	locked := grantedIndices(granted)

	if len(locked) < c.W {
		c.releaseIndices(ctx, key, locked)
		return fmt.Errorf("lock quorum not achieved: got %d grants, need %d", len(locked), c.W)
	}

	timestamp := c.clock.Issue()

	written := 0
	for _, idx := range locked {
		var resp protocol.BlockingWriteResp
		req := protocol.BlockingWriteReq{Key: key, Value: value, Timestamp: timestamp, ClientID: c.ClientID}
		if err := c.call(ctx, c.Servers[idx], "BlockingServer.HandleWrite", &req, &resp); err == nil && resp.Success {
			written++
			c.clock.Raise(resp.Timestamp)
		}
	}

	c.releaseIndices(ctx, key, locked)

	if written < c.W {
		return fmt.Errorf("write quorum not achieved: got %d writes, need %d", written, c.W)
	}
	log.Debugf("blocking write key=%q ts=%d writes=%d", key, timestamp, written)
	return nil
}

// Read locks a read quorum, reads from every replica it locked, releases all
// held locks, and returns the value with the highest timestamp among the
// successful reads. No write-back is performed: the exclusive lock
// discipline is what makes this linearizable.
func (c *Client) Read(ctx context.Context, key string) ([]byte, error) {
	granted := c.acquireAll(ctx, key)
	locked := grantedIndices(granted)

	if len(locked) < c.R {
		c.releaseIndices(ctx, key, locked)
		return nil, fmt.Errorf("lock quorum not achieved: got %d grants, need %d", len(locked), c.R)
	}

	var maxVal []byte
	var maxTS int64
	haveAny := false
	for _, idx := range locked {
		var resp protocol.BlockingReadResp
		req := protocol.BlockingReadReq{Key: key, ClientID: c.ClientID}
		if err := c.call(ctx, c.Servers[idx], "BlockingServer.HandleRead", &req, &resp); err != nil || !resp.Success {
			continue
		}
		if !haveAny || resp.Timestamp > maxTS {
			haveAny = true
			maxTS = resp.Timestamp
			maxVal = resp.Value
		}
	}

	c.releaseIndices(ctx, key, locked)

	if !haveAny {
		return nil, fmt.Errorf("no successful reads among %d locked replicas", len(locked))
	}
	c.clock.Raise(maxTS)
	log.Debugf("blocking read key=%q value=%q ts=%d", key, maxVal, maxTS)
	return maxVal, nil
}
