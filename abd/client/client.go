package client

import (
	"context"
	"fmt"
	"net/rpc"

	"github.com/averywhite/quorumreg/protocol"
	"github.com/charmbracelet/log"
)

// readResult is one replica's reply to an ABD read, or a transport/protocol
// failure (ok=false) counted only as a missing reply for quorum purposes.
type readResult struct {
	value     []byte
	timestamp int64
	ok        bool
}

// writeResult is one replica's reply to an ABD write.
type writeResult struct {
	timestamp int64
	ok        bool
}

// readFromAll dispatches an ABDReadReq to every replica in parallel and
// returns one readResult per replica, in replica order. Each RPC carries its
// own 5-second deadline; a replica that misses it is reported as !ok.
func (c *Client) readFromAll(ctx context.Context, key string) []readResult {
	results := make([]readResult, len(c.Servers))
	done := make(chan struct{}, len(c.Servers))

	for i, conn := range c.Servers {
		go func(i int, conn protocol.Connection) {
			defer func() { done <- struct{}{} }()

			rctx, cancel := context.WithTimeout(ctx, rpcTimeout)
			defer cancel()

			rc, err := c.pool.Get(rctx, conn)
			if err != nil {
				return
			}

			var resp protocol.ABDReadResp
			req := protocol.ABDReadReq{Key: key, Timestamp: c.clock.Peek()}
			call := rc.Go("ABDServer.HandleRead", &req, &resp, make(chan *rpc.Call, 1))
			select {
			case <-call.Done:
				if call.Error != nil {
					c.pool.Evict(conn)
					return
				}
				results[i] = readResult{value: resp.Value, timestamp: resp.Timestamp, ok: resp.Success}
			case <-rctx.Done():
				c.pool.Evict(conn)
			}
		}(i, conn)
	}

	for range c.Servers {
		<-done
	}
	return results
}

// writeToAll dispatches an ABDWriteReq to every replica in parallel and
// returns one writeResult per replica, in replica order.
func (c *Client) writeToAll(ctx context.Context, key string, value []byte, timestamp int64) []writeResult {
	results := make([]writeResult, len(c.Servers))
	done := make(chan struct{}, len(c.Servers))

	for i, conn := range c.Servers {
		go func(i int, conn protocol.Connection) {
			defer func() { done <- struct{}{} }()

			rctx, cancel := context.WithTimeout(ctx, rpcTimeout)
			defer cancel()

			rc, err := c.pool.Get(rctx, conn)
			if err != nil {
				return
			}

			var resp protocol.ABDWriteResp
			req := protocol.ABDWriteReq{Key: key, Value: value, Timestamp: timestamp}
			call := rc.Go("ABDServer.HandleWrite", &req, &resp, make(chan *rpc.Call, 1))
			select {
			case <-call.Done:
				if call.Error != nil {
					c.pool.Evict(conn)
					return
				}
				results[i] = writeResult{timestamp: resp.Timestamp, ok: resp.Success}
			case <-rctx.Done():
				c.pool.Evict(conn)
			}
		}(i, conn)
	}

	for range c.Servers {
		<-done
	}
	return results
}

// Read performs the ABD two-phase read: query all replicas, take the value
// with the maximum timestamp among the successful replies, then write that
// value back to a write quorum before returning it. This is the write-back
// phase that prevents read-after-read inversions.
func (c *Client) Read(ctx context.Context, key string) ([]byte, error) {
	results := c.readFromAll(ctx, key)

	var maxVal []byte
	var maxTS int64
	seen := 0
	haveAny := false
	for _, r := range results {
		if !r.ok {
			continue
		}
		seen++
		if !haveAny || r.timestamp > maxTS {
			haveAny = true
			maxTS = r.timestamp
			maxVal = r.value
		}
	}
	if seen < c.R {
		return nil, fmt.Errorf("read quorum not achieved: got %d replies, need %d", seen, c.R)
	}

	writebackTS := maxTS
	if peek := c.clock.Peek(); peek > writebackTS {
		writebackTS = peek
	}
	writebackTS++
	c.clock.Raise(writebackTS)

	wresults := c.writeToAll(ctx, key, maxVal, writebackTS)
	acked := 0
	for _, wr := range wresults {
		if wr.ok {
			acked++
			c.clock.Raise(wr.timestamp)
		}
	}
	if acked < c.W {
		return nil, fmt.Errorf("write-back quorum not achieved: got %d acks, need %d", acked, c.W)
	}

	log.Debugf("abd read key=%q value=%q ts=%d", key, maxVal, writebackTS)
	return maxVal, nil
}

// Write performs the ABD single-phase write: issue a strictly-increasing
// timestamp, dispatch to every replica, and succeed once W replicas have
// acknowledged.
func (c *Client) Write(ctx context.Context, key string, value []byte) error {
	timestamp := c.clock.Issue()

	results := c.writeToAll(ctx, key, value, timestamp)
	acked := 0
	for _, r := range results {
		if r.ok {
			acked++
			c.clock.Raise(r.timestamp)
		}
	}
	if acked < c.W {
		return fmt.Errorf("write quorum not achieved: got %d acks, need %d", acked, c.W)
	}

	log.Debugf("abd write key=%q ts=%d acks=%d", key, timestamp, acked)
	return nil
}
