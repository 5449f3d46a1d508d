package protocol

import (
	"context"
	"net/rpc"
	"sync"
)

// Pool caches at most one live *rpc.Client per replica address for a single
// client engine, avoiding a fresh dial on every RPC. Get re-dials lazily,
// including after a prior connection has gone bad.
type Pool struct {
	mu      sync.Mutex
	clients map[Connection]*rpc.Client
}

// NewPool returns an empty connection pool.
func NewPool() *Pool {
	return &Pool{clients: make(map[Connection]*rpc.Client)}
}

// Get returns a cached client for conn, dialing a new one if none is cached.
func (p *Pool) Get(ctx context.Context, conn Connection) (*rpc.Client, error) {
	p.mu.Lock()
	if c, ok := p.clients[conn]; ok {
		p.mu.Unlock()
		return c, nil
	}
	p.mu.Unlock()

	c, err := DialContext(ctx, conn)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if existing, ok := p.clients[conn]; ok {
		// Another goroutine raced us and won; keep theirs, close ours.
		p.mu.Unlock()
		c.Close()
		return existing, nil
	}
	p.clients[conn] = c
	p.mu.Unlock()
	return c, nil
}

// Evict drops the cached client for conn, if any, and closes it. Call this
// after an RPC over conn fails so the next Get re-dials instead of reusing a
// broken connection.
func (p *Pool) Evict(conn Connection) {
	p.mu.Lock()
	c, ok := p.clients[conn]
	if ok {
		delete(p.clients, conn)
	}
	p.mu.Unlock()
	if ok {
		c.Close()
	}
}

// Close closes every cached connection.
func (p *Pool) Close() {
	p.mu.Lock()
	clients := p.clients
	p.clients = make(map[Connection]*rpc.Client)
	p.mu.Unlock()
	for _, c := range clients {
		c.Close()
	}
}
