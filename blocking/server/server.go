package server

import (
	"net"
	"net/rpc"
	"time"

	"github.com/averywhite/quorumreg/protocol"
	"github.com/charmbracelet/log"
)

// HandleAcquireLock grants req.ClientID the lock on req.Key if the key is
// unlocked, the existing lock has timed out, or req.ClientID already owns
// it (re-entrant re-grant). Otherwise the lock is denied. This never blocks:
// the blocking protocol's blocking behavior is a client-visible retry
// pattern, not a server-side wait.
func (s *Server) HandleAcquireLock(req *protocol.BlockingLockReq, reply *protocol.BlockingLockResp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if l, held := s.locks[req.Key]; held {
		if l.owner != req.ClientID && now.Sub(l.acquiredAt) <= LockTimeout {
			reply.Granted = false
			reply.Timestamp = s.clock.Peek()
			return nil
		}
		// Either the same client re-acquiring, or the old lock timed out.
	}
	s.locks[req.Key] = lockEntry{owner: req.ClientID, acquiredAt: now}
	reply.Granted = true
	reply.Timestamp = s.clock.Peek()
	return nil
}

// HandleReleaseLock removes the lock on req.Key iff it is currently held by
// req.ClientID.
func (s *Server) HandleReleaseLock(req *protocol.BlockingUnlockReq, reply *protocol.BlockingUnlockResp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, held := s.locks[req.Key]
	if held && l.owner == req.ClientID {
		delete(s.locks, req.Key)
		reply.Success = true
		return nil
	}
	reply.Success = false
	return nil
}

// HandleRead returns the stored (value, ts) pair for req.Key iff req.ClientID
// currently holds the lock for it.
func (s *Server) HandleRead(req *protocol.BlockingReadReq, reply *protocol.BlockingReadResp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ownsLock(req.Key, req.ClientID) {
		reply.Success = false
		return nil
	}

	e, ok := s.store[req.Key]
	if !ok {
		reply.Value = nil
		reply.Timestamp = 0
		reply.Success = true
		return nil
	}
	reply.Value = e.value
	reply.Timestamp = e.ts
	reply.Success = true
	return nil
}

// HandleWrite stores req.Value under req.Key, assigning
// max(req.Timestamp, s.clock.Next()), iff req.ClientID currently holds the
// lock for req.Key.
func (s *Server) HandleWrite(req *protocol.BlockingWriteReq, reply *protocol.BlockingWriteResp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ownsLock(req.Key, req.ClientID) {
		reply.Success = false
		return nil
	}

	final := req.Timestamp
	if generated := s.clock.Next(); generated > final {
		final = generated
	}
	s.store[req.Key] = entry{value: req.Value, ts: final}
	reply.Timestamp = final
	reply.Success = true
	return nil
}

// ownsLock reports whether clientID is recorded as the owner of key's lock.
// Expiry is only checked in HandleAcquireLock, at the point a new acquirer
// shows up; a read or write from the original (even now-expired) owner
// still succeeds until someone else reclaims the lock. Must be called with
// s.mu held.
func (s *Server) ownsLock(key string, clientID int32) bool {
	l, held := s.locks[key]
	return held && l.owner == clientID
}

// Start registers the server and serves RPCs until the listener fails.
func (s *Server) Start() error {
	log.Debugf("starting blocking server %d", s.ID)

	l, err := net.Listen(s.Self.Network, s.Self.Address)
	if err != nil {
		return err
	}
	defer l.Close()
	log.Infof("blocking server %d listening on %s", s.ID, s.Self.Address)

	srv := rpc.NewServer()
	if err := srv.RegisterName("BlockingServer", s); err != nil {
		return err
	}

	for {
		conn, err := l.Accept()
		if err != nil {
			log.Errorf("blocking server %d accept error: %v", s.ID, err)
			return err
		}
		go srv.ServeConn(conn)
	}
}
