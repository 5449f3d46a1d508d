package server

import (
	"net"
	"net/rpc"

	"github.com/averywhite/quorumreg/protocol"
	"github.com/charmbracelet/log"
)

// HandleRead replies with the stored (value, ts) pair for req.Key, or the
// (nil, 0) pair if the key has never been written. The read is unconditional
// and ignores any client-supplied timestamp; quorum-driven ordering is the
// client's responsibility.
func (s *Server) HandleRead(req *protocol.ABDReadReq, reply *protocol.ABDReadResp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

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

// HandleWrite unconditionally stores req.Value under req.Key, assigning it
// max(req.Timestamp, s.clock.Next()). Writes are never rejected for carrying
// a low timestamp; the client's write-back discipline is what keeps this
// linearizable.
func (s *Server) HandleWrite(req *protocol.ABDWriteReq, reply *protocol.ABDWriteResp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	final := req.Timestamp
	if generated := s.clock.Next(); generated > final {
		final = generated
	}
	s.store[req.Key] = entry{value: req.Value, ts: final}

	reply.Timestamp = final
	reply.Success = true
	return nil
}

// Start registers the server and serves RPCs until the listener fails.
func (s *Server) Start() error {
	log.Debugf("starting abd server %d", s.ID)

	l, err := net.Listen(s.Self.Network, s.Self.Address)
	if err != nil {
		return err
	}
	defer l.Close()
	log.Infof("abd server %d listening on %s", s.ID, s.Self.Address)

	srv := rpc.NewServer()
	if err := srv.RegisterName("ABDServer", s); err != nil {
		return err
	}

	for {
		conn, err := l.Accept()
		if err != nil {
			log.Errorf("abd server %d accept error: %v", s.ID, err)
			return err
		}
		go srv.ServeConn(conn)
	}
}
