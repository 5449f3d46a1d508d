// Package register dispatches to one of the two protocol engines behind a
// single interface, so evaluation harnesses and CLIs can stay
// protocol-agnostic.
package register

import (
	"context"
	"fmt"

	abdclient "github.com/averywhite/quorumreg/abd/client"
	blockingclient "github.com/averywhite/quorumreg/blocking/client"
	"github.com/averywhite/quorumreg/config"
	"github.com/averywhite/quorumreg/protocol"
)

// Register is the contract both client engines satisfy.
type Register interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, value []byte) error
	CurrentTimestamp() int64
	Close()
}

// New constructs the Register named by cfg.Protocol, bound to cfg's server
// list and quorum sizes. clientID is only meaningful for the blocking
// variant; the ABD variant ignores it.
func New(cfg *config.Config, clientID int32) (Register, error) {
	conns := make([]protocol.Connection, len(cfg.Servers))
	for i, s := range cfg.Servers {
		conns[i] = protocol.Connection{Network: "tcp", Address: s.Address()}
	}

	switch cfg.Protocol {
	case config.ProtocolABD:
		return abdclient.New(conns, int(cfg.ReadQuorum), int(cfg.WriteQuorum))
	case config.ProtocolBlocking:
		return blockingclient.New(conns, int(cfg.ReadQuorum), int(cfg.WriteQuorum), clientID)
	default:
		return nil, fmt.Errorf("register: unknown protocol %q", cfg.Protocol)
	}
}
