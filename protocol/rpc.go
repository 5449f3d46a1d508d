package protocol

import (
	"context"
	"net"
	"net/rpc"
)

// Connection names one replica: the network ("tcp") and address ("host:port")
// net/rpc needs to dial it.
type Connection struct {
	Network string
	Address string
}

// DialContext dials conn with ctx governing connect time, returning a ready
// net/rpc client on success.
func DialContext(ctx context.Context, conn Connection) (*rpc.Client, error) {
	dialer := net.Dialer{}
	nc, err := dialer.DialContext(ctx, conn.Network, conn.Address)
	if err != nil {
		return nil, err
	}
	return rpc.NewClient(nc), nil
}
