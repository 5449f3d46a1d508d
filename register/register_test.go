package register

import (
	"context"
	"fmt"
	"testing"
	"time"

	abdserver "github.com/averywhite/quorumreg/abd/server"
	blockingserver "github.com/averywhite/quorumreg/blocking/server"
	"github.com/averywhite/quorumreg/config"
	"github.com/averywhite/quorumreg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startABDCluster(t *testing.T, n int, basePort int) []config.ServerSpec {
	t.Helper()
	specs := make([]config.ServerSpec, n)
	for i := 0; i < n; i++ {
		port := basePort + i
		specs[i] = config.ServerSpec{ID: int32(i), Host: "127.0.0.1", Port: int32(port)}
		conn := protocol.Connection{Network: "tcp", Address: fmt.Sprintf("127.0.0.1:%d", port)}
		srv := abdserver.New(int32(i), conn)
		go func() { _ = srv.Start() }()
	}
	time.Sleep(150 * time.Millisecond)
	return specs
}

func startBlockingCluster(t *testing.T, n int, basePort int) []config.ServerSpec {
	t.Helper()
	specs := make([]config.ServerSpec, n)
	for i := 0; i < n; i++ {
		port := basePort + i
		specs[i] = config.ServerSpec{ID: int32(i), Host: "127.0.0.1", Port: int32(port)}
		conn := protocol.Connection{Network: "tcp", Address: fmt.Sprintf("127.0.0.1:%d", port)}
		srv := blockingserver.New(int32(i), conn)
		go func() { _ = srv.Start() }()
	}
	time.Sleep(150 * time.Millisecond)
	return specs
}

func TestNewABDRegisterReadsBackItsWrite(t *testing.T) {
	specs := startABDCluster(t, 3, 19501)
	cfg := &config.Config{Servers: specs, Protocol: config.ProtocolABD, ReadQuorum: 2, WriteQuorum: 2}

	r, err := New(cfg, 0)
	require.NoError(t, err)
	defer r.Close()

	ctx := context.Background()
	require.NoError(t, r.Write(ctx, "k", []byte("v")))
	v, err := r.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}

func TestNewBlockingRegisterReadsBackItsWrite(t *testing.T) {
	specs := startBlockingCluster(t, 3, 19510)
	cfg := &config.Config{Servers: specs, Protocol: config.ProtocolBlocking, ReadQuorum: 2, WriteQuorum: 2}

	r, err := New(cfg, 7)
	require.NoError(t, err)
	defer r.Close()

	ctx := context.Background()
	require.NoError(t, r.Write(ctx, "k", []byte("v")))
	v, err := r.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}

func TestNewRejectsUnknownProtocol(t *testing.T) {
	cfg := &config.Config{
		Servers:  []config.ServerSpec{{ID: 0, Host: "127.0.0.1", Port: 1}},
		Protocol: config.Protocol("paxos"),
	}
	_, err := New(cfg, 0)
	assert.Error(t, err)
}
