package server

import (
	"net/rpc"
	"sync"
	"testing"
	"time"

	"github.com/averywhite/quorumreg/protocol"
	"github.com/stretchr/testify/assert"
)

func setupTestServer() *Server {
	return New(0, protocol.Connection{Network: "tcp", Address: "127.0.0.1:0"})
}

func TestServerInitializationEmpty(t *testing.T) {
	s := setupTestServer()

	var reply protocol.ABDReadResp
	err := s.HandleRead(&protocol.ABDReadReq{Key: "a"}, &reply)
	assert.NoError(t, err)
	assert.True(t, reply.Success)
	assert.Equal(t, int64(0), reply.Timestamp)
	assert.Nil(t, reply.Value)
}

func TestHandleWriteThenRead(t *testing.T) {
	s := setupTestServer()

	var writeReply protocol.ABDWriteResp
	err := s.HandleWrite(&protocol.ABDWriteReq{Key: "k", Value: []byte("v1"), Timestamp: 1}, &writeReply)
	assert.NoError(t, err)
	assert.True(t, writeReply.Success)
	assert.Greater(t, writeReply.Timestamp, int64(0))

	var readReply protocol.ABDReadResp
	err = s.HandleRead(&protocol.ABDReadReq{Key: "k"}, &readReply)
	assert.NoError(t, err)
	assert.True(t, readReply.Success)
	assert.Equal(t, []byte("v1"), readReply.Value)
	assert.Equal(t, writeReply.Timestamp, readReply.Timestamp)
}

// TestWriteAcceptsLowClientTimestamp confirms the server never rejects a
// write for carrying a timestamp lower than its own clock. It simply folds
// in the max.
func TestWriteAcceptsLowClientTimestamp(t *testing.T) {
	s := setupTestServer()

	var first protocol.ABDWriteResp
	require := assert.New(t)
	require.NoError(s.HandleWrite(&protocol.ABDWriteReq{Key: "k", Value: []byte("v1"), Timestamp: 1_000_000_000}, &first))

	var second protocol.ABDWriteResp
	require.NoError(s.HandleWrite(&protocol.ABDWriteReq{Key: "k", Value: []byte("v2"), Timestamp: 1}, &second))
	require.True(second.Success)

	var readReply protocol.ABDReadResp
	require.NoError(s.HandleRead(&protocol.ABDReadReq{Key: "k"}, &readReply))
	require.Equal([]byte("v2"), readReply.Value, "latest write wins even with a small client timestamp")
	require.Greater(readReply.Timestamp, first.Timestamp)
}

func TestStoredTimestampNeverDecreases(t *testing.T) {
	s := setupTestServer()

	var prev int64
	for i := 0; i < 50; i++ {
		var reply protocol.ABDWriteResp
		err := s.HandleWrite(&protocol.ABDWriteReq{Key: "k", Value: []byte("v"), Timestamp: 0}, &reply)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, reply.Timestamp, prev)
		prev = reply.Timestamp
	}
}

func TestConcurrentWritesDifferentKeys(t *testing.T) {
	s := setupTestServer()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var reply protocol.ABDWriteResp
			key := string(rune('a' + i%5))
			err := s.HandleWrite(&protocol.ABDWriteReq{Key: key, Value: []byte{byte(i)}, Timestamp: int64(i)}, &reply)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	s.mu.Lock()
	numKeys := len(s.store)
	s.mu.Unlock()
	assert.Equal(t, 5, numKeys)
}

func TestServerStartServesRPC(t *testing.T) {
	s := New(0, protocol.Connection{Network: "tcp", Address: "127.0.0.1:18231"})

	go func() {
		_ = s.Start()
	}()
	time.Sleep(100 * time.Millisecond)

	client, err := rpc.Dial("tcp", "127.0.0.1:18231")
	assert.NoError(t, err)
	defer client.Close()

	var reply protocol.ABDReadResp
	err = client.Call("ABDServer.HandleRead", &protocol.ABDReadReq{Key: "x"}, &reply)
	assert.NoError(t, err)
	assert.True(t, reply.Success)
}
