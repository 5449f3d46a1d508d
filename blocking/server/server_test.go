package server

import (
	"testing"
	"time"

	"github.com/averywhite/quorumreg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer() *Server {
	return New(0, protocol.Connection{Network: "tcp", Address: "127.0.0.1:0"})
}

func TestAcquireLockGrantsWhenFree(t *testing.T) {
	s := setupTestServer()

	var reply protocol.BlockingLockResp
	err := s.HandleAcquireLock(&protocol.BlockingLockReq{Key: "k", ClientID: 1}, &reply)
	require.NoError(t, err)
	assert.True(t, reply.Granted)
}

func TestAcquireLockDeniesSecondClient(t *testing.T) {
	s := setupTestServer()

	var r1 protocol.BlockingLockResp
	require.NoError(t, s.HandleAcquireLock(&protocol.BlockingLockReq{Key: "k", ClientID: 1}, &r1))
	require.True(t, r1.Granted)

	var r2 protocol.BlockingLockResp
	require.NoError(t, s.HandleAcquireLock(&protocol.BlockingLockReq{Key: "k", ClientID: 2}, &r2))
	assert.False(t, r2.Granted, "a second client must not be granted a lock someone else holds")
}

func TestAcquireLockIsReentrant(t *testing.T) {
	s := setupTestServer()

	var r1 protocol.BlockingLockResp
	require.NoError(t, s.HandleAcquireLock(&protocol.BlockingLockReq{Key: "k", ClientID: 1}, &r1))
	require.True(t, r1.Granted)

	var r2 protocol.BlockingLockResp
	require.NoError(t, s.HandleAcquireLock(&protocol.BlockingLockReq{Key: "k", ClientID: 1}, &r2))
	assert.True(t, r2.Granted, "the same client re-acquiring its own lock must succeed")
}

func TestReleaseLockOnlyByOwner(t *testing.T) {
	s := setupTestServer()

	var lockReply protocol.BlockingLockResp
	require.NoError(t, s.HandleAcquireLock(&protocol.BlockingLockReq{Key: "k", ClientID: 1}, &lockReply))

	var badRelease protocol.BlockingUnlockResp
	require.NoError(t, s.HandleReleaseLock(&protocol.BlockingUnlockReq{Key: "k", ClientID: 2}, &badRelease))
	assert.False(t, badRelease.Success, "a non-owner must not be able to release the lock")

	var goodRelease protocol.BlockingUnlockResp
	require.NoError(t, s.HandleReleaseLock(&protocol.BlockingUnlockReq{Key: "k", ClientID: 1}, &goodRelease))
	assert.True(t, goodRelease.Success)

	// Now that the lock is free, client 2 can take it.
	var r2 protocol.BlockingLockResp
	require.NoError(t, s.HandleAcquireLock(&protocol.BlockingLockReq{Key: "k", ClientID: 2}, &r2))
	assert.True(t, r2.Granted)
}

func TestReadWriteRequireLock(t *testing.T) {
	s := setupTestServer()

	var readReply protocol.BlockingReadResp
	require.NoError(t, s.HandleRead(&protocol.BlockingReadReq{Key: "k", ClientID: 1}, &readReply))
	assert.False(t, readReply.Success, "read without holding the lock must fail")

	var writeReply protocol.BlockingWriteResp
	require.NoError(t, s.HandleWrite(&protocol.BlockingWriteReq{Key: "k", Value: []byte("v"), ClientID: 1}, &writeReply))
	assert.False(t, writeReply.Success, "write without holding the lock must fail")

	var lockReply protocol.BlockingLockResp
	require.NoError(t, s.HandleAcquireLock(&protocol.BlockingLockReq{Key: "k", ClientID: 1}, &lockReply))
	require.True(t, lockReply.Granted)

	require.NoError(t, s.HandleWrite(&protocol.BlockingWriteReq{Key: "k", Value: []byte("v"), ClientID: 1}, &writeReply))
	assert.True(t, writeReply.Success)

	require.NoError(t, s.HandleRead(&protocol.BlockingReadReq{Key: "k", ClientID: 1}, &readReply))
	assert.True(t, readReply.Success)
	assert.Equal(t, []byte("v"), readReply.Value)
}

// S6 (Blocking lock timeout recovery): a lock held past LockTimeout becomes
// reclaimable by a different client.
func TestLockTimeoutAllowsReclaim(t *testing.T) {
	s := setupTestServer()

	var r1 protocol.BlockingLockResp
	require.NoError(t, s.HandleAcquireLock(&protocol.BlockingLockReq{Key: "k", ClientID: 1}, &r1))
	require.True(t, r1.Granted)

	// Force the recorded acquisition time into the past, simulating a crash
	// that left the lock held well beyond LockTimeout.
	s.mu.Lock()
	s.locks["k"] = lockEntry{owner: 1, acquiredAt: time.Now().Add(-LockTimeout - time.Second)}
	s.mu.Unlock()

	var r2 protocol.BlockingLockResp
	require.NoError(t, s.HandleAcquireLock(&protocol.BlockingLockReq{Key: "k", ClientID: 2}, &r2))
	assert.True(t, r2.Granted, "an expired lock must be reclaimable by a new client")

	s.mu.Lock()
	owner := s.locks["k"].owner
	s.mu.Unlock()
	assert.Equal(t, int32(2), owner)
}

func TestAtMostOneOwnerPerKey(t *testing.T) {
	s := setupTestServer()

	var granted []int32
	for clientID := int32(1); clientID <= 5; clientID++ {
		var reply protocol.BlockingLockResp
		require.NoError(t, s.HandleAcquireLock(&protocol.BlockingLockReq{Key: "k", ClientID: clientID}, &reply))
		if reply.Granted {
			granted = append(granted, clientID)
		}
	}
	require.Len(t, granted, 1, "only the first caller should hold the lock")
}
