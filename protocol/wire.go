// Package protocol defines the wire messages shared by the ABD and blocking
// register variants, and the connection plumbing ("the RPC transport") that
// carries them. Serialization is whatever net/rpc's gob codec does with these
// structs; nothing here is protocol-specific beyond field layout.
package protocol

// ABDReadReq is sent to read a key's current (value, ts) pair from a replica.
type ABDReadReq struct {
	Key       string
	Timestamp int64
}

// ABDReadResp carries a replica's stored value and timestamp for a key, or
// the (nil, 0) pair for an absent key. The ABD server always sets Success to
// true; an absent key is a successful read of the empty pair.
type ABDReadResp struct {
	Value     []byte
	Timestamp int64
	Success   bool
}

// ABDWriteReq asks a replica to unconditionally store value under key at
// at-least Timestamp.
type ABDWriteReq struct {
	Key       string
	Value     []byte
	Timestamp int64
}

// ABDWriteResp reports the timestamp the replica actually assigned (the max
// of the request's timestamp and the replica's own clock).
type ABDWriteResp struct {
	Timestamp int64
	Success   bool
}

// BlockingLockReq asks a replica to grant ClientID the lock for Key.
type BlockingLockReq struct {
	Key      string
	ClientID int32
}

// BlockingLockResp reports whether the lock was granted.
type BlockingLockResp struct {
	Granted   bool
	Timestamp int64
}

// BlockingUnlockReq asks a replica to release ClientID's lock on Key.
type BlockingUnlockReq struct {
	Key      string
	ClientID int32
}

// BlockingUnlockResp reports whether a lock was actually removed.
type BlockingUnlockResp struct {
	Success bool
}

// BlockingReadReq asks a replica for the value of Key, valid only if
// ClientID currently holds the lock.
type BlockingReadReq struct {
	Key      string
	ClientID int32
}

// BlockingReadResp carries the read result; Success is false if the caller
// did not hold the lock.
type BlockingReadResp struct {
	Value     []byte
	Timestamp int64
	Success   bool
}

// BlockingWriteReq asks a replica to store Value under Key, valid only if
// ClientID currently holds the lock.
type BlockingWriteReq struct {
	Key       string
	Value     []byte
	Timestamp int64
	ClientID  int32
}

// BlockingWriteResp reports the final assigned timestamp and whether the
// write was applied (it is rejected if the caller did not hold the lock).
type BlockingWriteResp struct {
	Timestamp int64
	Success   bool
}
