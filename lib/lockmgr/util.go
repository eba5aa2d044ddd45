package lockmgr

import "encoding/binary"

// encodeOwnerID turns a prop's LockID into the opaque owner token handed
// back to callers.
func encodeOwnerID(lockID int32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(lockID))
	return b
}

// decodeOwnerID reverses encodeOwnerID; a malformed token never matches a
// real lock ID.
func decodeOwnerID(ownerID []byte) (int32, bool) {
	if len(ownerID) != 4 {
		return 0, false
	}
	return int32(binary.BigEndian.Uint32(ownerID)), true
}
