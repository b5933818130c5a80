/*
Package userid - the opaque 64-bit user identifier

UniqueUserID carries no meaning beyond "no user" (USER_ID_NONE, the zero
value) versus "some user". Wire form is 8 bytes in wire.ByteOrder.
*/
package userid

import (
	"strconv"

	"nuke-ms/wire"
)

// Size is the serialized length of a UniqueUserID, in bytes.
const Size = 8

// UniqueUserID is an opaque 64-bit user identifier.
type UniqueUserID uint64

// None is the distinguished "no user" / "broadcast to all peers" value.
const None UniqueUserID = 0

// IsNone reports whether id is the distinguished None value.
func (id UniqueUserID) IsNone() bool { return id == None }

// String renders id as lowercase hex without leading zeros, suitable as
// a map or registry key.
func (id UniqueUserID) String() string {
	return strconv.FormatUint(uint64(id), 16)
}

// AppendTo appends the wire-order serialization of id to dst.
func (id UniqueUserID) AppendTo(dst []byte) []byte {
	return wire.PutUint64(dst, uint64(id))
}

// FromBytes reads a UniqueUserID from the first Size bytes of src.
// Callers must ensure len(src) >= Size.
func FromBytes(src []byte) UniqueUserID {
	return UniqueUserID(wire.Uint64(src))
}
