package domain

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.trai.ch/zerr"
)

// DefaultFormatID is the XA format identifier used for transactions created by txlog.
const DefaultFormatID int32 = 1

// xidByteLen is the length of Xid.Bytes: 4 bytes format id followed by two UUIDs.
const xidByteLen = 4 + 16 + 16

// Xid identifies a distributed transaction branch.
// It is a comparable value type, so two Xids with the same fields are equal
// and hash identically when used as map keys.
type Xid struct {
	FormatID int32
	GlobalID uuid.UUID
	BranchID uuid.UUID
}

// NewXid creates the Xid of a new root transaction.
func NewXid() Xid {
	return Xid{
		FormatID: DefaultFormatID,
		GlobalID: uuid.New(),
		BranchID: uuid.New(),
	}
}

// NewBranchXid creates a branch Xid that belongs to the given global transaction.
func NewBranchXid(globalID uuid.UUID) Xid {
	return Xid{
		FormatID: DefaultFormatID,
		GlobalID: globalID,
		BranchID: uuid.New(),
	}
}

// ParseXid parses the representation produced by Xid.String.
func ParseXid(s string) (Xid, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Xid{}, zerr.With(zerr.Wrap(ErrInvalidXid, "expected format:global:branch"), "xid", s)
	}

	format, err := strconv.ParseInt(parts[0], 10, 32)
	if err != nil {
		return Xid{}, zerr.With(zerr.Wrap(ErrInvalidXid, "invalid format id"), "xid", s)
	}

	global, err := uuid.Parse(parts[1])
	if err != nil {
		return Xid{}, zerr.With(zerr.Wrap(ErrInvalidXid, "invalid global id"), "xid", s)
	}

	branch, err := uuid.Parse(parts[2])
	if err != nil {
		return Xid{}, zerr.With(zerr.Wrap(ErrInvalidXid, "invalid branch id"), "xid", s)
	}

	return Xid{FormatID: int32(format), GlobalID: global, BranchID: branch}, nil
}

// String returns the canonical "format:global:branch" form.
func (x Xid) String() string {
	return strconv.FormatInt(int64(x.FormatID), 10) + ":" + x.GlobalID.String() + ":" + x.BranchID.String()
}

// Bytes returns a fixed-size binary key for the Xid, suitable for ordered key-value stores.
func (x Xid) Bytes() []byte {
	b := make([]byte, xidByteLen)
	binary.BigEndian.PutUint32(b[0:4], uint32(x.FormatID)) //nolint:gosec // bit pattern is preserved
	copy(b[4:20], x.GlobalID[:])
	copy(b[20:36], x.BranchID[:])
	return b
}

// XidFromBytes decodes a key produced by Xid.Bytes.
func XidFromBytes(b []byte) (Xid, error) {
	if len(b) != xidByteLen {
		return Xid{}, zerr.With(zerr.Wrap(ErrInvalidXid, "unexpected key length"), "length", len(b))
	}
	var x Xid
	x.FormatID = int32(binary.BigEndian.Uint32(b[0:4])) //nolint:gosec // bit pattern is preserved
	copy(x.GlobalID[:], b[4:20])
	copy(x.BranchID[:], b[20:36])
	return x, nil
}

// IsZero reports whether the Xid is unset.
func (x Xid) IsZero() bool {
	return x == Xid{}
}

// MarshalText encodes the Xid in its canonical string form.
func (x Xid) MarshalText() ([]byte, error) {
	return []byte(x.String()), nil
}

// UnmarshalText decodes the form produced by MarshalText.
func (x *Xid) UnmarshalText(text []byte) error {
	parsed, err := ParseXid(string(text))
	if err != nil {
		return err
	}
	*x = parsed
	return nil
}
