package ledger

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/ethereum/go-ethereum/common"

	id "finwell/pkg/domain"
	dErrors "finwell/pkg/domain-errors"
)

// KeySize is the width of an encoded target.
const KeySize = 32

// Key is the compact, injective encoding of a Target as one 32-byte word.
//
// Layout (byte 0 most significant):
//
//	record:  bytes 0..22 zero | bytes 23..30 record id (big endian) | byte 31 = 0
//	score:   bytes 0..10 zero | bytes 11..30 owner identity         | byte 31 = field (1..3)
type Key [KeySize]byte

const (
	discriminantByte = KeySize - 1
	recordIDStart    = discriminantByte - 8
	identityStart    = discriminantByte - common.AddressLength
)

// Encode packs t into a Key.
//
// Encode is injective over valid targets. The discriminant byte alone decides
// the variant (0 for records, the field value 1..3 for scores), so keys of
// different variants or different score fields never collide. Within a
// variant the payload is copied verbatim into a fixed byte range wide enough
// for its whole domain: 8 bytes for any uint64 record id, 20 bytes for any
// identity. Nothing is truncated, shifted or multiplied, so equal keys imply
// equal discriminants and equal payloads, hence equal targets.
func Encode(t Target) (Key, error) {
	if err := t.Validate(); err != nil {
		return Key{}, err
	}
	var k Key
	switch t.Kind {
	case KindRecord:
		binary.BigEndian.PutUint64(k[recordIDStart:discriminantByte], uint64(t.RecordID))
	case KindScore:
		copy(k[identityStart:discriminantByte], t.Owner.Bytes())
		k[discriminantByte] = byte(t.Field)
	}
	return k, nil
}

// Decode is the inverse of Encode. Keys that Encode cannot produce are
// rejected: unknown discriminants, non-zero padding, the zero record id and
// the zero owner.
func Decode(k Key) (Target, error) {
	disc := k[discriminantByte]
	switch {
	case disc == 0:
		if !allZero(k[:recordIDStart]) {
			return Target{}, dErrors.New(dErrors.CodeInvalidInput, "malformed record key padding")
		}
		recordID := id.RecordID(binary.BigEndian.Uint64(k[recordIDStart:discriminantByte]))
		if recordID.IsNil() {
			return Target{}, dErrors.New(dErrors.CodeInvalidInput, "record key has a zero record id")
		}
		return RecordTarget(recordID), nil
	case Field(disc).IsValid():
		if !allZero(k[:identityStart]) {
			return Target{}, dErrors.New(dErrors.CodeInvalidInput, "malformed score key padding")
		}
		owner := id.Identity(common.BytesToAddress(k[identityStart:discriminantByte]))
		if owner.IsNil() {
			return Target{}, dErrors.New(dErrors.CodeInvalidInput, "score key has a zero owner")
		}
		return ScoreTarget(owner, Field(disc)), nil
	default:
		return Target{}, dErrors.New(dErrors.CodeInvalidInput, "unknown key discriminant")
	}
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

func (k Key) String() string {
	return "0x" + hex.EncodeToString(k[:])
}

// ParseKey parses the 0x-prefixed hex form produced by String.
func ParseKey(s string) (Key, error) {
	var k Key
	if len(s) != 2+2*KeySize || s[:2] != "0x" {
		return k, dErrors.New(dErrors.CodeInvalidInput, "malformed ledger key")
	}
	if _, err := hex.Decode(k[:], []byte(s[2:])); err != nil {
		return k, dErrors.New(dErrors.CodeInvalidInput, "malformed ledger key")
	}
	return k, nil
}
