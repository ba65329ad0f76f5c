package domain

import (
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	dErrors "finwell/pkg/domain-errors"
)

// Typed identifiers keep record ids, oracle request ids, account identities
// and ciphertext handles from being mixed up at call sites.

// RecordID identifies an encrypted record. Ids are assigned sequentially
// starting at 1; zero is the "none" sentinel and never denotes a record.
type RecordID uint64

// RequestID identifies a decryption request issued by the encryption oracle.
// Zero is invalid.
type RequestID uint64

// Identity is the 20-byte account identity of a submitter or score owner.
type Identity common.Address

// Handle is an opaque 32-byte reference to a ciphertext held by the oracle's
// blob store. The zero handle means "uninitialized".
type Handle common.Hash

const maxNumericIDLength = 20 // len("18446744073709551615")

// ParseRecordID parses a decimal record id and rejects the zero sentinel.
func ParseRecordID(s string) (RecordID, error) {
	v, err := parsePositive(s, "record id")
	if err != nil {
		return 0, err
	}
	return RecordID(v), nil
}

// ParseRequestID parses a decimal oracle request id and rejects zero.
func ParseRequestID(s string) (RequestID, error) {
	v, err := parsePositive(s, "request id")
	if err != nil {
		return 0, err
	}
	return RequestID(v), nil
}

func parsePositive(s, label string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	if len(s) > maxNumericIDLength {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if v == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, label+" must be positive")
	}
	return v, nil
}

func (id RecordID) IsNil() bool { return id == 0 }

func (id RecordID) String() string { return strconv.FormatUint(uint64(id), 10) }

func (id RequestID) IsNil() bool { return id == 0 }

func (id RequestID) String() string { return strconv.FormatUint(uint64(id), 10) }

// ParseIdentity parses a 0x-prefixed hex account identity. The zero address
// is rejected because it cannot own records.
func ParseIdentity(s string) (Identity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Identity{}, dErrors.New(dErrors.CodeInvalidInput, "identity is required")
	}
	if !common.IsHexAddress(s) {
		return Identity{}, dErrors.New(dErrors.CodeInvalidInput, "invalid identity")
	}
	id := Identity(common.HexToAddress(s))
	if id.IsNil() {
		return Identity{}, dErrors.New(dErrors.CodeInvalidInput, "identity must not be the zero address")
	}
	return id, nil
}

func (id Identity) IsNil() bool { return id == Identity{} }

func (id Identity) Address() common.Address { return common.Address(id) }

func (id Identity) Bytes() []byte { return common.Address(id).Bytes() }

// String returns the EIP-55 checksummed form.
func (id Identity) String() string { return common.Address(id).Hex() }

func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentity(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseHandle parses a 0x-prefixed 32-byte hex handle.
func ParseHandle(s string) (Handle, error) {
	s = strings.TrimSpace(s)
	raw, err := hexutil.Decode(s)
	if err != nil || len(raw) != common.HashLength {
		return Handle{}, dErrors.New(dErrors.CodeInvalidInput, "invalid ciphertext handle")
	}
	return Handle(common.BytesToHash(raw)), nil
}

// IsNil reports whether the handle is uninitialized.
func (h Handle) IsNil() bool { return h == Handle{} }

func (h Handle) Bytes() []byte { return common.Hash(h).Bytes() }

func (h Handle) String() string { return common.Hash(h).Hex() }

func (h Handle) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Handle) UnmarshalText(text []byte) error {
	parsed, err := ParseHandle(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
