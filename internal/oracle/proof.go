package oracle

import (
	"crypto/ecdsa"
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	id "finwell/pkg/domain"
	dErrors "finwell/pkg/domain-errors"
)

// ProofSize is the length of a recoverable secp256k1 signature.
const ProofSize = crypto.SignatureLength

// ProofDigest is the message the oracle signs for a callback:
// keccak256(requestID as 8 big-endian bytes || cleartexts).
func ProofDigest(requestID id.RequestID, cleartexts []byte) []byte {
	var prefix [8]byte
	binary.BigEndian.PutUint64(prefix[:], uint64(requestID))
	return crypto.Keccak256(prefix[:], cleartexts)
}

// Signer produces decryption proofs with the oracle key.
type Signer struct {
	key *ecdsa.PrivateKey
}

// NewSigner parses a hex encoded secp256k1 private key.
func NewSigner(hexKey string) (*Signer, error) {
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse oracle signer key: %w", err)
	}
	return &Signer{key: key}, nil
}

// NewSignerFromKey wraps an existing key.
func NewSignerFromKey(key *ecdsa.PrivateKey) *Signer {
	return &Signer{key: key}
}

// Address is the signer identity verifiers compare recovered keys against.
func (s *Signer) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

// Sign returns the 65-byte [R || S || V] proof for the callback payload.
func (s *Signer) Sign(requestID id.RequestID, cleartexts []byte) ([]byte, error) {
	sig, err := crypto.Sign(ProofDigest(requestID, cleartexts), s.key)
	if err != nil {
		return nil, fmt.Errorf("sign decryption proof: %w", err)
	}
	return sig, nil
}

// Verifier checks decryption proofs against a fixed signer address.
type Verifier struct {
	signer common.Address
}

func NewVerifier(signer common.Address) *Verifier {
	return &Verifier{signer: signer}
}

// Verify recovers the signing key from proof and compares its address.
func (v *Verifier) Verify(requestID id.RequestID, cleartexts []byte, proof []byte) error {
	if len(proof) != ProofSize {
		return dErrors.New(dErrors.CodeInvalidProof, "decryption proof has the wrong length")
	}
	pub, err := crypto.SigToPub(ProofDigest(requestID, cleartexts), proof)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidProof, "decryption proof is not a valid signature")
	}
	if crypto.PubkeyToAddress(*pub) != v.signer {
		return dErrors.New(dErrors.CodeInvalidProof, "decryption proof was not signed by the oracle")
	}
	return nil
}
