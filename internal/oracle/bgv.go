package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"github.com/tuneinsight/lattigo/v6/schemes/bgv"

	dErrors "finwell/pkg/domain-errors"
)

// DefaultParametersLiteral is a BGV parameter set for single-level linear
// arithmetic: one 54-bit ciphertext prime, no relinearization needed. Values
// live in slot 0 and must stay within ±PlaintextModulus/2.
var DefaultParametersLiteral = bgv.ParametersLiteral{
	LogN:             13,
	LogQ:             []int{54},
	LogP:             []int{54},
	PlaintextModulus: 0x3ee0001,
}

// DefaultParameters instantiates DefaultParametersLiteral.
func DefaultParameters() (bgv.Parameters, error) {
	params, err := bgv.NewParametersFromLiteral(DefaultParametersLiteral)
	if err != nil {
		return bgv.Parameters{}, fmt.Errorf("bgv parameters: %w", err)
	}
	return params, nil
}

// PublicContext holds the public half of the oracle key material. It is all
// a client needs to encrypt figures and all the analysis worker needs to
// evaluate scores over ciphertexts.
type PublicContext struct {
	params    bgv.Parameters
	pk        *rlwe.PublicKey
	encoder   *bgv.Encoder
	evaluator *bgv.Evaluator
}

func newPublicContext(params bgv.Parameters, pk *rlwe.PublicKey) *PublicContext {
	return &PublicContext{
		params:    params,
		pk:        pk,
		encoder:   bgv.NewEncoder(params),
		evaluator: bgv.NewEvaluator(params, nil),
	}
}

// Parameters returns the BGV parameter set.
func (c *PublicContext) Parameters() bgv.Parameters { return c.params }

// MaxValue is the largest magnitude that decodes unambiguously.
func (c *PublicContext) MaxValue() int64 {
	return int64(c.params.PlaintextModulus() / 2)
}

func (c *PublicContext) checkRange(v int64) error {
	if limit := c.MaxValue(); v > limit || v < -limit {
		return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("value %d outside encryptable range ±%d", v, limit))
	}
	return nil
}

// reduce maps a signed scalar into Z_T.
func (c *PublicContext) reduce(v int64) uint64 {
	t := int64(c.params.PlaintextModulus())
	return uint64(((v % t) + t) % t)
}

// Encrypt encrypts v into slot 0 and returns the serialized ciphertext.
func (c *PublicContext) Encrypt(v int64) ([]byte, error) {
	if err := c.checkRange(v); err != nil {
		return nil, err
	}
	values := make([]int64, c.params.MaxSlots())
	values[0] = v
	pt := bgv.NewPlaintext(c.params, c.params.MaxLevel())
	if err := c.encoder.ShallowCopy().Encode(values, pt); err != nil {
		return nil, fmt.Errorf("encode plaintext: %w", err)
	}
	ct, err := rlwe.NewEncryptor(c.params, c.pk).EncryptNew(pt)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}
	return ct.MarshalBinary()
}

func (c *PublicContext) parseCiphertext(blob []byte) (*rlwe.Ciphertext, error) {
	ct := rlwe.NewCiphertext(c.params, 1, c.params.MaxLevel())
	if err := ct.UnmarshalBinary(blob); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "ciphertext is not a valid BGV ciphertext")
	}
	return ct, nil
}

// Validate checks that blob deserializes as a ciphertext under these parameters.
func (c *PublicContext) Validate(blob []byte) error {
	_, err := c.parseCiphertext(blob)
	return err
}

// LinearCombination homomorphically evaluates bias + Σ weights[i]·blobs[i].
func (c *PublicContext) LinearCombination(blobs [][]byte, weights []int64, bias int64) ([]byte, error) {
	if len(blobs) == 0 || len(blobs) != len(weights) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "linear combination needs one weight per ciphertext")
	}
	eval := c.evaluator.ShallowCopy()

	var acc *rlwe.Ciphertext
	for i, blob := range blobs {
		ct, err := c.parseCiphertext(blob)
		if err != nil {
			return nil, err
		}
		term, err := eval.MulNew(ct, c.reduce(weights[i]))
		if err != nil {
			return nil, fmt.Errorf("scale ciphertext %d: %w", i, err)
		}
		if acc == nil {
			acc = term
			continue
		}
		if err := eval.Add(acc, term, acc); err != nil {
			return nil, fmt.Errorf("accumulate ciphertext %d: %w", i, err)
		}
	}
	if bias != 0 {
		if err := eval.Add(acc, c.reduce(bias), acc); err != nil {
			return nil, fmt.Errorf("add bias: %w", err)
		}
	}
	return acc.MarshalBinary()
}

// PublicKeyDocument is the wire form of the public context.
type PublicKeyDocument struct {
	Parameters json.RawMessage `json:"parameters"`
	PublicKey  []byte          `json:"public_key"`
}

// Document serializes the public context for clients.
func (c *PublicContext) Document() (*PublicKeyDocument, error) {
	params, err := json.Marshal(c.params)
	if err != nil {
		return nil, fmt.Errorf("marshal bgv parameters: %w", err)
	}
	pk, err := c.pk.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	return &PublicKeyDocument{Parameters: params, PublicKey: pk}, nil
}

// ParsePublicKeyDocument rebuilds a public context from its wire form.
func ParsePublicKeyDocument(doc *PublicKeyDocument) (*PublicContext, error) {
	if doc == nil || len(doc.Parameters) == 0 || len(doc.PublicKey) == 0 {
		return nil, errors.New("public key document is incomplete")
	}
	var params bgv.Parameters
	if err := json.Unmarshal(doc.Parameters, &params); err != nil {
		return nil, fmt.Errorf("unmarshal bgv parameters: %w", err)
	}
	pk := rlwe.NewPublicKey(params)
	if err := pk.UnmarshalBinary(doc.PublicKey); err != nil {
		return nil, fmt.Errorf("unmarshal public key: %w", err)
	}
	return newPublicContext(params, pk), nil
}

// KeyMaterial is the full oracle key set. Only the oracle holds it.
type KeyMaterial struct {
	*PublicContext
	sk *rlwe.SecretKey
}

// GenerateKeyMaterial samples a fresh key pair.
func GenerateKeyMaterial(params bgv.Parameters) *KeyMaterial {
	sk, pk := rlwe.NewKeyGenerator(params).GenKeyPairNew()
	return &KeyMaterial{PublicContext: newPublicContext(params, pk), sk: sk}
}

// Decrypt returns the slot-0 value of a serialized ciphertext.
func (k *KeyMaterial) Decrypt(blob []byte) (int64, error) {
	ct, err := k.parseCiphertext(blob)
	if err != nil {
		return 0, err
	}
	pt := rlwe.NewDecryptor(k.params, k.sk).DecryptNew(ct)
	values := make([]int64, k.params.MaxSlots())
	if err := k.encoder.ShallowCopy().Decode(pt, values); err != nil {
		return 0, fmt.Errorf("decode plaintext: %w", err)
	}
	return values[0], nil
}

type keyFile struct {
	Parameters json.RawMessage `json:"parameters"`
	SecretKey  []byte          `json:"secret_key"`
	PublicKey  []byte          `json:"public_key"`
}

// LoadOrGenerateKeyMaterial reads key material from path, or generates and
// writes it (mode 0600) when the file does not exist. An empty path always
// generates ephemeral keys.
func LoadOrGenerateKeyMaterial(path string) (*KeyMaterial, error) {
	params, err := DefaultParameters()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return GenerateKeyMaterial(params), nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		km := GenerateKeyMaterial(params)
		if err := km.save(path); err != nil {
			return nil, err
		}
		return km, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read oracle keys: %w", err)
	}

	var kf keyFile
	if err := json.Unmarshal(raw, &kf); err != nil {
		return nil, fmt.Errorf("parse oracle keys: %w", err)
	}
	pub, err := ParsePublicKeyDocument(&PublicKeyDocument{Parameters: kf.Parameters, PublicKey: kf.PublicKey})
	if err != nil {
		return nil, err
	}
	sk := rlwe.NewSecretKey(pub.params)
	if err := sk.UnmarshalBinary(kf.SecretKey); err != nil {
		return nil, fmt.Errorf("unmarshal secret key: %w", err)
	}
	return &KeyMaterial{PublicContext: pub, sk: sk}, nil
}

func (k *KeyMaterial) save(path string) error {
	doc, err := k.Document()
	if err != nil {
		return err
	}
	sk, err := k.sk.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal secret key: %w", err)
	}
	raw, err := json.Marshal(keyFile{Parameters: doc.Parameters, SecretKey: sk, PublicKey: doc.PublicKey})
	if err != nil {
		return fmt.Errorf("marshal oracle keys: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("write oracle keys: %w", err)
	}
	return nil
}
