package verify

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
	pgperrors "github.com/ProtonMail/go-crypto/openpgp/errors"
)

// Verdict is the outcome of a detached-signature check.
type Verdict int

const (
	// Valid: the signature matches the payload and a trusted key.
	Valid Verdict = iota
	// InvalidSignature: the signature does not match the payload, or
	// the signature file is corrupt.
	InvalidSignature
	// KeyNotFound: the signing key is not available.
	KeyNotFound
	// Unavailable: the verifier could not run at all.
	Unavailable
	// Skipped: no verifier is installed; the check did not happen.
	Skipped
)

func (v Verdict) String() string {
	switch v {
	case Valid:
		return "valid"
	case InvalidSignature:
		return "invalid signature"
	case KeyNotFound:
		return "signing key not found"
	case Unavailable:
		return "verifier unavailable"
	default:
		return "skipped"
	}
}

// SignatureVerifier checks a payload against a detached PGP signature.
// keyServers is advisory: implementations that can fetch unknown keys
// receive the configured server list, others ignore it.
type SignatureVerifier interface {
	Verify(data, signature []byte, keyServers []string) Verdict
}

// NullVerifier is the verifier used when PGP support is absent. Every
// check reports Skipped, which the resolver treats as acceptance.
type NullVerifier struct{}

func (NullVerifier) Verify(_, _ []byte, _ []string) Verdict { return Skipped }

// OpenPGPVerifier verifies detached armored signatures against a local
// keyring. It never fetches keys from a server; a signature from an
// unknown key reports KeyNotFound.
type OpenPGPVerifier struct {
	keyring openpgp.EntityList
}

// NewOpenPGPVerifier loads an armored keyring file. An empty path
// yields a verifier with no keys, which reports KeyNotFound for every
// signed file.
func NewOpenPGPVerifier(keyringPath string) (*OpenPGPVerifier, error) {
	v := &OpenPGPVerifier{}
	if keyringPath == "" {
		return v, nil
	}
	f, err := os.Open(keyringPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	v.keyring, err = readKeyRing(f)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func readKeyRing(r io.Reader) (openpgp.EntityList, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if keyring, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data)); err == nil {
		return keyring, nil
	}
	return openpgp.ReadKeyRing(bytes.NewReader(data))
}

func (v *OpenPGPVerifier) Verify(data, signature []byte, _ []string) Verdict {
	_, err := openpgp.CheckArmoredDetachedSignature(
		v.keyring, bytes.NewReader(data), bytes.NewReader(signature), nil)
	switch {
	case err == nil:
		return Valid
	case errors.Is(err, pgperrors.ErrUnknownIssuer):
		return KeyNotFound
	default:
		var sigErr pgperrors.SignatureError
		if errors.As(err, &sigErr) {
			return InvalidSignature
		}
		var structural pgperrors.StructuralError
		if errors.As(err, &structural) {
			return InvalidSignature
		}
		return Unavailable
	}
}
