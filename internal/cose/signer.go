package cose

import (
	"crypto/ed25519"
	"io"

	gocose "github.com/veraison/go-cose"
)

// Signer is the narrow contract the core needs from an external EdDSA
// signer (spec.md §1, §6): an algorithm identifier and a raw-signature
// operation. It is satisfied by gocose.Signer so envelopes can be built
// directly against github.com/veraison/go-cose's Sign1Message.
type Signer interface {
	Algorithm() gocose.Algorithm
	Sign(rand io.Reader, content []byte) ([]byte, error)
}

// Verifier is the narrow contract needed to check a signature against a
// known public key.
type Verifier interface {
	Algorithm() gocose.Algorithm
	Verify(content, signature []byte) error
}

// Ed25519Signer is the default Signer, backing the spec's "Ed25519
// signer" external collaborator with the standard library primitive —
// there is no ecosystem wrapper worth preferring over crypto/ed25519 for
// a bare sign operation (see DESIGN.md).
type Ed25519Signer struct {
	PrivateKey ed25519.PrivateKey
}

func (s Ed25519Signer) Algorithm() gocose.Algorithm { return gocose.AlgorithmEdDSA }

func (s Ed25519Signer) Sign(_ io.Reader, content []byte) ([]byte, error) {
	return ed25519.Sign(s.PrivateKey, content), nil
}

// Ed25519Verifier is the default Verifier, checking against a known
// device or owner public key.
type Ed25519Verifier struct {
	PublicKey ed25519.PublicKey
}

func (v Ed25519Verifier) Algorithm() gocose.Algorithm { return gocose.AlgorithmEdDSA }

func (v Ed25519Verifier) Verify(content, signature []byte) error {
	if !ed25519.Verify(v.PublicKey, content, signature) {
		return errVerificationFailed{}
	}
	return nil
}

type errVerificationFailed struct{}

func (errVerificationFailed) Error() string { return "cose: signature verification failed" }
