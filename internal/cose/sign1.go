// Package cose builds and verifies COSE_Sign1 envelopes (spec.md §3, §4.C)
// over github.com/veraison/go-cose, used both for the broker
// control-plane password and for broker<->device payloads (spec.md §6).
package cose

import (
	"crypto/rand"
	"fmt"

	gocose "github.com/veraison/go-cose"
)

// Sign builds a COSE_Sign1 envelope (CBOR tag 18) over payload, signed by
// signer. keyID is recorded in the unprotected header (spec.md §6: "kid
// in unprotected is the signer's key id"). Per spec.md §4.C, only EdDSA
// signers are accepted.
func Sign(signer Signer, keyID []byte, externalAAD, payload []byte) ([]byte, error) {
	if signer.Algorithm() != gocose.AlgorithmEdDSA {
		return nil, fmt.Errorf("cose: signer algorithm %v is not EdDSA", signer.Algorithm())
	}

	msg := gocose.NewSign1Message()
	msg.Headers.Protected.SetAlgorithm(gocose.AlgorithmEdDSA)
	msg.Headers.Unprotected[gocose.HeaderLabelKeyID] = keyID
	msg.Payload = payload

	if err := msg.Sign(rand.Reader, externalAAD, signer); err != nil {
		return nil, fmt.Errorf("cose: sign: %w", err)
	}
	return msg.MarshalCBOR()
}

// Verify decodes data as a COSE_Sign1 envelope and checks its signature
// against verifier. It returns the payload and wasReadSuccessful=true
// only when the tagged 4-array decoded cleanly with the expected member
// types AND the signature checks out — any failure is reported as a drop,
// never an error the caller must branch on (spec.md §7: "drop payload; do
// not deliver").
func Verify(data []byte, verifier Verifier, externalAAD []byte) (payload []byte, wasReadSuccessful bool) {
	var msg gocose.Sign1Message
	if err := msg.UnmarshalCBOR(data); err != nil {
		return nil, false
	}
	if err := msg.Verify(externalAAD, verifier); err != nil {
		return nil, false
	}
	return msg.Payload, true
}

// KeyID extracts the kid recorded in an envelope's unprotected header
// without verifying the signature.
func KeyID(data []byte) ([]byte, bool) {
	var msg gocose.Sign1Message
	if err := msg.UnmarshalCBOR(data); err != nil {
		return nil, false
	}
	kid, ok := msg.Headers.Unprotected[gocose.HeaderLabelKeyID].([]byte)
	return kid, ok
}
