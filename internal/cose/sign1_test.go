package cose

import (
	"bytes"
	"crypto/ed25519"
	"testing"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	signer := Ed25519Signer{PrivateKey: priv}
	verifier := Ed25519Verifier{PublicKey: pub}

	payload := []byte(`{"a":1}`)
	envelope, err := Sign(signer, []byte{0x01}, nil, payload)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	got, ok := Verify(envelope, verifier, nil)
	if !ok {
		t.Fatal("expected verify to succeed")
	}
	if string(got) != string(payload) {
		t.Errorf("payload mismatch: got %q want %q", got, payload)
	}
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	signer := Ed25519Signer{PrivateKey: priv}
	verifier := Ed25519Verifier{PublicKey: pub}

	envelope, err := Sign(signer, []byte{0x01}, nil, []byte("payload"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tampered := append([]byte(nil), envelope...)
	i := bytes.Index(tampered, []byte("payload"))
	if i < 0 {
		t.Fatal("payload bytes not found in envelope")
	}
	tampered[i] ^= 0xFF

	if _, ok := Verify(tampered, verifier, nil); ok {
		t.Error("expected verify to fail on tampered payload")
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	_, priv, _ := ed25519.GenerateKey(nil)
	otherPub, _, _ := ed25519.GenerateKey(nil)

	envelope, err := Sign(Ed25519Signer{PrivateKey: priv}, []byte{0x02}, nil, []byte("payload"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, ok := Verify(envelope, Ed25519Verifier{PublicKey: otherPub}, nil); ok {
		t.Error("expected verify against the wrong key to fail")
	}
}
