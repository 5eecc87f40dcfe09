package identity

import (
	"crypto/ed25519"
	"fmt"

	uniotcbor "uniotcore/internal/cbor"
	"uniotcore/internal/cose"
)

// BuildBrokerPassword builds the MQTT control-plane password CBOR map
// described in spec.md §6: a protected map signed directly by the
// device's Ed25519 key (not a full COSE_Sign1 envelope — the broker
// authentication handshake is a narrower, fixed shape).
func BuildBrokerPassword(c Credentials, timestampMs int64) ([]byte, error) {
	signer, ok := c.Signer.(cose.Ed25519Signer)
	if !ok {
		return nil, fmt.Errorf("identity: broker password requires an Ed25519Signer")
	}

	root := uniotcbor.NewObject()

	protected := root.Map("protected")
	protected.PutText("device", c.DeviceID)
	protected.PutText("owner", c.OwnerID)
	protected.PutText("creator", c.CreatorID)
	protected.PutInt64("timestamp", timestampMs)

	// protected is a view into root's own storage (not a separate tree),
	// so encoding it here to sign is not the cross-tree aliasing
	// spec.md §9 forbids.
	protectedBytes, err := protected.Encode()
	if err != nil {
		return nil, fmt.Errorf("identity: encode protected: %w", err)
	}
	sig := ed25519.Sign(signer.PrivateKey, protectedBytes)

	root.Map("unprotected").PutText("alg", "EdDSA")
	root.PutBytes("signature", sig)

	return root.Encode()
}
