// Package identity holds a device's broker identity (spec.md §3:
// "Credentials") and the embedded signer used to authenticate to the
// broker and to sign outbound payloads.
package identity

import (
	"crypto/ed25519"

	"uniotcore/internal/cose"
)

// Credentials identifies a device to the broker control plane. Identity
// changes only at provisioning (spec.md §3); OwnerChanged is set when a
// new owner has been assigned and cleared once the MQTT kit has
// re-subscribed under the new owner's scope (spec.md §4.J "Renewal").
type Credentials struct {
	DeviceID  string
	OwnerID   string
	CreatorID string
	PublicKey ed25519.PublicKey
	KeyID     []byte

	Signer cose.Signer

	OwnerChanged bool
}

// NewCredentials builds Credentials backed by the standard Ed25519Signer.
func NewCredentials(deviceID, ownerID, creatorID string, pub ed25519.PublicKey, priv ed25519.PrivateKey, keyID []byte) Credentials {
	return Credentials{
		DeviceID:  deviceID,
		OwnerID:   ownerID,
		CreatorID: creatorID,
		PublicKey: pub,
		KeyID:     keyID,
		Signer:    cose.Ed25519Signer{PrivateKey: priv},
	}
}

// SetOwner updates OwnerID and raises OwnerChanged so the MQTT kit knows
// to re-subscribe on the next successful connect.
func (c *Credentials) SetOwner(ownerID string) {
	if ownerID == c.OwnerID {
		return
	}
	c.OwnerID = ownerID
	c.OwnerChanged = true
}

// AckOwnerChange clears OwnerChanged once the MQTT kit has acted on it.
func (c *Credentials) AckOwnerChange() { c.OwnerChanged = false }

// ClientID returns the MQTT client id for this device (spec.md §6).
func (c Credentials) ClientID() string { return "device:" + c.DeviceID }
