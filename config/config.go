// Package config loads the on-device configuration document: identity
// bootstrap, pin assignments, reboot-loop thresholds, and broker address.
//
// Config is stored at $XDG_CONFIG_HOME/uniotcore/device.yaml (defaults to
// ~/.config/uniotcore/device.yaml). A missing file yields defaults, not an
// error — a freshly flashed device has no config yet.
package config

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// PinAbsent marks a pin/id field as unset (spec §6: pinBtn/pinLed
	// "absent if UINT8_MAX").
	PinAbsent = 0xFF

	defaultMaxRebootCount = 3
	defaultRebootWindowMs = 10000
	defaultLispHeap       = 8000
	defaultMQTTMaxPacket  = 2048
	defaultBrokerAddr     = "mqtt.uniot.io:1883"
)

// Device holds the configuration surface named in spec.md §6.
type Device struct {
	DeviceID string `yaml:"device_id"`
	OwnerID  string `yaml:"owner_id,omitempty"`

	PinBtn         uint8 `yaml:"pin_btn"`
	ActiveLevelBtn bool  `yaml:"active_level_btn"`
	PinLed         uint8 `yaml:"pin_led"`
	ActiveLevelLed bool  `yaml:"active_level_led"`

	MaxRebootCount    int    `yaml:"max_reboot_count"`
	RebootWindowMs    int    `yaml:"reboot_window_ms"`
	RegisterLispBtn   bool   `yaml:"register_lisp_btn"`
	LispHeapBytes     int    `yaml:"lisp_heap_bytes"`
	MQTTMaxPacketSize int    `yaml:"mqtt_max_packet_size"`
	BrokerAddr        string `yaml:"broker_addr,omitempty"`

	// Identity bootstrap (spec.md §3 "Credentials"). DevicePrivateKeyHex
	// is generated and persisted on first boot if empty; OwnerPublicKeyHex
	// is provisioned by the owner out-of-band and verifies inbound
	// commands (spec.md §6 "Verification key is the publisher's public
	// key... owner for downstream").
	DevicePrivateKeyHex string `yaml:"device_private_key_hex,omitempty"`
	OwnerPublicKeyHex   string `yaml:"owner_public_key_hex,omitempty"`
	KeyIDHex            string `yaml:"key_id_hex,omitempty"`
}

// HasButton reports whether a configuration button pin is assigned.
func (d Device) HasButton() bool { return d.PinBtn != PinAbsent }

// HasLed reports whether a status LED pin is assigned.
func (d Device) HasLed() bool { return d.PinLed != PinAbsent }

// Defaults returns a Device populated with spec.md §6 defaults.
func Defaults() Device {
	return Device{
		PinBtn:            PinAbsent,
		PinLed:            PinAbsent,
		MaxRebootCount:    defaultMaxRebootCount,
		RebootWindowMs:    defaultRebootWindowMs,
		RegisterLispBtn:   true,
		LispHeapBytes:     defaultLispHeap,
		MQTTMaxPacketSize: defaultMQTTMaxPacket,
		BrokerAddr:        defaultBrokerAddr,
	}
}

// Path returns the config file location, respecting XDG_CONFIG_HOME.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".config", "uniotcore", "device.yaml")
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "uniotcore", "device.yaml")
}

// StoragePath returns the on-device persisted-state database location,
// under $XDG_STATE_HOME, or ~/.local/state when that is unset
// (spec.md §4.L, §6 "Persisted state").
func StoragePath() string {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".local", "state", "uniotcore", "state.db")
		}
		dir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(dir, "uniotcore", "state.db")
}

// Load reads the device config from path. A missing file yields Defaults(),
// not an error.
func Load(path string) (Device, error) {
	dev := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return dev, nil
		}
		return Device{}, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &dev); err != nil {
		return Device{}, fmt.Errorf("parse config: %w", err)
	}
	return dev, nil
}

// Save writes dev to path, creating parent directories as needed.
func Save(path string, dev Device) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(dev)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Bootstrap loads the device config at path and, on first boot, mints a
// device keypair and key ID, persisting them back to path (spec.md §3
// "Credentials"). A device with no OwnerPublicKeyHex configured trusts
// no one yet — Identity's OwnerPublicKey stays nil until an owner is
// provisioned out-of-band.
func Bootstrap(path string) (Device, error) {
	dev, err := Load(path)
	if err != nil {
		return Device{}, err
	}
	if dev.DevicePrivateKeyHex != "" {
		return dev, nil
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Device{}, fmt.Errorf("generate device keypair: %w", err)
	}
	keyID := make([]byte, 8)
	if _, err := rand.Read(keyID); err != nil {
		return Device{}, fmt.Errorf("generate key id: %w", err)
	}

	dev.DevicePrivateKeyHex = hex.EncodeToString(priv)
	dev.KeyIDHex = hex.EncodeToString(keyID)

	if err := Save(path, dev); err != nil {
		return Device{}, err
	}
	return dev, nil
}

// Identity decodes dev's hex-encoded key material into usable Ed25519
// values. OwnerPublicKey is nil if OwnerPublicKeyHex is unset — no owner
// has been provisioned yet, and every inbound envelope will fail
// verification until one is.
type Identity struct {
	PrivateKey     ed25519.PrivateKey
	PublicKey      ed25519.PublicKey
	KeyID          []byte
	OwnerPublicKey ed25519.PublicKey
}

// DecodeIdentity parses dev's hex key fields, returning an error only if
// a present field is malformed — an absent field decodes to nil/zero.
func DecodeIdentity(dev Device) (Identity, error) {
	var id Identity

	priv, err := hex.DecodeString(dev.DevicePrivateKeyHex)
	if err != nil {
		return Identity{}, fmt.Errorf("decode device private key: %w", err)
	}
	id.PrivateKey = ed25519.PrivateKey(priv)
	if len(id.PrivateKey) == ed25519.PrivateKeySize {
		id.PublicKey = id.PrivateKey.Public().(ed25519.PublicKey)
	}

	if dev.KeyIDHex != "" {
		keyID, err := hex.DecodeString(dev.KeyIDHex)
		if err != nil {
			return Identity{}, fmt.Errorf("decode key id: %w", err)
		}
		id.KeyID = keyID
	}

	if dev.OwnerPublicKeyHex != "" {
		ownerPub, err := hex.DecodeString(dev.OwnerPublicKeyHex)
		if err != nil {
			return Identity{}, fmt.Errorf("decode owner public key: %w", err)
		}
		id.OwnerPublicKey = ed25519.PublicKey(ownerPub)
	}

	return id, nil
}
