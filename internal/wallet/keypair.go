package wallet

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// Keypair is a local ed25519 identity, used as the AMM authority.
type Keypair struct {
	priv solana.PrivateKey
	pub  solana.PublicKey
}

// NewKeypair parses a base58-encoded 64-byte key or a solana-keygen JSON array.
func NewKeypair(privateKey string) (*Keypair, error) {
	if strings.TrimSpace(privateKey) == "" {
		return nil, fmt.Errorf("wallet: private key is required")
	}
	priv, err := ParsePrivateKey(privateKey)
	if err != nil {
		return nil, err
	}
	return &Keypair{priv: priv, pub: priv.PublicKey()}, nil
}

// LoadKeypair accepts either a key literal or a path to a solana-keygen file.
func LoadKeypair(keyOrPath string) (*Keypair, error) {
	s := strings.TrimSpace(keyOrPath)
	if s == "" {
		return nil, fmt.Errorf("wallet: private key is required")
	}
	if !strings.HasPrefix(s, "[") {
		if info, err := os.Stat(s); err == nil && !info.IsDir() {
			data, err := os.ReadFile(s)
			if err != nil {
				return nil, fmt.Errorf("wallet: read key file: %w", err)
			}
			s = string(data)
		}
	}
	return NewKeypair(s)
}

func NewRandomKeypair() (*Keypair, error) {
	priv, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("wallet: generate key: %w", err)
	}
	return &Keypair{priv: priv, pub: priv.PublicKey()}, nil
}

func (k *Keypair) Address() string             { return k.pub.String() }
func (k *Keypair) PublicKey() solana.PublicKey { return k.pub }

// Base58 returns the private key in the format NewKeypair accepts.
func (k *Keypair) Base58() string { return base58.Encode(k.priv) }

func ParsePrivateKey(s string) (solana.PrivateKey, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		var ints []int
		if err := json.Unmarshal([]byte(s), &ints); err != nil {
			return nil, fmt.Errorf("wallet: invalid JSON private key: %w", err)
		}
		b := make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("wallet: invalid byte at %d: %d", i, v)
			}
			b[i] = byte(v)
		}
		if len(b) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("wallet: expected %d bytes, got %d", ed25519.PrivateKeySize, len(b))
		}
		return solana.PrivateKey(ed25519.PrivateKey(b)), nil
	}

	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("wallet: invalid base58 private key: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("wallet: expected %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}
	return solana.PrivateKey(ed25519.PrivateKey(raw)), nil
}
