// Package pinuv implements CTAP2 PIN/UV auth protocols 1 and 2: ECDH key
// agreement, HMAC-based message authentication, and AES-CBC encryption
// with protocol-dependent IVs (spec.md §4.3).
package pinuv

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"io"

	"github.com/gravitational/trace"
	"golang.org/x/crypto/hkdf"

	"github.com/yubicore/yubicore/secret"
)

// Version identifies a PIN/UV auth protocol.
type Version uint32

const (
	Version1 Version = 1
	Version2 Version = 2
)

// Negotiate picks the first protocol version common to the host's
// supported set (in host-preference order) and the authenticator's
// advertised pinUvAuthProtocols.
func Negotiate(hostSupported []Version, authenticatorSupported []uint32) (Version, error) {
	supported := make(map[uint32]bool, len(authenticatorSupported))
	for _, v := range authenticatorSupported {
		supported[v] = true
	}
	for _, v := range hostSupported {
		if supported[uint32(v)] {
			return v, nil
		}
	}
	return 0, trace.BadParameter("pinuv: no common pinUvAuthProtocol")
}

// Protocol implements the version-specific key exchange, authenticate, and
// encrypt/decrypt operations.
type Protocol interface {
	Version() Version
	// KeyAgreement generates an ephemeral P-256 key pair for
	// authenticatorClientPIN getKeyAgreement.
	KeyAgreement() (*ecdh.PrivateKey, error)
	// SharedSecret derives the shared secret from the platform's ephemeral
	// private key and the authenticator's public key (as returned in the
	// getKeyAgreement COSE key).
	SharedSecret(platformPriv *ecdh.PrivateKey, authenticatorPub *ecdh.PublicKey) (*secret.Bytes, error)
	// Authenticate computes pinUvAuthParam = AUTHENTICATE(key, message).
	Authenticate(key *secret.Bytes, message []byte) []byte
	// Encrypt encrypts plaintext under key, per protocol-specific IV rules.
	Encrypt(key *secret.Bytes, plaintext []byte) ([]byte, error)
	// Decrypt reverses Encrypt.
	Decrypt(key *secret.Bytes, ciphertext []byte) ([]byte, error)
}

// For selects the Protocol implementation for v.
func For(v Version) (Protocol, error) {
	switch v {
	case Version1:
		return protocol1{}, nil
	case Version2:
		return protocol2{}, nil
	default:
		return nil, trace.BadParameter("pinuv: unsupported protocol version %d", v)
	}
}

func ecdhKeyAgreement() (*ecdh.PrivateKey, error) {
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return priv, nil
}

func ecdhXCoord(platformPriv *ecdh.PrivateKey, authenticatorPub *ecdh.PublicKey) ([]byte, error) {
	z, err := platformPriv.ECDH(authenticatorPub)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return z, nil
}

// protocol1 is the 32-byte shared-secret variant.
type protocol1 struct{}

func (protocol1) Version() Version { return Version1 }

func (protocol1) KeyAgreement() (*ecdh.PrivateKey, error) { return ecdhKeyAgreement() }

func (protocol1) SharedSecret(platformPriv *ecdh.PrivateKey, authenticatorPub *ecdh.PublicKey) (*secret.Bytes, error) {
	z, err := ecdhXCoord(platformPriv, authenticatorPub)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	sum := sha256.Sum256(z)
	return secret.New(sum[:]), nil
}

func (protocol1) Authenticate(key *secret.Bytes, message []byte) []byte {
	mac := hmac.New(sha256.New, key.Bytes())
	mac.Write(message)
	return mac.Sum(nil)[:16]
}

func (protocol1) Encrypt(key *secret.Bytes, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key.Bytes())
	if err != nil {
		return nil, trace.Wrap(err)
	}
	if len(plaintext)%aes.BlockSize != 0 {
		return nil, trace.BadParameter("pinuv: plaintext not block-aligned")
	}
	iv := make([]byte, aes.BlockSize)
	out := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, plaintext)
	return out, nil
}

func (protocol1) Decrypt(key *secret.Bytes, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key.Bytes())
	if err != nil {
		return nil, trace.Wrap(err)
	}
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, trace.BadParameter("pinuv: ciphertext not block-aligned")
	}
	iv := make([]byte, aes.BlockSize)
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
	return out, nil
}

// protocol2 is the 64-byte keyed-pair (HMAC key || AES key) variant.
type protocol2 struct{}

func (protocol2) Version() Version { return Version2 }

func (protocol2) KeyAgreement() (*ecdh.PrivateKey, error) { return ecdhKeyAgreement() }

func (protocol2) SharedSecret(platformPriv *ecdh.PrivateKey, authenticatorPub *ecdh.PublicKey) (*secret.Bytes, error) {
	z, err := ecdhXCoord(platformPriv, authenticatorPub)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	hmacKey, err := hkdfExpand(z, "CTAP2 HMAC key")
	if err != nil {
		return nil, trace.Wrap(err)
	}
	aesKey, err := hkdfExpand(z, "CTAP2 AES key")
	if err != nil {
		return nil, trace.Wrap(err)
	}
	combined := make([]byte, 0, 64)
	combined = append(combined, hmacKey...)
	combined = append(combined, aesKey...)
	return secret.New(combined), nil
}

func hkdfExpand(z []byte, info string) ([]byte, error) {
	salt := make([]byte, 32)
	r := hkdf.New(sha256.New, z, salt, []byte(info))
	out := make([]byte, 32)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, trace.Wrap(err)
	}
	return out, nil
}

func (protocol2) Authenticate(key *secret.Bytes, message []byte) []byte {
	hmacKey := key.Bytes()[:32]
	mac := hmac.New(sha256.New, hmacKey)
	mac.Write(message)
	return mac.Sum(nil)
}

func (protocol2) Encrypt(key *secret.Bytes, plaintext []byte) ([]byte, error) {
	aesKey := key.Bytes()[32:64]
	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	if len(plaintext)%aes.BlockSize != 0 {
		return nil, trace.BadParameter("pinuv: plaintext not block-aligned")
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, trace.Wrap(err)
	}
	out := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, plaintext)
	return append(iv, out...), nil
}

func (protocol2) Decrypt(key *secret.Bytes, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < aes.BlockSize {
		return nil, trace.BadParameter("pinuv: ciphertext shorter than IV")
	}
	aesKey := key.Bytes()[32:64]
	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	iv, body := ciphertext[:aes.BlockSize], ciphertext[aes.BlockSize:]
	if len(body)%aes.BlockSize != 0 {
		return nil, trace.BadParameter("pinuv: ciphertext not block-aligned")
	}
	out := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, body)
	return out, nil
}
