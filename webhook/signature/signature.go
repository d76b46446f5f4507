package signature

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// secretSuffix is appended to the installation key before hashing
const secretSuffix = "webhook_key"

/* Secret is the per-installation signing key
 * Derived once from the installation key; receivers compute the same value
 */
type Secret struct {
	raw string
}

// DeriveSecret returns hex(md5(installationKey + "webhook_key"))
func DeriveSecret(installationKey string) (Secret, error) {
	if installationKey == "" {
		return Secret{}, fmt.Errorf("installation key cannot be empty")
	}
	sum := md5.Sum([]byte(installationKey + secretSuffix))
	return Secret{raw: hex.EncodeToString(sum[:])}, nil
}

// String returns the hex-encoded secret
func (s Secret) String() string {
	return s.raw
}

// Bytes returns the secret as HMAC key bytes
func (s Secret) Bytes() []byte {
	return []byte(s.raw)
}

// IsZero reports whether the secret was never derived
func (s Secret) IsZero() bool {
	return s.raw == ""
}

// Sign returns base64(HMAC-SHA256(secret, payload))
// Deterministic: no timestamp or nonce is mixed in
func Sign(secret Secret, payload []byte) string {
	mac := hmac.New(sha256.New, secret.Bytes())
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify verifies a signature using constant-time comparison
func Verify(secret Secret, payload []byte, signature string) (bool, error) {
	expected, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false, fmt.Errorf("decoding signature: %w", err)
	}

	mac := hmac.New(sha256.New, secret.Bytes())
	mac.Write(payload)

	return subtle.ConstantTimeCompare(expected, mac.Sum(nil)) == 1, nil
}

// Signer binds a derived secret for repeated signing
type Signer struct {
	secret Secret
}

// NewSigner derives the secret once for the process lifetime
func NewSigner(installationKey string) (*Signer, error) {
	secret, err := DeriveSecret(installationKey)
	if err != nil {
		return nil, fmt.Errorf("deriving secret: %w", err)
	}
	return &Signer{secret: secret}, nil
}

// Sign signs a serialized payload
func (s *Signer) Sign(payload []byte) string {
	return Sign(s.secret, payload)
}

// Secret returns the derived secret, e.g. to hand to receivers
func (s *Signer) Secret() Secret {
	return s.secret
}
