package websession

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateSessionSecret creates a random 32-byte secret for CSRF signing.
func GenerateSessionSecret() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// CSRFSecret decodes a configured hex secret, falling back to the raw
// bytes for non-hex values. An empty value yields a fresh random secret,
// reported through generated.
func CSRFSecret(configured string) (secret []byte, generated bool, err error) {
	if configured != "" {
		if secret, err = hex.DecodeString(configured); err != nil {
			return []byte(configured), false, nil
		}
		return secret, false, nil
	}

	hexSecret, err := GenerateSessionSecret()
	if err != nil {
		return nil, false, err
	}
	secret, _ = hex.DecodeString(hexSecret)
	return secret, true, nil
}
