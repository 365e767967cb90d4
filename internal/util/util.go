package util

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"gopkg.in/yaml.v2"
)

func HashString(str string) string {
	hasher := sha1.New()
	hasher.Write([]byte(str))

	return hex.EncodeToString(hasher.Sum(nil))
}

// Fingerprint hashes the YAML encoding of v. Maps are encoded with sorted
// keys, so equal values give equal fingerprints.
func Fingerprint(v any) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("cannot encode value: %w", err)
	}

	return HashString(string(data)), nil
}
