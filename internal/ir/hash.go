package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content digests.
// Version suffix enables future algorithm migration.
const (
	DomainState = "tradesim/state/v1"
	DomainTrace = "tradesim/trace/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest returns the domain-separated SHA-256 of v's canonical JSON
// projection. Two values with equal digests are equal by value.
func Digest(domain string, v any) (string, error) {
	canonical, err := MarshalCanonicalStruct(v)
	if err != nil {
		return "", fmt.Errorf("digest %s: %w", domain, err)
	}
	return hashWithDomain(domain, canonical), nil
}

// StateDigest digests a state snapshot.
func StateDigest(v any) (string, error) {
	return Digest(DomainState, v)
}

// MustStateDigest is like StateDigest but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustStateDigest(v any) string {
	d, err := StateDigest(v)
	if err != nil {
		panic(err)
	}
	return d
}
