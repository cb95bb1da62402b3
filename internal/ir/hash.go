package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows a future
// change of encoding without colliding with old hashes.
const (
	DomainIR     = "tempo/ir/v1"
	DomainSource = "tempo/source/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data). The separator keeps
// the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Canonical returns the canonical JSON encoding of a program.
func Canonical(p *Program) ([]byte, error) {
	data, err := MarshalCanonical(Encode(p))
	if err != nil {
		return nil, fmt.Errorf("canonical IR: %w", err)
	}
	return data, nil
}

// Fingerprint is the content hash of a program's canonical encoding.
// Structurally identical programs have equal fingerprints.
func Fingerprint(p *Program) (string, error) {
	data, err := Canonical(p)
	if err != nil {
		return "", err
	}
	return hashWithDomain(DomainIR, data), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests.
func MustFingerprint(p *Program) string {
	fp, err := Fingerprint(p)
	if err != nil {
		panic(err)
	}
	return fp
}

// SourceHash is the content hash of a unit's source text, used as the
// compilation cache key.
func SourceHash(src string) string {
	return hashWithDomain(DomainSource, []byte(src))
}
