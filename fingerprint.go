package avro

import (
	"crypto/md5" //nolint:gosec // MD5 fingerprinting is part of the Avro spec, not used for security.
	"crypto/sha256"
	"fmt"

	"github.com/brisktype/avro/pkg/crc64"
)

// FingerprintType identifies a schema fingerprinting algorithm.
type FingerprintType string

// Supported fingerprint algorithms.
const (
	CRC64Avro   FingerprintType = "CRC-64-AVRO"
	MD5Fp       FingerprintType = "MD5"
	SHA256Fp    FingerprintType = "SHA-256"
)

func crc64AvroLE(data []byte) [8]byte {
	return crc64.SumWithByteOrder(data, crc64.LittleEndian)
}

// FingerprintUsing returns the fingerprint of a schema's canonical form
// using the named algorithm.
func FingerprintUsing(typ FingerprintType, s Schema) ([]byte, error) {
	canon := []byte(canonicalString(s))

	switch typ {
	case CRC64Avro:
		sum := crc64AvroLE(canon)
		return sum[:], nil
	case MD5Fp:
		sum := md5.Sum(canon) //nolint:gosec
		return sum[:], nil
	case SHA256Fp:
		sum := sha256.Sum256(canon)
		return sum[:], nil
	default:
		return nil, fmt.Errorf("avro: unknown fingerprint algorithm %q", typ)
	}
}
