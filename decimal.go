package avro

import "math/big"

var bigOne = big.NewInt(1)

// decimalBytes encodes r as the two's-complement big-endian unscaled integer
// required by the `decimal` logical type: the value is
// r * 10^scale, rounded towards zero, then serialized as the shortest byte
// sequence that round-trips through sign extension, except that a negative
// value of exactly -2^(8k-1) (for example -128) gets one extra leading 0xFF.
func decimalBytes(r *big.Rat, scale int) []byte {
	scaleFactor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scale)), nil)
	i := new(big.Int).Mul(r.Num(), scaleFactor)
	i.Quo(i, r.Denom())

	switch i.Sign() {
	case 0:
		return []byte{0}
	case 1:
		b := i.Bytes()
		if b[0]&0x80 > 0 {
			b = append([]byte{0}, b...)
		}
		return b
	default:
		length := uint(i.BitLen()/8+1) * 8
		return i.Add(i, new(big.Int).Lsh(bigOne, length)).Bytes()
	}
}

// decimalBytesSized is decimalBytes but left-zero-pads (for positive values)
// or left-extends (for negative values) to exactly size bytes, as required
// when the decimal is carried by a `fixed` schema rather than `bytes`.
func decimalBytesSized(r *big.Rat, scale, size int) []byte {
	scaleFactor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scale)), nil)
	i := new(big.Int).Mul(r.Num(), scaleFactor)
	i.Quo(i, r.Denom())

	switch i.Sign() {
	case 0:
		return make([]byte, size)
	case 1:
		b := i.Bytes()
		if b[0]&0x80 > 0 {
			b = append([]byte{0}, b...)
		}
		if len(b) < size {
			padded := make([]byte, size)
			copy(padded[size-len(b):], b)
			b = padded
		}
		return b
	default:
		return i.Add(i, new(big.Int).Lsh(bigOne, uint(size*8))).Bytes()
	}
}

// ratFromDecimalBytes is the inverse of decimalBytes/decimalBytesSized: b
// holds the two's-complement unscaled integer, scale gives its decimal
// exponent.
func ratFromDecimalBytes(b []byte, scale int) *big.Rat {
	i := new(big.Int).SetBytes(b)
	if len(b) > 0 && b[0]&0x80 > 0 {
		i.Sub(i, new(big.Int).Lsh(bigOne, uint(len(b))*8))
	}
	scaleFactor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scale)), nil)
	return new(big.Rat).SetFrac(i, scaleFactor)
}
