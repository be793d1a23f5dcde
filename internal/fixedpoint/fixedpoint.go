// Package fixedpoint provides two's-complement width helpers for the
// fixed-point datapath: range checks, wrapping and guard-bit accounting.
package fixedpoint

import "math/bits"

// MaxWidth is the widest signed value representable in an int64 datapath
// with one spare bit for intermediate products.
const MaxWidth = 63

// MinValue returns the most negative value of a signed width-bit number.
func MinValue(width uint) int64 {
	if width == 0 {
		return 0
	}
	return -(int64(1) << (width - 1))
}

// MaxValue returns the most positive value of a signed width-bit number.
func MaxValue(width uint) int64 {
	if width == 0 {
		return 0
	}
	return int64(1)<<(width-1) - 1
}

// Fits reports whether v is representable as a signed width-bit number.
func Fits(v int64, width uint) bool {
	return v >= MinValue(width) && v <= MaxValue(width)
}

// Wrap truncates v to width bits and sign-extends the result, which is what a
// width-bit register does with an overflowing sum.
func Wrap(v int64, width uint) int64 {
	if width == 0 || width >= 64 {
		return v
	}
	shift := 64 - width
	return (v << shift) >> shift
}

// BitsFor returns the signed width needed to hold every value in [-m, m].
func BitsFor(m uint64) uint {
	if m == 0 {
		return 1
	}
	return uint(bits.Len64(m)) + 1
}

// AbsSum returns the sum of absolute values of coeffs and whether it overflowed.
func AbsSum(coeffs []int64) (uint64, bool) {
	var sum uint64
	for _, c := range coeffs {
		a := uint64(c)
		if c < 0 {
			a = uint64(-c)
		}
		next, carry := bits.Add64(sum, a, 0)
		if carry != 0 {
			return 0, false
		}
		sum = next
	}
	return sum, true
}

// Headroom reports whether a width-bit accumulator can hold the worst-case
// dot product of inWidth-bit samples with coeffs. The worst case is every
// sample at the negative rail, whose magnitude is 2^(inWidth-1).
func Headroom(coeffs []int64, inWidth, accWidth uint) bool {
	sum, ok := AbsSum(coeffs)
	if !ok || inWidth == 0 || accWidth == 0 || accWidth > MaxWidth {
		return false
	}
	hi, lo := bits.Mul64(sum, uint64(1)<<(inWidth-1))
	if hi != 0 {
		return false
	}
	return lo <= uint64(MaxValue(accWidth))
}
