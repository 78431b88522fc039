// Package cityhash102 implements the 128-bit CityHash of version 1.0.2,
// the exact variant the server uses to checksum compression frames. Later
// CityHash versions (1.1+) changed the mixing and are NOT wire compatible,
// which is why this lives in-tree instead of behind a dependency.
package cityhash102

import "encoding/binary"

const (
	k0 uint64 = 0xc3a5c85c97cb3127
	k1 uint64 = 0xb492b66fbe98f273
	k2 uint64 = 0x9ae16a3b2f90404f
	k3 uint64 = 0xc949d7c7509e6557

	kMul uint64 = 0x9ddfea08eb382d69
)

// U128 is an unsigned 128-bit hash value split into 64-bit halves.
type U128 struct {
	Low  uint64
	High uint64
}

func fetch64(p []byte) uint64 {
	return binary.LittleEndian.Uint64(p)
}

func fetch32(p []byte) uint32 {
	return binary.LittleEndian.Uint32(p)
}

func rotate(val uint64, shift uint) uint64 {
	if shift == 0 {
		return val
	}
	return (val >> shift) | (val << (64 - shift))
}

func rotateByAtLeast1(val uint64, shift uint) uint64 {
	return (val >> shift) | (val << (64 - shift))
}

func shiftMix(val uint64) uint64 {
	return val ^ (val >> 47)
}

func hash128to64(x U128) uint64 {
	a := (x.Low ^ x.High) * kMul
	a ^= a >> 47
	b := (x.High ^ a) * kMul
	b ^= b >> 47
	b *= kMul
	return b
}

func hashLen16(u, v uint64) uint64 {
	return hash128to64(U128{u, v})
}

func hashLen0to16(s []byte) uint64 {
	n := uint64(len(s))
	if n > 8 {
		a := fetch64(s)
		b := fetch64(s[n-8:])
		return hashLen16(a, rotateByAtLeast1(b+n, uint(n))) ^ b
	}
	if n >= 4 {
		a := uint64(fetch32(s))
		return hashLen16(n+(a<<3), uint64(fetch32(s[n-4:])))
	}
	if n > 0 {
		a := uint64(s[0])
		b := uint64(s[n>>1])
		c := uint64(s[n-1])
		y := a + (b << 8)
		z := n + (c << 2)
		return shiftMix(y*k2^z*k3) * k2
	}
	return k2
}

func weakHashLen32WithSeedsRaw(w, x, y, z, a, b uint64) (uint64, uint64) {
	a += w
	b = rotate(b+a+z, 21)
	c := a
	a += x
	a += y
	b += rotate(a, 44)
	return a + z, b + c
}

func weakHashLen32WithSeeds(s []byte, a, b uint64) (uint64, uint64) {
	return weakHashLen32WithSeedsRaw(
		fetch64(s), fetch64(s[8:]), fetch64(s[16:]), fetch64(s[24:]), a, b)
}

func cityMurmur(s []byte, seed U128) U128 {
	n := len(s)
	a := seed.Low
	b := seed.High
	var c, d uint64
	l := n - 16
	if l <= 0 {
		a = shiftMix(a*k1) * k1
		c = b*k1 + hashLen0to16(s)
		if n >= 8 {
			d = shiftMix(a + fetch64(s))
		} else {
			d = shiftMix(a + c)
		}
	} else {
		c = hashLen16(fetch64(s[n-8:])+k1, a)
		d = hashLen16(b+uint64(n), c+fetch64(s[n-16:]))
		a += d
		for {
			a ^= shiftMix(fetch64(s)*k1) * k1
			a *= k1
			b ^= a
			c ^= shiftMix(fetch64(s[8:])*k1) * k1
			c *= k1
			d ^= c
			s = s[16:]
			l -= 16
			if l <= 0 {
				break
			}
		}
	}
	a = hashLen16(a, c)
	b = hashLen16(d, b)
	return U128{a ^ b, hashLen16(b, a)}
}

func cityHash128WithSeed(s []byte, seed U128) U128 {
	n := len(s)
	if n < 128 {
		return cityMurmur(s, seed)
	}

	// pos walks the buffer; the tail loop below reads back across the
	// last processed chunk, so plain re-slicing would go out of range.
	pos := 0
	var v, w [2]uint64
	x := seed.Low
	y := seed.High
	z := uint64(n) * k1
	v[0] = rotate(y^k1, 49)*k1 + fetch64(s)
	v[1] = rotate(v[0], 42)*k1 + fetch64(s[8:])
	w[0] = rotate(y+z, 35)*k1 + x
	w[1] = rotate(x+fetch64(s[88:]), 53) * k1

	for {
		x = rotate(x+y+v[0]+fetch64(s[pos+16:]), 37) * k1
		y = rotate(y+v[1]+fetch64(s[pos+48:]), 42) * k1
		x ^= w[1]
		y ^= v[0]
		z = rotate(z^w[0], 33)
		v[0], v[1] = weakHashLen32WithSeeds(s[pos:], v[1]*k1, x+w[0])
		w[0], w[1] = weakHashLen32WithSeeds(s[pos+32:], z+w[1], y)
		z, x = x, z
		pos += 64

		x = rotate(x+y+v[0]+fetch64(s[pos+16:]), 37) * k1
		y = rotate(y+v[1]+fetch64(s[pos+48:]), 42) * k1
		x ^= w[1]
		y ^= v[0]
		z = rotate(z^w[0], 33)
		v[0], v[1] = weakHashLen32WithSeeds(s[pos:], v[1]*k1, x+w[0])
		w[0], w[1] = weakHashLen32WithSeeds(s[pos+32:], z+w[1], y)
		z, x = x, z
		pos += 64

		n -= 128
		if n < 128 {
			break
		}
	}
	y += rotate(w[0], 37)*k0 + z
	x += rotate(v[0]+z, 49) * k0

	// Hash up to four 32-byte chunks from the tail; offsets may reach
	// back before pos into already-processed bytes.
	for tailDone := 0; tailDone < n; {
		tailDone += 32
		y = rotate(y-x, 42)*k0 + v[1]
		w[0] += fetch64(s[pos+n-tailDone+16:])
		x = rotate(x, 49)*k0 + w[0]
		w[0] += v[0]
		v[0], v[1] = weakHashLen32WithSeeds(s[pos+n-tailDone:], v[0], v[1])
	}

	x = hashLen16(x, v[0])
	y = hashLen16(y, w[0])
	return U128{
		hashLen16(x+v[1], w[1]) + y,
		hashLen16(x+w[1], y+v[1]),
	}
}

// CityHash128 computes the 128-bit CityHash (v1.0.2) of s.
func CityHash128(s []byte) U128 {
	n := len(s)
	switch {
	case n >= 16:
		return cityHash128WithSeed(s[16:], U128{
			fetch64(s) ^ k3,
			fetch64(s[8:]),
		})
	case n >= 8:
		return cityHash128WithSeed(nil, U128{
			fetch64(s) ^ (uint64(n) * k0),
			fetch64(s[n-8:]) ^ k1,
		})
	default:
		return cityHash128WithSeed(s, U128{k0, k1})
	}
}
