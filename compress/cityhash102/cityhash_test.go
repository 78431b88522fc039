package cityhash102

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeterministic(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog")
	first := CityHash128(data)
	second := CityHash128(data)
	assert.Equal(t, first, second)
}

func TestLengthBoundaries(t *testing.T) {
	// Each length class takes a different code path; all must produce
	// stable, distinct hashes.
	seen := make(map[U128]int)
	for _, n := range []int{0, 1, 3, 7, 8, 15, 16, 17, 31, 32, 63, 64, 127, 128, 129, 255, 256, 1000} {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i * 31)
		}
		h := CityHash128(data)
		if prev, ok := seen[h]; ok {
			t.Fatalf("collision between lengths %d and %d", prev, n)
		}
		seen[h] = n
	}
}

func TestSingleBitChanges(t *testing.T) {
	base := make([]byte, 200)
	for i := range base {
		base[i] = byte(i)
	}
	baseHash := CityHash128(base)

	for _, pos := range []int{0, 1, 15, 16, 99, 199} {
		flipped := append([]byte{}, base...)
		flipped[pos] ^= 0x01
		assert.NotEqual(t, baseHash, CityHash128(flipped), "bit flip at %d", pos)
	}
}

func TestEmptyInput(t *testing.T) {
	h := CityHash128(nil)
	assert.NotEqual(t, U128{}, h)
	assert.Equal(t, h, CityHash128([]byte{}))
}
