package limits

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveKnownValues(t *testing.T) {
	tests := []struct {
		name         string
		gas          uint64
		gasLimit     uint64
		storageLimit uint32
	}{
		{"zero gas", 0, 0, 1},
		{"packed below clamp", 1021, 10 * 30_000, 1 << 21},
		{"exact clamp boundary", 121, 30_000, 1 << 21},
		{"below clamp boundary", 120, 30_000, 1 << 20},
		{"storage exponent clamped", 123456, 7_020_000, 1 << 21},
		{"high digits discarded", 900_023_456, 7_020_000, 1 << 21},
		{"small exponent", 305, 90_000, 1 << 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gasLimit, storageLimit := Derive(tt.gas)
			assert.Equal(t, tt.gasLimit, gasLimit)
			assert.Equal(t, tt.storageLimit, storageLimit)
		})
	}
}

func TestDeriveStorageLimitIsBoundedPowerOfTwo(t *testing.T) {
	for gas := uint64(0); gas < 300_000; gas++ {
		_, storageLimit := Derive(gas)
		assert.GreaterOrEqual(t, storageLimit, uint32(1))
		assert.LessOrEqual(t, storageLimit, uint32(1<<21))
		assert.Zero(t, storageLimit&(storageLimit-1), "storage limit %d for gas %d is not a power of two", storageLimit, gas)
	}
}

func TestDeriveIsPure(t *testing.T) {
	for _, gas := range []uint64{0, 1, 99, 123456, 18_446_744_073_709_551_615} {
		firstGas, firstStorage := Derive(gas)
		for i := 0; i < 10; i++ {
			gasLimit, storageLimit := Derive(gas)
			assert.Equal(t, firstGas, gasLimit)
			assert.Equal(t, firstStorage, storageLimit)
		}
	}
}
