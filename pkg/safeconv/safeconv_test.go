package safeconv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/githarvest/githarvest/pkg/safeconv"
)

func TestMustUintToInt(t *testing.T) {
	t.Parallel()

	t.Run("normal value", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 42, safeconv.MustUintToInt(42))
	})

	t.Run("zero", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 0, safeconv.MustUintToInt(0))
	})

	t.Run("max int", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, safeconv.MaxInt, safeconv.MustUintToInt(uint(safeconv.MaxInt)))
	})

	t.Run("overflow panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() {
			safeconv.MustUintToInt(uint(safeconv.MaxInt) + 1)
		})
	})
}

func TestMustIntToUint(t *testing.T) {
	t.Parallel()

	t.Run("normal value", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, uint(42), safeconv.MustIntToUint(42))
	})

	t.Run("zero", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, uint(0), safeconv.MustIntToUint(0))
	})

	t.Run("negative panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() {
			safeconv.MustIntToUint(-1)
		})
	})
}
