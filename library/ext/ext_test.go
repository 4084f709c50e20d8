package ext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scoring struct {
	LowestHandPoints int
	CallBonus        int
	Tags             []string
}

func TestRandInt(t *testing.T) {
	for i := 0; i < 1000; i++ {
		v := RandInt(3, 7)
		assert.GreaterOrEqual(t, v, 3)
		assert.Less(t, v, 7)
	}
	assert.Equal(t, 5, RandInt(5, 5))
	assert.Equal(t, 2.5, RandFloat(2.5, 1.0))
}

func TestNewRandIndependent(t *testing.T) {
	a, b := NewRand(), NewRand()
	same := true
	for i := 0; i < 8; i++ {
		if a.Uint64() != b.Uint64() {
			same = false
		}
	}
	assert.False(t, same)
}

func TestDiffLog(t *testing.T) {
	old := &scoring{LowestHandPoints: 1, CallBonus: 1}
	cur := &scoring{LowestHandPoints: 1, CallBonus: 2}

	changes, text, err := DiffLog(old, cur)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, []string{"CallBonus"}, changes[0].Path)
	assert.Contains(t, text, "CallBonus: 1 -> 2")

	changes, text, err = DiffLog(old, old)
	require.NoError(t, err)
	assert.Empty(t, changes)
	assert.Empty(t, text)
}

func TestDeepCopy(t *testing.T) {
	src := &scoring{LowestHandPoints: 3, CallBonus: 4, Tags: []string{"a"}}
	dst := &scoring{}
	require.NoError(t, DeepCopy(dst, src))
	assert.Equal(t, src, dst)

	src.Tags[0] = "b"
	assert.Equal(t, "a", dst.Tags[0])
}
