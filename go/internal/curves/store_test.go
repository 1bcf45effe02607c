package curves

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToleranceFor(t *testing.T) {
	cases := map[Difficulty]float64{
		Easy:   15,
		Medium: 10,
		Hard:   6,
	}

	for d, want := range cases {
		t.Run(string(d), func(t *testing.T) {
			curve := ToleranceFor(d)
			require.Len(t, curve, Length)
			for i, v := range curve {
				assert.Equal(t, want, v, "tick %d", i)
			}
		})
	}
}

func TestToleranceFor_UnknownUsesHardBand(t *testing.T) {
	curve := ToleranceFor(Difficulty("Nightmare"))
	require.Len(t, curve, Length)
	assert.Equal(t, 6.0, curve[0])
}

func TestParseDifficulty(t *testing.T) {
	d, ok := ParseDifficulty("medium")
	assert.True(t, ok)
	assert.Equal(t, Medium, d)

	d, ok = ParseDifficulty(" HARD ")
	assert.True(t, ok)
	assert.Equal(t, Hard, d)

	d, ok = ParseDifficulty("Nightmare")
	assert.False(t, ok)
	assert.Equal(t, Difficulty("Nightmare"), d)
	assert.False(t, d.Known())
}

func TestDefault_HasAllDifficulties(t *testing.T) {
	store, err := Default()
	require.NoError(t, err)

	for _, d := range []Difficulty{Easy, Medium, Hard} {
		target, tolerance := store.Lookup(d)
		require.Len(t, target, Length, string(d))
		require.Len(t, tolerance, Length, string(d))

		var nonZero bool
		for _, v := range target {
			if v != 0 {
				nonZero = true
			}
		}
		assert.True(t, nonZero, "%s curve should come from the dataset", d)
	}
}

func TestLookup_ReturnsCopies(t *testing.T) {
	store, err := Default()
	require.NoError(t, err)

	first, _ := store.Lookup(Easy)
	first[0] = -1

	second, _ := store.Lookup(Easy)
	assert.NotEqual(t, -1.0, second[0])
}

func TestLookup_UnknownDifficultyFallsBackToZeroCurve(t *testing.T) {
	store, err := Default()
	require.NoError(t, err)

	target, tolerance := store.Lookup(Difficulty("Nightmare"))
	require.Len(t, target, Length)
	require.Len(t, tolerance, Length)
	for _, v := range target {
		assert.Zero(t, v)
	}
}

func TestLookup_WrongLengthFallsBackToZeroCurve(t *testing.T) {
	store, err := Load([]byte("curves:\n  easy: [10, 20, 30]\n"))
	require.NoError(t, err)

	target, _ := store.Lookup(Easy)
	require.Len(t, target, Length)
	assert.Equal(t, make(Curve, Length), target)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load([]byte("curves: [unterminated"))
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curves.yaml")
	require.NoError(t, os.WriteFile(path, defaultDataset, 0o600))

	store, err := LoadFile(path)
	require.NoError(t, err)

	target, _ := store.Lookup(Hard)
	assert.Equal(t, 27.2, target[0])

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
