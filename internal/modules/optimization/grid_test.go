package optimization

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aristath/sentinel-tuner/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultGrid(t *testing.T) {
	g := DefaultGrid()

	assert.Equal(t, []int{10, 15, 20, 25, 30, 35, 40, 50}, g.BuyScore)
	assert.Equal(t, []float64{28, 35, 45, 50}, g.BuyRSIMax)
	assert.Equal(t, []int{-30, -25, -20, -15, -10, -5, 0}, g.SellScore)
	assert.Equal(t, []int{-15, -10, -5, 0, 5, 10}, g.SellScoreMild)
	assert.Equal(t, []float64{35, 40, 45, 50}, g.SellRSIMin)
	assert.Equal(t, []float64{0.7, 0.8, 0.9, 1.0, 1.1, 1.5}, g.SellBB)
	assert.Equal(t, []bool{true, false}, g.RequireMACDImproving)
	assert.Equal(t, []float64{0.03, 0.05, 0.08}, g.AllocPct)

	assert.Equal(t, 193536, g.Size())
	assert.NoError(t, g.Validate())
}

func TestGrid_AtEnumerationOrder(t *testing.T) {
	g := DefaultGrid()

	assert.Equal(t, domain.ParameterSet{
		BuyScore: 10, BuyRSIMax: 28, SellScore: -30, SellScoreMild: -15,
		SellRSIMin: 35, SellBB: 0.7, RequireMACDImproving: true, AllocPct: 0.03,
	}, g.At(0))

	// alloc_pct is the innermost loop
	assert.Equal(t, 0.05, g.At(1).AllocPct)
	assert.Equal(t, 0.08, g.At(2).AllocPct)

	// then require_macd_improving
	third := g.At(3)
	assert.False(t, third.RequireMACDImproving)
	assert.Equal(t, 0.03, third.AllocPct)

	// buy_score is the outermost loop
	perBuyScore := g.Size() / len(g.BuyScore)
	assert.Equal(t, 15, g.At(perBuyScore).BuyScore)
	assert.Equal(t, 10, g.At(perBuyScore-1).BuyScore)

	assert.Equal(t, domain.ParameterSet{
		BuyScore: 50, BuyRSIMax: 50, SellScore: 0, SellScoreMild: 10,
		SellRSIMin: 50, SellBB: 1.5, RequireMACDImproving: false, AllocPct: 0.08,
	}, g.At(g.Size()-1))
}

func TestGrid_CombinationsAreDistinct(t *testing.T) {
	g := Grid{
		BuyScore:             []int{10, 20},
		BuyRSIMax:            []float64{30},
		SellScore:            []int{-20, -10},
		SellScoreMild:        []int{0},
		SellRSIMin:           []float64{40},
		SellBB:               []float64{0.9, 1.1},
		RequireMACDImproving: []bool{true, false},
		AllocPct:             []float64{0.05},
	}

	combos := g.Combinations()
	require.Len(t, combos, 16)

	seen := make(map[domain.ParameterSet]bool)
	for _, c := range combos {
		assert.False(t, seen[c], "duplicate combination %+v", c)
		seen[c] = true
	}
}

func TestGrid_EmptyFieldHasNoCombinations(t *testing.T) {
	g := DefaultGrid()
	g.SellBB = nil
	assert.Equal(t, 0, g.Size())
	assert.Error(t, g.Validate())
}

func TestParseGrid(t *testing.T) {
	t.Run("partial document keeps defaults", func(t *testing.T) {
		g, err := ParseGrid([]byte("buy_score: [20, 30]\nalloc_pct: [0.1]\n"))
		require.NoError(t, err)

		assert.Equal(t, []int{20, 30}, g.BuyScore)
		assert.Equal(t, []float64{0.1}, g.AllocPct)
		assert.Equal(t, DefaultGrid().SellBB, g.SellBB)
		assert.Equal(t, 2*4*7*6*4*6*2*1, g.Size())
	})

	t.Run("empty document is the default grid", func(t *testing.T) {
		g, err := ParseGrid([]byte(""))
		require.NoError(t, err)
		assert.Equal(t, DefaultGrid(), g)
	})

	t.Run("explicitly empty list is rejected", func(t *testing.T) {
		_, err := ParseGrid([]byte("sell_bb: []\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SellBB")
	})

	t.Run("allocation out of range", func(t *testing.T) {
		_, err := ParseGrid([]byte("alloc_pct: [0.05, 1.5]\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "AllocPct")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := ParseGrid([]byte("buy_score: [10, 20\n"))
		assert.Error(t, err)
	})
}

func TestLoadGrid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("require_macd_improving: [true]\n"), 0644))

	g, err := LoadGrid(path)
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, g.RequireMACDImproving)

	_, err = LoadGrid(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
