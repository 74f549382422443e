package indicator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalPulse/internal/domain/models"
)

func ticksFrom(symbol string, prices []float64) []*models.Tick {
	base := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	out := make([]*models.Tick, len(prices))
	for i, p := range prices {
		out[i] = &models.Tick{Symbol: symbol, Price: p, Timestamp: base.Add(time.Duration(i) * time.Second)}
	}
	return out
}

func TestNoSnapshotBeforeWarmup(t *testing.T) {
	st := NewState(2, 8)
	// 7 ticks: RSI warm after 3, EMA needs 8 prices.
	for _, tk := range ticksFrom("BTCUSDT", []float64{100, 101, 102, 103, 104, 105, 106}) {
		_, ok, err := st.Update(tk)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.False(t, st.Warm())
}

func TestEMASeededWithSimpleAverage(t *testing.T) {
	st := NewState(2, 3)
	tks := ticksFrom("BTCUSDT", []float64{102, 105, 106, 108})

	var snap models.IndicatorSnapshot
	var ok bool
	for _, tk := range tks[:3] {
		var err error
		snap, ok, err = st.Update(tk)
		require.NoError(t, err)
	}
	require.True(t, ok)
	expectedSMA := (102.0 + 105.0 + 106.0) / 3.0
	assert.InDelta(t, expectedSMA, snap.EMA, 1e-9)

	snap, ok, err := st.Update(tks[3])
	require.NoError(t, err)
	require.True(t, ok)
	// multiplier = 2/(3+1) = 0.5
	assert.InDelta(t, 108.0*0.5+expectedSMA*0.5, snap.EMA, 1e-9)
}

func TestRisingPricesDriveRSITo100(t *testing.T) {
	st := NewState(2, 3)
	prices := []float64{100, 101, 102, 103, 104, 105, 106, 107}
	var snap models.IndicatorSnapshot
	for _, tk := range ticksFrom("ETHUSDT", prices) {
		var ok bool
		var err error
		snap, ok, err = st.Update(tk)
		require.NoError(t, err)
		if ok {
			assert.LessOrEqual(t, snap.RSI, 100.0)
		}
	}
	// All gains, no losses: RSI pinned at exactly 100, EMA trailing price.
	assert.Equal(t, 100.0, snap.RSI)
	assert.Less(t, snap.EMA, prices[len(prices)-1])
	assert.Greater(t, snap.EMA, prices[0])
}

// The reference scenario: with period_rsi=2, RSI first defined at index 2
// (value 0), return crossing at index 5 (value 50), 75 at index 6.
func TestDipAndRecoverScenario(t *testing.T) {
	st := NewState(2, 3)
	prices := []float64{100, 99, 98, 97, 96, 97, 98}

	rsis := make(map[int]float64)
	for i, tk := range ticksFrom("BTCUSDT", prices) {
		snap, ok, err := st.Update(tk)
		require.NoError(t, err)
		if ok {
			rsis[i] = snap.RSI
		}
	}

	require.NotContains(t, rsis, 0)
	require.NotContains(t, rsis, 1)
	assert.InDelta(t, 0.0, rsis[2], 1e-9)
	assert.InDelta(t, 0.0, rsis[3], 1e-9)
	assert.InDelta(t, 0.0, rsis[4], 1e-9)
	assert.InDelta(t, 50.0, rsis[5], 1e-9)
	assert.InDelta(t, 75.0, rsis[6], 1e-9)
}

func TestPrevRSICarriesPriorValue(t *testing.T) {
	st := NewState(2, 2)
	tks := ticksFrom("BTCUSDT", []float64{100, 99, 98, 97, 96, 97})

	var snaps []models.IndicatorSnapshot
	for _, tk := range tks {
		snap, ok, err := st.Update(tk)
		require.NoError(t, err)
		if ok {
			snaps = append(snaps, snap)
		}
	}
	require.GreaterOrEqual(t, len(snaps), 2)
	// First snapshot carries the neutral baseline as its predecessor.
	assert.Equal(t, 50.0, snaps[0].PrevRSI)
	for i := 1; i < len(snaps); i++ {
		assert.Equal(t, snaps[i-1].RSI, snaps[i].PrevRSI)
	}
}

// An RSI extreme already present at warm-up must read as a crossing: the
// dip scenario's first defined RSI is 0, and with a mid-scale predecessor
// the downstream machine arms on that very snapshot.
func TestWarmupExtremeReadsAsCrossing(t *testing.T) {
	st := NewState(2, 2)
	tks := ticksFrom("BTCUSDT", []float64{100, 99, 98})

	var snap models.IndicatorSnapshot
	var ok bool
	for _, tk := range tks {
		var err error
		snap, ok, err = st.Update(tk)
		require.NoError(t, err)
	}
	require.True(t, ok)
	assert.InDelta(t, 0.0, snap.RSI, 1e-9)
	assert.Equal(t, 50.0, snap.PrevRSI)
}

func TestRejectsBadTicksWithoutMutatingState(t *testing.T) {
	st := NewState(2, 2)
	tks := ticksFrom("BTCUSDT", []float64{100, 101, 102})
	for _, tk := range tks {
		_, _, err := st.Update(tk)
		require.NoError(t, err)
	}
	before := *st

	_, ok, err := st.Update(&models.Tick{Symbol: "BTCUSDT", Price: -5, Timestamp: tks[2].Timestamp.Add(time.Second)})
	assert.False(t, ok)
	var dataErr *models.DataError
	require.ErrorAs(t, err, &dataErr)

	// Stale timestamp (equal to last accepted) is also rejected.
	_, ok, err = st.Update(&models.Tick{Symbol: "BTCUSDT", Price: 103, Timestamp: tks[2].Timestamp})
	assert.False(t, ok)
	require.ErrorAs(t, err, &dataErr)

	assert.Equal(t, before, *st)
}

func TestDeterministicAcrossRuns(t *testing.T) {
	prices := []float64{100, 99.5, 100.2, 101, 100.8, 99.9, 100.4, 101.2, 100.6, 101.5}
	run := func() []models.IndicatorSnapshot {
		st := NewState(2, 4)
		var out []models.IndicatorSnapshot
		for _, tk := range ticksFrom("SOLUSDT", prices) {
			snap, ok, err := st.Update(tk)
			require.NoError(t, err)
			if ok {
				out = append(out, snap)
			}
		}
		return out
	}
	assert.Equal(t, run(), run())
}

func TestEngineIsolatesSymbols(t *testing.T) {
	e := NewEngine(2, 2)
	a := ticksFrom("AAA", []float64{100, 90, 80})
	b := ticksFrom("BBB", []float64{10, 20, 30})

	for i := range a {
		_, _, err := e.Update(a[i])
		require.NoError(t, err)
		_, _, err = e.Update(b[i])
		require.NoError(t, err)
	}

	snapA, okA, err := e.Update(&models.Tick{Symbol: "AAA", Price: 70, Timestamp: a[2].Timestamp.Add(time.Second)})
	require.NoError(t, err)
	require.True(t, okA)
	snapB, okB, err := e.Update(&models.Tick{Symbol: "BBB", Price: 40, Timestamp: b[2].Timestamp.Add(time.Second)})
	require.NoError(t, err)
	require.True(t, okB)

	assert.InDelta(t, 0.0, snapA.RSI, 1e-9)
	assert.InDelta(t, 100.0, snapB.RSI, 1e-9)
}
