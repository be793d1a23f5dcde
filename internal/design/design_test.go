package design

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-fir-stream/internal/testutil"
)

const windowTolerance = 1e-10

func TestBesselI0(t *testing.T) {
	tests := []struct {
		x, want float64
	}{
		{0, 1},
		{1, 1.2660658777520082},
		{3.7, 8.738617524169396},
		{5, 27.239871823604442},
		{-5, 27.239871823604442},
	}
	for _, tt := range tests {
		assert.InEpsilon(t, tt.want, BesselI0(tt.x), 1e-6, "I0(%g)", tt.x)
	}
}

func TestKaiserBeta(t *testing.T) {
	assert.Zero(t, KaiserBeta(20))
	assert.InDelta(t, 0.1102*(80-8.7), KaiserBeta(80), 1e-12)
	assert.Greater(t, KaiserBeta(40), 0.0)
	assert.Less(t, KaiserBeta(40), KaiserBeta(60))
}

func TestEstimateTaps(t *testing.T) {
	n := EstimateTaps(60, 0.1)
	assert.Equal(t, 1, n%2, "tap count must be odd")
	assert.Greater(t, EstimateTaps(80, 0.05), n)
	assert.Equal(t, maxTaps, EstimateTaps(60, 0))
}

func TestKaiserWindow(t *testing.T) {
	assert.Empty(t, KaiserWindow(0, 5))
	assert.Equal(t, []float64{1}, KaiserWindow(1, 5))

	w := KaiserWindow(21, 8)
	require.Len(t, w, 21)
	testutil.AssertSymmetric(t, w, windowTolerance)
	assert.InDelta(t, 1.0, w[10], windowTolerance)
	for i := 1; i <= 10; i++ {
		assert.LessOrEqual(t, w[i-1], w[i])
	}
}

func TestLowpass(t *testing.T) {
	taps, err := Lowpass(LowpassParams{Taps: 31, Cutoff: 0.2, Attenuation: 60, Gain: 1})
	require.NoError(t, err)
	require.Len(t, taps, 31)

	testutil.AssertSymmetric(t, taps, 1e-12)
	var sum float64
	for _, c := range taps {
		sum += c
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestLowpass_Validate(t *testing.T) {
	tests := []struct {
		name string
		p    LowpassParams
	}{
		{"no taps", LowpassParams{Taps: 0, Cutoff: 0.2, Gain: 1}},
		{"too many taps", LowpassParams{Taps: maxTaps + 1, Cutoff: 0.2, Gain: 1}},
		{"cutoff zero", LowpassParams{Taps: 9, Cutoff: 0, Gain: 1}},
		{"cutoff nyquist", LowpassParams{Taps: 9, Cutoff: 0.5, Gain: 1}},
		{"negative attenuation", LowpassParams{Taps: 9, Cutoff: 0.2, Attenuation: -1, Gain: 1}},
		{"zero gain", LowpassParams{Taps: 9, Cutoff: 0.2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Lowpass(tt.p)
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

func TestQuantize(t *testing.T) {
	q, err := Quantize([]float64{0.25, -0.5, 1, 0.5}, 8)
	require.NoError(t, err)

	assert.Equal(t, []int64{32, -64, 127, 64}, q.Taps)
	assert.InDelta(t, 127.0, q.Scale, 1e-12)
	assert.InDelta(t, 159.0/127.0, q.DCGain(), 1e-12)
}

func TestQuantize_NegativePeak(t *testing.T) {
	q, err := Quantize([]float64{-2, 1}, 4)
	require.NoError(t, err)
	assert.Equal(t, []int64{-7, 4}, q.Taps)
}

func TestQuantize_Errors(t *testing.T) {
	_, err := Quantize(nil, 8)
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = Quantize([]float64{1}, 1)
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = Quantize([]float64{1}, 64)
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = Quantize([]float64{0, 0}, 8)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestParseTaps(t *testing.T) {
	tests := []struct {
		in   string
		want []int64
	}{
		{"1,2", []int64{1, 2}},
		{" -3, 40 ,100 ", []int64{-3, 40, 100}},
		{"5 6\t7\n", []int64{5, 6, 7}},
	}
	for _, tt := range tests {
		got, err := ParseTaps(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.want, must(t, ParseTaps(FormatTaps(got))))
	}

	_, err := ParseTaps("")
	assert.ErrorIs(t, err, ErrInvalidParams)
	_, err = ParseTaps("1,x")
	assert.ErrorIs(t, err, ErrInvalidParams)
	_, err = ParseTaps(",,")
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func must(t *testing.T, taps []int64, err error) []int64 {
	t.Helper()
	require.NoError(t, err)
	return taps
}
