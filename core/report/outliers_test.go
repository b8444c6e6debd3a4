package report

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_LinearOutliers(t *testing.T) {
	// ten students clustered around 80, one whose best grade ever is far
	// below the pack
	obs := []Observation{
		{Entity: "low", Value: 10},
		{Entity: "low", Value: 20},
	}
	for _, e := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		obs = append(obs, Observation{Entity: e, Value: 78}, Observation{Entity: e, Value: 82})
	}

	flags := LinearOutliers(obs)
	require.Len(t, flags, 11)
	assert.True(t, flags["low"])
	for _, e := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		assert.Falsef(t, flags[e], "entity %s", e)
	}
}

func Test_LinearOutliers_usesEntityMaxima(t *testing.T) {
	// one terrible early observation must not flag a student whose best
	// value sits with the pack
	obs := []Observation{
		{Entity: "recovered", Value: 5},
		{Entity: "recovered", Value: 80},
	}
	for _, e := range []string{"a", "b", "c", "d", "e"} {
		obs = append(obs, Observation{Entity: e, Value: 80})
	}

	flags := LinearOutliers(obs)
	assert.False(t, flags["recovered"])
}

func Test_LinearOutliers_degenerate(t *testing.T) {
	assert.Empty(t, LinearOutliers(nil))

	flags := LinearOutliers([]Observation{{Entity: "only", Value: 50}})
	assert.False(t, flags["only"])
}

func Test_LogNormalOutliers(t *testing.T) {
	// positively-skewed activity durations; one near-zero participant
	obs := []Observation{
		{Entity: "idle", Value: 1},
	}
	for i, e := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		obs = append(obs, Observation{Entity: e, Value: 3000 + float64(i)*500})
	}

	flags := LogNormalOutliers(obs)
	require.Len(t, flags, 9)
	assert.True(t, flags["idle"])
	assert.False(t, flags["a"])

	// the flag is entity-level: any observation below the threshold flags
	// the whole entity
	obs = append(obs, Observation{Entity: "a", Value: 1})
	flags = LogNormalOutliers(obs)
	assert.True(t, flags["a"])
}

func Test_meanStd(t *testing.T) {
	mean, std := meanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, mean, 1e-9)
	// sample standard deviation (n-1)
	assert.InDelta(t, math.Sqrt(32.0/7.0), std, 1e-9)

	mean, std = meanStd(nil)
	assert.Zero(t, mean)
	assert.Zero(t, std)
}
