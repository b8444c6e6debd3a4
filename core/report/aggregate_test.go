package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_AggregateCohort(t *testing.T) {
	recs := []Classified{
		{Name: "Grace", Label: "On Track"},
		{Name: "Ada", Label: "On Track"},
		{Name: "Edsger", Label: "Warning"},
		{Name: "Alan", Label: "IPP"},
	}

	slices, err := AggregateCohort(recs)
	require.NoError(t, err)
	require.Len(t, slices, 3)

	// descending proportion, members sorted
	assert.Equal(t, "On Track", slices[0].Label)
	assert.Equal(t, []string{"Ada", "Grace"}, slices[0].Members)
	assert.InDelta(t, 0.5, slices[0].Proportion, 1e-9)

	var sum float64
	for _, s := range slices {
		sum += s.Proportion
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func Test_AggregateCohort_proportionsSumToOne(t *testing.T) {
	// 3-way split has no exact binary representation
	recs := []Classified{
		{Name: "a", Label: "x"},
		{Name: "b", Label: "y"},
		{Name: "c", Label: "z"},
	}
	slices, err := AggregateCohort(recs)
	require.NoError(t, err)

	var sum float64
	for _, s := range slices {
		sum += s.Proportion
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func Test_AggregateCohort_empty(t *testing.T) {
	_, err := AggregateCohort(nil)
	assert.Equal(t, ErrEmptyCohort, err)
}

func Test_JoinStudentMetric(t *testing.T) {
	metrics := []Metric{
		{Key: "1", Value: 10},
		{Key: "2", Value: 20},
		{Key: "3", Value: 30},
	}
	joined := JoinStudentMetric(metrics, []string{"2", "3", "4"})

	// inner-join semantics: unmatched metric rows are dropped
	require.Len(t, joined, 2)
	assert.Equal(t, "2", joined[0].Key)
	assert.Equal(t, "3", joined[1].Key)
}

func Test_JoinStudentMetric_empty(t *testing.T) {
	assert.Empty(t, JoinStudentMetric(nil, []string{"1"}))
	assert.Empty(t, JoinStudentMetric([]Metric{{Key: "1"}}, nil))
}
