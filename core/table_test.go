package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Table_Cell(t *testing.T) {
	tbl := Table{
		Columns: []string{"name", "grade"},
		Rows:    [][]string{{"Ada", "91"}, {"Grace"}},
	}

	assert.Equal(t, "91", tbl.Cell(0, "grade"))
	assert.Equal(t, "Grace", tbl.Cell(1, "name"))
	assert.Equal(t, "", tbl.Cell(1, "grade")) // ragged row
	assert.Equal(t, "", tbl.Cell(0, "nope"))
	assert.Equal(t, "", tbl.Cell(5, "name"))
}

func Test_Table_Reheader(t *testing.T) {
	tbl := Table{
		Columns: []string{"Meeting ID", "Topic", "Start time"},
		Rows: [][]string{
			{"", "", ""},
			{"123", "Cohort A", "08:00"},
			{""},
			{"Name (Original Name)", "Join Time", "Duration (Minutes)"},
			{"Ada", "08:01", "55"},
			{"Grace", "08:05", "51"},
		},
	}

	block, err := tbl.Reheader(3)
	require.NoError(t, err)
	assert.Equal(t, []string{"Name (Original Name)", "Join Time", "Duration (Minutes)"}, block.Columns)
	require.Len(t, block.Rows, 2)
	assert.Equal(t, "Ada", block.Cell(0, "Name (Original Name)"))

	_, err = tbl.Reheader(10)
	assert.Error(t, err)
}
