package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Pattern_Parse(t *testing.T) {
	tests := []struct {
		name       string
		pattern    Pattern
		file       string
		wantCourse string
		wantDate   string
		wantErr    bool
	}{
		{"date only", DateOnlyPattern, "2025-08-01.csv", "", "2025-08-01", false},
		{"course date", CourseDatePattern, "172_2025-08-01.csv", "172", "2025-08-01", false},
		{"long course id", CourseDatePattern, "10072_2024-12-31.csv", "10072", "2024-12-31", false},
		{"course id too short", CourseDatePattern, "17_2025-08-01.csv", "", "", true},
		{"missing extension", DateOnlyPattern, "2025-08-01", "", "", true},
		{"wrong pattern", DateOnlyPattern, "172_2025-08-01.csv", "", "", true},
		{"unrelated file", DateOnlyPattern, "notes.txt", "", "", true},
		{"impossible date", DateOnlyPattern, "2025-13-40.csv", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cid, date, err := tt.pattern.Parse(tt.file)
			if tt.wantErr {
				require.Error(t, err)
				var mfe *MalformedFilenameError
				require.ErrorAs(t, err, &mfe)
				assert.Equal(t, tt.file, mfe.Name)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCourse, cid)
			assert.Equal(t, tt.wantDate, date.Format("2006-01-02"))
			assert.Equal(t, time.UTC, date.Location())
		})
	}
}
