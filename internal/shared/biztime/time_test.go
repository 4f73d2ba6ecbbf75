package biztime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", Day(d))

	_, err = ParseDate("15.03.2024")
	assert.Error(t, err)
	assert.False(t, IsDate("2024-13-01"))
	assert.True(t, IsDate("2024-02-29"))
}

func TestDay_UsesBusinessLocation(t *testing.T) {
	// 23:30 UTC is already the next day in any zone east of UTC
	ts := time.Date(2024, 6, 1, 23, 30, 0, 0, time.UTC)
	_, offset := ts.In(Location()).Zone()
	if offset > 0 {
		assert.Equal(t, "2024-06-02", Day(ts))
	} else {
		assert.Equal(t, "2024-06-01", Day(ts))
	}
}
