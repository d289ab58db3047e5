package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, min int) time.Time {
	return time.Date(2025, 6, 14, hour, min, 0, 0, time.UTC)
}

func span(t *testing.T, startHour, endHour int) Interval {
	t.Helper()
	iv, err := NewInterval(at(startHour, 0), at(endHour, 0))
	require.NoError(t, err)
	return iv
}

func TestNewIntervalRejectsDegenerate(t *testing.T) {
	_, err := NewInterval(at(14, 0), at(14, 0))
	var invalid *InvalidIntervalError
	require.ErrorAs(t, err, &invalid)

	_, err = NewInterval(at(15, 0), at(14, 0))
	require.ErrorAs(t, err, &invalid)
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"disjoint", span(t, 10, 11), span(t, 12, 13), false},
		{"touching endpoints", span(t, 18, 20), span(t, 20, 22), false},
		{"partial overlap", span(t, 18, 20), span(t, 19, 21), true},
		{"contained", span(t, 10, 14), span(t, 11, 12), true},
		{"identical", span(t, 9, 10), span(t, 9, 10), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Overlaps(tc.b))
			// symmetric by definition
			assert.Equal(t, tc.want, tc.b.Overlaps(tc.a))
		})
	}
}

func TestOverlapsSelf(t *testing.T) {
	iv := span(t, 8, 9)
	assert.True(t, iv.Overlaps(iv))
}

func TestStatusLive(t *testing.T) {
	assert.True(t, StatusPending.Live())
	assert.True(t, StatusApproved.Live())
	for _, s := range []Status{StatusRejected, StatusCancelled, StatusCompleted, StatusNoShow} {
		assert.False(t, s.Live(), string(s))
		assert.True(t, s.Terminal(), string(s))
	}
}
