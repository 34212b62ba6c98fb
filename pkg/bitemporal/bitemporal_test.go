package bitemporal_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manuscripta/apm/pkg/bitemporal"
)

func Test_ParseTime(t *testing.T) {
	ts, err := bitemporal.ParseTime("2024-03-01 10:11:12.123456")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01 10:11:12.123456", bitemporal.FormatTime(ts))

	ts, err = bitemporal.ParseTime("2024-03-01 10:11:12")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01 10:11:12.000000", bitemporal.FormatTime(ts))

	_, err = bitemporal.ParseTime("yesterday")
	assert.True(t, errors.Is(err, bitemporal.ErrInvalidTimeString))

	now, err := bitemporal.ParseTimeOrNow("")
	require.NoError(t, err)
	assert.False(t, bitemporal.IsZero(now))
	assert.True(t, bitemporal.IsZero(time.Time{}))
	assert.True(t, bitemporal.IsZero(bitemporal.TimeZero))
}

func Test_IntervalHalfOpen(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	i := bitemporal.NewInterval(t1, t2)

	assert.True(t, i.Contains(t1))
	assert.True(t, i.Contains(t1.Add(time.Minute)))
	assert.False(t, i.Contains(t2))
	assert.False(t, i.IsCurrent())
	assert.True(t, bitemporal.Current(t1).IsCurrent())
	assert.True(t, i.IsBoundary(t2))

	next := bitemporal.Current(t2)
	assert.False(t, i.Overlaps(next))
	assert.True(t, i.Before(next))
	assert.True(t, bitemporal.Current(t1).Overlaps(next))

	cut, err := bitemporal.Current(t1).Truncate(t2)
	require.NoError(t, err)
	assert.Equal(t, i, cut)

	_, err = i.Truncate(t2.Add(time.Hour))
	assert.Error(t, err)

	assert.True(t, bitemporal.NewInterval(t1, t1).IsEmpty())
}
