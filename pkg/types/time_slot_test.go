package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSlot(t *testing.T, day string, start, end string) TimeSlot {
	t.Helper()
	date, err := time.Parse("2006-01-02", day)
	require.NoError(t, err)
	s, err := ParseTimeOfDay(start)
	require.NoError(t, err)
	e, err := ParseTimeOfDay(end)
	require.NoError(t, err)
	slot, err := NewTimeSlot(date, s, e)
	require.NoError(t, err)
	return slot
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("08:30")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay(510), tod)
	assert.Equal(t, "08:30", tod.String())

	for _, bad := range []string{"8h30", "24:00", "12:60", "", "banana"} {
		_, err := ParseTimeOfDay(bad)
		assert.Error(t, err, bad)
	}
}

func TestNewTimeSlotRejectsInvertedWindow(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := NewTimeSlot(date, 17*60, 8*60)
	require.Error(t, err)

	_, err = NewTimeSlot(date, 9*60, 9*60)
	require.Error(t, err)
}

func TestOverlapSameDay(t *testing.T) {
	morning := mustSlot(t, "2024-03-01", "08:00", "12:00")

	assert.True(t, morning.Overlaps(mustSlot(t, "2024-03-01", "11:00", "15:00")))
	assert.True(t, mustSlot(t, "2024-03-01", "11:00", "15:00").Overlaps(morning))
	assert.True(t, morning.Overlaps(mustSlot(t, "2024-03-01", "09:00", "10:00")))
}

func TestTouchingEndpointsDoNotOverlap(t *testing.T) {
	morning := mustSlot(t, "2024-03-01", "08:00", "12:00")
	afternoon := mustSlot(t, "2024-03-01", "12:00", "15:00")

	assert.False(t, morning.Overlaps(afternoon))
	assert.False(t, afternoon.Overlaps(morning))
}

func TestDifferentDaysNeverOverlap(t *testing.T) {
	a := mustSlot(t, "2024-03-01", "08:00", "12:00")
	b := mustSlot(t, "2024-03-02", "08:00", "12:00")
	assert.False(t, a.Overlaps(b))
}

func TestLessOrdersByDateThenStart(t *testing.T) {
	a := mustSlot(t, "2024-03-01", "13:00", "15:00")
	b := mustSlot(t, "2024-03-02", "08:00", "10:00")
	c := mustSlot(t, "2024-03-02", "09:00", "10:00")

	assert.True(t, a.Less(b))
	assert.True(t, b.Less(c))
	assert.False(t, c.Less(b))
}

func TestTimeOfDayJSONRoundTrip(t *testing.T) {
	raw, err := json.Marshal(TimeOfDay(17 * 60))
	require.NoError(t, err)
	assert.Equal(t, `"17:00"`, string(raw))

	var parsed TimeOfDay
	require.NoError(t, json.Unmarshal([]byte(`"09:15"`), &parsed))
	assert.Equal(t, TimeOfDay(555), parsed)
}

func TestTimeOfDayScan(t *testing.T) {
	var tod TimeOfDay
	require.NoError(t, tod.Scan("14:45"))
	assert.Equal(t, TimeOfDay(885), tod)

	require.NoError(t, tod.Scan([]byte("06:05")))
	assert.Equal(t, TimeOfDay(365), tod)

	require.Error(t, tod.Scan(3.14))
}
