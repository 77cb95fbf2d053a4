package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekday(t *testing.T) {
	day, err := ParseWeekday("monday")
	require.NoError(t, err)
	assert.Equal(t, Monday, day)

	day, err = ParseWeekday(" Wed ")
	require.NoError(t, err)
	assert.Equal(t, Wednesday, day)

	_, err = ParseWeekday("funday")
	assert.Error(t, err)
	_, err = ParseWeekday("")
	assert.Error(t, err)

	assert.Equal(t, 1, Monday.Ordinal())
	assert.Equal(t, 7, Sunday.Ordinal())
	assert.False(t, Weekday("HOLIDAY").Valid())
}

func TestTimeOfDayRoundTrip(t *testing.T) {
	parsed, err := ParseTimeOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay(570), parsed)
	assert.Equal(t, "09:30", parsed.String())

	payload, err := json.Marshal(struct {
		At TimeOfDay `json:"at"`
	}{At: parsed})
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":"09:30"}`, string(payload))

	var decoded struct {
		At TimeOfDay `json:"at"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"at":"14:05"}`), &decoded))
	assert.Equal(t, TimeOfDay(14*60+5), decoded.At)

	_, err = ParseTimeOfDay("25:00")
	assert.Error(t, err)
}

func TestTimeOfDayScan(t *testing.T) {
	var v TimeOfDay
	require.NoError(t, v.Scan([]byte("10:30:00")))
	assert.Equal(t, TimeOfDay(630), v)
	require.NoError(t, v.Scan(time.Date(0, 1, 1, 8, 15, 0, 0, time.UTC)))
	assert.Equal(t, TimeOfDay(495), v)
	assert.Error(t, v.Scan(42))
}

func TestTimeSlotOverlaps(t *testing.T) {
	nineToTen := TimeSlot{Day: Monday, StartTime: 540, EndTime: 600}
	halfPast := TimeSlot{Day: Monday, StartTime: 570, EndTime: 630}
	tenToEleven := TimeSlot{Day: Monday, StartTime: 600, EndTime: 660}
	tuesday := TimeSlot{Day: Tuesday, StartTime: 540, EndTime: 600}

	assert.True(t, nineToTen.Overlaps(halfPast))
	assert.True(t, halfPast.Overlaps(nineToTen))
	assert.False(t, nineToTen.Overlaps(tenToEleven), "touching ranges do not overlap")
	assert.False(t, nineToTen.Overlaps(tuesday))

	assert.NoError(t, nineToTen.Validate())
	assert.Error(t, TimeSlot{Day: Monday, StartTime: 600, EndTime: 600}.Validate())
	assert.Equal(t, "MONDAY 09:00-10:00", nineToTen.Label())
}

func TestParseRoomType(t *testing.T) {
	cases := map[string]RoomType{
		"Lecture Hall": RoomTypeLecture,
		"lab":          RoomTypeLab,
		"Seminar Room": RoomTypeSeminar,
		"":             RoomTypeOther,
		"other":        RoomTypeOther,
	}
	for raw, expected := range cases {
		got, err := ParseRoomType(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, expected, got, raw)
	}
	_, err := ParseRoomType("gym")
	assert.Error(t, err)
}

func TestCatalogFilterNormalize(t *testing.T) {
	f := CatalogFilter{Page: 0, PageSize: 500}.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 20, f.PageSize)
	assert.Equal(t, 20, CatalogFilter{Page: 2, PageSize: 20}.Offset())
}
