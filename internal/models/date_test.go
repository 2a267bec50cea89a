package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-10-19")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, d.Weekday())
	assert.False(t, d.IsWeekend())

	d, err = ParseDate("2026-10-17T23:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-17", d.String())
	assert.True(t, d.IsWeekend())

	_, err = ParseDate("19/10/2026")
	assert.Error(t, err)
}

func TestDateJSON(t *testing.T) {
	var payload struct {
		Date Date `json:"date"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2026-10-19"}`), &payload))
	assert.True(t, payload.Date.Equal(NewDate(2026, time.October, 19)))

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2026-10-19"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"date":"tomorrow"}`), &payload))
}

func TestDateScanAndValue(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2026-10-20", d.String())

	require.NoError(t, d.Scan([]byte("2026-10-21")))
	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2026-10-21", v)

	assert.Error(t, d.Scan(42))
}

func TestDateOrdering(t *testing.T) {
	monday := NewDate(2026, time.October, 19)
	assert.True(t, monday.Before(monday.AddDays(1)))
	assert.False(t, monday.Before(monday))
	assert.True(t, DateOf(time.Date(2026, 10, 19, 23, 59, 0, 0, time.FixedZone("SAST", 2*3600))).Equal(monday))
}
