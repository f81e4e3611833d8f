package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMillisAcceptsNumbersAndTimeStrings(t *testing.T) {
	var m Millis
	require.NoError(t, json.Unmarshal([]byte(`1700000000000`), &m))
	assert.Equal(t, Millis(1700000000000), m)

	require.NoError(t, json.Unmarshal([]byte(`"2023-11-14T22:13:20Z"`), &m))
	assert.Equal(t, Millis(1700000000000), m)

	require.NoError(t, json.Unmarshal([]byte(`"2023-11-14"`), &m))
	assert.Equal(t, "2023-11-14", m.Time().Format("2006-01-02"))

	assert.Error(t, json.Unmarshal([]byte(`"not a date"`), &m))
}

func TestMillisMarshalsAsNumber(t *testing.T) {
	data, err := json.Marshal(Millis(42))
	require.NoError(t, err)
	assert.Equal(t, "42", string(data))
}

func TestCoerceMillis(t *testing.T) {
	assert.Equal(t, Millis(7), CoerceMillis(nil, 7))
	assert.Equal(t, Millis(7), CoerceMillis("", 7))
	assert.Equal(t, Millis(7), CoerceMillis("garbage", 7))
	assert.Equal(t, Millis(100), CoerceMillis(int64(100), 7))
	assert.Equal(t, Millis(100), CoerceMillis(100, 7))
	assert.Equal(t, Millis(100), CoerceMillis(float64(100), 7))
	assert.Equal(t, Millis(100), CoerceMillis(Millis(100), 7))
	assert.Equal(t, Millis(100), CoerceMillis("100", 7))
	assert.Equal(t, Millis(100), CoerceMillis(json.Number("100"), 7))

	at := time.UnixMilli(1700000000000).UTC()
	assert.Equal(t, Millis(1700000000000), CoerceMillis(at, 7))
	assert.Equal(t, Millis(1700000000000), CoerceMillis("2023-11-14T22:13:20Z", 7))
}

func TestChangeEntryWireFormat(t *testing.T) {
	entry := ChangeEntry{
		UUID:       "u1",
		TableIndex: 102,
		TableKey:   "k1",
		ChangeMode: ChangeModeUpdate,
		UpdatedAt:  1700000000000,
	}
	data, err := json.Marshal(entry)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"uuid": "u1",
		"table_index": 102,
		"table_key": "k1",
		"change_mode": "U",
		"updated_at": 1700000000000
	}`, string(data))
}
