package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Change modes as they appear on the wire and in the change log.
const (
	ChangeModeInsert = "I"
	ChangeModeUpdate = "U"
	ChangeModeDelete = "D"
)

// EpochLowestMilliseconds is the sentinel "since" value for a full resync.
// It is the earliest date representable by the clients' date type.
const EpochLowestMilliseconds int64 = -8640000000000000

// Millis is an epoch-milliseconds timestamp. Clients send timestamps either
// as epoch milliseconds or as RFC 3339 strings, so JSON decoding accepts both.
type Millis int64

// Time returns the timestamp as a UTC time.Time.
func (m Millis) Time() time.Time {
	return time.UnixMilli(int64(m)).UTC()
}

// NowMillis returns the current time as Millis.
func NowMillis() Millis {
	return Millis(time.Now().UnixMilli())
}

func (m Millis) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(m), 10)), nil
}

func (m *Millis) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*m = Millis(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("failed to parse timestamp %s: %w", string(data), err)
	}
	parsed, err := parseTimeString(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func parseTimeString(s string) (Millis, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Millis(n), nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Millis(t.UnixMilli()), nil
		}
	}
	return 0, fmt.Errorf("failed to parse timestamp %q", s)
}

// CoerceMillis converts a loosely typed timestamp value to epoch milliseconds.
// Store cells round-trip through JSON, so numbers may come back as float64 and
// timestamps as strings. Empty or unparseable values fall back to def.
func CoerceMillis(v any, def Millis) Millis {
	switch t := v.(type) {
	case nil:
		return def
	case Millis:
		return t
	case int64:
		return Millis(t)
	case int:
		return Millis(t)
	case float64:
		return Millis(int64(t))
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return Millis(n)
		}
		if f, err := t.Float64(); err == nil {
			return Millis(int64(f))
		}
		return def
	case time.Time:
		return Millis(t.UnixMilli())
	case string:
		if t == "" {
			return def
		}
		if m, err := parseTimeString(t); err == nil {
			return m
		}
		return def
	default:
		return def
	}
}

// ChangeEntry is one row of the change log: a single mutation of a single
// record, identified by the table's numeric index and the record's key value.
type ChangeEntry struct {
	UUID       string `json:"uuid"`
	TableIndex int    `json:"table_index"`
	TableKey   string `json:"table_key"`
	ChangeMode string `json:"change_mode"`
	UpdatedAt  Millis `json:"updated_at"`
}

// Record is a row keyed by column name.
type Record map[string]any

// TableRecords maps table name -> record key -> record, the payload side of
// a delta pull or push.
type TableRecords map[string]map[string]Record
