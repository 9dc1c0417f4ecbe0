package logstore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dayLog struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

func (d dayLog) Key() string { return d.Date }

func TestCollection_ZeroValueUsable(t *testing.T) {
	var c Collection[dayLog]
	assert.Equal(t, 0, c.Len())
	_, ok := c.Find("2024-01-01")
	assert.False(t, ok)

	c = c.Upsert(dayLog{Date: "2024-01-01", Count: 1})
	assert.Equal(t, 1, c.Len())
}

func TestCollection_UpsertThenFind(t *testing.T) {
	c := New(dayLog{"2024-01-01", 1})
	want := dayLog{"2024-01-02", 3}

	c = c.Upsert(want)
	got, ok := c.Find(want.Key())
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestCollection_UpsertReplacesInPlace(t *testing.T) {
	c := New(dayLog{"2024-01-01", 1}, dayLog{"2024-01-02", 2}, dayLog{"2024-01-03", 3})
	c = c.Upsert(dayLog{"2024-01-02", 9})

	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03"}, c.Keys())
	got, _ := c.Find("2024-01-02")
	assert.Equal(t, 9, got.Count)
	assert.Equal(t, 3, c.Len())
}

func TestCollection_Immutable(t *testing.T) {
	orig := New(dayLog{"2024-01-01", 1})
	_ = orig.Upsert(dayLog{"2024-01-01", 5})
	_ = orig.Upsert(dayLog{"2024-01-02", 5})
	_ = orig.Remove("2024-01-01")

	got, ok := orig.Find("2024-01-01")
	require.True(t, ok)
	assert.Equal(t, 1, got.Count)
	assert.Equal(t, 1, orig.Len())
}

func TestCollection_RemoveIsolation(t *testing.T) {
	c := New(dayLog{"2024-01-01", 1}, dayLog{"2024-01-02", 2}, dayLog{"2024-01-03", 3})
	c = c.Remove("2024-01-02")

	_, ok := c.Find("2024-01-02")
	assert.False(t, ok)
	a, _ := c.Find("2024-01-01")
	b, _ := c.Find("2024-01-03")
	assert.Equal(t, 1, a.Count)
	assert.Equal(t, 3, b.Count)
	assert.Equal(t, []string{"2024-01-01", "2024-01-03"}, c.Keys())

	assert.Equal(t, c, c.Remove("missing"))
}

func TestCollection_UpdateCreatesLazily(t *testing.T) {
	var c Collection[dayLog]
	bump := func(cur dayLog, found bool) dayLog {
		if !found {
			cur = dayLog{Date: "2024-01-05"}
		}
		cur.Count++
		return cur
	}
	c = c.Update("2024-01-05", bump)
	c = c.Update("2024-01-05", bump)

	got, ok := c.Find("2024-01-05")
	require.True(t, ok)
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, 1, c.Len())
}

func TestCollection_Prepend(t *testing.T) {
	c := New(dayLog{"2024-01-01", 1})
	c = c.Prepend(dayLog{"2024-01-02", 2})
	assert.Equal(t, []string{"2024-01-02", "2024-01-01"}, c.Keys())

	c = c.Prepend(dayLog{"2024-01-01", 7})
	assert.Equal(t, []string{"2024-01-02", "2024-01-01"}, c.Keys())
}

func TestCollection_NewLaterDuplicateWins(t *testing.T) {
	c := FromSlice([]dayLog{{"2024-01-01", 1}, {"2024-01-02", 2}, {"2024-01-01", 3}})
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, c.Keys())
	got, _ := c.Find("2024-01-01")
	assert.Equal(t, 3, got.Count)
}

func TestCollection_Queries(t *testing.T) {
	c := New(dayLog{"2024-01-03", 0}, dayLog{"2024-01-01", 2}, dayLog{"2024-01-02", 0})

	assert.Equal(t, 2, c.Count(func(d dayLog) bool { return d.Count == 0 }))

	first, ok := c.FindBy(func(d dayLog) bool { return d.Count == 0 })
	require.True(t, ok)
	assert.Equal(t, "2024-01-03", first.Date)

	_, ok = c.FindBy(func(d dayLog) bool { return d.Count > 10 })
	assert.False(t, ok)

	nonZero := c.Filter(func(d dayLog) bool { return d.Count > 0 })
	assert.Equal(t, []string{"2024-01-01"}, nonZero.Keys())

	sorted := c.SortedByKey()
	require.Len(t, sorted, 3)
	assert.Equal(t, "2024-01-01", sorted[0].Date)
	assert.Equal(t, "2024-01-03", sorted[2].Date)

	doubled := c.Map(func(d dayLog) dayLog { d.Count *= 2; return d })
	got, _ := doubled.Find("2024-01-01")
	assert.Equal(t, 4, got.Count)
	assert.Equal(t, c.Keys(), doubled.Keys())
}

func TestCollection_JSON(t *testing.T) {
	var empty Collection[dayLog]
	data, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))

	c := New(dayLog{"2024-01-02", 2}, dayLog{"2024-01-01", 1})
	data, err = json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"date":"2024-01-02","count":2},{"date":"2024-01-01","count":1}]`, string(data))

	var decoded Collection[dayLog]
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, c.All(), decoded.All())

	var fromNull Collection[dayLog]
	require.NoError(t, json.Unmarshal([]byte(`null`), &fromNull))
	assert.Equal(t, 0, fromNull.Len())
}

func TestCollection_JSONInStruct(t *testing.T) {
	type wrapper struct {
		Logs Collection[dayLog] `json:"logs"`
	}
	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"logs":[{"date":"2024-01-01","count":4}]}`), &w))
	got, ok := w.Logs.Find("2024-01-01")
	require.True(t, ok)
	assert.Equal(t, 4, got.Count)
}

func TestCollection_EmptyIsZeroValue(t *testing.T) {
	var zero Collection[dayLog]
	assert.Equal(t, zero, New[dayLog]())
	assert.Equal(t, zero, New(dayLog{"2024-01-01", 1}).Remove("2024-01-01"))
	assert.Equal(t, zero, New(dayLog{"2024-01-01", 1}).Filter(func(dayLog) bool { return false }))

	var decoded Collection[dayLog]
	require.NoError(t, json.Unmarshal([]byte(`[]`), &decoded))
	assert.Equal(t, zero, decoded)
}
