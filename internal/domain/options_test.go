package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionKey(t *testing.T) {
	assert.Equal(t, "a", OptionKey(0))
	assert.Equal(t, "c", OptionKey(2))
	assert.Equal(t, "z", OptionKey(25))
	assert.Equal(t, "aa", OptionKey(26))
	assert.Equal(t, "ab", OptionKey(27))
	assert.Equal(t, "", OptionKey(-1))
}

func TestParseOptions(t *testing.T) {
	abc := Options{{Key: "a", Text: "Paris"}, {Key: "b", Text: "London"}, {Key: "c", Text: "Rome"}}

	tests := []struct {
		name string
		raw  string
		want Options
	}{
		{name: "array", raw: `["Paris","London","Rome"]`, want: abc},
		{name: "object", raw: `{"a":"Paris","b":"London","c":"Rome"}`, want: abc},
		{name: "json encoded array string", raw: `"[\"Paris\",\"London\",\"Rome\"]"`, want: abc},
		{name: "json encoded object string", raw: `"{\"a\":\"Paris\",\"b\":\"London\",\"c\":\"Rome\"}"`, want: abc},
		{name: "comma string", raw: `"Paris, London ,Rome"`, want: abc},
		{name: "comma string with empty parts", raw: `"Paris,,London,Rome,"`, want: abc},
		{name: "array of objects", raw: `[{"text":"Paris"},{"label":"London"},{"value":"Rome"}]`, want: abc},
		{name: "object keeps foreign keys and order", raw: `{"x":"1","A":"2"}`, want: Options{{Key: "x", Text: "1"}, {Key: "A", Text: "2"}}},
		{name: "numeric values", raw: `[1, 2.5]`, want: Options{{Key: "a", Text: "1"}, {Key: "b", Text: "2.5"}}},
		{name: "null", raw: `null`, want: Options{}},
		{name: "empty string", raw: `""`, want: Options{}},
		{name: "empty array", raw: `[]`, want: Options{}},
		{name: "number", raw: `42`, want: Options{}},
		{name: "bool", raw: `true`, want: Options{}},
		{name: "broken json", raw: `{"a":`, want: Options{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseOptions([]byte(tt.raw)))
		})
	}
}

func TestOptions_UnmarshalInsideStruct(t *testing.T) {
	var payload struct {
		Options Options `json:"options"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"options": 17}`), &payload))
	assert.Empty(t, payload.Options)

	require.NoError(t, json.Unmarshal([]byte(`{"options": "Yes,No"}`), &payload))
	assert.Equal(t, Options{{Key: "a", Text: "Yes"}, {Key: "b", Text: "No"}}, payload.Options)
}

func TestOptions_MarshalJSONKeepsOrder(t *testing.T) {
	opts := Options{{Key: "b", Text: "second"}, {Key: "a", Text: "first"}}
	data, err := json.Marshal(opts)
	require.NoError(t, err)
	assert.Equal(t, `{"b":"second","a":"first"}`, string(data))

	var back Options
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, opts, back)
}

func TestOptions_KeyFor(t *testing.T) {
	opts := Options{{Key: "a", Text: "Paris"}, {Key: "b", Text: "London"}}

	tests := []struct {
		ref    string
		want   string
		wantOK bool
	}{
		{ref: "a", want: "a", wantOK: true},
		{ref: "B", want: "b", wantOK: true},
		{ref: "london", want: "b", wantOK: true},
		{ref: "1", want: "b", wantOK: true},
		{ref: "5", wantOK: false},
		{ref: "Berlin", wantOK: false},
		{ref: "", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, ok := opts.KeyFor(tt.ref)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
