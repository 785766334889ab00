package extract

import (
	"encoding/json"
	"testing"

	"github.com/Sternrassler/jira-data-client/pkg/jira"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

func TestLookup(t *testing.T) {
	root := decode(t, `{
		"status": {"name": "Open", "statusCategory": {"key": "new"}},
		"assignee": null,
		"labels": ["a", "b"],
		"fixVersions": [{"name": "1.0"}, {"name": "1.1"}],
		"customfield_10010": 5,
		"summary": "text"
	}`)

	tests := []struct {
		name    string
		path    string
		want    any
		present bool
	}{
		{"top level", "summary", "text", true},
		{"nested", "status.name", "Open", true},
		{"deep", "status.statusCategory.key", "new", true},
		{"number", "customfield_10010", float64(5), true},
		{"object value", "status.statusCategory", map[string]any{"key": "new"}, true},
		{"array index", "labels.1", "b", true},
		{"array of objects", "fixVersions.0.name", "1.0", true},
		{"null leaf is present", "assignee", nil, true},
		{"through null", "assignee.displayName", nil, false},
		{"missing leaf", "status.id", nil, false},
		{"missing intermediate", "priority.name", nil, false},
		{"through scalar", "summary.length", nil, false},
		{"index out of range", "labels.2", nil, false},
		{"negative index", "labels.-1", nil, false},
		{"non-numeric index", "labels.first", nil, false},
		{"empty path", "", nil, false},
		{"empty segment", "status..name", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Lookup(root, tt.path)
			assert.Equal(t, tt.present, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookup_NilAndScalarRoots(t *testing.T) {
	_, ok := Lookup(nil, "a")
	assert.False(t, ok)

	_, ok = Lookup("scalar", "a")
	assert.False(t, ok)

	v, ok := Lookup([]map[string]any{{"a": 1}}, "0.a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestFields_Example(t *testing.T) {
	issues := []jira.Issue{{
		Key:    "X-1",
		Fields: map[string]any{"status": map[string]any{"name": "Open"}},
	}}

	records := Fields(issues, []string{"status.name", "assignee.displayName"})
	require.Len(t, records, 1)

	assert.Equal(t, "X-1", records[0].Key)
	assert.Equal(t, []Value{
		{Path: "status.name", Data: "Open", Present: true},
		{Path: "assignee.displayName", Present: false},
	}, records[0].Values)

	assert.Equal(t, map[string]any{
		"key":                  "X-1",
		"status.name":          "Open",
		"assignee.displayName": nil,
	}, records[0].Map())

	v, ok := records[0].Get("assignee.displayName")
	require.True(t, ok)
	assert.False(t, v.Present)

	_, ok = records[0].Get("not.requested")
	assert.False(t, ok)
}

func TestFields_IdempotentAndPure(t *testing.T) {
	issues := []jira.Issue{
		{Key: "A-1", Fields: map[string]any{"status": map[string]any{"name": "Done"}, "labels": []any{"x"}}},
		{Key: "A-2", Fields: nil},
		{Key: "A-3", Fields: map[string]any{"status": nil}},
	}
	paths := []string{"status.name", "labels.0"}

	first := Fields(issues, paths)
	second := Fields(issues, paths)
	assert.Equal(t, first, second)

	assert.Equal(t, []string{"A-1", "A-2", "A-3"}, []string{first[0].Key, first[1].Key, first[2].Key})
	assert.False(t, first[1].Values[0].Present)
	assert.False(t, first[2].Values[0].Present)

	// Input untouched.
	assert.Equal(t, map[string]any{"name": "Done"}, issues[0].Fields["status"])
	assert.Nil(t, issues[1].Fields)
}

func TestFields_Empty(t *testing.T) {
	records := Fields(nil, []string{"status.name"})
	assert.NotNil(t, records)
	assert.Empty(t, records)

	records = Fields([]jira.Issue{{Key: "A-1"}}, nil)
	require.Len(t, records, 1)
	assert.Empty(t, records[0].Values)
	assert.Equal(t, map[string]any{"key": "A-1"}, records[0].Map())
}

func TestRecordMap_KeyPathDoesNotOverwriteIssueKey(t *testing.T) {
	issues := []jira.Issue{{Key: "X-1", Fields: map[string]any{"summary": "s"}}}

	records := Fields(issues, []string{"key", "summary"})
	require.Len(t, records, 1)

	v, ok := records[0].Get("key")
	require.True(t, ok)
	assert.False(t, v.Present)
	assert.Equal(t, map[string]any{"key": "X-1", "summary": "s"}, records[0].Map())
}

func TestMaps(t *testing.T) {
	records := []Record{
		{Key: "A-1", Values: []Value{{Path: "p", Data: "v", Present: true}}},
		{Key: "A-2", Values: []Value{{Path: "p"}}},
	}
	assert.Equal(t, []map[string]any{
		{"key": "A-1", "p": "v"},
		{"key": "A-2", "p": nil},
	}, Maps(records))
}

func TestRootFields(t *testing.T) {
	assert.Equal(t,
		[]string{"status", "assignee", "summary"},
		RootFields([]string{"status.name", "assignee.displayName", "status.id", " summary ", ""}))
	assert.Empty(t, RootFields(nil))
}
