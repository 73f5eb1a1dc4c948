package lmrdecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func Test_AliasListLookup(t *testing.T) {
	var a = NewAliasList("fleet", map[string]string{
		"200-1001": "Dispatch",
		"200-10*":  "Supervisors",
		"200-*":    "Fleet",
		"200-2??5": "Fives",
		"3*xyz":    "Three",
	})

	assert.Equal(t, "fleet", a.Name())
	assert.Equal(t, 5, a.Len())

	var tests = []struct {
		id    string
		alias string
		found bool
	}{
		{"200-1001", "Dispatch", true},
		{"200-1002", "Supervisors", true},
		{"200-2345", "Fives", true},
		{"200-2346", "Fleet", true},
		{"200-", "Fleet", true},
		{"201-1001", "", false},
		{"3", "Three", true},
		{"300-0001", "Three", true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			var alias, ok = a.Lookup(tt.id)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.alias, alias)
		})
	}
}

func Test_AliasListNil(t *testing.T) {
	var a *AliasList
	var _, ok = a.Lookup("anything")
	assert.False(t, ok)
}

func Test_AliasListExactWins(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var id = rapid.StringMatching(`[0-9]{3}-[0-9]{4}`).Draw(t, "id")

		var prefix = id[:4] + "*"

		var a = NewAliasList("x", map[string]string{
			id:     "exact",
			prefix: "prefix",
			"*":    "everything",
		})

		var alias, ok = a.Lookup(id)
		assert.True(t, ok)
		assert.Equal(t, "exact", alias)

		alias, _ = a.Lookup(id[:4] + "x")
		assert.Equal(t, "prefix", alias)

		alias, _ = a.Lookup("zzz")
		assert.Equal(t, "everything", alias)
	})
}

func Test_WildcardMatch(t *testing.T) {
	assert.True(t, wildcardMatch("a?c", "abc"))
	assert.False(t, wildcardMatch("a?c", "abcd"))
	assert.False(t, wildcardMatch("a?c", "ab"))
	assert.True(t, wildcardMatch("ab*", "ab"))
	assert.True(t, wildcardMatch("*", ""))
	assert.False(t, wildcardMatch("", "a"))
}
