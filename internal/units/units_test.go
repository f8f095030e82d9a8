package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		in    string
		id    string
		class Class
		known bool
	}{
		{"sq.ft", "sq.ft", Area, true},
		{"  SQFT ", "sq.ft", Area, true},
		{"sq  ft", "sq.ft", Area, true},
		{"cu.ft", "cu.ft", Volume, true},
		{"Brass", "brass", VolumeScaled, true},
		{"rft", "rft", Linear, true},
		{"running feet", "rft", Linear, true},
		{"nos", "nos", CountLike, true},
		{"kg", "kg", CountLike, true},
		{"unobtainium", "unobtainium", CountLike, false},
		{"", "", CountLike, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			u := Lookup(tt.in)
			assert.Equal(t, tt.id, u.ID)
			assert.Equal(t, tt.class, u.Class)
			assert.Equal(t, tt.known, u.Known)
		})
	}
}

func TestEveryRegisteredIdentifierHasOneClass(t *testing.T) {
	seen := map[string]Class{}
	for _, e := range registry {
		keys := append([]string{e.unit.ID}, e.aliases...)
		for _, k := range keys {
			if prev, ok := seen[k]; ok {
				t.Fatalf("identifier %q registered twice (%s and %s)", k, prev, e.unit.Class)
			}
			seen[k] = e.unit.Class
		}
	}
}

func TestClassFieldRelevance(t *testing.T) {
	assert.True(t, Area.UsesWidth())
	assert.False(t, Area.UsesHeight())
	assert.True(t, Volume.UsesHeight())
	assert.True(t, VolumeScaled.UsesHeight())
	assert.False(t, Linear.UsesWidth())
	assert.False(t, Linear.UsesHeight())
	assert.True(t, Linear.UsesLength())
	assert.False(t, CountLike.UsesLength())
	assert.False(t, CountLike.UsesWidth())
}

func TestAllIsDisplayOrdered(t *testing.T) {
	all := All()
	assert.Len(t, all, len(registry))
	assert.Equal(t, "sq.ft", all[0].ID)
	for _, u := range all {
		assert.True(t, u.Known)
	}
}

func TestClassString(t *testing.T) {
	assert.Equal(t, "VOLUME_SCALED", VolumeScaled.String())
	assert.Equal(t, "COUNT_LIKE", Class(42).String())
}

func TestIdentifiersResolve(t *testing.T) {
	ids := Identifiers()
	assert.Contains(t, ids, "sq.ft")
	assert.Contains(t, ids, "running feet")
	for _, id := range ids {
		assert.True(t, Lookup(id).Known, id)
	}
}
