package ticks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	table := New(0.5, map[string]float64{"FF": 0.5, "ES": 0.25, "NQ": 0.25})

	tests := []struct {
		ric   string
		size  float64
		found bool
	}{
		{"FFIH4", 0.5, true},
		{"ESH4", 0.25, true},
		{"NQM4", 0.25, true},
		{"nqm4", 0.5, false},
		{"ffih4", 0.5, false},
		{"ZZZ4", 0.5, false},
		{"F", 0.5, false},
		{"", 0.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.ric, func(t *testing.T) {
			size, ok := table.Lookup(tt.ric)
			assert.Equal(t, tt.size, size)
			assert.Equal(t, tt.found, ok)
		})
	}
}

func TestEntries(t *testing.T) {
	table := New(0.5, map[string]float64{"NQ": 0.25, "ES": 0.25, "FF": 0.5})
	assert.Equal(t, []Entry{
		{Prefix: "ES", Size: 0.25},
		{Prefix: "FF", Size: 0.5},
		{Prefix: "NQ", Size: 0.25},
	}, table.Entries())
}

func TestNew_CopiesPrefixes(t *testing.T) {
	src := map[string]float64{"FF": 0.5}
	table := New(1, src)
	src["FF"] = 99

	size, _ := table.Lookup("FFIH4")
	assert.Equal(t, 0.5, size)
}
