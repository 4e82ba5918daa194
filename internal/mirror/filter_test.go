package mirror

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_Matches(t *testing.T) {
	tests := []struct {
		name      string
		substring string
		candidate string
		want      bool
	}{
		{"empty filter includes all", "", "anything", true},
		{"empty filter includes empty name", "", "", true},
		{"substring match", "ord", "orders", true},
		{"full match", "orders", "orders", true},
		{"no match", "ord", "customers", false},
		{"case sensitive", "Ord", "orders", false},
		{"substring in middle", "der", "orders", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFilter(tt.substring)
			assert.Equal(t, tt.want, f.Matches(tt.candidate))
		})
	}
}

func TestFilter_Population(t *testing.T) {
	population := []string{"orders", "orders-v2", "customers", "payments"}
	f := NewFilter("ord")

	var matched []string
	for _, name := range population {
		if f.Matches(name) {
			matched = append(matched, name)
		}
	}
	assert.Equal(t, []string{"orders", "orders-v2"}, matched)

	var all []string
	for _, name := range population {
		if NewFilter("").Matches(name) {
			all = append(all, name)
		}
	}
	assert.Equal(t, population, all)
}
