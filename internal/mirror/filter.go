package mirror

import "strings"

// Filter selects resource instances by name. The zero value matches
// everything.
type Filter struct {
	substring string
}

// NewFilter returns a filter matching names that contain substring.
// An empty substring matches every name.
func NewFilter(substring string) Filter {
	return Filter{substring: substring}
}

// Matches reports whether name passes the filter. Case-sensitive.
func (f Filter) Matches(name string) bool {
	return f.substring == "" || strings.Contains(name, f.substring)
}

// Empty reports whether the filter matches everything.
func (f Filter) Empty() bool {
	return f.substring == ""
}

func (f Filter) String() string {
	return f.substring
}
