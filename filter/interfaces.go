package filter

import (
	"github.com/s0up4200/apodctl/apod"
)

// Filter decides whether an entry should be kept
type Filter interface {
	// Match reports whether the entry satisfies the filter
	Match(entry apod.Entry) (bool, error)

	// Expression returns the original filter expression
	Expression() string
}

// Compiler compiles filter expressions into executable filters
type Compiler interface {
	Compile(expression string) (Filter, error)
}
