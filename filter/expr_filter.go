package filter

import (
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/apodctl/apod"
)

// ExprFilter represents a compiled expr filter
type ExprFilter struct {
	program *vm.Program
	expr    string
	now     func() time.Time
}

// ExprCompiler compiles expressions with a fixed clock for the date helpers
type ExprCompiler struct {
	now func() time.Time
}

// NewExprCompiler creates a compiler. A nil clock uses time.Now.
func NewExprCompiler(now func() time.Time) *ExprCompiler {
	if now == nil {
		now = time.Now
	}
	return &ExprCompiler{now: now}
}

// Compile implements Compiler
func (c *ExprCompiler) Compile(expression string) (Filter, error) {
	f, err := compileExpr(expression, c.now)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// CompileExprFilter compiles an expression using the wall clock
func CompileExprFilter(expression string) (*ExprFilter, error) {
	return compileExpr(expression, time.Now)
}

func compileExpr(expression string, now func() time.Time) (*ExprFilter, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
			Position:   -1,
		}
	}

	// A zero entry gives the checker the type of every variable
	program, err := expr.Compile(expression,
		expr.Env(newEnv(apod.Entry{}, now)),
		expr.AsBool(),
	)
	if err != nil {
		return nil, newCompilationError(expression, err)
	}

	return &ExprFilter{
		program: program,
		expr:    expression,
		now:     now,
	}, nil
}

// newEnv exposes the entry fields and helper functions to an expression
func newEnv(entry apod.Entry, now func() time.Time) map[string]any {
	return map[string]any{
		"Entry": entry,

		// Direct entry properties for convenience
		"Title":        entry.Title,
		"Explanation":  entry.Explanation,
		"Copyright":    entry.Copyright,
		"Date":         entry.Date,
		"Year":         entry.Date.Year(),
		"Month":        int(entry.Date.Month()),
		"Day":          entry.Date.Day(),
		"Weekday":      entry.Date.Weekday().String(),
		"MediaType":    entry.MediaType.String(),
		"URL":          entry.URL,
		"HDURL":        entry.HDURL,
		"ThumbnailURL": entry.ThumbnailURL,

		// Media helpers
		"isImage": func() bool {
			return entry.MediaType == apod.MediaTypeImage
		},
		"isVideo": func() bool {
			return entry.MediaType == apod.MediaTypeVideo
		},
		"hasHD": func() bool {
			return entry.HDURL != ""
		},
		"hasCopyright": func() bool {
			return strings.TrimSpace(entry.Copyright) != ""
		},
		"creditedTo": func(name string) bool {
			return containsFold(entry.Copyright, name)
		},

		// Text helpers, case-insensitive
		"mentions": func(term string) bool {
			return containsFold(entry.Title, term) || containsFold(entry.Explanation, term)
		},
		"containsFold": containsFold,

		// Date helpers
		"daysSince": func(t time.Time) int {
			return int(now().Sub(t).Hours() / 24)
		},
		"daysAgo": func(days int) time.Time {
			return now().AddDate(0, 0, -days)
		},
		"yearsAgo": func(years int) time.Time {
			return now().AddDate(-years, 0, 0)
		},
		"parseDate": func(s string) time.Time {
			t, _ := apod.ParseDate(s)
			return t
		},
		"today": func() time.Time {
			return apod.Day(now().In(apod.ServiceLocation))
		},
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Match evaluates the filter against an entry
func (f *ExprFilter) Match(entry apod.Entry) (bool, error) {
	result, err := expr.Run(f.program, newEnv(entry, f.now))
	if err != nil {
		return false, &EvaluationError{
			Expression: f.expr,
			EntryDate:  entry.Date.Format("2006-01-02"),
			Reason:     err.Error(),
			Err:        err,
		}
	}

	matched, _ := result.(bool)
	return matched, nil
}

// Expression returns the original expression
func (f *ExprFilter) Expression() string {
	return f.expr
}

// String returns the original expression
func (f *ExprFilter) String() string {
	return f.expr
}

// Apply returns the entries matching f, in their original order. A nil
// filter keeps every entry.
func Apply(f Filter, entries []apod.Entry) ([]apod.Entry, error) {
	if f == nil {
		return entries, nil
	}

	matched := make([]apod.Entry, 0, len(entries))
	for _, entry := range entries {
		ok, err := f.Match(entry)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, entry)
		}
	}
	return matched, nil
}
