package exprcalc_test

import (
	"testing"

	"github.com/zephyrtronium/exprcalc"
)

func FuzzParse(f *testing.F) {
	f.Add("x")
	f.Add("(a < b) <= c and not d")
	f.Add("f(*a, k=1, **kw)")
	f.Add("{1: [2, (3,)], **d}")
	f.Add("1×2")
	f.Fuzz(func(t *testing.T, s string) {
		e, err := exprcalc.Parse(s)
		if err != nil {
			if _, ok := err.(*exprcalc.EvaluationError); !ok {
				t.Errorf("%q: error is %T, not *EvaluationError", s, err)
			}
			return
		}
		_ = e.String()
		_ = e.Vars()
	})
}
