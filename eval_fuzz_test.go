package exprcalc_test

import (
	"testing"

	"github.com/zephyrtronium/exprcalc"
)

func FuzzEval(f *testing.F) {
	f.Add("x")
	f.Add("y ** 2")
	f.Add("sum([x, y]) / max(x, 1)")
	f.Add("'a' * 3 < 'b'")
	f.Add("1×2")
	f.Fuzz(func(t *testing.T, s string) {
		r, err := exprcalc.Evaluate(s, exprcalc.SetVar("x", 3), exprcalc.SetVar("y", 0.5))
		if err != nil {
			if _, ok := err.(*exprcalc.EvaluationError); !ok {
				t.Errorf("%q: error is %T, not *EvaluationError", s, err)
			}
			if r != nil {
				t.Errorf("%q: result %v with error %v", s, r, err)
			}
			return
		}
		// Every result must be representable.
		exprcalc.Repr(r)
	})
}
