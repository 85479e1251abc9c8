package ops

import (
	"math"
	"testing"
)

func TestTableArithmetic(t *testing.T) {
	cases := []struct {
		code Code
		args []float64
		want float64
	}{
		{Add, []float64{2, 3}, 5},
		{Sub, []float64{5, 3}, 2},
		{Mul, []float64{4, 3}, 12},
		{Div, []float64{9, 2}, 4.5},
		{FloorDiv, []float64{7, 2}, 3},
		{FloorDiv, []float64{-7, 2}, -4},
		{Mod, []float64{-7, 3}, 2},
		{Mod, []float64{7, -3}, -2},
		{Neg, []float64{4}, -4},
		{Abs, []float64{-4}, 4},
		{Min, []float64{2, 5}, 2},
		{Max, []float64{2, 5}, 5},
	}

	for _, c := range cases {
		entry := Table[c.code]
		if entry.Eval == nil {
			t.Fatalf("code %d: no entry", c.code)
		}
		if len(c.args) != entry.Arity {
			t.Fatalf("%s: arity mismatch, test supplies %d, table declares %d", entry.Name, len(c.args), entry.Arity)
		}
		got := entry.Eval(c.args)
		if got != c.want {
			t.Errorf("%s(%v) = %v, want %v", entry.Name, c.args, got, c.want)
		}
	}
}

func TestFloorDivByZero(t *testing.T) {
	// Per the open question in the division-by-zero semantics: never trap,
	// return the IEEE-754 infinities or NaN.
	if got := Table[FloorDiv].Eval([]float64{1, 0}); !math.IsInf(got, 1) {
		t.Errorf("floor_div(1,0) = %v, want +Inf", got)
	}
	if got := Table[FloorDiv].Eval([]float64{-1, 0}); !math.IsInf(got, -1) {
		t.Errorf("floor_div(-1,0) = %v, want -Inf", got)
	}
	if got := Table[FloorDiv].Eval([]float64{0, 0}); !math.IsNaN(got) {
		t.Errorf("floor_div(0,0) = %v, want NaN", got)
	}
}

func TestComparisonsReturnBoolFloats(t *testing.T) {
	cases := []struct {
		code Code
		args []float64
		want float64
	}{
		{Lt, []float64{1, 2}, 1},
		{Lt, []float64{2, 1}, 0},
		{Eq, []float64{math.NaN(), math.NaN()}, 0}, // NaN comparisons are always false
		{Ne, []float64{math.NaN(), math.NaN()}, 1},
	}
	for _, c := range cases {
		got := Table[c.code].Eval(c.args)
		if got != c.want {
			t.Errorf("%s(%v) = %v, want %v", Table[c.code].Name, c.args, got, c.want)
		}
	}
}

func TestSelect(t *testing.T) {
	if got := Table[Select].Eval([]float64{1, 10, 20}); got != 10 {
		t.Errorf("select(true,...) = %v, want 10", got)
	}
	if got := Table[Select].Eval([]float64{0, 10, 20}); got != 20 {
		t.Errorf("select(false,...) = %v, want 20", got)
	}
}

func TestDateTimeComponentsProlepticGregorianUTC(t *testing.T) {
	// 2024-03-01T00:00:00Z, a day chosen to straddle a leap-year boundary.
	const micros2024Mar1 = 1709251200 * 1_000_000
	if y := Table[DateTimeYear].Eval([]float64{micros2024Mar1}); y != 2024 {
		t.Errorf("year = %v, want 2024", y)
	}
	if m := Table[DateTimeMonth].Eval([]float64{micros2024Mar1}); m != 3 {
		t.Errorf("month = %v, want 3", m)
	}
	if d := Table[DateTimeDay].Eval([]float64{micros2024Mar1}); d != 1 {
		t.Errorf("day = %v, want 1", d)
	}
}

func TestFoldableFlagsExcludeControlFlow(t *testing.T) {
	if Table[Assert].Foldable {
		t.Error("assert must never be constant-folded: it carries early-return control flow")
	}
}
