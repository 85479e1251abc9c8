// Package ops is the static operation table shared by constant folding and
// the reference interpreter. Every opcode a graph node can carry has exactly
// one entry here: arity, the scalar evaluator used for constant folding and
// for ir.Interpret, and whether the operator is safe to fold eagerly.
//
// The table is data-driven rather than a dispatch over a Go interface, per
// the node algebra's "tagged variant with a static op table" design: adding
// an operation means adding a row, not a new type implementing a method set.
package ops

import "math"

// Code identifies an operation carried by a graph.Op node.
type Code uint8

const (
	Noop Code = iota

	// arithmetic
	Add
	Sub
	Mul
	Div
	FloorDiv
	Mod
	Neg
	Abs
	Min
	Max

	// transcendental
	Sqrt
	Exp
	Ln
	Log2
	Log10
	Pow
	Sin
	Cos
	Tan
	Asin
	Acos
	Atan
	Atan2
	Sinh
	Cosh
	Tanh
	Erf
	Gamma

	// comparison (result is 0.0/1.0)
	Lt
	Le
	Gt
	Ge
	Eq
	Ne

	// boolean algebra over 0.0/1.0 operands
	And
	Or
	Not

	// control
	Select // ternary: cond, ifTrue, ifFalse
	Assert // cond, status id encoded by the lowering pass

	// datetime
	DateTimeYear
	DateTimeMonth
	DateTimeDay
	DateTimeFromMicros
	DateTimeToMicros

	numCodes
)

// Fn is a scalar evaluator over a fixed-arity slice of float64 operands.
type Fn func(args []float64) float64

// Entry describes one opcode's shape: how many operands it takes (or -1 for
// variadic commutative reductions) and whether it folds eagerly when all of
// its inputs are constants.
type Entry struct {
	Name      string
	Arity     int
	Eval      Fn
	Foldable  bool // safe to constant-fold across platforms
}

// Table maps every Code to its Entry. Indexing by an unregistered Code
// yields a zero Entry whose Eval is nil; callers must check Entry.Eval.
var Table = [256]Entry{
	Noop: {Name: "noop", Arity: 0, Foldable: false, Eval: func(a []float64) float64 { return 0 }},

	Add:      {Name: "add", Arity: 2, Foldable: true, Eval: func(a []float64) float64 { return a[0] + a[1] }},
	Sub:      {Name: "sub", Arity: 2, Foldable: true, Eval: func(a []float64) float64 { return a[0] - a[1] }},
	Mul:      {Name: "mul", Arity: 2, Foldable: true, Eval: func(a []float64) float64 { return a[0] * a[1] }},
	Div:      {Name: "div", Arity: 2, Foldable: true, Eval: func(a []float64) float64 { return a[0] / a[1] }},
	FloorDiv: {Name: "floor_div", Arity: 2, Foldable: true, Eval: floorDiv},
	Mod:      {Name: "mod", Arity: 2, Foldable: true, Eval: mod},
	Neg:      {Name: "neg", Arity: 1, Foldable: true, Eval: func(a []float64) float64 { return -a[0] }},
	Abs:      {Name: "abs", Arity: 1, Foldable: true, Eval: func(a []float64) float64 { return math.Abs(a[0]) }},
	Min:      {Name: "min", Arity: 2, Foldable: true, Eval: func(a []float64) float64 { return math.Min(a[0], a[1]) }},
	Max:      {Name: "max", Arity: 2, Foldable: true, Eval: func(a []float64) float64 { return math.Max(a[0], a[1]) }},

	// Transcendentals are not folded, with one exception: sqrt is correctly
	// rounded under IEEE-754, so it is marked Foldable and Builder.PushOp
	// folds it whenever all of its inputs are Const.
	Sqrt:  {Name: "sqrt", Arity: 1, Foldable: true, Eval: func(a []float64) float64 { return math.Sqrt(a[0]) }},
	Exp:   {Name: "exp", Arity: 1, Foldable: false, Eval: func(a []float64) float64 { return math.Exp(a[0]) }},
	Ln:    {Name: "ln", Arity: 1, Foldable: false, Eval: func(a []float64) float64 { return math.Log(a[0]) }},
	Log2:  {Name: "log2", Arity: 1, Foldable: false, Eval: func(a []float64) float64 { return math.Log2(a[0]) }},
	Log10: {Name: "log10", Arity: 1, Foldable: false, Eval: func(a []float64) float64 { return math.Log10(a[0]) }},
	Pow:   {Name: "pow", Arity: 2, Foldable: false, Eval: func(a []float64) float64 { return math.Pow(a[0], a[1]) }},
	Sin:   {Name: "sin", Arity: 1, Foldable: false, Eval: func(a []float64) float64 { return math.Sin(a[0]) }},
	Cos:   {Name: "cos", Arity: 1, Foldable: false, Eval: func(a []float64) float64 { return math.Cos(a[0]) }},
	Tan:   {Name: "tan", Arity: 1, Foldable: false, Eval: func(a []float64) float64 { return math.Tan(a[0]) }},
	Asin:  {Name: "asin", Arity: 1, Foldable: false, Eval: func(a []float64) float64 { return math.Asin(a[0]) }},
	Acos:  {Name: "acos", Arity: 1, Foldable: false, Eval: func(a []float64) float64 { return math.Acos(a[0]) }},
	Atan:  {Name: "atan", Arity: 1, Foldable: false, Eval: func(a []float64) float64 { return math.Atan(a[0]) }},
	Atan2: {Name: "atan2", Arity: 2, Foldable: false, Eval: func(a []float64) float64 { return math.Atan2(a[0], a[1]) }},
	Sinh:  {Name: "sinh", Arity: 1, Foldable: false, Eval: func(a []float64) float64 { return math.Sinh(a[0]) }},
	Cosh:  {Name: "cosh", Arity: 1, Foldable: false, Eval: func(a []float64) float64 { return math.Cosh(a[0]) }},
	Tanh:  {Name: "tanh", Arity: 1, Foldable: false, Eval: func(a []float64) float64 { return math.Tanh(a[0]) }},
	Erf:   {Name: "erf", Arity: 1, Foldable: false, Eval: func(a []float64) float64 { return math.Erf(a[0]) }},
	Gamma: {Name: "gamma", Arity: 1, Foldable: false, Eval: func(a []float64) float64 { return math.Gamma(a[0]) }},

	Lt: {Name: "lt", Arity: 2, Foldable: true, Eval: boolOp(func(a, b float64) bool { return a < b })},
	Le: {Name: "le", Arity: 2, Foldable: true, Eval: boolOp(func(a, b float64) bool { return a <= b })},
	Gt: {Name: "gt", Arity: 2, Foldable: true, Eval: boolOp(func(a, b float64) bool { return a > b })},
	Ge: {Name: "ge", Arity: 2, Foldable: true, Eval: boolOp(func(a, b float64) bool { return a >= b })},
	Eq: {Name: "eq", Arity: 2, Foldable: true, Eval: boolOp(func(a, b float64) bool { return a == b })},
	Ne: {Name: "ne", Arity: 2, Foldable: true, Eval: boolOp(func(a, b float64) bool { return a != b })},

	And: {Name: "and", Arity: 2, Foldable: true, Eval: func(a []float64) float64 { return truth(a[0] != 0 && a[1] != 0) }},
	Or:  {Name: "or", Arity: 2, Foldable: true, Eval: func(a []float64) float64 { return truth(a[0] != 0 || a[1] != 0) }},
	Not: {Name: "not", Arity: 1, Foldable: true, Eval: func(a []float64) float64 { return truth(a[0] == 0) }},

	Select: {Name: "select", Arity: 3, Foldable: true, Eval: func(a []float64) float64 {
		if a[0] != 0 {
			return a[1]
		}
		return a[2]
	}},
	// Assert is never folded: it carries control-flow (early-return with a
	// status id) that only the lowering pass can express.
	Assert: {Name: "assert", Arity: 2, Foldable: false, Eval: func(a []float64) float64 { return a[0] }},

	// The date-component extractors truncate a float64 microsecond value
	// through int64 the same way the transcendentals above are excluded
	// from folding: a native backend may reinterpret that microsecond
	// value's bits differently than Go's own float64->int64 conversion for
	// epoch-distant values, so folding and runtime evaluation are not
	// guaranteed bit-identical. Left unfoldable like Asin et al.
	DateTimeYear:       {Name: "datetime_year", Arity: 1, Foldable: false, Eval: dtYear},
	DateTimeMonth:      {Name: "datetime_month", Arity: 1, Foldable: false, Eval: dtMonth},
	DateTimeDay:        {Name: "datetime_day", Arity: 1, Foldable: false, Eval: dtDay},
	DateTimeFromMicros: {Name: "datetime_from_micros", Arity: 1, Foldable: true, Eval: func(a []float64) float64 { return a[0] }},
	DateTimeToMicros:   {Name: "datetime_to_micros", Arity: 1, Foldable: true, Eval: func(a []float64) float64 { return a[0] }},
}

func boolOp(cmp func(a, b float64) bool) Fn {
	return func(a []float64) float64 { return truth(cmp(a[0], a[1])) }
}

func truth(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// floorDiv implements floor(a/b). Per IEEE-754, division by zero is never
// trapping: the result is +Inf, -Inf or NaN depending on sign.
func floorDiv(a []float64) float64 {
	return math.Floor(a[0] / a[1])
}

// mod follows the sign of the divisor, matching math.Mod's C-library
// semantics adjusted so the result always shares b's sign.
func mod(a []float64) float64 {
	x, y := a[0], a[1]
	r := math.Mod(x, y)
	if r != 0 && (r < 0) != (y < 0) {
		r += y
	}
	return r
}

// microsPerDay matches the microsecond-since-epoch encoding datetime values
// use on the wire (§6 DateTime layout flavor).
const microsPerDay = 24 * 60 * 60 * 1_000_000

func dtYear(a []float64) float64 {
	y, _, _ := civilFromMicros(int64(a[0]))
	return float64(y)
}

func dtMonth(a []float64) float64 {
	_, m, _ := civilFromMicros(int64(a[0]))
	return float64(m)
}

func dtDay(a []float64) float64 {
	_, _, d := civilFromMicros(int64(a[0]))
	return float64(d)
}

// civilFromMicros converts microseconds since the Unix epoch to a proleptic
// Gregorian (year, month, day) triple in UTC, using Howard Hinnant's
// civil-from-days algorithm so the result is correct for all int64 inputs
// without depending on time.Time's (bounded) range.
func civilFromMicros(micros int64) (year, month, day int) {
	days := micros / microsPerDay
	if micros%microsPerDay < 0 {
		days--
	}
	z := days + 719468
	era := z
	if era < 0 {
		era -= 146096
	}
	era /= 146097
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d := doy - (153*mp+2)/5 + 1
	m := mp + 3
	if mp >= 10 {
		m = mp - 9
	}
	if m <= 2 {
		y++
	}
	return int(y), int(m), int(d)
}
