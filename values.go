package exprcalc

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// Values flowing through evaluation are one of nil, bool, int, float64,
// string, []any (a list), Tuple, *Set, or *Dict. Other Go numeric types are
// accepted wherever values enter from the host and are converted to int or
// float64.

// Tuple is an immutable ordered sequence of values.
type Tuple []any

// Set is an insertion-ordered collection of distinct values. Members are
// compared with Equal, so 1, 1.0, and true are the same member.
type Set struct {
	items []any
}

// NewSet creates a set containing the given items. It is an error for any
// item to be a list, set, or dict.
func NewSet(items ...any) (*Set, error) {
	s := new(Set)
	for _, v := range items {
		if err := s.Add(v); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add inserts v into the set if no equal member is present.
func (s *Set) Add(v any) error {
	v = normalize(v)
	if err := hashable(v); err != nil {
		return err
	}
	if s.Contains(v) {
		return nil
	}
	s.items = append(s.items, v)
	return nil
}

// Contains reports whether the set has a member equal to v.
func (s *Set) Contains(v any) bool {
	for _, x := range s.items {
		if Equal(x, v) {
			return true
		}
	}
	return false
}

// Len returns the number of members.
func (s *Set) Len() int {
	return len(s.items)
}

// Items returns the members in insertion order.
func (s *Set) Items() []any {
	return append([]any(nil), s.items...)
}

// Pair is one entry of a Dict.
type Pair struct {
	Key, Value any
}

// Dict is an insertion-ordered mapping. Keys are compared with Equal.
type Dict struct {
	pairs []Pair
}

// NewDict creates a dict from pairs. Later pairs replace the values of
// earlier pairs with equal keys but keep the earlier position.
func NewDict(pairs ...Pair) (*Dict, error) {
	d := new(Dict)
	for _, p := range pairs {
		if err := d.Set(p.Key, p.Value); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Set maps k to v.
func (d *Dict) Set(k, v any) error {
	k = normalize(k)
	if err := hashable(k); err != nil {
		return err
	}
	v = normalize(v)
	for i := range d.pairs {
		if Equal(d.pairs[i].Key, k) {
			d.pairs[i].Value = v
			return nil
		}
	}
	d.pairs = append(d.pairs, Pair{Key: k, Value: v})
	return nil
}

// Get returns the value mapped to k.
func (d *Dict) Get(k any) (any, bool) {
	for _, p := range d.pairs {
		if Equal(p.Key, k) {
			return p.Value, true
		}
	}
	return nil, false
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	return len(d.pairs)
}

// Pairs returns the entries in insertion order.
func (d *Dict) Pairs() []Pair {
	return append([]Pair(nil), d.pairs...)
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []any {
	r := make([]any, len(d.pairs))
	for i, p := range d.pairs {
		r[i] = p.Key
	}
	return r
}

func hashable(v any) error {
	switch v := v.(type) {
	case []any, *Set, *Dict:
		return fmt.Errorf("unhashable type: '%s'", TypeName(v))
	case Tuple:
		for _, x := range v {
			if err := hashable(x); err != nil {
				return err
			}
		}
	}
	return nil
}

// TypeName returns the name of a value's type as it appears in error messages.
func TypeName(v any) string {
	switch normalize(v).(type) {
	case nil:
		return "NoneType"
	case bool:
		return "bool"
	case int:
		return "int"
	case float64:
		return "float"
	case string:
		return "str"
	case []any:
		return "list"
	case Tuple:
		return "tuple"
	case *Set:
		return "set"
	case *Dict:
		return "dict"
	case Func:
		return "function"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// normalize converts host values into the value model. Values it does not
// understand are returned unchanged.
func normalize(v any) any {
	switch v := v.(type) {
	case nil, bool, int, float64, string, *Set, *Dict:
		return v
	case []any:
		return normalizeSeq(v)
	case Tuple:
		return Tuple(normalizeSeq(v))
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		if v < math.MinInt || v > math.MaxInt {
			return float64(v)
		}
		return int(v)
	case uint8:
		return int(v)
	case uint16:
		return int(v)
	case uint32:
		if uint64(v) > math.MaxInt {
			return float64(v)
		}
		return int(v)
	case uint:
		if uint64(v) > math.MaxInt {
			return float64(v)
		}
		return int(v)
	case uint64:
		if v > math.MaxInt {
			return float64(v)
		}
		return int(v)
	case float32:
		return float64(v)
	case []byte:
		return v
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		d := new(Dict)
		for _, k := range keys {
			d.pairs = append(d.pairs, Pair{Key: k, Value: normalize(v[k])})
		}
		return d
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		r := make([]any, rv.Len())
		for i := range r {
			r[i] = normalize(rv.Index(i).Interface())
		}
		return r
	case reflect.Map:
		d := new(Dict)
		for _, k := range rv.MapKeys() {
			// Keys of Go maps are comparable, so this cannot fail.
			d.Set(k.Interface(), rv.MapIndex(k).Interface())
		}
		slices.SortStableFunc(d.pairs, func(a, b Pair) int {
			return strings.Compare(Repr(a.Key), Repr(b.Key))
		})
		return d
	}
	return v
}

// normalizeSeq normalizes the elements of a sequence. The sequence is copied
// only if some element changes.
func normalizeSeq(xs []any) []any {
	for i, x := range xs {
		if isNormal(x) {
			continue
		}
		r := make([]any, len(xs))
		copy(r, xs[:i])
		for j := i; j < len(xs); j++ {
			r[j] = normalize(xs[j])
		}
		return r
	}
	return xs
}

// isNormal reports whether v is already in the value model.
func isNormal(v any) bool {
	switch v := v.(type) {
	case nil, bool, int, float64, string, *Set, *Dict:
		return true
	case []any:
		for _, x := range v {
			if !isNormal(x) {
				return false
			}
		}
		return true
	case Tuple:
		for _, x := range v {
			if !isNormal(x) {
				return false
			}
		}
		return true
	}
	return false
}

// Truthy reports whether a value counts as true in a boolean context.
func Truthy(v any) bool {
	switch v := normalize(v).(type) {
	case nil:
		return false
	case bool:
		return v
	case int:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v != ""
	case []any:
		return len(v) != 0
	case Tuple:
		return len(v) != 0
	case *Set:
		return v.Len() != 0
	case *Dict:
		return v.Len() != 0
	}
	return true
}

// toInt returns the value of v if it is an int or a bool.
func toInt(v any) (int, bool) {
	switch v := normalize(v).(type) {
	case int:
		return v, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// toFloat returns the value of v as a float64 if it is any kind of number.
func toFloat(v any) (float64, bool) {
	switch v := normalize(v).(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func ints(a, b any) (int, int, bool) {
	x, ok := toInt(a)
	if !ok {
		return 0, 0, false
	}
	y, ok := toInt(b)
	return x, y, ok
}

func reals(a, b any) (float64, float64, bool) {
	x, ok := toFloat(a)
	if !ok {
		return 0, 0, false
	}
	y, ok := toFloat(b)
	return x, y, ok
}

// Equal reports whether two values are equal. Numbers compare by value
// regardless of type, and containers compare element-wise.
func Equal(a, b any) bool {
	a, b = normalize(a), normalize(b)
	if x, y, ok := ints(a, b); ok {
		return x == y
	}
	if x, y, ok := reals(a, b); ok {
		return x == y
	}
	switch a := a.(type) {
	case nil:
		return b == nil
	case string:
		b, ok := b.(string)
		return ok && a == b
	case []any:
		b, ok := b.([]any)
		return ok && seqEqual(a, b)
	case Tuple:
		b, ok := b.(Tuple)
		return ok && seqEqual(a, b)
	case *Set:
		b, ok := b.(*Set)
		return ok && a.Len() == b.Len() && subset(a, b)
	case *Dict:
		b, ok := b.(*Dict)
		if !ok || a.Len() != b.Len() {
			return false
		}
		for _, p := range a.pairs {
			v, ok := b.Get(p.Key)
			if !ok || !Equal(p.Value, v) {
				return false
			}
		}
		return true
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta == nil || ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

func seqEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func subset(a, b *Set) bool {
	for _, x := range a.items {
		if !b.Contains(x) {
			return false
		}
	}
	return true
}

// compare applies an ordering comparison.
func compare(op opKind, a, b any) (bool, error) {
	if x, y, ok := ints(a, b); ok {
		return ordered(op, x, y), nil
	}
	if x, y, ok := reals(a, b); ok {
		return ordered(op, x, y), nil
	}
	switch a := normalize(a).(type) {
	case string:
		if b, ok := b.(string); ok {
			return ordered(op, a, b), nil
		}
	case []any:
		if b, ok := normalize(b).([]any); ok {
			return seqCompare(op, a, b)
		}
	case Tuple:
		if b, ok := b.(Tuple); ok {
			return seqCompare(op, a, b)
		}
	case *Set:
		if b, ok := b.(*Set); ok {
			return setCompare(op, a, b), nil
		}
	}
	return false, fmt.Errorf("'%s' not supported between instances of '%s' and '%s'", op, TypeName(a), TypeName(b))
}

func ordered[T cmp.Ordered](op opKind, x, y T) bool {
	switch op {
	case opLt:
		return x < y
	case opLtE:
		return x <= y
	case opGt:
		return x > y
	case opGtE:
		return x >= y
	}
	panic("exprcalc: not an ordering: " + op.String())
}

// seqCompare compares sequences lexicographically: the first unequal pair of
// elements decides, and otherwise the lengths do.
func seqCompare(op opKind, a, b []any) (bool, error) {
	for i := 0; i < len(a) && i < len(b); i++ {
		if !Equal(a[i], b[i]) {
			return compare(op, a[i], b[i])
		}
	}
	return ordered(op, len(a), len(b)), nil
}

// setCompare orders sets by inclusion.
func setCompare(op opKind, a, b *Set) bool {
	switch op {
	case opLt:
		return a.Len() < b.Len() && subset(a, b)
	case opLtE:
		return subset(a, b)
	case opGt:
		return a.Len() > b.Len() && subset(b, a)
	case opGtE:
		return subset(b, a)
	}
	panic("exprcalc: not an ordering: " + op.String())
}

func operandError(op string, a, b any) error {
	return fmt.Errorf("unsupported operand type(s) for %s: '%s' and '%s'", op, TypeName(a), TypeName(b))
}

// maxRepeat bounds the length of a sequence built by repetition.
const maxRepeat = 1 << 24

func addInt(a, b int) (int, bool) {
	c := a + b
	return c, (c > a) == (b > 0)
}

func subInt(a, b int) (int, bool) {
	c := a - b
	return c, (c < a) == (b > 0)
}

func mulInt(a, b int) (int, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt) || (b == -1 && a == math.MinInt) {
		return 0, false
	}
	c := a * b
	return c, c/b == a
}

// powInt computes a**b for b >= 0 by squaring.
func powInt(a, b int) (int, bool) {
	r := 1
	for b > 0 {
		if b&1 != 0 {
			var ok bool
			if r, ok = mulInt(r, a); !ok {
				return 0, false
			}
		}
		b >>= 1
		if b > 0 {
			var ok bool
			if a, ok = mulInt(a, a); !ok {
				return 0, false
			}
		}
	}
	return r, true
}

func add(a, b any) (any, error) {
	if x, y, ok := ints(a, b); ok {
		if c, ok := addInt(x, y); ok {
			return c, nil
		}
		return float64(x) + float64(y), nil
	}
	if x, y, ok := reals(a, b); ok {
		return x + y, nil
	}
	switch x := normalize(a).(type) {
	case string:
		if y, ok := b.(string); ok {
			return x + y, nil
		}
	case []any:
		if y, ok := normalize(b).([]any); ok {
			return append(append(make([]any, 0, len(x)+len(y)), x...), y...), nil
		}
	case Tuple:
		if y, ok := b.(Tuple); ok {
			return append(append(make(Tuple, 0, len(x)+len(y)), x...), y...), nil
		}
	}
	return nil, operandError("+", a, b)
}

func sub(a, b any) (any, error) {
	if x, y, ok := ints(a, b); ok {
		if c, ok := subInt(x, y); ok {
			return c, nil
		}
		return float64(x) - float64(y), nil
	}
	if x, y, ok := reals(a, b); ok {
		return x - y, nil
	}
	return nil, operandError("-", a, b)
}

func mul(a, b any) (any, error) {
	if x, y, ok := ints(a, b); ok {
		if c, ok := mulInt(x, y); ok {
			return c, nil
		}
		return float64(x) * float64(y), nil
	}
	if x, y, ok := reals(a, b); ok {
		return x * y, nil
	}
	if n, ok := toInt(b); ok {
		if r, ok, err := repeat(a, n); ok {
			return r, err
		}
	}
	if n, ok := toInt(a); ok {
		if r, ok, err := repeat(b, n); ok {
			return r, err
		}
	}
	return nil, operandError("*", a, b)
}

// repeat concatenates n copies of a sequence. ok is false if seq is not a
// sequence.
func repeat(seq any, n int) (r any, ok bool, err error) {
	if n < 0 {
		n = 0
	}
	var l int
	switch seq := normalize(seq).(type) {
	case string:
		l = len(seq)
	case []any:
		l = len(seq)
	case Tuple:
		l = len(seq)
	default:
		return nil, false, nil
	}
	if l == 0 {
		n = 0
	} else if n > maxRepeat/l {
		return nil, true, errors.New("repeated sequence is too long")
	}
	switch seq := normalize(seq).(type) {
	case string:
		return strings.Repeat(seq, n), true, nil
	case []any:
		r := make([]any, 0, l*n)
		for i := 0; i < n; i++ {
			r = append(r, seq...)
		}
		return r, true, nil
	case Tuple:
		r := make(Tuple, 0, l*n)
		for i := 0; i < n; i++ {
			r = append(r, seq...)
		}
		return r, true, nil
	}
	panic("unreachable")
}

func truediv(a, b any) (any, error) {
	x, y, ok := reals(a, b)
	if !ok {
		return nil, operandError("/", a, b)
	}
	if y == 0 {
		return nil, errors.New("division by zero")
	}
	return x / y, nil
}

// floatDivmod computes floored division and modulus of floats, so that the
// modulus takes the sign of the divisor.
func floatDivmod(x, y float64) (div, mod float64) {
	mod = math.Mod(x, y)
	div = (x - mod) / y
	if mod != 0 {
		if (y < 0) != (mod < 0) {
			mod += y
			div -= 1
		}
	} else {
		mod = math.Copysign(0, y)
	}
	if div != 0 {
		f := math.Floor(div)
		if div-f > 0.5 {
			f++
		}
		div = f
	} else {
		div = math.Copysign(0, x/y)
	}
	return div, mod
}

func floordiv(a, b any) (any, error) {
	if x, y, ok := ints(a, b); ok {
		if y == 0 {
			return nil, errors.New("integer division or modulo by zero")
		}
		if x == math.MinInt && y == -1 {
			return -float64(x), nil
		}
		q := x / y
		if x%y != 0 && (x < 0) != (y < 0) {
			q--
		}
		return q, nil
	}
	x, y, ok := reals(a, b)
	if !ok {
		return nil, operandError("//", a, b)
	}
	if y == 0 {
		return nil, errors.New("float floor division by zero")
	}
	div, _ := floatDivmod(x, y)
	return div, nil
}

func mod(a, b any) (any, error) {
	if x, y, ok := ints(a, b); ok {
		if y == 0 {
			return nil, errors.New("integer division or modulo by zero")
		}
		if y == -1 {
			return 0, nil
		}
		r := x % y
		if r != 0 && (r < 0) != (y < 0) {
			r += y
		}
		return r, nil
	}
	x, y, ok := reals(a, b)
	if !ok {
		return nil, operandError("%", a, b)
	}
	if y == 0 {
		return nil, errors.New("float modulo by zero")
	}
	_, m := floatDivmod(x, y)
	return m, nil
}

func pow(a, b any) (any, error) {
	if x, y, ok := ints(a, b); ok {
		if y >= 0 {
			if r, ok := powInt(x, y); ok {
				return r, nil
			}
			r, err := floatPow(float64(x), float64(y))
			if err != nil {
				return nil, errors.New("integer power result too large")
			}
			return r, nil
		}
		return floatPow(float64(x), float64(y))
	}
	if x, y, ok := reals(a, b); ok {
		return floatPow(x, y)
	}
	return nil, operandError("** or pow()", a, b)
}

func floatPow(x, y float64) (float64, error) {
	if x == 0 && y < 0 {
		return 0, errors.New("0.0 cannot be raised to a negative power")
	}
	if x < 0 && y != math.Trunc(y) && !math.IsInf(y, 0) {
		return 0, errors.New("negative number cannot be raised to a fractional power")
	}
	r := math.Pow(x, y)
	if math.IsInf(r, 0) && !math.IsInf(x, 0) && !math.IsInf(y, 0) {
		return 0, errors.New("numerical result out of range")
	}
	return r, nil
}

func pos(a any) (any, error) {
	if x, ok := toInt(a); ok {
		return x, nil
	}
	if x, ok := toFloat(a); ok {
		return x, nil
	}
	return nil, fmt.Errorf("bad operand type for unary +: '%s'", TypeName(a))
}

func neg(a any) (any, error) {
	if x, ok := toInt(a); ok {
		if x == math.MinInt {
			return -float64(x), nil
		}
		return -x, nil
	}
	if x, ok := toFloat(a); ok {
		return -x, nil
	}
	return nil, fmt.Errorf("bad operand type for unary -: '%s'", TypeName(a))
}

// iterate returns the elements of an iterable value. Dicts iterate over their
// keys and strings over their characters.
func iterate(v any) ([]any, error) {
	switch v := normalize(v).(type) {
	case []any:
		return v, nil
	case Tuple:
		return v, nil
	case *Set:
		return v.Items(), nil
	case *Dict:
		return v.Keys(), nil
	case string:
		r := make([]any, 0, len(v))
		for _, c := range v {
			r = append(r, string(c))
		}
		return r, nil
	}
	return nil, fmt.Errorf("'%s' object is not iterable", TypeName(v))
}

// Str formats a value the way it is printed: strings appear without quotes,
// and everything else as by Repr.
func Str(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return Repr(v)
}

// Repr formats a value as it would be written in an expression, e.g. 1.0,
// 'text', [1, 2], (1,), or None.
func Repr(v any) string {
	var b strings.Builder
	writeRepr(&b, v)
	return b.String()
}

func writeRepr(b *strings.Builder, v any) {
	switch v := normalize(v).(type) {
	case nil:
		b.WriteString("None")
	case bool:
		if v {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
	case int:
		b.WriteString(strconv.Itoa(v))
	case float64:
		b.WriteString(FormatFloat(v))
	case string:
		writeQuoted(b, v)
	case []any:
		b.WriteByte('[')
		writeReprs(b, v)
		b.WriteByte(']')
	case Tuple:
		b.WriteByte('(')
		writeReprs(b, v)
		if len(v) == 1 {
			b.WriteByte(',')
		}
		b.WriteByte(')')
	case *Set:
		if v.Len() == 0 {
			b.WriteString("set()")
			return
		}
		b.WriteByte('{')
		writeReprs(b, v.items)
		b.WriteByte('}')
	case *Dict:
		b.WriteByte('{')
		for i, p := range v.pairs {
			if i > 0 {
				b.WriteString(", ")
			}
			writeRepr(b, p.Key)
			b.WriteString(": ")
			writeRepr(b, p.Value)
		}
		b.WriteByte('}')
	default:
		fmt.Fprint(b, v)
	}
}

func writeReprs(b *strings.Builder, vs []any) {
	for i, x := range vs {
		if i > 0 {
			b.WriteString(", ")
		}
		writeRepr(b, x)
	}
}

func writeQuoted(b *strings.Builder, s string) {
	q := '\''
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}
	b.WriteRune(q)
	for _, r := range s {
		switch {
		case r == q, r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x100 && !unicode.IsPrint(r):
			fmt.Fprintf(b, `\x%02x`, r)
		case r < 0x10000 && !unicode.IsPrint(r):
			fmt.Fprintf(b, `\u%04x`, r)
		case !unicode.IsPrint(r):
			fmt.Fprintf(b, `\U%08x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteRune(q)
}

// FormatFloat formats f in the shortest form that reads back as the same
// value. Integral values keep a trailing ".0", and exponents are used for
// magnitudes below 1e-4 or at least 1e16.
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	sign := ""
	if s[0] == '-' {
		sign, s = "-", s[1:]
	}
	k := strings.IndexByte(s, 'e')
	exp, _ := strconv.Atoi(s[k+1:])
	digits := strings.Replace(s[:k], ".", "", 1)
	if -4 <= exp && exp < 16 {
		if exp < 0 {
			return sign + "0." + strings.Repeat("0", -exp-1) + digits
		}
		if len(digits) <= exp+1 {
			return sign + digits + strings.Repeat("0", exp+1-len(digits)) + ".0"
		}
		return sign + digits[:exp+1] + "." + digits[exp+1:]
	}
	m := digits[:1]
	if len(digits) > 1 {
		m += "." + digits[1:]
	}
	es := "+"
	if exp < 0 {
		es, exp = "-", -exp
	}
	if exp < 10 {
		es += "0"
	}
	return sign + m + "e" + es + strconv.Itoa(exp)
}
