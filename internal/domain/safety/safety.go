// Package safety provides defensive deep copies for values that cross a
// module boundary.
//
// Each plugin binary owns its own heap. Any structured value handed from
// one module to another must be rebuilt in the receiver's allocations, or
// the receiver ends up holding references into storage it does not own.
// Every boundary crossing goes through this package: plugin-to-host
// registration calls, host-to-plugin getters, and values stored for later
// retrieval by a different module.
package safety

// Kind identifies the variant held by a Value.
type Kind int

const (
	// KindNull is the zero Value.
	KindNull Kind = iota
	// KindString holds text.
	KindString
	// KindBytes holds a raw byte buffer.
	KindBytes
	// KindInt holds a signed integer.
	KindInt
	// KindFloat holds a floating point number.
	KindFloat
	// KindBool holds a boolean.
	KindBool
	// KindList holds an ordered sequence of Values.
	KindList
	// KindMap holds a string-keyed mapping of Values.
	KindMap
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is the closed tagged union exchanged across module boundaries.
// Exactly one field matching Kind is meaningful; the rest are zero.
type Value struct {
	Kind  Kind
	Str   string
	Bytes []byte
	Int   int64
	Float float64
	Bool  bool
	List  []Value
	Map   map[string]Value
}

// Constructors for each variant.

// Null returns the null Value.
func Null() Value { return Value{Kind: KindNull} }

// String wraps text in a Value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Bytes wraps a byte buffer in a Value. The buffer is not copied here;
// copying happens at the boundary via DeepCopy.
func Bytes(b []byte) Value { return Value{Kind: KindBytes, Bytes: b} }

// Int wraps an integer in a Value.
func Int(i int64) Value { return Value{Kind: KindInt, Int: i} }

// Float wraps a float in a Value.
func Float(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// Bool wraps a boolean in a Value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// List wraps a sequence in a Value.
func List(vs ...Value) Value { return Value{Kind: KindList, List: vs} }

// Map wraps a mapping in a Value.
func Map(m map[string]Value) Value { return Value{Kind: KindMap, Map: m} }

// CopyString rebuilds a string in the caller's heap. Empty input yields
// the canonical empty string rather than a slice of the original backing
// array.
func CopyString(s string) string {
	if s == "" {
		return ""
	}
	b := make([]byte, len(s))
	copy(b, s)
	return string(b)
}

// CopyBytes rebuilds a byte buffer. Empty or nil input yields nil, never
// an aliased empty slice.
func CopyBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// CopyStrings deep-copies a string slice.
func CopyStrings(ss []string) []string {
	if len(ss) == 0 {
		return nil
	}
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = CopyString(s)
	}
	return out
}

// DeepCopy rebuilds v with freshly allocated backing storage. Scalars are
// copied by value; recursive kinds copy every element and map value.
// Empty containers come back as canonical empty containers, not as
// references to the input's allocation.
func DeepCopy(v Value) Value {
	switch v.Kind {
	case KindString:
		return Value{Kind: KindString, Str: CopyString(v.Str)}
	case KindBytes:
		return Value{Kind: KindBytes, Bytes: CopyBytes(v.Bytes)}
	case KindList:
		return Value{Kind: KindList, List: CopyList(v.List)}
	case KindMap:
		return Value{Kind: KindMap, Map: CopyMap(v.Map)}
	case KindInt, KindFloat, KindBool, KindNull:
		return v
	default:
		return v
	}
}

// CopyList deep-copies every element of a sequence.
func CopyList(list []Value) []Value {
	if len(list) == 0 {
		return []Value{}
	}
	out := make([]Value, len(list))
	for i, v := range list {
		out[i] = DeepCopy(v)
	}
	return out
}

// CopyMap deep-copies every key and value of a mapping.
func CopyMap(m map[string]Value) map[string]Value {
	if len(m) == 0 {
		return map[string]Value{}
	}
	out := make(map[string]Value, len(m))
	for k, v := range m {
		out[CopyString(k)] = DeepCopy(v)
	}
	return out
}

// Equal reports whether two Values have identical observable content.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNull:
		return true
	case KindString:
		return a.Str == b.Str
	case KindBytes:
		if len(a.Bytes) != len(b.Bytes) {
			return false
		}
		for i := range a.Bytes {
			if a.Bytes[i] != b.Bytes[i] {
				return false
			}
		}
		return true
	case KindInt:
		return a.Int == b.Int
	case KindFloat:
		return a.Float == b.Float
	case KindBool:
		return a.Bool == b.Bool
	case KindList:
		if len(a.List) != len(b.List) {
			return false
		}
		for i := range a.List {
			if !Equal(a.List[i], b.List[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.Map) != len(b.Map) {
			return false
		}
		for k, av := range a.Map {
			bv, ok := b.Map[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
