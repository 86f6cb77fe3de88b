package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Parameters is an immutable key-value set of run parameters. Keys are
// conventionally upper snake case (TIME_DELTA_T, OPTION_VERBOSE, ...).
type Parameters struct {
	values  map[string]cty.Value
	origins map[string]string
}

// NewParameters returns a parameter set holding a copy of values. origin
// names where the values came from (a file path, "defaults", ...) and is
// only used for diagnostics.
func NewParameters(values map[string]cty.Value, origin string) *Parameters {
	p := &Parameters{
		values:  make(map[string]cty.Value, len(values)),
		origins: make(map[string]string, len(values)),
	}
	for k, v := range values {
		p.values[k] = v
		p.origins[k] = origin
	}
	return p
}

// FromMap builds a parameter set from plain Go values. It accepts the
// shapes produced by generic decoders: bool, string, integer and float
// kinds, []any and map[string]any.
func FromMap(values map[string]any, origin string) (*Parameters, error) {
	converted := make(map[string]cty.Value, len(values))
	for k, raw := range values {
		v, err := ToCty(raw)
		if err != nil {
			return nil, invalid(k, err)
		}
		converted[k] = v
	}
	return NewParameters(converted, origin), nil
}

// ToCty converts a generically decoded Go value into a cty.Value.
func ToCty(raw any) (cty.Value, error) {
	switch v := raw.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case cty.Value:
		return v, nil
	case bool:
		return cty.BoolVal(v), nil
	case string:
		return cty.StringVal(v), nil
	case int:
		return cty.NumberIntVal(int64(v)), nil
	case int64:
		return cty.NumberIntVal(v), nil
	case float64:
		return cty.NumberFloatVal(v), nil
	case []string:
		return stringTuple(v), nil
	case []any:
		if len(v) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, 0, len(v))
		for i, e := range v {
			ev, err := ToCty(e)
			if err != nil {
				return cty.NilVal, fmt.Errorf("element %d: %w", i, err)
			}
			elems = append(elems, ev)
		}
		return cty.TupleVal(elems), nil
	case []map[string]any:
		elems := make([]any, len(v))
		for i, m := range v {
			elems[i] = m
		}
		return ToCty(elems)
	case map[string]any:
		if len(v) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(v))
		for k, e := range v {
			ev, err := ToCty(e)
			if err != nil {
				return cty.NilVal, fmt.Errorf("attribute %q: %w", k, err)
			}
			attrs[k] = ev
		}
		return cty.ObjectVal(attrs), nil
	}
	ty, err := gocty.ImpliedType(raw)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unsupported value of type %T: %w", raw, err)
	}
	return gocty.ToCtyValue(raw, ty)
}

func stringTuple(ss []string) cty.Value {
	if len(ss) == 0 {
		return cty.EmptyTupleVal
	}
	elems := make([]cty.Value, len(ss))
	for i, s := range ss {
		elems[i] = cty.StringVal(s)
	}
	return cty.TupleVal(elems)
}

// Merge returns a new parameter set where the keys of each argument, in
// order, override the keys of p.
func (p *Parameters) Merge(others ...*Parameters) *Parameters {
	out := &Parameters{
		values:  make(map[string]cty.Value, len(p.values)),
		origins: make(map[string]string, len(p.values)),
	}
	for _, src := range append([]*Parameters{p}, others...) {
		if src == nil {
			continue
		}
		for k, v := range src.values {
			out.values[k] = v
			out.origins[k] = src.origins[k]
		}
	}
	return out
}

// With returns a copy of p with key set to value.
func (p *Parameters) With(key string, value cty.Value) *Parameters {
	return p.Merge(NewParameters(map[string]cty.Value{key: value}, "override"))
}

// Len returns the number of parameters.
func (p *Parameters) Len() int {
	return len(p.values)
}

// Keys returns all parameter names in lexical order.
func (p *Parameters) Keys() []string {
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether key is set to a non-null value.
func (p *Parameters) Has(key string) bool {
	_, ok := p.lookup(key)
	return ok
}

// Origin returns where key was defined, or "" when it is not set.
func (p *Parameters) Origin(key string) string {
	return p.origins[key]
}

// Value returns the raw cty value of key.
func (p *Parameters) Value(key string) (cty.Value, bool) {
	return p.lookup(key)
}

func (p *Parameters) lookup(key string) (cty.Value, bool) {
	if p == nil {
		return cty.NilVal, false
	}
	v, ok := p.values[key]
	if !ok || v.IsNull() {
		return cty.NilVal, false
	}
	return v, true
}

// Float returns key as a float64.
func (p *Parameters) Float(key string) (float64, error) {
	v, ok := p.lookup(key)
	if !ok {
		return 0, missing(key)
	}
	var f float64
	if err := decode(v, cty.Number, &f); err != nil {
		return 0, invalid(key, err)
	}
	return f, nil
}

// FloatOr returns key as a float64, or def when key is not set.
func (p *Parameters) FloatOr(key string, def float64) (float64, error) {
	if !p.Has(key) {
		return def, nil
	}
	return p.Float(key)
}

// Int returns key as an int. Non-integral numbers are rejected.
func (p *Parameters) Int(key string) (int, error) {
	v, ok := p.lookup(key)
	if !ok {
		return 0, missing(key)
	}
	var i int
	if err := decode(v, cty.Number, &i); err != nil {
		return 0, invalid(key, err)
	}
	return i, nil
}

// IntOr returns key as an int, or def when key is not set.
func (p *Parameters) IntOr(key string, def int) (int, error) {
	if !p.Has(key) {
		return def, nil
	}
	return p.Int(key)
}

// Bool returns key as a bool. The strings "true" and "false" are accepted.
func (p *Parameters) Bool(key string) (bool, error) {
	v, ok := p.lookup(key)
	if !ok {
		return false, missing(key)
	}
	var b bool
	if err := decode(v, cty.Bool, &b); err != nil {
		return false, invalid(key, err)
	}
	return b, nil
}

// BoolOr returns key as a bool, or def when key is not set.
func (p *Parameters) BoolOr(key string, def bool) (bool, error) {
	if !p.Has(key) {
		return def, nil
	}
	return p.Bool(key)
}

// Text returns key as a string. Numbers and bools are rendered.
func (p *Parameters) Text(key string) (string, error) {
	v, ok := p.lookup(key)
	if !ok {
		return "", missing(key)
	}
	var s string
	if err := decode(v, cty.String, &s); err != nil {
		return "", invalid(key, err)
	}
	return s, nil
}

// TextOr returns key as a string, or def when key is not set.
func (p *Parameters) TextOr(key, def string) (string, error) {
	if !p.Has(key) {
		return def, nil
	}
	return p.Text(key)
}

// Strings returns key as a list of strings. A list or tuple is converted
// element-wise; a single string is split on whitespace. A missing key
// yields an empty list.
func (p *Parameters) Strings(key string) ([]string, error) {
	v, ok := p.lookup(key)
	if !ok {
		return nil, nil
	}
	ty := v.Type()
	if ty.Equals(cty.String) {
		return strings.Fields(v.AsString()), nil
	}
	if !ty.IsListType() && !ty.IsTupleType() && !ty.IsSetType() {
		return nil, invalid(key, fmt.Errorf("expected a list of strings, got %s", ty.FriendlyName()))
	}
	var out []string
	for it := v.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		var s string
		if err := decode(ev, cty.String, &s); err != nil {
			return nil, invalid(key, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// decode converts v to want and then into the Go value pointed to by target.
func decode(v cty.Value, want cty.Type, target any) error {
	if !v.IsWhollyKnown() {
		return fmt.Errorf("value is not known")
	}
	cv, err := convert.Convert(v, want)
	if err != nil {
		return err
	}
	return gocty.FromCtyValue(cv, target)
}
