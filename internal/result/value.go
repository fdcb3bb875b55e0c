// Package result defines the canonical query result shape and the
// engine-agnostic value union every engine's native types are converted into.
package result

import (
	"encoding/json"
	"time"
)

// Kind tags which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindTime
	KindList
	KindMap
)

var kindNames = [...]string{"null", "bool", "int", "float", "string", "time", "list", "map"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is a tagged union: null, bool, int64, float64, string, timestamp,
// ordered list of Value, or string-keyed map of Value. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	t    time.Time
	list []Value
	m    map[string]Value
}

func Null() Value            { return Value{} }
func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }
func Int(i int64) Value      { return Value{kind: KindInt, i: i} }
func Float(f float64) Value  { return Value{kind: KindFloat, f: f} }
func String(s string) Value  { return Value{kind: KindString, s: s} }
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }
func List(vs ...Value) Value { return Value{kind: KindList, list: vs} }
func Map(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindMap, m: m}
}

func (v Value) Kind() Kind              { return v.kind }
func (v Value) IsNull() bool            { return v.kind == KindNull }
func (v Value) AsBool() bool            { return v.b }
func (v Value) AsInt() int64            { return v.i }
func (v Value) AsFloat() float64        { return v.f }
func (v Value) AsString() string        { return v.s }
func (v Value) AsTime() time.Time       { return v.t }
func (v Value) AsList() []Value         { return v.list }
func (v Value) AsMap() map[string]Value { return v.m }

// Interface converts v back into plain Go values (nil, bool, int64, float64,
// string, time.Time, []any, map[string]any).
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindTime:
		return v.t
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, e := range v.m {
			out[k] = e.Interface()
		}
		return out
	}
	return nil
}

// MarshalJSON encodes v as its natural JSON value; timestamps use RFC 3339.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindTime:
		return json.Marshal(v.t.Format(time.RFC3339Nano))
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case KindMap:
		return json.Marshal(v.m)
	}
	return json.Marshal(v.Interface())
}
