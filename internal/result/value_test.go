package result

import (
	"encoding/json"
	"testing"
	"time"
)

func TestValue_ZeroIsNull(t *testing.T) {
	var v Value
	if !v.IsNull() {
		t.Errorf("zero Value kind = %s, want null", v.Kind())
	}
}

func TestValue_MarshalJSON(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"null", Null(), `null`},
		{"bool", Bool(true), `true`},
		{"int", Int(-42), `-42`},
		{"float", Float(1.5), `1.5`},
		{"string", String("hé"), `"hé"`},
		{"time", Time(ts), `"2025-03-01T12:30:00Z"`},
		{"empty list", List(), `[]`},
		{"list", List(Int(1), String("x"), Null()), `[1,"x",null]`},
		{"nil map", Map(nil), `{}`},
		{"nested", Map(map[string]Value{"a": List(Bool(false))}), `{"a":[false]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.v)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestValue_Interface(t *testing.T) {
	v := Map(map[string]Value{"n": Int(3), "l": List(String("a"))})
	got, ok := v.Interface().(map[string]any)
	if !ok {
		t.Fatalf("Interface() = %T, want map[string]any", v.Interface())
	}
	if got["n"] != int64(3) {
		t.Errorf("n = %v, want 3", got["n"])
	}
	l, ok := got["l"].([]any)
	if !ok || len(l) != 1 || l[0] != "a" {
		t.Errorf("l = %v, want [a]", got["l"])
	}
}

func TestKind_String(t *testing.T) {
	if KindMap.String() != "map" {
		t.Errorf("KindMap.String() = %q", KindMap.String())
	}
	if Kind(99).String() != "unknown" {
		t.Errorf("Kind(99).String() = %q", Kind(99).String())
	}
}
