package result

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestFromBSON_NestedDocument(t *testing.T) {
	doc := bson.D{{Key: "a", Value: bson.D{{Key: "b", Value: bson.A{int32(1), "x", nil}}}}}

	v := FromBSON(doc)
	if v.Kind() != KindMap {
		t.Fatalf("kind = %s, want map", v.Kind())
	}
	a := v.AsMap()["a"]
	if a.Kind() != KindMap {
		t.Fatalf("a kind = %s, want map", a.Kind())
	}
	b := a.AsMap()["b"]
	if b.Kind() != KindList {
		t.Fatalf("b kind = %s, want list", b.Kind())
	}
	list := b.AsList()
	if len(list) != 3 {
		t.Fatalf("len(b) = %d, want 3", len(list))
	}
	if list[0].Kind() != KindInt || list[0].AsInt() != 1 {
		t.Errorf("b[0] = %v, want int 1", list[0].Interface())
	}
	if list[1].Kind() != KindString || list[1].AsString() != "x" {
		t.Errorf("b[1] = %v, want string x", list[1].Interface())
	}
	if !list[2].IsNull() {
		t.Errorf("b[2] kind = %s, want null", list[2].Kind())
	}
}

func TestFromBSON_Scalars(t *testing.T) {
	oid := bson.NewObjectID()
	ts := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	dec, err := bson.ParseDecimal128("12.50")
	if err != nil {
		t.Fatalf("ParseDecimal128: %v", err)
	}

	tests := []struct {
		name string
		in   any
		kind Kind
		want any
	}{
		{"int64", int64(7), KindInt, int64(7)},
		{"double", 2.5, KindFloat, 2.5},
		{"bool", true, KindBool, true},
		{"objectid", oid, KindString, oid.Hex()},
		{"datetime", bson.NewDateTimeFromTime(ts), KindTime, ts},
		{"decimal", dec, KindString, "12.50"},
		{"null", bson.Null{}, KindNull, nil},
		{"binary", bson.Binary{Data: []byte("abc")}, KindString, "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := FromBSON(tt.in)
			if v.Kind() != tt.kind {
				t.Fatalf("kind = %s, want %s", v.Kind(), tt.kind)
			}
			if got := v.Interface(); tt.kind == KindTime {
				if !got.(time.Time).Equal(tt.want.(time.Time)) {
					t.Errorf("value = %v, want %v", got, tt.want)
				}
			} else if got != tt.want {
				t.Errorf("value = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFromSQL(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	tests := []struct {
		name string
		in   any
		kind Kind
		want any
	}{
		{"nil", nil, KindNull, nil},
		{"int64", int64(5), KindInt, int64(5)},
		{"int32", int32(-5), KindInt, int64(-5)},
		{"float", 3.25, KindFloat, 3.25},
		{"text bytes", []byte("hello"), KindString, "hello"},
		{"binary bytes", []byte{0xff, 0x00}, KindString, `\xff00`},
		{"uuid", [16]byte(id), KindString, id.String()},
		{"bool", false, KindBool, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := FromSQL(tt.in)
			if v.Kind() != tt.kind {
				t.Fatalf("kind = %s, want %s", v.Kind(), tt.kind)
			}
			if got := v.Interface(); got != tt.want {
				t.Errorf("value = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFromSQL_Time(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	v := FromSQL(ts)
	if v.Kind() != KindTime || !v.AsTime().Equal(ts) {
		t.Errorf("FromSQL(time) = %v (%s)", v.Interface(), v.Kind())
	}
}

func TestFromRedis(t *testing.T) {
	v := FromRedis([]any{"a", int64(2), nil, []any{"nested"}})
	if v.Kind() != KindList {
		t.Fatalf("kind = %s, want list", v.Kind())
	}
	l := v.AsList()
	if len(l) != 4 {
		t.Fatalf("len = %d, want 4", len(l))
	}
	if l[0].AsString() != "a" || l[1].AsInt() != 2 || !l[2].IsNull() {
		t.Errorf("list = %v", v.Interface())
	}
	if l[3].Kind() != KindList || l[3].AsList()[0].AsString() != "nested" {
		t.Errorf("nested = %v", l[3].Interface())
	}

	m := FromRedis(map[any]any{"field": "value", int64(1): int64(2)})
	if m.Kind() != KindMap {
		t.Fatalf("kind = %s, want map", m.Kind())
	}
	if m.AsMap()["field"].AsString() != "value" || m.AsMap()["1"].AsInt() != 2 {
		t.Errorf("map = %v", m.Interface())
	}

	e := FromRedis(errors.New("ERR unknown command"))
	if e.AsString() != "ERR unknown command" {
		t.Errorf("error reply = %q", e.AsString())
	}
}
