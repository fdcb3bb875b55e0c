package result

import (
	"encoding/hex"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// FromSQL converts a value scanned from a database/sql row into a Value.
func FromSQL(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(x)
	case int64:
		return Int(x)
	case int32:
		return Int(int64(x))
	case int16:
		return Int(int64(x))
	case int8:
		return Int(int64(x))
	case int:
		return Int(int64(x))
	case uint8:
		return Int(int64(x))
	case uint16:
		return Int(int64(x))
	case uint32:
		return Int(int64(x))
	case uint64:
		if x > math.MaxInt64 {
			return String(fmt.Sprint(x))
		}
		return Int(int64(x))
	case float64:
		return Float(x)
	case float32:
		return Float(float64(x))
	case string:
		return String(x)
	case []byte:
		return fromBytes(x)
	case [16]byte:
		return String(uuid.UUID(x).String())
	case time.Time:
		return Time(x)
	}
	return String(fmt.Sprint(v))
}

// fromBytes keeps text as text; anything else becomes a \x-prefixed hex string.
func fromBytes(b []byte) Value {
	if utf8.Valid(b) {
		return String(string(b))
	}
	return String(`\x` + hex.EncodeToString(b))
}

// FromBSON converts a decoded BSON value into a Value, recursing through
// embedded documents and arrays without a depth limit.
func FromBSON(v any) Value {
	switch x := v.(type) {
	case nil, bson.Null, bson.Undefined:
		return Null()
	case bool:
		return Bool(x)
	case int32:
		return Int(int64(x))
	case int64:
		return Int(x)
	case int:
		return Int(int64(x))
	case float64:
		return Float(x)
	case string:
		return String(x)
	case bson.DateTime:
		return Time(x.Time().UTC())
	case time.Time:
		return Time(x.UTC())
	case bson.Timestamp:
		return Time(time.Unix(int64(x.T), 0).UTC())
	case bson.ObjectID:
		return String(x.Hex())
	case bson.Decimal128:
		return String(x.String())
	case bson.Binary:
		return fromBytes(x.Data)
	case []byte:
		return fromBytes(x)
	case bson.Regex:
		return String("/" + x.Pattern + "/" + x.Options)
	case bson.JavaScript:
		return String(string(x))
	case bson.Symbol:
		return String(string(x))
	case bson.D:
		m := make(map[string]Value, len(x))
		for _, e := range x {
			m[e.Key] = FromBSON(e.Value)
		}
		return Map(m)
	case bson.M:
		m := make(map[string]Value, len(x))
		for k, e := range x {
			m[k] = FromBSON(e)
		}
		return Map(m)
	case map[string]any:
		return FromBSON(bson.M(x))
	case bson.A:
		return List(fromSlice(x, FromBSON)...)
	case []any:
		return List(fromSlice(x, FromBSON)...)
	case bson.Raw:
		var d bson.D
		if err := bson.Unmarshal(x, &d); err != nil {
			return String(x.String())
		}
		return FromBSON(d)
	}
	return String(fmt.Sprint(v))
}

// FromRedis converts a go-redis reply (RESP2 or RESP3) into a Value.
func FromRedis(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case string:
		return String(x)
	case int64:
		return Int(x)
	case bool:
		return Bool(x)
	case float64:
		return Float(x)
	case []byte:
		return fromBytes(x)
	case []any:
		return List(fromSlice(x, FromRedis)...)
	case map[any]any:
		m := make(map[string]Value, len(x))
		for k, e := range x {
			m[fmt.Sprint(k)] = FromRedis(e)
		}
		return Map(m)
	case map[string]any:
		m := make(map[string]Value, len(x))
		for k, e := range x {
			m[k] = FromRedis(e)
		}
		return Map(m)
	case error:
		return String(x.Error())
	}
	return String(fmt.Sprint(v))
}

func fromSlice(xs []any, conv func(any) Value) []Value {
	out := make([]Value, len(xs))
	for i, e := range xs {
		out[i] = conv(e)
	}
	return out
}
