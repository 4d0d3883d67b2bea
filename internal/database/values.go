package database

import (
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lib/pq"
)

// encodeParam turns a query argument into the text form sent in the JSON
// params array. The result is either nil or a string.
func encodeParam(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return x, nil
	case json.RawMessage:
		if x == nil {
			return nil, nil
		}
		return string(x), nil
	case []byte:
		if x == nil {
			return nil, nil
		}
		return `\x` + hex.EncodeToString(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case time.Time:
		return x.Format(time.RFC3339Nano), nil
	case driver.Valuer:
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return nil, nil
		}
		val, err := x.Value()
		if err != nil {
			return nil, fmt.Errorf("database: encode %T: %w", v, err)
		}
		return encodeParam(val)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, nil
		}
		return encodeParam(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}
		literal, err := pq.Array(v).Value()
		if err != nil {
			return nil, fmt.Errorf("database: encode array %T: %w", v, err)
		}
		return encodeParam(literal)
	case reflect.Map, reflect.Struct:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("database: encode %T as json: %w", v, err)
		}
		return string(data), nil
	}
	return fmt.Sprint(v), nil
}

// decodeValue converts a raw text value into a driver.Value by type OID.
// Types without a natural Go scalar stay strings.
func decodeValue(types *pgtype.Map, oid uint32, raw *string) (driver.Value, error) {
	if raw == nil {
		return nil, nil
	}
	s := *raw

	switch oid {
	case pgtype.BoolOID:
		return s == "t" || s == "true", nil
	case pgtype.Int2OID, pgtype.Int4OID, pgtype.Int8OID, pgtype.OIDOID:
		return strconv.ParseInt(s, 10, 64)
	case pgtype.Float4OID, pgtype.Float8OID:
		return strconv.ParseFloat(s, 64)
	case pgtype.ByteaOID:
		if strings.HasPrefix(s, `\x`) {
			return hex.DecodeString(s[2:])
		}
		return []byte(s), nil
	case pgtype.DateOID, pgtype.TimestampOID, pgtype.TimestamptzOID:
		var t time.Time
		if err := types.Scan(oid, pgtype.TextFormatCode, []byte(s), &t); err != nil {
			// infinity and out-of-range values have no time.Time form
			return s, nil
		}
		return t, nil
	}
	return s, nil
}
