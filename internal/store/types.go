package store

import (
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/KaramelBytes/winestat/internal/table"
)

type sqlType string

const (
	typeBigint    sqlType = "BIGINT"
	typeDouble    sqlType = "DOUBLE"
	typeBoolean   sqlType = "BOOLEAN"
	typeTimestamp sqlType = "TIMESTAMP"
	typeVarchar   sqlType = "VARCHAR"
)

// inferTypes picks one SQL type per column from the non-null cells.
// Mixed integer and float columns become DOUBLE; any other mix is VARCHAR.
func inferTypes(t *table.Table) []sqlType {
	out := make([]sqlType, len(t.Columns))
	for j := range t.Columns {
		var kind sqlType
		for _, r := range t.Rows {
			v := r[j]
			if table.IsNull(v) {
				continue
			}
			k := cellType(v)
			switch {
			case kind == "":
				kind = k
			case kind == k:
			case (kind == typeBigint && k == typeDouble) || (kind == typeDouble && k == typeBigint):
				kind = typeDouble
			default:
				kind = typeVarchar
			}
			if kind == typeVarchar {
				break
			}
		}
		if kind == "" {
			kind = typeVarchar
		}
		out[j] = kind
	}
	return out
}

func cellType(v any) sqlType {
	switch v.(type) {
	case int64, int, int32:
		return typeBigint
	case float64, float32:
		return typeDouble
	case bool:
		return typeBoolean
	case time.Time:
		return typeTimestamp
	}
	return typeVarchar
}

// coerce converts a cell to the Go value bound for a column of type typ.
func coerce(v any, typ sqlType) any {
	if table.IsNull(v) {
		return nil
	}
	switch typ {
	case typeDouble:
		f, _ := table.Float(v)
		return f
	case typeBigint:
		switch x := v.(type) {
		case int:
			return int64(x)
		case int32:
			return int64(x)
		}
		return v
	case typeVarchar:
		if s, ok := v.(string); ok {
			return s
		}
		return table.String(v)
	}
	return v
}

// normalize maps driver values onto the table cell types.
func normalize(v any) any {
	switch x := v.(type) {
	case nil, string, int64, float64, bool, time.Time:
		return v
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x)
		}
		return float64(x)
	case float32:
		return float64(x)
	case []byte:
		return string(x)
	case *big.Int:
		if x.IsInt64() {
			return x.Int64()
		}
		f, _ := new(big.Float).SetInt(x).Float64()
		return f
	case interface{ Float64() float64 }:
		return x.Float64()
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}
