package database

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// DateTimeLayout renders timestamps the way pt-BR users read them.
const DateTimeLayout = "02/01/2006 15:04:05"

func init() {
	// Report JSON mirrors the numbers the database returned, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// RowSet is an ordered, column-preserving result of a report query.
type RowSet struct {
	Columns []string `json:"colunas"`
	Rows    [][]any  `json:"dados"`
}

// Len returns the number of rows.
func (rs *RowSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}

// Empty reports whether the set has no rows.
func (rs *RowSet) Empty() bool {
	return rs.Len() == 0
}

// Index returns the position of column, or -1.
func (rs *RowSet) Index(column string) int {
	for i, c := range rs.Columns {
		if strings.EqualFold(c, column) {
			return i
		}
	}
	return -1
}

// Value returns the cell at row/column, or nil when the column is absent.
func (rs *RowSet) Value(row int, column string) any {
	i := rs.Index(column)
	if i < 0 || row < 0 || row >= len(rs.Rows) {
		return nil
	}
	return rs.Rows[row][i]
}

// Drop returns a copy of the set without column. Unknown columns are a no-op.
func (rs *RowSet) Drop(column string) *RowSet {
	i := rs.Index(column)
	if i < 0 {
		return rs
	}

	out := &RowSet{
		Columns: append(append([]string{}, rs.Columns[:i]...), rs.Columns[i+1:]...),
		Rows:    make([][]any, len(rs.Rows)),
	}
	for r, row := range rs.Rows {
		out.Rows[r] = append(append([]any{}, row[:i]...), row[i+1:]...)
	}
	return out
}

// Records returns the rows as JSON objects that keep column order.
func (rs *RowSet) Records() []Record {
	records := make([]Record, len(rs.Rows))
	for i, row := range rs.Rows {
		records[i] = Record{columns: rs.Columns, values: row}
	}
	return records
}

// Record is one row that marshals to a JSON object in column order.
type Record struct {
	columns []string
	values  []any
}

// Get returns the value of column, or nil.
func (r Record) Get(column string) any {
	for i, c := range r.columns {
		if strings.EqualFold(c, column) {
			return r.values[i]
		}
	}
	return nil
}

func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func scanRowSet(rows *sqlx.Rows) (*RowSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	rs := &RowSet{Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			values[i] = NormalizeCell(v)
		}
		rs.Rows = append(rs.Rows, values)
	}
	return rs, rows.Err()
}

// NormalizeCell converts a driver value into what the report pages show:
// NULL becomes "", strings lose CR/LF and surrounding blanks, timestamps are
// formatted as DateTimeLayout and DECIMAL/MONEY bytes become decimals.
func NormalizeCell(v any) any {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return cleanString(val)
	case []byte:
		if d, err := decimal.NewFromString(string(val)); err == nil {
			return d
		}
		if utf8.Valid(val) {
			return cleanString(string(val))
		}
		return strings.ToUpper(hex.EncodeToString(val))
	case time.Time:
		return val.Format(DateTimeLayout)
	default:
		return val
	}
}

func cleanString(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.TrimSpace(s)
}

// ToFloat converts a cell into a float64, returning 0 for anything that is
// not numeric.
func ToFloat(v any) float64 {
	switch val := v.(type) {
	case decimal.Decimal:
		return val.InexactFloat64()
	case float64:
		return val
	case float32:
		return float64(val)
	case int64:
		return float64(val)
	case int32:
		return float64(val)
	case int:
		return float64(val)
	case bool:
		if val {
			return 1
		}
		return 0
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
