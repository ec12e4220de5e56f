package service

import (
	"fmt"

	"github.com/grupotelles/comercial/internal/database"
)

func toString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

func number(rs *database.RowSet, row int, column string) float64 {
	return database.ToFloat(rs.Value(row, column))
}
