package view

import (
	"encoding/json"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.BrazilianPortuguese)

// FormatNumber renders v with pt-BR separators and the given decimals.
func FormatNumber(v float64, decimals int) string {
	return printer.Sprintf(fmt.Sprintf("%%.%df", decimals), v)
}

// FormatCurrency renders v as Brazilian reais.
func FormatCurrency(v float64) string {
	return "R$ " + FormatNumber(v, 2)
}

// FormatPercent renders v as a percentage with one decimal.
func FormatPercent(v float64) string {
	return FormatNumber(v, 1) + "%"
}

// FormatCell renders one report cell. Fractional numbers get two decimals,
// integers none, anything else is printed as is.
func FormatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case decimal.Decimal:
		if val.IsInteger() {
			return FormatNumber(val.InexactFloat64(), 0)
		}
		return FormatNumber(val.InexactFloat64(), 2)
	case float64:
		if val == float64(int64(val)) {
			return FormatNumber(val, 0)
		}
		return FormatNumber(val, 2)
	case float32:
		return FormatCell(float64(val))
	case int64:
		return printer.Sprintf("%d", val)
	case int32:
		return printer.Sprintf("%d", val)
	case int:
		return printer.Sprintf("%d", val)
	case bool:
		if val {
			return "Sim"
		}
		return "Não"
	case time.Time:
		return val.Format("02/01/2006 15:04:05")
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

// FormatDateTime renders t the way pt-BR locales print a timestamp.
func FormatDateTime(t time.Time) string {
	return t.Format("02/01/2006, 15:04:05")
}

func toJS(v any) (template.JS, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return template.JS(b), nil
}

// FuncMap returns the dashboard-specific template helpers. They are added on
// top of sprig's.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"brnum": FormatNumber,
		"brl":   FormatCurrency,
		"brpct": FormatPercent,
		"cell":  FormatCell,
		"tojs":  toJS,
		"base":  func() string { return BasePath },
		"isneg": func(v float64) bool { return v < 0 },
	}
}
