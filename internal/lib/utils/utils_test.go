package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "000123", DigitsOnly("000.123-"))
	assert.Equal(t, "", DigitsOnly("abc"))
}

func TestLastFolder(t *testing.T) {
	assert.Equal(t, "api-vendas", LastFolder(`C:\apps\api-vendas\`, "---"))
	assert.Equal(t, "web", LastFolder("/srv/web", "---"))
	assert.Equal(t, "---", LastFolder("", "---"))
}

func TestMonthBounds(t *testing.T) {
	first, last := MonthBounds(time.Date(2024, 2, 17, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-02-01", first)
	assert.Equal(t, "2024-02-29", last)
}

func TestBRRange(t *testing.T) {
	assert.Equal(t, "01/03/2025 a 31/03/2025", BRRange("2025-03-01", "2025-03-31"))
	assert.Equal(t, "ontem", BRFromISO("ontem"))
}

func TestSameMonth(t *testing.T) {
	assert.True(t, SameMonth("2025-03-01", "2025-03-31"))
	assert.False(t, SameMonth("2025-03-01", "2025-04-01"))
	assert.False(t, SameMonth("2024-03-01", "2025-03-01"))
	assert.False(t, SameMonth("x", "2025-03-01"))
}

func TestRatioAndGrowth(t *testing.T) {
	assert.Equal(t, 50.0, Ratio(5, 10))
	assert.Equal(t, 0.0, Ratio(5, 0))
	assert.Equal(t, 25.0, Growth(125, 100))
	assert.Equal(t, 0.0, Growth(125, 0))
}

func TestHasControl(t *testing.T) {
	assert.True(t, HasControl("a\nb"))
	assert.False(t, HasControl("abc"))
}
