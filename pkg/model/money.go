package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the format of due and issue dates.
const DateLayout = "2006-01-02"

// Epsilon absorbs rounding when comparing a paid amount to what is owed.
var Epsilon = decimal.New(1, -2)

// Settled reports whether paid covers owed within Epsilon.
func Settled(paid, owed decimal.Decimal) bool {
	return paid.GreaterThanOrEqual(owed.Sub(Epsilon))
}

var markupStripper = strings.NewReplacer("<", "", ">", "")

// Sanitize strips angle brackets and surrounding whitespace from free text.
func Sanitize(s string) string {
	return strings.TrimSpace(markupStripper.Replace(s))
}

// ValidDate reports whether s is a YYYY-MM-DD date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
