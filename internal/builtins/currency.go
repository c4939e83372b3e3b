package builtins

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/value"
)

// currencyBuiltins backs the Path/Currency value kinds the parser leaves
// for built-ins to construct (DESIGN.md: "paths, currency-shaped string
// literals deferred to builtins"). format_currency uses
// github.com/dustin/go-humanize for the thousands-separated display spec
// §6 shows ("$100", "100 USD").
func currencyBuiltins() map[string]*value.Function {
	return map[string]*value.Function{
		"path": native("path", 1, func(args []value.Value) (value.Value, error) {
			s, err := stringArg("path", args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.Path(s), nil
		}),
		"currency": native("currency", 1, func(args []value.Value) (value.Value, error) {
			s, err := stringArg("currency", args, 0)
			if err != nil {
				return value.Value{}, err
			}
			if _, _, ok := parseCurrency(s); !ok {
				return value.Value{}, fmt.Errorf("currency: %q is not a recognized currency string (expected e.g. \"$100\" or \"100 USD\")", s)
			}
			return value.Currency(s), nil
		}),
		"currency_amount": native("currency_amount", 1, func(args []value.Value) (value.Value, error) {
			if args[0].Kind != value.KindCurrency {
				return value.Value{}, fmt.Errorf("currency_amount: expected currency, got %s", args[0].TypeName())
			}
			amount, _, ok := parseCurrency(args[0].Str)
			if !ok {
				return value.Value{}, fmt.Errorf("currency_amount: malformed currency value %q", args[0].Str)
			}
			return value.Number(amount), nil
		}),
		"format_currency": native("format_currency", 2, func(args []value.Value) (value.Value, error) {
			amount, err := numberArg("format_currency", args, 0)
			if err != nil {
				return value.Value{}, err
			}
			symbol, err := stringArg("format_currency", args, 1)
			if err != nil {
				return value.Value{}, err
			}
			return value.Currency(symbol + humanize.Commaf(amount)), nil
		}),
	}
}

var (
	leadingSymbolRe  = regexp.MustCompile(`^([^\d\s.-]+)\s*(-?[\d,]+(?:\.\d+)?)$`)
	trailingSymbolRe = regexp.MustCompile(`^(-?[\d,]+(?:\.\d+)?)\s*([A-Za-z]+)$`)
)

// parseCurrency recognizes "$100"/"$1,234.56" (leading symbol) and
// "100 USD" (trailing code) forms, returning the numeric amount and the
// symbol/code string.
func parseCurrency(s string) (amount float64, symbol string, ok bool) {
	s = strings.TrimSpace(s)
	if m := leadingSymbolRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64)
		if err != nil {
			return 0, "", false
		}
		return n, m[1], true
	}
	if m := trailingSymbolRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			return 0, "", false
		}
		return n, m[2], true
	}
	return 0, "", false
}
