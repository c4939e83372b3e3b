package builtins

import (
	"testing"

	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/value"
)

func TestPathBuiltinWrapsString(t *testing.T) {
	c := currencyBuiltins()
	p := call(t, c, "path", value.String("/tmp/data.csv"))
	if p.Kind != value.KindPath || p.Str != "/tmp/data.csv" {
		t.Errorf("path() = %v", p)
	}
}

func TestCurrencyBuiltinParsesLeadingAndTrailingForms(t *testing.T) {
	c := currencyBuiltins()
	dollar := call(t, c, "currency", value.String("$100"))
	if dollar.Kind != value.KindCurrency {
		t.Errorf("currency($100) kind = %v", dollar.Kind)
	}
	usd := call(t, c, "currency", value.String("100 USD"))
	if usd.Kind != value.KindCurrency {
		t.Errorf("currency(100 USD) kind = %v", usd.Kind)
	}
}

func TestCurrencyBuiltinRejectsUnrecognizedString(t *testing.T) {
	c := currencyBuiltins()
	if _, err := c["currency"].Call([]value.Value{value.String("not a currency")}); err == nil {
		t.Fatal("expected error for unrecognized currency string")
	}
}

func TestCurrencyAmountExtractsNumericValue(t *testing.T) {
	c := currencyBuiltins()
	amount := call(t, c, "currency_amount", value.Currency("$1,234.50"))
	if amount.Num != 1234.50 {
		t.Errorf("currency_amount($1,234.50) = %v, want 1234.5", amount.Num)
	}
	amount2 := call(t, c, "currency_amount", value.Currency("250 EUR"))
	if amount2.Num != 250 {
		t.Errorf("currency_amount(250 EUR) = %v, want 250", amount2.Num)
	}
}

func TestCurrencyAmountRejectsNonCurrency(t *testing.T) {
	c := currencyBuiltins()
	if _, err := c["currency_amount"].Call([]value.Value{value.Number(5)}); err == nil {
		t.Fatal("expected error for currency_amount(number)")
	}
}

func TestFormatCurrencyInsertsThousandsSeparators(t *testing.T) {
	c := currencyBuiltins()
	formatted := call(t, c, "format_currency", value.Number(1234567.5), value.String("$"))
	if formatted.Str != "$1,234,567.5" {
		t.Errorf("format_currency = %q", formatted.Str)
	}
}

func TestParseCurrencyRecognizesBothForms(t *testing.T) {
	if amount, symbol, ok := parseCurrency("$1,200"); !ok || amount != 1200 || symbol != "$" {
		t.Errorf("parseCurrency($1,200) = %v %v %v", amount, symbol, ok)
	}
	if amount, symbol, ok := parseCurrency("1200 USD"); !ok || amount != 1200 || symbol != "USD" {
		t.Errorf("parseCurrency(1200 USD) = %v %v %v", amount, symbol, ok)
	}
	if _, _, ok := parseCurrency("nope"); ok {
		t.Error("parseCurrency(nope) should fail")
	}
}
