package billing

import (
	"math"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders amounts as locale-aware currency strings.
type Formatter struct {
	printer *message.Printer
	symbol  string
	scale   int
	suffix  bool
}

// suffixLanguages write the currency symbol after the amount ("41.501,77 €").
var suffixLanguages = map[string]bool{
	"de": true, "fr": true, "es": true, "it": true, "ca": true,
	"sv": true, "fi": true, "nb": true, "no": true, "da": true,
	"pl": true, "cs": true, "sk": true, "sl": true, "hu": true,
	"ro": true, "bg": true, "hr": true, "ru": true, "uk": true,
	"lt": true, "lv": true, "et": true, "el": true, "is": true,
}

// NewFormatter builds a formatter for a BCP 47 locale such as "en-US".
// Unparseable locales and regions without a known currency fall back to
// US English and dollars.
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.AmericanEnglish
	}
	unit, conf := currency.FromTag(tag)
	if conf == language.No {
		unit = currency.USD
	}
	scale, _ := currency.Standard.Rounding(unit)
	p := message.NewPrinter(tag)
	base, _ := tag.Base()

	return &Formatter{
		printer: p,
		symbol:  p.Sprint(currency.NarrowSymbol(unit)),
		scale:   scale,
		suffix:  suffixLanguages[base.String()],
	}
}

// Format rounds to the currency's minor unit, e.g. 41501.77 -> "$41,501.77"
// (en-US) or "41.501,77 €" (de-DE). Amounts that round to zero carry no
// sign.
func (f *Formatter) Format(amount float64) string {
	pow := math.Pow10(f.scale)
	amount = math.Round(amount*pow) / pow

	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := f.printer.Sprint(number.Decimal(amount, number.Scale(f.scale)))
	if f.suffix {
		return sign + digits + " " + f.symbol
	}
	return sign + f.symbol + digits
}
