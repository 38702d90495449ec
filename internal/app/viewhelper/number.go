package viewhelper

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Translator is the three-argument translate call: key, %%token%% values and
// the default used when the key is unknown.
type Translator interface {
	Translate(key string, tokens map[string]string, def string) string
}

const (
	decimalPointKey       = "number_decimal_point"
	thousandsSeparatorKey = "number_thousands_separator"

	// float64 carries about 15 significant digits; more decimals only print noise.
	maxDecimals = 9
)

// LocalizedNumber formats numbers with the separators of the current locale.
type LocalizedNumber struct {
	translator Translator
}

func NewLocalizedNumber(t Translator) *LocalizedNumber {
	return &LocalizedNumber{translator: t}
}

// Invoke rounds number to decimals places (clamped to 0..9) and renders it
// with the translated decimal point and thousands separator.
func (h *LocalizedNumber) Invoke(number float64, decimals int) string {
	dec := h.translator.Translate(decimalPointKey, nil, ".")
	sep := h.translator.Translate(thousandsSeparatorKey, nil, ",")
	return formatNumber(number, decimals, dec, sep)
}

func formatNumber(number float64, decimals int, decimalPoint, thousandsSep string) string {
	decimals = min(max(decimals, 0), maxDecimals)
	if math.IsNaN(number) || math.IsInf(number, 0) {
		return strconv.FormatFloat(number, 'f', -1, 64)
	}
	// 先按半数远离零取整，strconv 对 .5 是银行家舍入
	p := math.Pow10(decimals)
	if r := math.Round(number*p) / p; !math.IsInf(r, 0) {
		number = r
	}
	s := strconv.FormatFloat(math.Abs(number), 'f', decimals, 64)
	intPart, frac, _ := strings.Cut(s, ".")

	digits, _ := new(big.Int).SetString(intPart, 10)
	var sb strings.Builder
	// 舍入后为零的负数不带符号
	if number < 0 && strings.Trim(s, "0.") != "" {
		sb.WriteByte('-')
	}
	sb.WriteString(strings.ReplaceAll(humanize.BigComma(digits), ",", thousandsSep))
	if frac != "" {
		sb.WriteString(decimalPoint)
		sb.WriteString(frac)
	}
	return sb.String()
}
