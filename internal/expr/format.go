package expr

import (
	"math"
	"strconv"
	"strings"
)

// Format renders v the way the calculator displays numbers: the shortest
// decimal that round-trips, switching to exponent form for magnitudes of
// 1e21 and above or below 1e-6.
func Format(v float64) string {
	if v == 0 {
		return "0"
	}
	abs := math.Abs(v)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(v, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
