package utils

import (
	"fmt"
	"strconv"
)

// FormatINR renders paise as a display rupee string: 35000 → "₹350",
// 35050 → "₹350.50". Display only; money never leaves integer paise
// anywhere else.
func FormatINR(paise int64) string {
	rupees := paise / 100
	rest := paise % 100
	if rest < 0 {
		rest = -rest
	}
	if rest == 0 {
		return fmt.Sprintf("₹%d", rupees)
	}
	return "₹" + strconv.FormatInt(rupees, 10) + "." + fmt.Sprintf("%02d", rest)
}
