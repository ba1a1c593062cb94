package fmt

import (
	"fmt"
	"strings"
)

// SprintFloat formats value with up to decimal digits, trimming trailing zeros.
func SprintFloat(value float64, decimal uint) string {
	var floatStr string
	if decimal > 0 {
		floatFormat := fmt.Sprintf("%%.%df", decimal)
		floatStr = fmt.Sprintf(floatFormat, value)
		floatStr = strings.TrimRight(strings.TrimRight(floatStr, "0"), ".")
	} else {
		floatStr = fmt.Sprintf("%.0f", value)
	}
	if floatStr == "-0" {
		return "0"
	}
	return floatStr
}

// SprintFloats formats each value with SprintFloat and joins them with sep.
func SprintFloats(values []float64, decimal uint, sep string) string {
	strs := make([]string, len(values))
	for i, value := range values {
		strs[i] = SprintFloat(value, decimal)
	}
	return strings.Join(strs, sep)
}
