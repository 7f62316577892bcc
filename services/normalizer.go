package services

import (
	"regexp"
	"strconv"
	"strings"
)

// priceRegexp captures the first numeric value in a price string once
// thousands separators have been stripped.
var priceRegexp = regexp.MustCompile(`\d+(?:\.\d+)?`)

// NormalizePrice converts a raw marketplace price string into a numeric
// value. Currency symbols, thousands separators and locale prefixes such as
// "₹1,234", "$99.99" or "Rs. 2,499" are handled. A value that fails to parse
// or is not strictly positive yields 0, which downstream assembly treats as
// a rejection signal rather than a valid zero price.
func NormalizePrice(raw string) float64 {
	cleaned := strings.ReplaceAll(raw, ",", "")
	match := priceRegexp.FindString(cleaned)
	if match == "" {
		return 0
	}

	price, err := strconv.ParseFloat(match, 64)
	if err != nil || price <= 0 {
		return 0
	}
	return price
}
