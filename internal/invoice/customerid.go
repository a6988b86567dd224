package invoice

import "strconv"

// externalIDDigits bounds the customer number accepted by Tripletex.
const externalIDDigits = 9

// ExternalCustomerNo derives a bounded customer number from a native Shopify
// customer id by keeping its rightmost 9 digits. Two distinct customers can
// truncate to the same number; the pipeline reports such collisions as
// warnings but does not resolve them.
func ExternalCustomerNo(id int64) int64 {
	s := strconv.FormatInt(id, 10)
	if len(s) > externalIDDigits {
		s = s[len(s)-externalIDDigits:]
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Unreachable for a valid positive id.
		return 0
	}
	return n
}
