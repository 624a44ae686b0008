package domain

import "strconv"

// MaxIdempotencyKeyLength bounds client supplied keys.
const MaxIdempotencyKeyLength = 128

// BuildIdempotencyKey scopes a client key to the paying user.
func BuildIdempotencyKey(payerUserID int64, key string) string {
	return strconv.FormatInt(payerUserID, 10) + ":" + key
}
