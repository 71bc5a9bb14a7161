package hash

// Hash computes keyed hashes of short secrets. Verification happens where
// the stored digest lives: the OTP store compares digests under row lock
// with a constant-time compare, so consumers of this interface only ever
// hash.
type Hash interface {
	// Hash returns the hash of the input string.
	Hash(str string) ([]byte, error)
}
