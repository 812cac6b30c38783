package service

// PublicIDGenerator produces the opaque external identifiers for users and
// addresses: fixed-length alphanumeric strings from a cryptographically
// strong source, distinct from internal storage keys.
type PublicIDGenerator interface {
	// Generate returns a new random identifier of the configured length.
	Generate() (string, error)
}
