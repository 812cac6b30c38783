package auth

import (
	"crypto/rand"
	"math/big"

	"github.com/pkg/errors"

	"accounts/config"
	"accounts/internal/domain/service"
)

const publicIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// publicIDGenerator produces fixed-length alphanumeric identifiers from
// crypto/rand. These are the externally visible ids for users and addresses.
type publicIDGenerator struct {
	length int
}

// NewPublicIDGenerator is the constructor for publicIDGenerator.
func NewPublicIDGenerator(cfg *config.Config) service.PublicIDGenerator {
	length := config.DefaultPublicIDLength
	if cfg.Auth != nil && cfg.Auth.PublicIDLength > 0 {
		length = cfg.Auth.PublicIDLength
	}

	return &publicIDGenerator{length: length}
}

// Generate returns a new random identifier of the configured length.
func (g *publicIDGenerator) Generate() (string, error) {
	alphabetSize := big.NewInt(int64(len(publicIDAlphabet)))
	id := make([]byte, g.length)

	for i := range id {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", errors.Wrap(err, "failed to read random bytes for public id")
		}
		id[i] = publicIDAlphabet[n.Int64()]
	}

	return string(id), nil
}
