package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidTokenHash is returned when a configured hash is in neither supported format.
	ErrInvalidTokenHash = errors.New("application: invalid trigger token hash")
	// ErrIncompatibleTokenHashVersion is returned for argon2id hashes of another version.
	ErrIncompatibleTokenHashVersion = errors.New("application: incompatible trigger token hash version")
)

// Argon2idParams tunes CreateTokenHash.
type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

var DefaultArgon2idParams = Argon2idParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// CreateTokenHash hashes a trigger token with argon2id.
func CreateTokenHash(token string, params Argon2idParams) (string, error) {
	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(token), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	// $argon2id$v=19$m=...,t=...,p=...$salt$hash
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, params.Memory, params.Iterations, params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyToken checks token against an argon2id or bcrypt hash. A mismatch
// returns ErrInvalidToken; a malformed hash returns ErrInvalidTokenHash.
func VerifyToken(hashed, token string) error {
	switch {
	case strings.HasPrefix(hashed, "$argon2id$"):
		return verifyArgon2id(hashed, token)
	case strings.HasPrefix(hashed, "$2a$"), strings.HasPrefix(hashed, "$2b$"), strings.HasPrefix(hashed, "$2y$"):
		err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(token))
		switch {
		case err == nil:
			return nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return ErrInvalidToken
		default:
			return fmt.Errorf("%w: %v", ErrInvalidTokenHash, err)
		}
	}
	return ErrInvalidTokenHash
}

func verifyArgon2id(hashed, token string) error {
	parts := strings.Split(hashed, "$")
	if len(parts) != 6 {
		return ErrInvalidTokenHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTokenHash, err)
	}
	if version != argon2.Version {
		return ErrIncompatibleTokenHashVersion
	}

	var params Argon2idParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTokenHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTokenHash, err)
	}
	decoded, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTokenHash, err)
	}

	comparison := argon2.IDKey([]byte(token), salt, params.Iterations, params.Memory, params.Parallelism, uint32(len(decoded)))
	if subtle.ConstantTimeCompare(decoded, comparison) == 1 {
		return nil
	}
	return ErrInvalidToken
}

// TokenVerifier checks bearer tokens against one configured hash.
type TokenVerifier struct {
	hash string
}

// NewTokenVerifier validates the hash format up front.
func NewTokenVerifier(hash string) (*TokenVerifier, error) {
	hash = strings.TrimSpace(hash)
	if !strings.HasPrefix(hash, "$argon2id$") && !strings.HasPrefix(hash, "$2") {
		return nil, ErrInvalidTokenHash
	}
	return &TokenVerifier{hash: hash}, nil
}

// Verify returns nil when token matches.
func (v *TokenVerifier) Verify(token string) error {
	if v == nil {
		return ErrInvalidToken
	}
	if token == "" {
		return ErrInvalidToken
	}
	return VerifyToken(v.hash, token)
}
