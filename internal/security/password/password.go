// Package password hashes and verifies account passwords.
//
// Hashes are self-describing: argon2id hashes use the PHC string format and
// bcrypt hashes keep their $2a$/$2b$ prefix, so Verify can check either
// regardless of which scheme is currently used for new hashes.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	SchemeArgon2id = "argon2id"
	SchemeBcrypt   = "bcrypt"
)

var (
	// ErrEmpty is returned when hashing an empty password.
	ErrEmpty = errors.New("empty password")
	// ErrTooLong is returned when the scheme cannot hash a password that long.
	ErrTooLong = errors.New("password too long for hashing scheme")
)

// Hasher produces salted one-way hashes.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
	// MaxBytes is the longest password the scheme can hash, or 0 if unbounded.
	MaxBytes() int
}

// bcryptMaxBytes is the input limit of the bcrypt algorithm.
const bcryptMaxBytes = 72

// New returns the Hasher for scheme.
func New(scheme string) (Hasher, error) {
	switch strings.ToLower(scheme) {
	case "", SchemeArgon2id:
		return Argon2id{Params: DefaultArgon2}, nil
	case SchemeBcrypt:
		return Bcrypt{Cost: bcrypt.DefaultCost}, nil
	default:
		return nil, fmt.Errorf("unknown password scheme %q", scheme)
	}
}

// Verify checks plain against a hash produced by any supported scheme.
func Verify(plain, hash string) bool {
	switch {
	case strings.HasPrefix(hash, "$argon2id$"):
		return verifyArgon2id(plain, hash)
	case strings.HasPrefix(hash, "$2"):
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
	default:
		return false
	}
}

// Argon2Params tunes the argon2id key derivation.
type Argon2Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	KeyLen      uint32
}

// DefaultArgon2 follows the RFC 9106 second recommended option.
var DefaultArgon2 = Argon2Params{Memory: 64 * 1024, Time: 3, Parallelism: 1, KeyLen: 32}

// Argon2id hashes into $argon2id$v=19$m=..,t=..,p=..$<salt>$<key>.
type Argon2id struct {
	Params Argon2Params
}

// Hash derives a new argon2id hash with a random 16-byte salt.
func (a Argon2id) Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmpty
	}
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	p := a.Params
	key := argon2.IDKey([]byte(plain), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether plain matches hash.
func (a Argon2id) Verify(plain, hash string) bool {
	return Verify(plain, hash)
}

// MaxBytes returns 0; argon2id accepts any length.
func (Argon2id) MaxBytes() int { return 0 }

func verifyArgon2id(plain, hash string) bool {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		return false
	}
	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return false
	}
	var m, t uint32
	var p uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(plain), salt, t, m, p, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

// Bcrypt hashes with golang.org/x/crypto/bcrypt.
type Bcrypt struct {
	Cost int
}

// Hash generates a bcrypt hash. Passwords over 72 bytes yield ErrTooLong.
func (b Bcrypt) Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmpty
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), b.Cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrTooLong
	}
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether plain matches hash.
func (b Bcrypt) Verify(plain, hash string) bool {
	return Verify(plain, hash)
}

// MaxBytes returns 72.
func (Bcrypt) MaxBytes() int { return bcryptMaxBytes }
