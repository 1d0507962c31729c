package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/angelmondragon/fitcoach-backend/pkg/config"
	"golang.org/x/crypto/argon2"
)

const tempPasswordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz23456789"

// ErrInvalidHash signals a malformed Argon2id hash string.
var ErrInvalidHash = errors.New("invalid argon2id hash")

var b64 = base64.RawStdEncoding

// Hasher produces Argon2id hashes in the PHC string format
// $argon2id$v=19$m=<kb>,t=<iterations>,p=<threads>$<salt>$<key>.
type Hasher struct {
	memoryKB uint32
	time     uint32
	threads  uint8
	saltLen  uint32
	keyLen   uint32
}

// NewHasher clamps the configured cost parameters into a safe range.
func NewHasher(cfg config.PasswordConfig) Hasher {
	return Hasher{
		memoryKB: uint32(clamp(cfg.ArgonMemoryKB, 8, 512*1024)),
		time:     uint32(clamp(cfg.ArgonTime, 1, 10)),
		threads:  uint8(clamp(cfg.ArgonParallelism, 1, 255)),
		saltLen:  uint32(clamp(cfg.ArgonSaltLen, 8, 64)),
		keyLen:   uint32(clamp(cfg.ArgonKeyLen, 16, 64)),
	}
}

func (h Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	salt := make([]byte, h.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, h.time, h.memoryKB, h.threads, h.keyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.memoryKB, h.time, h.threads, b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// NeedsRehash reports whether encoded was produced with cheaper parameters
// than the hasher's.
func (h Hasher) NeedsRehash(encoded string) bool {
	stored, _, _, err := parseHash(encoded)
	if err != nil {
		return true
	}
	return stored.memoryKB < h.memoryKB || stored.time < h.time || stored.keyLen < h.keyLen
}

// HashPassword hashes password with the configured Argon2id parameters.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	return NewHasher(cfg).Hash(password)
}

// VerifyPassword reports whether password matches encoded. The parameters
// embedded in encoded are used, so older hashes keep verifying after the
// configuration changes.
func VerifyPassword(password, encoded string) (bool, error) {
	params, salt, key, err := parseHash(encoded)
	if err != nil {
		return false, err
	}
	computed := argon2.IDKey([]byte(password), salt, params.time, params.memoryKB, params.threads, params.keyLen)
	return subtle.ConstantTimeCompare(key, computed) == 1, nil
}

func parseHash(encoded string) (Hasher, []byte, []byte, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != "argon2id" {
		return Hasher{}, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil || version != argon2.Version {
		return Hasher{}, nil, nil, ErrInvalidHash
	}

	var h Hasher
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &h.memoryKB, &h.time, &h.threads); err != nil {
		return Hasher{}, nil, nil, ErrInvalidHash
	}
	if h.memoryKB == 0 || h.time == 0 || h.threads == 0 {
		return Hasher{}, nil, nil, ErrInvalidHash
	}

	salt, err := b64.DecodeString(fields[4])
	if err != nil || len(salt) == 0 {
		return Hasher{}, nil, nil, ErrInvalidHash
	}
	key, err := b64.DecodeString(fields[5])
	if err != nil || len(key) == 0 {
		return Hasher{}, nil, nil, ErrInvalidHash
	}
	h.saltLen = uint32(len(salt))
	h.keyLen = uint32(len(key))
	return h, salt, key, nil
}

func clamp(value, lo, hi int) int {
	return max(lo, min(value, hi))
}

// GenerateTempPassword returns a random password drawn from an alphabet
// without look-alike characters.
func GenerateTempPassword(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("length must be positive")
	}
	limit := big.NewInt(int64(len(tempPasswordAlphabet)))
	var out strings.Builder
	out.Grow(length)
	for range length {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate temp password: %w", err)
		}
		out.WriteByte(tempPasswordAlphabet[n.Int64()])
	}
	return out.String(), nil
}
