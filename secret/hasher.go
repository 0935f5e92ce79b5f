package secret

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	minPassBytes          = 10

	argon2ID = "argon2id"
	sha256ID = "sha256"
)

// Class selects the cost profile for a secret.
type Class int

const (
	// ClassPassword is the high-cost class for low-entropy, long-lived
	// secrets (user passwords): argon2id with tunable work factors.
	ClassPassword Class = iota
	// ClassOpaque is the low-cost class for high-entropy, engine-generated
	// secrets (refresh and verification secrets): plain SHA-256. The input is
	// 256 bits of CSPRNG output, so salting and key stretching buy nothing;
	// the digest is deterministic, which lets stores index it for lookups.
	ClassOpaque
)

// Config carries the argon2id work factors for ClassPassword.
type Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Hasher hashes and verifies secrets in both cost classes. It is stateless
// and safe for unbounded concurrent use.
type Hasher struct {
	config Config
}

type parsedPHC struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	hash        []byte
	keyLength   uint32
}

// NewHasher validates the work factors and returns a Hasher.
func NewHasher(cfg Config) (*Hasher, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return &Hasher{config: cfg}, nil
}

// Hash returns a PHC-style encoding of value under the given class:
// "$argon2id$v=..$m=..,t=..,p=..$salt$hash" for ClassPassword,
// "$sha256$hash" for ClassOpaque.
func (h *Hasher) Hash(value string, class Class) (string, error) {
	switch class {
	case ClassPassword:
		return h.hashPassword(value)
	case ClassOpaque:
		return hashOpaque(value), nil
	default:
		return "", errors.New("unknown cost class")
	}
}

// Verify reports whether value matches the encoded hash. It returns false for
// malformed or unsupported encodings, never an error, and compares in
// constant time.
func (h *Hasher) Verify(value, encoded string) bool {
	algorithm := encodedAlgorithm(encoded)
	switch algorithm {
	case argon2ID:
		parsed, err := parsePHC(encoded)
		if err != nil {
			return false
		}

		computed := argon2.IDKey(
			[]byte(value),
			parsed.salt,
			parsed.time,
			parsed.memory,
			parsed.parallelism,
			parsed.keyLength,
		)
		return subtle.ConstantTimeCompare(computed, parsed.hash) == 1
	case sha256ID:
		return subtle.ConstantTimeCompare([]byte(hashOpaque(value)), []byte(encoded)) == 1
	default:
		return false
	}
}

func (h *Hasher) hashPassword(password string) (string, error) {
	// Password bytes are used exactly as provided (no Unicode normalization).
	if len(password) < minPassBytes {
		return "", errors.New("password must be at least 10 bytes")
	}

	salt := make([]byte, h.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey(
		[]byte(password),
		salt,
		h.config.Time,
		h.config.Memory,
		h.config.Parallelism,
		h.config.KeyLength,
	)

	saltEncoded := base64.StdEncoding.EncodeToString(salt)
	hashEncoded := base64.StdEncoding.EncodeToString(hash)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2ID,
		argon2.Version,
		h.config.Memory,
		h.config.Time,
		h.config.Parallelism,
		saltEncoded,
		hashEncoded,
	), nil
}

func hashOpaque(value string) string {
	digest := sha256.Sum256([]byte(value))
	return "$" + sha256ID + "$" + base64.RawStdEncoding.EncodeToString(digest[:])
}

func encodedAlgorithm(encoded string) string {
	if !strings.HasPrefix(encoded, "$") {
		return ""
	}
	rest := encoded[1:]
	idx := strings.IndexByte(rest, '$')
	if idx <= 0 {
		return ""
	}
	return rest[:idx]
}

func parsePHC(encodedHash string) (*parsedPHC, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, errors.New("invalid PHC format")
	}

	if parts[1] != argon2ID {
		return nil, errors.New("unsupported algorithm")
	}

	versionPart := parts[2]
	if !strings.HasPrefix(versionPart, "v=") {
		return nil, errors.New("missing argon2 version")
	}

	version, err := strconv.Atoi(strings.TrimPrefix(versionPart, "v="))
	if err != nil {
		return nil, errors.New("invalid argon2 version")
	}
	if version != argon2.Version {
		return nil, errors.New("unsupported argon2 version")
	}

	params, err := parseParams(parts[3])
	if err != nil {
		return nil, err
	}

	salt, err := base64.StdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, errors.New("invalid salt encoding")
	}
	if len(salt) < int(minSaltLength) {
		return nil, errors.New("invalid salt length")
	}

	hash, err := base64.StdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, errors.New("invalid hash encoding")
	}
	if len(hash) == 0 {
		return nil, errors.New("invalid hash length")
	}

	return &parsedPHC{
		memory:      params.memory,
		time:        params.time,
		parallelism: params.parallelism,
		salt:        salt,
		hash:        hash,
		keyLength:   uint32(len(hash)),
	}, nil
}

type parsedParams struct {
	memory      uint32
	time        uint32
	parallelism uint8
}

func parseParams(part string) (*parsedParams, error) {
	pairs := strings.Split(part, ",")
	if len(pairs) != 3 {
		return nil, errors.New("invalid parameter format")
	}

	var (
		memorySet, timeSet, parallelismSet bool
		params                             parsedParams
	)

	for _, pair := range pairs {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, errors.New("invalid parameter entry")
		}

		switch kv[0] {
		case "m":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil || v < uint64(minMemoryKB) {
				return nil, errors.New("invalid memory parameter")
			}
			params.memory = uint32(v)
			memorySet = true
		case "t":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil || v < uint64(minTimeCost) {
				return nil, errors.New("invalid time parameter")
			}
			params.time = uint32(v)
			timeSet = true
		case "p":
			v, err := strconv.ParseUint(kv[1], 10, 8)
			if err != nil || v < uint64(minParallelism) {
				return nil, errors.New("invalid parallelism parameter")
			}
			params.parallelism = uint8(v)
			parallelismSet = true
		default:
			return nil, errors.New("unsupported parameter")
		}
	}

	if !memorySet || !timeSet || !parallelismSet {
		return nil, errors.New("missing parameters")
	}

	return &params, nil
}

func validateConfig(cfg Config) error {
	if cfg.Memory < minMemoryKB {
		return errors.New("secret memory must be >= 8192 KB")
	}
	if cfg.Time < minTimeCost {
		return errors.New("secret time must be >= 1")
	}
	if cfg.Parallelism < minParallelism {
		return errors.New("secret parallelism must be >= 1")
	}
	if cfg.SaltLength < minSaltLength {
		return errors.New("secret salt length must be >= 16")
	}
	if cfg.KeyLength < minKeyLength {
		return errors.New("secret key length must be >= 16")
	}

	return nil
}
