// Package codegen generates batches of unique activation code strings.
//
// Codes are built as prefix + random segment + suffix, where the random segment
// draws from a charset that excludes visually ambiguous characters (0/O, 1/I).
// The generator is a pure function over its inputs: it never touches storage,
// and the caller supplies the set of already-issued codes to exclude.
package codegen

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
)

const (
	// Charset is the default alphabet for the random segment. Ambiguous
	// characters (0, O, 1, I) are excluded so codes survive being read aloud
	// or retyped from print.
	Charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// DefaultLength is the total code length used when the caller does not
	// specify one.
	DefaultLength = 12

	// MinLength and MaxLength bound an explicit total length.
	MinLength = 8
	MaxLength = 16

	// MaxAffixLength bounds the prefix and the suffix individually.
	MaxAffixLength = 10

	// MaxCount bounds a single generation batch.
	MaxCount = 10000

	// maxAttemptsPerCode bounds collision retries for a single code. Hitting
	// it means the random segment's space is nearly exhausted relative to the
	// existing-code set, and the batch fails rather than spinning.
	maxAttemptsPerCode = 10000

	// spaceUsableFraction caps a batch at 90% of the combinatorial space of
	// the random segment. Beyond that, collision retries degrade badly.
	spaceUsableFraction = 0.9
)

// ErrSpaceExhausted reports that the requested batch cannot be satisfied from
// the available combinatorial space, either up-front (count too large for the
// segment length) or after exhausting collision retries.
var ErrSpaceExhausted = errors.New("codegen: unable to generate enough unique codes")

// Options configures a generation batch.
type Options struct {
	Count  int // number of codes to produce, 1..MaxCount
	Length int // total length including prefix and suffix; 0 means DefaultLength, else MinLength..MaxLength
	Prefix string
	Suffix string

	// Existing holds code strings already issued for the target scope. Newly
	// generated codes are guaranteed not to collide with it or one another.
	Existing map[string]struct{}

	// Charset overrides the default alphabet. Leave empty for Charset.
	Charset string
}

// Generate produces opts.Count distinct code strings.
//
// It fails with ErrSpaceExhausted when the request nears or exceeds the random
// segment's combinatorial space, and with a validation error when the segment
// length would be zero or negative (prefix+suffix consume the whole length).
func Generate(opts Options) ([]string, error) {
	if opts.Count < 1 || opts.Count > MaxCount {
		return nil, fmt.Errorf("codegen: count must be between 1 and %d, got %d", MaxCount, opts.Count)
	}
	if opts.Length != 0 && (opts.Length < MinLength || opts.Length > MaxLength) {
		return nil, fmt.Errorf("codegen: length must be between %d and %d, got %d", MinLength, MaxLength, opts.Length)
	}
	if len(opts.Prefix) > MaxAffixLength {
		return nil, fmt.Errorf("codegen: prefix must be at most %d characters, got %d", MaxAffixLength, len(opts.Prefix))
	}
	if len(opts.Suffix) > MaxAffixLength {
		return nil, fmt.Errorf("codegen: suffix must be at most %d characters, got %d", MaxAffixLength, len(opts.Suffix))
	}

	length := opts.Length
	if length == 0 {
		length = DefaultLength
	}

	charset := opts.Charset
	if charset == "" {
		charset = Charset
	}

	randomLen := length - len(opts.Prefix) - len(opts.Suffix)
	if randomLen <= 0 {
		return nil, fmt.Errorf("codegen: length %d leaves no room for a random segment after prefix %q and suffix %q",
			length, opts.Prefix, opts.Suffix)
	}

	// Up-front exhaustion guard. float64 saturates to +Inf for large segments,
	// which compares correctly against any count.
	space := math.Pow(float64(len(charset)), float64(randomLen))
	if float64(opts.Count) > space*spaceUsableFraction {
		return nil, fmt.Errorf("%w: %d requested but the %d-character segment supports at most ~%.0f",
			ErrSpaceExhausted, opts.Count, randomLen, space*spaceUsableFraction)
	}

	used := make(map[string]struct{}, len(opts.Existing)+opts.Count)
	for code := range opts.Existing {
		used[code] = struct{}{}
	}

	out := make([]string, 0, opts.Count)
	for len(out) < opts.Count {
		code, err := generateOne(opts.Prefix, opts.Suffix, charset, randomLen, used)
		if err != nil {
			return nil, err
		}
		used[code] = struct{}{}
		out = append(out, code)
	}
	return out, nil
}

// generateOne draws random codes until one misses the used set, bounded by
// maxAttemptsPerCode.
func generateOne(prefix, suffix, charset string, randomLen int, used map[string]struct{}) (string, error) {
	buf := make([]byte, randomLen)
	max := big.NewInt(int64(len(charset)))

	for attempt := 0; attempt < maxAttemptsPerCode; attempt++ {
		for i := range buf {
			n, err := rand.Int(rand.Reader, max)
			if err != nil {
				return "", fmt.Errorf("codegen: reading randomness: %w", err)
			}
			buf[i] = charset[n.Int64()]
		}
		code := prefix + string(buf) + suffix
		if _, taken := used[code]; !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: gave up after %d collision retries", ErrSpaceExhausted, maxAttemptsPerCode)
}
