// Package invariant reports internal consistency failures of the analysis
// core. In strict mode, which is on under `go test` or when RSTLS_STRICT is
// set, a failure panics. Otherwise it is logged and the caller skips the
// offending subtree.
package invariant

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

var ErrViolation = errors.Base("invariant violation")

var strict atomic.Bool

func init() {
	strict.Store(testing.Testing() || os.Getenv("RSTLS_STRICT") != "")
}

// Strict reports whether failures panic.
func Strict() bool {
	return strict.Load()
}

// SetStrict changes the mode and returns a func restoring the previous one.
func SetStrict(v bool) (restore func()) {
	prev := strict.Swap(v)
	return func() { strict.Store(prev) }
}

// Check returns true when cond holds. A false cond panics in strict mode and
// is logged otherwise.
func Check(ctx context.Context, cond bool, format string, args ...any) bool {
	if cond {
		return true
	}
	err := errors.Errorf("%w: %s", ErrViolation, fmt.Sprintf(format, args...))
	if strict.Load() {
		panic(err)
	}
	zerolog.Ctx(ctx).Error().Err(err).CallerSkipFrame(1).Msg("skipping subtree")
	return false
}
