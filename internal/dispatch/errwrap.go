package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"runtime/debug"

	"bitcore/internal/logchannel"
	"bitcore/pkg/bittypes"
)

// Classify maps an error onto the taxonomy. A typed CommandError carries
// its own kind; otherwise the error chain is sniffed for well-known
// shapes, defaulting to unknown.
func Classify(err error) bittypes.ErrorKind {
	var cmdErr *bittypes.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Kind
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return bittypes.ErrNetwork
	}
	if errors.Is(err, os.ErrNotExist) {
		return bittypes.ErrNotFound
	}
	return bittypes.ErrUnknown
}

// WrapError is the single boundary that renders a handler failure. It
// emits exactly one "Error [<kind>]: <message>" line through the error
// emitter, optionally followed by a recovery hint line, logs the full
// detail at error level, and returns the standard failure envelope. The
// sink never receives stack text unless the caller asked for verbose
// output.
func WrapError(err error, emitError bittypes.Emitter, logger *logchannel.Logger, verbose bool) *bittypes.CommandResult {
	kind := Classify(err)
	message := err.Error()

	hint := kind.DefaultHint()
	var cmdErr *bittypes.CommandError
	if errors.As(err, &cmdErr) {
		hint = cmdErr.RecoveryHint()
	}

	emitError(fmt.Sprintf("Error [%s]: %s", kind, message), map[string]any{"kind": string(kind)})
	if hint != "" {
		emitError(hint, nil)
	}

	stack := string(debug.Stack())
	logger.Error(err, map[string]any{
		"kind":  string(kind),
		"stack": stack,
	})
	if verbose {
		emitError(stack, nil)
	}

	return &bittypes.CommandResult{
		Success: false,
		Handled: true,
		Error:   message,
	}
}
