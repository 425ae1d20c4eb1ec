package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Sentinel errors for oracle operations
var (
	ErrOracleTimeout    = errors.New("oracle timeout")
	ErrOracleFailed     = errors.New("oracle call failed")
	ErrMalformedAnswer  = errors.New("malformed oracle answer")
	ErrProviderDisabled = errors.New("oracle provider disabled")
)

// wrapCallError maps a transport or context failure onto the oracle taxonomy.
// The original error stays in the chain so context.Canceled remains detectable.
func wrapCallError(provider string, err error) error {
	if err == nil {
		return nil
	}
	if isTimeout(err) {
		return fmt.Errorf("%w: %s: %w", ErrOracleTimeout, provider, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrOracleFailed, provider, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
