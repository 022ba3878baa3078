package ai

import "errors"

// Content failures: the model answered but the answer was unusable. Anything else
// returned from a provider is a transport failure (network, auth, limits).
var (
	ErrUnparseable  = errors.New("could not parse model output")
	ErrInvalidShape = errors.New("invalid shape")
)

// IsContentError reports whether err means the model, not the network, failed.
func IsContentError(err error) bool {
	return errors.Is(err, ErrUnparseable) || errors.Is(err, ErrInvalidShape)
}
