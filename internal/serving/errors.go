package serving

import "errors"

// ErrUnscorable reports a classifier that could not produce a probability.
var ErrUnscorable = errors.New("model returned no probability")
