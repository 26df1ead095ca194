package classifier

import "errors"

// Sentinel kinds for classifier errors.
var (
	ErrUnknownFamily = errors.New("unknown classifier family")
	ErrEmptyTraining = errors.New("empty training set")
	ErrShape         = errors.New("inconsistent feature dimensions")
	ErrNonFinite     = errors.New("fitted parameters are not finite")
	ErrEmptySnapshot = errors.New("snapshot holds no fitted model")
)
