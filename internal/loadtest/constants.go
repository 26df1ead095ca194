package loadtest

import "time"

// Defaults for a load test run.
const (
	DefaultBaseURL      = "http://localhost:8080"
	DefaultTrainRows    = 2000
	DefaultPredictions  = 1000
	DefaultTimeout      = 30 * time.Second
	DefaultJobTimeout   = 5 * time.Minute
	DefaultPollInterval = 250 * time.Millisecond
	DefaultSeed         = 42

	requestedBy          = "loadtest"
	progressInterval     = time.Second
	percentageMultiplier = 100
)
