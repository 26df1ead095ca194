package serving

import (
	"runtime"

	"github.com/okian/attrition/pkg/logger"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBatchConcurrency bounds how many batch records are scored at once.
func WithBatchConcurrency(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.batchConcurrency = n
		}
	}
}

func defaultBatchConcurrency() int {
	return max(runtime.GOMAXPROCS(0), 1)
}
