package loadtest

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/attrition/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging sends log output to both stdout and a file. If logFile is empty
// a timestamped name is used. The returned func closes the file.
func SetupLogging(logFile string) (func() error, error) {
	if logFile == "" {
		logFile = "loadtest_" + time.Now().Format("20060102_150405") + ".log"
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return file.Close, nil
}

// ShowHelp prints usage information for the load test tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Attrition Load Test Tool
========================

Trains a model on a running attrition service from a synthetic population,
then scores a second population concurrently and verifies every answer.

Usage:
  go run ./cmd/loadtest [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8080")
  -rows int
        Synthetic rows to train on (default 2000)
  -predictions int
        Number of /predict requests (default 1000)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -job-timeout duration
        Maximum wait for the training job (default 5m)
  -seed uint
        Synthetic population seed (default 42)
  -output string
        Write prediction outcomes to this JSON file
  -log string
        Log file (default: loadtest_TIMESTAMP.log)
  -verbose
        Log every failed request
  -help
        Show this help message

Examples:
  go run ./cmd/loadtest -predictions 50000 -workers 32 -url http://localhost:8080
`)
}
