package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/attrition/internal/loadtest"
)

const (
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", loadtest.DefaultBaseURL, "Base URL of the service")
		rows        = flag.Int("rows", loadtest.DefaultTrainRows, "Synthetic rows to train on")
		predictions = flag.Int("predictions", loadtest.DefaultPredictions, "Number of /predict requests")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout     = flag.Duration("timeout", loadtest.DefaultTimeout, "HTTP request timeout")
		jobTimeout  = flag.Duration("job-timeout", loadtest.DefaultJobTimeout, "Maximum wait for the training job")
		seed        = flag.Uint64("seed", loadtest.DefaultSeed, "Synthetic population seed")
		outputFile  = flag.String("output", "", "Write prediction outcomes to this JSON file")
		logFile     = flag.String("log", "", "Log file (default: loadtest_TIMESTAMP.log)")
		verbose     = flag.Bool("verbose", false, "Log every failed request")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtest.ShowHelp()
		return
	}

	closeLog, err := loadtest.SetupLogging(*logFile)
	if err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closeLog() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &loadtest.Config{
		BaseURL:     *baseURL,
		TrainRows:   *rows,
		Predictions: *predictions,
		Workers:     *workers,
		Timeout:     *timeout,
		JobTimeout:  *jobTimeout,
		Seed:        *seed,
		OutputFile:  *outputFile,
		Verbose:     *verbose,
	}

	if _, err := loadtest.Run(ctx, config); err != nil {
		_, _ = os.Stderr.WriteString("Load test failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
