// Command attritionctl operates the model registry offline: it generates
// synthetic datasets, trains and registers models, switches the active model
// and scores records against it. It reads the same ATTRITION_ configuration as
// the server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	service "github.com/okian/attrition/internal/app"
	"github.com/okian/attrition/internal/config"
	"github.com/okian/attrition/internal/dataset"
	"github.com/okian/attrition/internal/domain/model"
	"github.com/okian/attrition/internal/serving"
	"github.com/okian/attrition/pkg/logger"
)

// ErrUsage is returned for unknown commands and bad flags.
var ErrUsage = errors.New("usage error")

const usage = `attritionctl <command> [flags]

Commands:
  generate  -rows N -seed S -out FILE     write a synthetic labelled dataset
  train     -synthetic N | -json FILE     train, register and (by default) activate a model
  models    -limit N                      list registered models, newest first
  activate  -id ID                        make a registered model active
  predict   -json FILE                    score one record or an array of records
`

func main() {
	if err := logger.Init(logger.WithWriter(os.Stderr)); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, ErrUsage) {
			_, _ = os.Stderr.WriteString(usage)
		}
		_, _ = os.Stderr.WriteString("attritionctl: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", ErrUsage)
	}
	cmd, rest := args[0], args[1:]

	if cmd == "generate" {
		return generate(ctx, rest, out)
	}

	var handler func(context.Context, *service.Service, []string, io.Writer) error
	switch cmd {
	case "train":
		handler = train
	case "models":
		handler = listModels
	case "activate":
		handler = activate
	case "predict":
		handler = predict
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}
	svc, err := service.Open(ctx, cfg, logger.Get())
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Stop(context.Background()); err != nil {
			logger.Get().Error(ctx, "registry close failed", logger.Error(err))
		}
	}()
	return handler(ctx, svc, rest, out)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUsage, fs.Name(), err)
	}
	return nil
}

func generate(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("generate")
	rows := fs.Int("rows", 1000, "rows to generate")
	seed := fs.Uint64("seed", 42, "population seed")
	path := fs.String("out", "", "output file")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *path == "" {
		return fmt.Errorf("%w: generate: -out is required", ErrUsage)
	}

	data, err := dataset.Generate(ctx, *rows, dataset.WithSeed(*seed), dataset.WithLogger(logger.Get()))
	if err != nil {
		return err
	}
	if err := dataset.SaveFile(*path, data); err != nil {
		return err
	}
	return writeJSON(out, map[string]any{
		"path":       *path,
		"rows":       len(data),
		"left_ratio": dataset.LeftRatio(data),
	})
}

func train(ctx context.Context, svc *service.Service, args []string, out io.Writer) error {
	fs := newFlagSet("train")
	synthetic := fs.Int("synthetic", 0, "train on N synthetic rows")
	seed := fs.Uint64("seed", 42, "synthetic population seed")
	path := fs.String("json", "", "train on a JSON dataset file")
	by := fs.String("by", "attritionctl", "requester recorded on the model")
	if err := parse(fs, args); err != nil {
		return err
	}

	var (
		rows []model.TrainingRow
		err  error
	)
	switch {
	case *synthetic > 0 && *path != "":
		return fmt.Errorf("%w: train: -synthetic and -json are exclusive", ErrUsage)
	case *synthetic > 0:
		rows, err = dataset.Generate(ctx, *synthetic, dataset.WithSeed(*seed))
	case *path != "":
		rows, err = dataset.LoadFile(*path)
	default:
		return fmt.Errorf("%w: train: one of -synthetic or -json is required", ErrUsage)
	}
	if err != nil {
		return err
	}

	outcome, err := svc.TrainNow(ctx, rows, *by)
	if err != nil {
		return err
	}
	return writeJSON(out, outcome)
}

func listModels(ctx context.Context, svc *service.Service, args []string, out io.Writer) error {
	fs := newFlagSet("models")
	limit := fs.Int("limit", 20, "maximum models to list")
	if err := parse(fs, args); err != nil {
		return err
	}
	models, err := svc.Models(ctx, *limit)
	if err != nil {
		return err
	}
	return writeJSON(out, models)
}

func activate(ctx context.Context, svc *service.Service, args []string, out io.Writer) error {
	fs := newFlagSet("activate")
	id := fs.String("id", "", "model id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("%w: activate: -id is required", ErrUsage)
	}
	m, err := svc.Activate(ctx, *id)
	if err != nil {
		return err
	}
	return writeJSON(out, m)
}

func predict(ctx context.Context, svc *service.Service, args []string, out io.Writer) error {
	fs := newFlagSet("predict")
	path := fs.String("json", "", "JSON file with one record or an array of records")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *path == "" {
		return fmt.Errorf("%w: predict: -json is required", ErrUsage)
	}

	f, err := os.Open(*path)
	if err != nil {
		return fmt.Errorf("open records: %w", err)
	}
	defer f.Close()
	employees, err := dataset.DecodeEmployees(f)
	if err != nil {
		return err
	}

	items := make([]serving.BatchItem, len(employees))
	for i, emp := range employees {
		items[i] = serving.BatchItem{EmployeeID: fmt.Sprintf("%d", i), Employee: emp}
	}
	results := svc.PredictBatch(ctx, items)
	for _, r := range results {
		if errors.Is(r.Err, model.ErrNoModelAvailable) {
			return r.Err
		}
	}
	return writeJSON(out, results)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
