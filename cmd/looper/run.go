package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pipelined/looper"
	"github.com/pipelined/looper/block"
	"github.com/pipelined/looper/keyboard"
	"github.com/pipelined/looper/log"
	"github.com/pipelined/looper/modules"
)

var (
	argAssets      string
	argWarmup      int
	argStopTimeout time.Duration
	argMetrics     bool

	runCmd = &cobra.Command{
		Use:   "run <project>",
		Short: "Run the project until Ctrl-C",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0])
		},
	}
)

func init() {
	runCmd.Flags().StringVarP(&argAssets, "assets", "a", looper.DefaultAssets, "assets root directory")
	runCmd.Flags().IntVarP(&argWarmup, "warmup", "w", looper.DefaultWarmup, "number of warm-up cycles before the start")
	runCmd.Flags().DurationVar(&argStopTimeout, "stop-timeout", looper.DefaultStopTimeout, "how long to wait for the pipeline to stop")
	runCmd.Flags().BoolVar(&argMetrics, "metrics", false, "log block metrics on exit")
}

func run(ctx context.Context, path string) error {
	logger := log.GetLogger()
	project, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	registry := block.NewRegistry()
	if err := modules.Register(registry); err != nil {
		return err
	}

	kb := keyboard.New(logger)
	if err := kb.Listen(os.Stdin); err != nil {
		return err
	}
	defer func() {
		if err := kb.Close(); err != nil {
			logger.Errorf("failed to restore terminal: %v", err)
		}
	}()

	options := []looper.Option{
		looper.WithLogger(logger),
		looper.WithKeyboard(kb),
		looper.WithAssets(argAssets),
		looper.WithWarmup(argWarmup),
		looper.WithStopTimeout(argStopTimeout),
	}
	for ext, fn := range modules.Decoders() {
		options = append(options, looper.WithDecoder(ext, fn))
	}
	if argMetrics {
		options = append(options, looper.WithMetrics())
		defer logMetrics(logger)
	}
	r := looper.New(registry, options...)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Infof("running %s, press Ctrl-C to stop", path)
	return r.Run(ctx, project)
}
