// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Thermoquad/cubelink/pkg/cube"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	watchRate        float64
	watchRelative    bool
	watchCount       int
	watchMetricsAddr string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll and print the Cube position",
	Long: `Poll the Cube position at a fixed rate and print each reading.

Uses GET_ABS_POS by default, or GET_REL_POS with --relative. Failed polls are
printed and counted; polling continues until Ctrl+C or --count readings.

With --metrics-addr, session statistics, the last position and transaction
latency are served as Prometheus metrics on /metrics.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Float64Var(&watchRate, "rate", 2, "Polls per second")
	watchCmd.Flags().BoolVar(&watchRelative, "relative", false, "Report position relative to the user zero")
	watchCmd.Flags().IntVar(&watchCount, "count", 0, "Stop after this many polls (0 = forever)")
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9101)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchRate <= 0 {
		return fmt.Errorf("--rate must be positive")
	}

	s, connInfo, err := OpenSession(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Cubelink - Position Watch\n")
	fmt.Fprintf(out, "Connection: %s\n", connInfo)
	fmt.Fprintf(out, "Press Ctrl+C to exit\n\n")

	var metrics *watchMetrics
	if watchMetricsAddr != "" {
		metrics = newWatchMetrics(s.Stats())
		go func() {
			if err := metrics.serve(ctx, watchMetricsAddr); err != nil {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	poll := s.AbsolutePos
	if watchRelative {
		poll = s.RelativePos
	}

	err = watchLoop(ctx, out, poll, rate.NewLimiter(rate.Limit(watchRate), 1), watchCount, metrics)
	fmt.Fprintf(out, "\n%s", s.Stats().String())
	return err
}

// watchLoop polls until ctx is done, count polls were made or the channel closes
func watchLoop(ctx context.Context, out io.Writer, poll func() (*cube.Reply, error), limiter *rate.Limiter, count int, metrics *watchMetrics) error {
	for n := 0; count == 0 || n < count; n++ {
		if err := limiter.Wait(ctx); err != nil {
			// Interrupted
			return nil
		}

		start := time.Now()
		reply, err := poll()
		elapsed := time.Since(start)

		if errors.Is(err, cube.ErrChannelClosed) {
			return err
		}
		if err != nil {
			fmt.Fprintf(out, "[%s] !!! %v\n", time.Now().Format("15:04:05.000"), err)
			continue
		}

		st := reply.Status
		line := fmt.Sprintf("[%s] %-11s %s", reply.Timestamp.Format("15:04:05.000"), cube.FormatMode(st.Mode), cube.FormatPosition(st.Mode, st.Position))
		if st.Error != 0 {
			line += fmt.Sprintf("  (device error %d)", st.Error)
		}
		fmt.Fprintln(out, line)

		if metrics != nil {
			metrics.observe(reply, elapsed)
		}
	}
	return nil
}
