package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Fepozopo/xray/internal/config"
	"github.com/Fepozopo/xray/internal/logger"
	"github.com/Fepozopo/xray/internal/repository"
	"github.com/Fepozopo/xray/internal/server"
	"github.com/Fepozopo/xray/pkg/cli"
	"github.com/Fepozopo/xray/pkg/stdimg"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "xray",
		Short:         "Grayscale X-ray image enhancement",
		Version:       cli.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCmd(),
		newEditCmd(),
		newEnhanceCmd(),
		newTechniquesCmd(),
		newVersionCmd(),
		newUpdateCmd(),
	)
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer log.Sync()
			return serve(cmd.Context(), cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sink repository.ExportSink
	if cfg.S3.Enabled {
		s3Sink, err := repository.NewS3Sink(ctx, &cfg.S3, log)
		if err != nil {
			return fmt.Errorf("failed to create S3 export sink: %w", err)
		}
		sink = s3Sink
	}

	srv, err := server.New(cfg, sink, log)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("Received shutdown signal, shutting down gracefully")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
		log.Error("Server forced to shutdown", zap.Error(err))
		return err
	}
	log.Info("Server exited")
	return nil
}

func newEditCmd() *cobra.Command {
	var noFzf, noPreview bool
	cmd := &cobra.Command{
		Use:   "edit [image]",
		Short: "Interactive terminal editor",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			opts := cli.Options{UpdateRepo: cfg.Update.Repo, NoFzf: noFzf, NoPreview: noPreview}
			if len(args) == 1 {
				opts.ImagePath = args[0]
			}
			return cli.RunCLI(opts)
		},
	}
	cmd.Flags().BoolVar(&noFzf, "no-fzf", false, "use numbered lists instead of fzf")
	cmd.Flags().BoolVar(&noPreview, "no-preview", false, "disable terminal image previews")
	return cmd
}

func newEnhanceCmd() *cobra.Command {
	var in, out, technique, report string
	var gamma float64
	var low, high int
	cmd := &cobra.Command{
		Use:   "enhance",
		Short: "Enhance one image and write the result as PNG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params := map[string]string{}
			if cmd.Flags().Changed("gamma") {
				params["gamma"] = strconv.FormatFloat(gamma, 'g', -1, 64)
			}
			if cmd.Flags().Changed("low") {
				params["low"] = strconv.Itoa(low)
			}
			if cmd.Flags().Changed("high") {
				params["high"] = strconv.Itoa(high)
			}
			t, err := stdimg.ParseTechnique(technique, params)
			if err != nil {
				return err
			}

			src, _, err := cli.LoadImage(in)
			if err != nil {
				return fmt.Errorf("failed to read image %s: %w", in, err)
			}
			res, err := stdimg.Enhance(src, t)
			if err != nil {
				return err
			}

			if out == "" {
				out = stdimg.ExportFilename(time.Now())
			}
			written, err := cli.SavePNG(out, res.Image)
			if err != nil {
				return fmt.Errorf("failed to write image: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", res.Title(), written)

			if report != "" {
				sheet := stdimg.RenderReport(src, res.Image, res.LUT, res.Title())
				written, err := cli.SavePNG(report, sheet)
				if err != nil {
					return fmt.Errorf("failed to write report: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "report -> %s\n", written)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&in, "in", "i", "", "input image")
	f.StringVarP(&out, "out", "o", "", "output PNG (default enhanced_<timestamp>.png)")
	f.StringVarP(&technique, "technique", "t", stdimg.NameGamma, "technique name")
	f.Float64Var(&gamma, "gamma", 1.0, "gamma exponent")
	f.IntVar(&low, "low", 50, "contrast stretch lower bound")
	f.IntVar(&high, "high", 200, "contrast stretch upper bound")
	f.StringVar(&report, "report", "", "also write the comparison report PNG here")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func newTechniquesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "techniques",
		Short: "List the available techniques and their parameters",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPARAMETERS\tDESCRIPTION")
			for _, c := range stdimg.Commands {
				params := "-"
				if len(c.Args) > 0 {
					params = ""
					for i, a := range c.Args {
						if i > 0 {
							params += " "
						}
						params += fmt.Sprintf("%s=%s[%v..%v]", a.Name, a.Default, a.Min, a.Max)
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", c.Name, params, c.Description)
			}
			w.Flush()
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), cli.Version)
		},
	}
}

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Check GitHub for a newer release and install it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return cli.CheckForUpdates(cfg.Update.Repo, bufio.NewReader(cmd.InOrStdin()))
		},
	}
}
