package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/VikasCh3108/Solar-AI/internal/config"
	"github.com/VikasCh3108/Solar-AI/internal/svc"
	"github.com/VikasCh3108/Solar-AI/pkg/analysis"
	"github.com/VikasCh3108/Solar-AI/pkg/confkit"
	"github.com/VikasCh3108/Solar-AI/pkg/imagery"
)

type options struct {
	configPath string
	image      string
	address    string
	userType   string
	mock       bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "f", "etc/solarai.yaml", "the config file")
	fs.StringVar(&opts.image, "image", "", "path to a local rooftop image")
	fs.StringVar(&opts.address, "address", "", "address to analyze via satellite imagery")
	fs.StringVar(&opts.userType, "user-type", "homeowner", "user type: homeowner or professional")
	fs.BoolVar(&opts.mock, "mock", false, "use the mock rooftop detector")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	switch strings.ToLower(opts.userType) {
	case "homeowner", "professional":
	default:
		return opts, fmt.Errorf("invalid -user-type %q", opts.userType)
	}
	return opts, nil
}

func main() {
	logx.MustSetup(logx.LogConf{})
	logx.DisableStat()

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	var overrides []config.Override
	if opts.mock {
		overrides = append(overrides, config.ForceMock())
	}
	cfg, err := config.Load(locateConfig(opts.configPath), overrides...)
	if err != nil {
		logx.Errorf("load config: %v", err)
		os.Exit(1)
	}
	svcCtx, err := svc.Build(*cfg, cfg.MainPath())
	if err != nil {
		logx.Errorf("build service: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, svcCtx, opts, os.Stdout)
	stop()
	if err := svcCtx.Close(); err != nil {
		logx.Errorf("close: %v", err)
	}
	os.Exit(code)
}

// locateConfig falls back to the project root for a relative path missing
// from the working directory, so the command also runs from subdirectories.
func locateConfig(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	if p, err := confkit.ProjectPath(path); err == nil {
		return p
	}
	return path
}

// run prints the numbered workflow for one image and returns the exit code.
func run(ctx context.Context, svcCtx *svc.ServiceContext, opts options, out io.Writer) int {
	fmt.Fprintln(out, "1. Image Acquisition & Preprocessing...")
	img, err := svcCtx.Acquirer.Acquire(ctx, imagery.Input{ImageFile: opts.image, Address: opts.address})
	if err != nil {
		fmt.Fprintf(out, "Could not acquire an image: %v\n", err)
		return 1
	}

	fmt.Fprintln(out, "2. Rooftop Detection & Segmentation...")
	ac, err := svcCtx.Pipeline.Run(ctx, analysis.Input{
		Image: img,
		UserInput: analysis.UserInput{
			ImageFile: opts.image,
			Address:   opts.address,
			UserType:  strings.ToLower(opts.userType),
		},
	})
	switch {
	case errors.Is(err, analysis.ErrDetectionFailed):
		fmt.Fprintln(out, "\nVision AI did not return a valid result.")
		return 1
	case err != nil:
		fmt.Fprintf(out, "Analysis failed: %v\n", err)
		return 1
	}

	roof := ac.Rooftop
	fmt.Fprintln(out, "\nStructured Vision AI Output:")
	fmt.Fprintf(out, "Mask: %s\n", roof.Mask)
	fmt.Fprintf(out, "Usable Area (m^2): %g\n", roof.UsableAreaM2)
	fmt.Fprintf(out, "Summary: %s\n", roof.Summary)
	fmt.Fprintf(out, "Validation: %s\n", ac.Validation.Message)
	fmt.Fprintf(out, "Confidence Score: %.2f\n", ac.Validation.Confidence)
	if !ac.Validation.IsValid {
		fmt.Fprintln(out, "[WARNING] Rooftop output failed validation. Downstream results may be unreliable.")
	} else if ac.Validation.Confidence < svcCtx.Config.Vision.LowConfidence {
		fmt.Fprintln(out, "[WARNING] Confidence score is low. Please verify the result.")
	}

	fmt.Fprintln(out, "3. Shading & Obstacle Analysis...")
	fmt.Fprintf(out, "Shading: %s\n", ac.Shading)
	fmt.Fprintln(out, "4. Solar Potential Assessment...")
	if a := ac.Assessment; a != nil && len(a.LayoutOptions) > 0 {
		fmt.Fprintf(out, "Layout: %d panels facing %s\n", a.LayoutOptions[0].PanelCount, a.LayoutOptions[0].Orientation)
	}
	fmt.Fprintln(out, "5. System Design & Recommendation...")
	fmt.Fprintf(out, "System: %d x %s\n", ac.Recommendation.NumPanels, ac.Recommendation.PanelType)
	fmt.Fprintln(out, "6. Cost & ROI Analysis...")
	fmt.Fprintf(out, "Cost: $%.2f, payback %.1f years\n", ac.ROI.CostUSD, ac.ROI.PaybackPeriodYears)
	fmt.Fprintln(out, "7. Report Generation...")
	fmt.Fprintf(out, "Report generated at: %s\n", ac.ReportPath)
	fmt.Fprintln(out, "8. User Feedback & Iteration...")
	fmt.Fprintf(out, "Feedback: %s\n", ac.Feedback)

	if total, ok := ac.Timing(analysis.StageTotal); ok {
		fmt.Fprintf(out, "[PERF] Main workflow completed in %.3f seconds\n", total.Seconds())
	}
	return 0
}
