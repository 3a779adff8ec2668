package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fmtts/capture"
	"fmtts/config"
	"fmtts/debuglog"
	"fmtts/display"
	"fmtts/overlay"
	"fmtts/pipeline"
	"fmtts/strategy"
	"fmtts/tracking"
	"fmtts/transform"
)

// Process exit codes.
const (
	exitOK           = 0
	exitFatal        = 1
	exitNoSource     = -1
	defaultInputHint = "Use -h for usage examples and flag descriptions"
)

func usage() {
	fmt.Println("\nFMTTS - multi-target tracking with a stabilized view")
	fmt.Println("================================================================")
	fmt.Println("\nUSAGE EXAMPLES:")
	fmt.Println("\n  Track regions in a video file:")
	fmt.Println("    ./fmtts -input clip.mp4")
	fmt.Println("\n  Use the first camera with the KCF tracker:")
	fmt.Println("    ./fmtts -input 0 -tracker KCF")
	fmt.Println("\n  Fixed reference point and stabilize on the last selected region:")
	fmt.Println("    ./fmtts -input clip.mp4 -ref-x 425 -ref-y 250 -anchor last")
	fmt.Println("\n  Settings from a file, one flag overridden:")
	fmt.Println("    ./fmtts -config run.json -tracker MIL")
	fmt.Println("\n  Per-track debug logs:")
	fmt.Println("    ./fmtts -input clip.mp4 -debug -debug-dir /tmp/fmtts")
	fmt.Println("\nCONTROLS:")
	fmt.Println("  Draw a box and press SPACE or ENTER to add it, ESC to start tracking.")
	fmt.Println("  ESC while tracking stops the run.")
	fmt.Println("\nFLAGS:")
	flag.PrintDefaults()
	fmt.Println("")
}

func listTrackers() {
	fmt.Println("Available trackers:")
	for _, name := range strategy.Default().Names() {
		marker := ""
		if name == strategy.DefaultName {
			marker = " [default]"
		}
		fmt.Printf("  %s%s\n", name, marker)
	}
	fmt.Println("Not available in this OpenCV build: BOOSTING, MEDIANFLOW, MOSSE, TLD")
}

func main() {
	os.Exit(run())
}

func run() int {
	flags := config.RegisterFlags(flag.CommandLine, strategy.Default().Names())
	flag.Usage = usage
	flag.Parse()

	if *flags.ListTrackers {
		listTrackers()
		return exitOK
	}

	cfg, err := config.Load(*flags.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFatal
	}
	flags.Apply(flag.CommandLine, cfg)

	if cfg.Input == "" {
		fmt.Fprintf(os.Stderr, "Error: -input flag is required\n\n")
		fmt.Println(defaultInputHint)
		return exitFatal
	}
	if err := cfg.Validate(nil); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration Error: %v\n", err)
		return exitFatal
	}

	logger, err := debuglog.New(cfg.Debug, cfg.Verbose, cfg.DebugDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFatal
	}
	defer logger.Close()

	strategy.SetDebugFunction(logger.Msg)
	tracking.SetDebugFunction(logger.Msg)
	capture.SetDebugFunction(logger.Msg)
	pipeline.SetDebugFunction(logger.Msg)
	display.SetDebugFunction(logger.Msg)
	overlay.SetDebugFunction(logger.Verbose)

	if cfg.Debug {
		logger.Msg("MAIN", fmt.Sprintf("debug session %s in %s", logger.SessionID(), logger.SessionDir()))
	}

	src, err := capture.Open(cfg.Input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not open video source: %v\n", err)
		return exitNoSource
	}
	defer src.Close()

	highlight, err := cfg.HighlightColor()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration Error: %v\n", err)
		return exitFatal
	}
	segmenter, err := transform.NewSegmenter(cfg.FloorValue(), highlight, cfg.Workers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration Error: %v\n", err)
		return exitFatal
	}

	windows := display.NewWindows(cfg.WindowSize)
	defer windows.Close()

	reader := capture.NewReader(src, cfg.Mode(), cfg.ReadRetries, cfg.GetRetryDelay())
	controller, err := pipeline.NewController(reader, display.NewROISelector(windows.MainName()), windows, pipeline.Options{
		Strategy:   cfg.Tracker,
		Anchor:     cfg.AnchorPolicy(),
		Reference:  cfg.ReferencePoint(),
		Target:     cfg.Target.Image(),
		Seed:       cfg.Seed,
		Workers:    cfg.Workers,
		Segmenter:  segmenter,
		StatsEvery: cfg.StatsEvery,
		Smooth:     cfg.Smooth,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFatal
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hl := segmenter.Highlight()
	logger.Msg("MAIN", fmt.Sprintf("input %s, tracker %s, frame mode %s, floor %d, highlight #%02x%02x%02x",
		cfg.Input, cfg.Tracker, cfg.Mode(), segmenter.Floor(), hl.R, hl.G, hl.B))
	result, err := controller.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		printHistory(logger.History())
		return exitFatal
	}

	logger.Msg("MAIN", fmt.Sprintf("finished: %s, %d cycles, %d frames read, %.1f fps",
		result.Reason, result.Cycles, result.FramesRead, controller.Stats().FPS()))
	return exitOK
}

// printHistory writes the last log lines before a fatal exit.
func printHistory(history []debuglog.Message) {
	if len(history) == 0 {
		return
	}
	fmt.Fprintln(os.Stderr, "\nRecent log:")
	for _, m := range history {
		fmt.Fprintf(os.Stderr, "  %s [%s] %s\n", m.Timestamp.Format("15:04:05.000"), m.Component, m.Message)
	}
}
