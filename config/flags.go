package config

import (
	"flag"
	"strings"
)

// Flags are the command-line settings. Only flags given explicitly override
// the loaded configuration.
type Flags struct {
	Input        *string
	ConfigPath   *string
	Tracker      *string
	Anchor       *string
	FrameMode    *string
	Floor        *int
	Highlight    *string
	Seed         *int64
	RefX         *int
	RefY         *int
	TargetX      *int
	TargetY      *int
	Workers      *int
	ReadRetries  *int
	WindowSize   *int
	Smooth       *bool
	Debug        *bool
	Verbose      *bool
	DebugDir     *string
	ListTrackers *bool
}

// RegisterFlags defines every flag on fs. Defaults shown in usage come from
// DefaultConfig.
func RegisterFlags(fs *flag.FlagSet, trackerNames []string) *Flags {
	d := DefaultConfig()
	return &Flags{
		Input:        fs.String("input", "", "Video file, stream URL or camera index (required)\n\t\tExample: -input=clip.mp4 or -input=0"),
		ConfigPath:   fs.String("config", "", "JSON configuration file; flags given on the command line override it"),
		Tracker:      fs.String("tracker", d.Tracker, "Tracking algorithm: "+strings.Join(trackerNames, ", ")),
		Anchor:       fs.String("anchor", d.Anchor, "Track the stabilized view follows: first, last or mean"),
		FrameMode:    fs.String("frame-mode", d.FrameMode, "cached (one read per cycle) or decimated (three reads per cycle)"),
		Floor:        fs.Int("floor", d.Floor, "Brightness floor every channel must exceed to be highlighted (0-254)"),
		Highlight:    fs.String("highlight", d.Highlight, "Highlight color as hex, every channel above the floor\n\t\tExample: -highlight=60ff60"),
		Seed:         fs.Int64("seed", d.Seed, "Seed for the track color palette"),
		RefX:         fs.Int("ref-x", -1, "Reference point X (omit for the frame center)"),
		RefY:         fs.Int("ref-y", -1, "Reference point Y (omit for the frame center)"),
		TargetX:      fs.Int("target-x", d.Target.X, "Stabilization target X"),
		TargetY:      fs.Int("target-y", d.Target.Y, "Stabilization target Y"),
		Workers:      fs.Int("workers", d.Workers, "Parallel workers for track updates and segmentation (0 = one per CPU)"),
		ReadRetries:  fs.Int("read-retries", d.ReadRetries, "Extra attempts after a failed frame read"),
		WindowSize:   fs.Int("window-size", d.WindowSize, "Edge length of the stabilized and highlight windows"),
		Smooth:       fs.Bool("smooth-anchor", d.Smooth, "Filter the stabilization anchor with a Kalman smoother"),
		Debug:        fs.Bool("debug", d.Debug, "Write per-track debug logs under -debug-dir"),
		Verbose:      fs.Bool("debug-verbose", d.Verbose, "Include per-frame offset and timing messages"),
		DebugDir:     fs.String("debug-dir", d.DebugDir, "Directory for debug sessions"),
		ListTrackers: fs.Bool("list-trackers", false, "Print the available tracking algorithms and exit"),
	}
}

// Apply copies every flag that was set on fs into cfg. The reference point
// needs both -ref-x and -ref-y; one alone moves only that axis of an already
// configured reference.
func (f *Flags) Apply(fs *flag.FlagSet, cfg *Config) {
	set := map[string]bool{}
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	if set["input"] {
		cfg.Input = *f.Input
	}
	if set["tracker"] {
		cfg.Tracker = *f.Tracker
	}
	if set["anchor"] {
		cfg.Anchor = *f.Anchor
	}
	if set["frame-mode"] {
		cfg.FrameMode = *f.FrameMode
	}
	if set["floor"] {
		cfg.Floor = *f.Floor
	}
	if set["highlight"] {
		cfg.Highlight = *f.Highlight
	}
	if set["seed"] {
		cfg.Seed = *f.Seed
	}
	switch {
	case set["ref-x"] && set["ref-y"]:
		cfg.Reference = &Point{X: *f.RefX, Y: *f.RefY}
	case set["ref-x"] && cfg.Reference != nil:
		cfg.Reference.X = *f.RefX
	case set["ref-y"] && cfg.Reference != nil:
		cfg.Reference.Y = *f.RefY
	}
	if set["target-x"] {
		cfg.Target.X = *f.TargetX
	}
	if set["target-y"] {
		cfg.Target.Y = *f.TargetY
	}
	if set["workers"] {
		cfg.Workers = *f.Workers
	}
	if set["read-retries"] {
		cfg.ReadRetries = *f.ReadRetries
	}
	if set["window-size"] {
		cfg.WindowSize = *f.WindowSize
	}
	if set["smooth-anchor"] {
		cfg.Smooth = *f.Smooth
	}
	if set["debug"] {
		cfg.Debug = *f.Debug
	}
	if set["debug-verbose"] {
		cfg.Verbose = *f.Verbose
	}
	if set["debug-dir"] {
		cfg.DebugDir = *f.DebugDir
	}
}
