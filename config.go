package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"uk.ac.bris.cs/golengine/gol"
)

// LogConfig selects the apex/log handler and level.
type LogConfig struct {
	Level  string `json:"level,omitempty"`  // debug, info, warn, error or fatal
	Format string `json:"format,omitempty"` // cli or json
}

// Config holds everything the binary needs for one run.
type Config struct {
	Threads  int    `json:"threads,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Turns    *int   `json:"turns,omitempty"`
	ImageDir string `json:"image_dir,omitempty"`
	OutDir   string `json:"out_dir,omitempty"`
	Save     *bool  `json:"save,omitempty"`
	Headless bool   `json:"headless,omitempty"`

	Trace  string    `json:"trace,omitempty"`  // Event journal path
	Status string    `json:"status,omitempty"` // Status service listen address
	Log    LogConfig `json:"log"`
}

func DefaultConfig() Config {
	save := true
	turns := 10000000000
	return Config{
		Threads:  8,
		Width:    512,
		Height:   512,
		Turns:    &turns,
		ImageDir: "images",
		OutDir:   "out",
		Save:     &save,
		Log: LogConfig{
			Level:  "info",
			Format: "cli",
		},
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Threads > 0 {
		c.Threads = source.Threads
	}
	if source.Width > 0 {
		c.Width = source.Width
	}
	if source.Height > 0 {
		c.Height = source.Height
	}
	if source.Turns != nil {
		turns := *source.Turns
		c.Turns = &turns
	}
	if source.ImageDir != "" {
		c.ImageDir = source.ImageDir
	}
	if source.OutDir != "" {
		c.OutDir = source.OutDir
	}
	if source.Save != nil {
		save := *source.Save
		c.Save = &save
	}
	if source.Headless {
		c.Headless = true
	}
	if source.Trace != "" {
		c.Trace = source.Trace
	}
	if source.Status != "" {
		c.Status = source.Status
	}
	if source.Log.Level != "" {
		c.Log.Level = source.Log.Level
	}
	if source.Log.Format != "" {
		c.Log.Format = source.Log.Format
	}
}

// LoadConfig reads a JSON config file, merges it with defaults, and returns
// the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}

// Params converts the config into engine parameters.
func (c *Config) Params() gol.Params {
	return gol.Params{
		Turns:       turnsOrZero(c.Turns),
		Threads:     c.Threads,
		ImageWidth:  c.Width,
		ImageHeight: c.Height,
		ImageDir:    c.ImageDir,
		OutDir:      c.OutDir,
		SaveOutput:  c.Save != nil && *c.Save,
	}
}

func turnsOrZero(turns *int) int {
	if turns == nil {
		return 0
	}
	return *turns
}

// parseArgs builds the config from defaults, then the -config file, then any flags set
// on the command line.
func parseArgs(args []string) (*Config, error) {
	defaults := DefaultConfig()
	fs := flag.NewFlagSet("gol", flag.ContinueOnError)

	configFile := fs.String("config", "", "Path to a JSON config file.")
	threads := fs.Int("t", defaults.Threads, "Specify the number of worker threads to use.")
	width := fs.Int("w", defaults.Width, "Specify the width of the image.")
	height := fs.Int("h", defaults.Height, "Specify the height of the image.")
	turns := fs.Int("turns", *defaults.Turns, "Specify the number of turns to process.")
	imageDir := fs.String("images", defaults.ImageDir, "Directory holding the input images.")
	outDir := fs.String("out", defaults.OutDir, "Directory receiving the final image.")
	save := fs.Bool("save", *defaults.Save, "Write the final image when the run completes.")
	headless := fs.Bool("headless", defaults.Headless, "Disables the SDL window, so there is no visualisation.")
	trace := fs.String("trace", "", "Record every event to this journal file.")
	statusAddr := fs.String("status", "", "Serve run status on this address, e.g. :8030.")
	logLevel := fs.String("log-level", defaults.Log.Level, "Log level: debug, info, warn or error.")
	logFormat := fs.String("log-format", defaults.Log.Format, "Log format: cli or json.")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &defaults
	if *configFile != "" {
		loaded, err := LoadConfig(*configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	// Flags given explicitly win over the file
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			cfg.Threads = *threads
		case "w":
			cfg.Width = *width
		case "h":
			cfg.Height = *height
		case "turns":
			cfg.Turns = turns
		case "images":
			cfg.ImageDir = *imageDir
		case "out":
			cfg.OutDir = *outDir
		case "save":
			cfg.Save = save
		case "headless":
			cfg.Headless = *headless
		case "trace":
			cfg.Trace = *trace
		case "status":
			cfg.Status = *statusAddr
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-format":
			cfg.Log.Format = *logFormat
		}
	})

	if cfg.Threads < 1 {
		return nil, fmt.Errorf("%w: need at least one thread", gol.ErrInvalidParams)
	}
	if cfg.Width < 1 || cfg.Height < 1 {
		return nil, fmt.Errorf("%w: image size %dx%d", gol.ErrInvalidParams, cfg.Width, cfg.Height)
	}
	return cfg, nil
}
