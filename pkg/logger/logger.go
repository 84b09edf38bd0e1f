// Package logger owns the process-wide zerolog logger of the election service.
//
// main calls Init once with the configured level; services receive child
// loggers from Component so every line names the part of the system that
// wrote it. Tests use zerolog.Nop() and never touch the singleton.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options configures Init.
type Options struct {
	// Level is one of trace, debug, info, warn (or warning), error. Anything
	// else logs at info.
	Level string
	// Pretty switches to the console writer for local development.
	Pretty bool
	// Output defaults to os.Stdout.
	Output io.Writer
	// Service is added to every line as "service".
	Service string
}

var (
	mu     sync.Mutex
	once   sync.Once
	root   zerolog.Logger
	loaded bool
)

// Init builds the root logger on the first call and returns it. Later calls
// return the existing logger unchanged.
func Init(opts Options) zerolog.Logger {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		root = build(opts)
		loaded = true
	})
	return Get()
}

func build(opts Options) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var out io.Writer = os.Stdout
	if opts.Output != nil {
		out = opts.Output
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level := parseLevel(opts.Level)
	zerolog.SetGlobalLevel(level)

	fields := zerolog.New(out).Level(level).With().Timestamp().Caller()
	if opts.Service != "" {
		fields = fields.Str("service", opts.Service)
	}
	return fields.Logger()
}

// Get returns the root logger. It panics when Init has not run, which only
// happens through a wiring mistake in main.
func Get() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if !loaded {
		panic("logger: Get() called before Init()")
	}
	return root
}

// Component returns a child logger tagged with "component".
func Component(name string) zerolog.Logger {
	return Get().With().Str("component", name).Logger()
}

// Reset forgets the root logger so a test can call Init again.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	once = sync.Once{}
	root = zerolog.Logger{}
	loaded = false
}

func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil || s == "" || level > zerolog.ErrorLevel {
		return zerolog.InfoLevel
	}
	return level
}
