package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/ar/cwgen/internal/audio"
	"github.com/ar/cwgen/internal/config"
	"github.com/ar/cwgen/internal/morse"
	"github.com/ar/cwgen/internal/observability"
	"github.com/ar/cwgen/internal/server"
	"github.com/ar/cwgen/internal/sink"
)

const (
	outputText  = "text"
	outputAudio = "audio"
)

// options are the per-invocation settings that have no config counterpart
type options struct {
	output     string
	file       string
	text       string
	outputFile string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	if len(args) > 0 && args[0] == "serve" {
		return serve(ctx, cfg, args[1:], stderr)
	}

	opts, err := parseFlags(args, cfg, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)

	if err := generate(ctx, cfg, opts, stdin, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags(args []string, cfg *config.Config, stderr io.Writer) (*options, error) {
	opts := &options{}

	fs := flag.NewFlagSet("cwgen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntVar(&cfg.WPM, "wpm", cfg.WPM, "Speed in WPM (PARIS standard)")
	fs.Float64Var(&cfg.Tone, "tone", cfg.Tone, "Tone frequency in Hz")
	fs.IntVar(&cfg.GapMs, "gap-ms", cfg.GapMs, "Extra gap between characters in ms")
	fs.StringVar(&opts.output, "output", outputAudio, "Output mode: text or audio")
	fs.StringVar(&opts.file, "file", "", "Read text from file instead of stdin")
	fs.StringVar(&opts.text, "text", "", "Text to send (overrides -file and stdin)")
	fs.IntVar(&cfg.QRM, "qrm", cfg.QRM, "Background QRM: 0 (none) to 9 (extreme)")
	fs.StringVar(&cfg.Shape, "tone-shape", cfg.Shape, "Tone shape: sine, square or sawtooth")
	fs.IntVar(&cfg.Farnsworth, "farnsworth", cfg.Farnsworth, "Character speed for Farnsworth timing (0 disables)")
	fs.StringVar(&opts.outputFile, "output-file", "", "Save audio to WAV file instead of playing")
	fs.IntVar(&cfg.Drift, "drift", cfg.Drift, "Frequency drift percentage 0-100, simulates a homebrew transmitter (-1 disables)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")

	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: cwgen [flags]        convert text to morse code")
		fmt.Fprintln(stderr, "       cwgen serve [flags]  run the render service")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	if opts.output != outputText && opts.output != outputAudio {
		return nil, fmt.Errorf("unknown output mode %q (want text or audio)", opts.output)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

func generate(ctx context.Context, cfg *config.Config, opts *options, stdin io.Reader, stdout, stderr io.Writer) error {
	text, err := readInput(opts, stdin, stderr)
	if err != nil {
		return err
	}

	if opts.output == outputText {
		code, err := morse.Encode(text)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, code)
		return nil
	}

	if err := morse.Validate(text); err != nil {
		return err
	}

	var out sink.Sink
	rate := cfg.PlaybackSampleRate
	if opts.outputFile != "" {
		out = sink.NewWAVFile(opts.outputFile)
		rate = cfg.FileSampleRate
	} else {
		out = sink.NewPlayback()
	}

	buf, err := render(ctx, cfg, text, rate)
	if err != nil {
		return err
	}

	if err := out.Consume(ctx, buf); err != nil {
		return err
	}

	if opts.outputFile != "" {
		fmt.Fprintf(stdout, "Saved morse code to: %s\n", opts.outputFile)
	}
	return nil
}

func render(ctx context.Context, cfg *config.Config, text string, rate int) (*audio.Buffer, error) {
	logger := observability.WithComponent("cli")

	timing, err := cfg.Timing()
	if err != nil {
		return nil, err
	}
	rc, err := cfg.RenderConfig(rate)
	if err != nil {
		return nil, err
	}

	m := observability.StartRender()
	buf, err := audio.Render(ctx, text, timing, rc)
	if err != nil {
		m.Done(0, 0, err)
		return nil, err
	}
	m.Done(buf.Len(), buf.Duration(), nil)

	logger.Debug().
		Str("timing", timing.String()).
		Int("samples", buf.Len()).
		Dur("duration", buf.Duration()).
		Float64("peak", buf.Peak()).
		Float64("rms", buf.RMS()).
		Msg("Rendered")
	return buf, nil
}

func readInput(opts *options, stdin io.Reader, stderr io.Writer) (string, error) {
	if opts.text != "" {
		return opts.text, nil
	}

	if opts.file != "" {
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", opts.file, err)
		}
		return string(data), nil
	}

	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintln(stderr, "Type text to send, then Ctrl-D:")
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func serve(ctx context.Context, cfg *config.Config, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("cwgen serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Port, "port", cfg.Port, "Port to listen on")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("log_level", strings.ToLower(cfg.LogLevel)).
		Int("wpm", cfg.WPM).
		Float64("tone", cfg.Tone).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("cwgen render service starting")

	if err := server.New(cfg).Run(ctx); err != nil {
		logger.Error().Err(err).Msg("Server stopped")
		return 1
	}
	return 0
}
