package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mcncl/genpost/internal/config"
	"github.com/mcncl/genpost/internal/errors"
	"github.com/mcncl/genpost/internal/logging"
	"github.com/mcncl/genpost/internal/pipeline"
)

// CLI defines the command-line interface. Unset flags fall back to the
// config file, then GENPOST_* environment variables, then built-in defaults.
var CLI struct {
	Input    string `help:"Input JSON file, use '-' to read stdin. Default: testdata/example.json." short:"i" name:"input"`
	URL      string `help:"Base URL of the target service (include scheme). Default: https://example.com." short:"u" name:"url"`
	Insecure bool   `help:"Disable TLS certificate verification (not recommended)." name:"insecure" negatable:""`
	Timeout  int    `help:"Request timeout in seconds. Default: 10." name:"timeout"`
	Config   string `help:"Path to a YAML config file. Defaults to the nearest .genpost.yml." short:"c" type:"path"`
	Debug    bool   `help:"Enable debug logging." short:"d"`
	Version  bool   `help:"Show version information." short:"v"`
}

// Context holds the runtime context
type Context struct {
	Config *config.Config
	Logger *zap.Logger
	Stdin  io.Reader
	Stdout io.Writer
}

// Version information
const (
	Version = "0.1.0"
)

func main() {
	parser := kong.Must(&CLI,
		kong.Name("genpost"),
		kong.Description("Post filtered JSON to /service/generate and print valid keys"),
		kong.UsageOnError(),
	)

	kctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "genpost: error: %v\n", err)
		os.Exit(errors.ExitPipeline)
	}

	if CLI.Version {
		fmt.Printf("genpost version %s\n", Version)
		return
	}

	// Local runs may keep GENPOST_* settings in a .env file.
	if err := godotenv.Load(); err != nil && !stderrors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, ".env load warning: %v\n", err)
	}

	cfg, logger, err := setup(cliOverrides(setFlags(kctx)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		os.Exit(errors.ExitCode(err))
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, &Context{
		Config: cfg,
		Logger: logger,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
	})
	stop()
	_ = logger.Sync()
	os.Exit(code)
}

// setup resolves the configuration and builds the logger.
func setup(overrides config.CLIOverrides) (*config.Config, *zap.Logger, error) {
	configPath := CLI.Config
	if configPath == "" {
		configPath = config.FindConfigFile()
	}

	cfg, err := config.LoadConfigWithCLI(configPath, overrides, os.LookupEnv)
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return nil, nil, errors.NewConfigError("invalid logging settings", err)
	}
	if configPath != "" {
		logger.Debug("using config file", zap.String("path", configPath))
	}
	return cfg, logger, nil
}

// setFlags returns the names of the flags given on the command line.
func setFlags(kctx *kong.Context) map[string]bool {
	set := map[string]bool{}
	for _, p := range kctx.Path {
		if p.Flag != nil {
			set[p.Flag.Name] = true
		}
	}
	return set
}

// cliOverrides copies the flags in set from CLI. Flags whose zero value is
// meaningful are passed by pointer.
func cliOverrides(set map[string]bool) config.CLIOverrides {
	overrides := config.CLIOverrides{
		Input: CLI.Input,
		URL:   CLI.URL,
		Debug: CLI.Debug,
	}
	if set["insecure"] {
		insecure := CLI.Insecure
		overrides.Insecure = &insecure
	}
	if set["timeout"] {
		timeout := CLI.Timeout
		overrides.Timeout = &timeout
	}
	return overrides
}

// execute runs the program and maps the outcome to an exit code. Pipeline
// failures are reported briefly; anything else is logged with a stack trace.
func execute(ctx context.Context, appCtx *Context) (code int) {
	logger := appCtx.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Unexpected error", zap.Any("panic", r), zap.Stack("stack"))
			code = errors.ExitUnexpected
		}
	}()

	err := run(ctx, appCtx)
	switch {
	case err == nil:
	case errors.IsPipelineError(err):
		logger.Error("Operation failed", zap.String("reason", errors.UserFriendlyError(err)), zap.Error(err))
	default:
		logger.Error("Unexpected error", zap.Error(err), zap.Stack("stack"))
	}
	return errors.ExitCode(err)
}

// run executes the main program logic
func run(ctx context.Context, appCtx *Context) error {
	cfg := appCtx.Config
	keys, err := pipeline.Run(ctx, pipeline.Options{
		Input:    cfg.Input,
		BaseURL:  cfg.URL,
		Path:     cfg.Path,
		Timeout:  cfg.RequestTimeout(),
		Insecure: cfg.Insecure,
	}, pipeline.Deps{
		Stdin:  appCtx.Stdin,
		Logger: appCtx.Logger,
	})
	if err != nil {
		return err
	}

	return pipeline.WriteKeys(appCtx.Stdout, keys)
}
