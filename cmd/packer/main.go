package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/surface-packer/internal/application"
	"github.com/eugenenazirov/surface-packer/internal/config"
	"github.com/eugenenazirov/surface-packer/internal/logging"
)

var signalNotify = signal.Notify

type cli struct {
	app *kingpin.Application

	configFile *string
	blocksStr  *string
	logLevel   *string

	serve          *kingpin.CmdClause
	port           *string
	rateLimitRPS   *float64
	rateLimitBurst *int
	rpsSet         bool
	burstSet       bool

	pack      *kingpin.CmdClause
	width     *int
	height    *int
	widthSet  bool
	heightSet bool
	format    *string
}

func newCLI() *cli {
	c := &cli{app: kingpin.New("surface-packer", "Surface Packer - lays rectangular blocks out on a growable surface")}
	c.configFile = c.app.Flag("config", "Path to YAML configuration file").String()
	c.blocksStr = c.app.Flag("blocks", "Comma-separated block sizes, e.g. 30x40,20x50").String()
	c.logLevel = c.app.Flag("log-level", "Minimum log level").Default("info").Enum("debug", "info", "warn", "error")

	c.serve = c.app.Command("serve", "Run the HTTP layout service").Default()
	c.port = c.serve.Flag("port", "HTTP port exposed by the service").String()
	c.rateLimitRPS = c.serve.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").IsSetByUser(&c.rpsSet).Float64()
	c.rateLimitBurst = c.serve.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").IsSetByUser(&c.burstSet).Int()

	c.pack = c.app.Command("pack", "Compute a single layout and print it")
	c.width = c.pack.Flag("width", "Initial surface width").IsSetByUser(&c.widthSet).Int()
	c.height = c.pack.Flag("height", "Initial surface height").IsSetByUser(&c.heightSet).Int()
	c.format = c.pack.Flag("format", "Output format").Default(application.FormatYAML).Enum(application.FormatYAML, application.FormatJSON)
	return c
}

// overrides converts the parsed flags into configuration overrides. Unset
// flags are left nil so lower-precedence sources apply; explicit values are
// passed on as given and validated by config.Load.
func (c *cli) overrides() *config.CLIOverrides {
	overrides := &config.CLIOverrides{
		ConfigFile: *c.configFile,
	}
	if *c.blocksStr != "" {
		overrides.BlocksStr = c.blocksStr
	}
	if *c.port != "" {
		overrides.Port = c.port
	}
	if c.rpsSet {
		overrides.RateLimitRPS = c.rateLimitRPS
	}
	if c.burstSet {
		overrides.RateLimitBurst = c.rateLimitBurst
	}
	if c.widthSet {
		overrides.SurfaceWidth = c.width
	}
	if c.heightSet {
		overrides.SurfaceHeight = c.height
	}
	return overrides
}

func main() {
	c := newCLI()
	command := kingpin.MustParse(c.app.Parse(os.Args[1:]))

	cfg, err := config.Load(c.overrides())
	if err != nil {
		c.app.Fatalf("failed to load configuration: %v", err)
	}

	switch command {
	case c.pack.FullCommand():
		if err := runPack(cfg, *c.logLevel, *c.format, os.Stdout); err != nil {
			c.app.Fatalf("%v", err)
		}
	default:
		runServe(cfg, *c.logLevel)
	}
}

func runPack(cfg config.Config, level, format string, out io.Writer) error {
	logger, err := logging.New(logging.WithConsole(), logging.WithLevel(level))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	return application.RunLayout(cfg, logger, out, format)
}

func runServe(cfg config.Config, level string) {
	logger, err := logging.New(logging.WithLevel(level))
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
