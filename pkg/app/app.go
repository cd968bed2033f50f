// Package app is the process harness shared by commands: configuration
// loading, logging, metrics and signal driven shutdown.
package app

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/code-payments/code-vault/pkg/metrics"
)

// App is the body of a short lived command.
//
// The context passed to Run is cancelled when the process receives a
// shutdown signal. Run is expected to return promptly afterwards, within the
// configured grace period.
type App interface {
	Run(ctx context.Context, config BaseConfig, args []string) error
}

// Func adapts a function to an App.
type Func func(ctx context.Context, config BaseConfig, args []string) error

// Run implements App.Run.
func (f Func) Run(ctx context.Context, config BaseConfig, args []string) error {
	return f(ctx, config, args)
}

var (
	configPath = flag.String("config", "config.yaml", "configuration file path")
)

// Run parses flags, loads configuration and runs app until it returns or the
// process is interrupted.
func Run(app App, options ...Option) error {
	flag.Parse()

	opts := opts{
		signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP},
	}
	for _, o := range options {
		o(&opts)
	}

	logger := logrus.StandardLogger().WithField("type", "app")

	config, err := loadConfig(*configPath)
	if err != nil {
		logger.WithError(err).Error("failed to load config")
		return err
	}

	// todo: Better abstraction so we're not directly tied to NR
	var metricsProvider *newrelic.Application
	if len(config.NewRelicLicenseKey) > 0 {
		nr, err := newrelic.NewApplication(
			newrelic.ConfigFromEnvironment(),
			newrelic.ConfigAppName(config.AppName),
			newrelic.ConfigLicense(config.NewRelicLicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.WithError(err).Error("error connecting to new relic")
			return errors.Wrap(err, "error connecting to new relic")
		}

		metricsProvider = nr
		defer nr.Shutdown(config.ShutdownGracePeriod)
	}

	configureLogger(config, metricsProvider)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	args := flag.Args()
	if metricsProvider != nil {
		ctx = metrics.WithApplication(ctx, metricsProvider)

		// One transaction per invocation so ledger calls show up as segments
		txn := metricsProvider.StartTransaction(transactionName(args))
		defer txn.End()
		ctx = newrelic.NewContext(ctx, txn)
	}

	osSigCh := make(chan os.Signal, 1)
	signal.Notify(osSigCh, opts.signals...)
	defer signal.Stop(osSigCh)

	resultCh := make(chan error, 1)
	go func() {
		resultCh <- app.Run(ctx, config, args)
	}()

	select {
	case err := <-resultCh:
		return err
	case <-osSigCh:
		logger.Info("interrupt received, shutting down")
	}

	cancel()

	select {
	case err := <-resultCh:
		return err
	case <-time.After(config.ShutdownGracePeriod):
		return errors.Errorf("failed to stop the application within %v", config.ShutdownGracePeriod)
	}
}

// loadConfig reads the optional config file at path, then layers environment
// bindings over the defaults.
func loadConfig(path string) (BaseConfig, error) {
	// viper.ReadInConfig only returns ConfigFileNotFoundError if it has to search
	// for a default config file because one hasn't been explicitly set. That is,
	// if we explicitly set a config file, and it does not exist, viper will not
	// return a ConfigFileNotFoundError, so we do it ourselves.
	if _, err := os.Stat(path); err == nil {
		viper.SetConfigFile(path)
	} else if !os.IsNotExist(err) {
		return BaseConfig{}, errors.Wrap(err, "failed to check if config exists")
	}

	err := viper.ReadInConfig()
	_, isConfigNotFound := err.(viper.ConfigFileNotFoundError)
	if err != nil && !isConfigNotFound {
		return BaseConfig{}, errors.Wrap(err, "failed to read config")
	}

	config := defaultConfig
	if err := viper.Unmarshal(&config); err != nil {
		return BaseConfig{}, errors.Wrap(err, "failed to unmarshal config")
	}

	if len(config.AppName) == 0 {
		return BaseConfig{}, errors.New("must specify an application name")
	}

	return config, nil
}

func transactionName(args []string) string {
	if len(args) == 0 {
		return "run"
	}
	return args[0]
}

func configureLogger(config BaseConfig, metricsProvider *newrelic.Application) {
	if metricsProvider != nil {
		logrus.SetFormatter(metrics.NewLogFormatter(metricsProvider, &logrus.JSONFormatter{}))
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", config.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	logrus.SetOutput(os.Stderr)
}
