// Gray Logic Cloud - platform session monitor
//
// A thin command-line front end over the library: it establishes a
// session from the configuration file, prints the device inventory and
// then logs every resolved device report until interrupted. Useful for
// verifying credentials and watching a home's traffic during
// commissioning.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/gray-logic-cloud/config"
	"github.com/nerrad567/gray-logic-cloud/device"
	"github.com/nerrad567/gray-logic-cloud/home"
	"github.com/nerrad567/gray-logic-cloud/logging"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logging.New(cfg.Logging, version)
	log.Info("starting Gray Logic Cloud monitor",
		"version", version,
		"commit", commit,
		"config", configPath,
	)

	session, err := home.NewSession(cfg)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	defer func() {
		log.Info("closing session")
		if closeErr := session.Close(); closeErr != nil {
			log.Error("error closing session", "error", closeErr)
		}
	}()

	if err := session.Setup(ctx, &reportLogger{log: log}); err != nil {
		return fmt.Errorf("establishing session: %w", err)
	}

	for _, d := range session.Registry().Devices() {
		log.Info("device registered",
			"device_id", d.DeviceID,
			"name", d.Name,
			"type", d.Type,
			"model", d.ModelName,
			"endpoint", d.Endpoint.Name,
		)
	}

	log.Info("session established, waiting for reports",
		"home_id", session.HomeID(),
		"devices", session.Registry().Len(),
	)

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GRAYLOGIC_CLOUD_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_CLOUD_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// reportLogger is the monitor's listener: one log line per delivery.
type reportLogger struct {
	log *logging.Logger
}

// OnDeviceMessage implements home.Listener.
func (r *reportLogger) OnDeviceMessage(dev *device.Descriptor, data map[string]any) {
	r.log.Info("device report",
		"device_id", dev.DeviceID,
		"name", dev.Name,
		"type", dev.Type,
		"data", data,
	)
}
