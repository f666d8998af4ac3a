// rfmeshd - Mesh Radio Gateway Daemon
//
// This is the main entry point for the rfmesh gateway. The daemon holds a
// TCP session to a mesh radio, keeps a synchronized cache of the mesh, and
// mirrors node state onto MQTT and InfluxDB:
//   - Retained MQTT topics for node info, positions, and telemetry
//   - Text messages as MQTT events, with a send command topic back in
//   - Time-series points for battery, signal, and environment metrics
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rfmesh/rfmesh-core/internal/infrastructure/config"
	"github.com/rfmesh/rfmesh-core/internal/infrastructure/influxdb"
	"github.com/rfmesh/rfmesh-core/internal/infrastructure/logging"
	"github.com/rfmesh/rfmesh-core/internal/infrastructure/mqtt"
	"github.com/rfmesh/rfmesh-core/internal/mesh"
	"github.com/rfmesh/rfmesh-core/internal/radio"
	"github.com/rfmesh/rfmesh-core/internal/uplink"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// statsInterval is how often the mesh summary is published while the
// radio link is up.
const statsInterval = 30 * time.Second

// linkCheckInterval is how often the supervisor probes the radio link.
const linkCheckInterval = time.Second

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
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
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting rfmeshd",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Build the uplink when MQTT is available. The text relay is filled in
	// once the mesh client exists; no command arrives before Start.
	var up *uplink.Uplink
	relay := &textRelay{}
	if mqttClient != nil {
		opts := uplink.Options{
			Publisher: mqttClient,
			Sender:    relay,
			Logger:    log,
			QoS:       byte(cfg.MQTT.QoS), // #nosec G115 -- validated 0-2
		}
		if influxClient != nil {
			opts.Metrics = influxClient
		}
		up, err = uplink.New(opts)
		if err != nil {
			return fmt.Errorf("creating uplink: %w", err)
		}
	}

	// Build the mesh client
	meshOpts := mesh.Options{
		Dial:             radioDialer(cfg.Radio, log),
		Logger:           log,
		HandshakeTimeout: cfg.Radio.HandshakeTimeout(),
	}
	if up != nil {
		meshOpts.Events = up
	}
	client, err := mesh.NewClient(meshOpts)
	if err != nil {
		return fmt.Errorf("creating mesh client: %w", err)
	}
	relay.client = client

	if up != nil {
		if err := up.Start(); err != nil {
			return fmt.Errorf("starting uplink: %w", err)
		}
		defer up.Close()
	}

	// Verify the backends are healthy before touching the radio; a broker
	// that died between Connect and here should fail fast, not after the
	// first lost publish.
	if err := healthCheck(ctx, mqttClient, influxClient); err != nil {
		return fmt.Errorf("startup health check: %w", err)
	}

	log.Info("initialisation complete, supervising radio link",
		"address", cfg.Radio.Address)

	// Supervise the radio link until shutdown
	return supervise(ctx, client, cfg.Radio.Reconnect, up, log)
}

// healthCheck probes each enabled backend once. Nil clients are skipped
// so disabled integrations never block startup.
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(checkCtx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(checkCtx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}

// getConfigPath returns the configuration file path.
// Uses RFMESH_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("RFMESH_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// radioDialer builds the mesh client's transport dialer from config.
func radioDialer(cfg config.RadioConfig, log *logging.Logger) mesh.Dialer {
	return func(ctx context.Context) (mesh.Stream, error) {
		stream, err := radio.Dial(ctx, radio.StreamConfig{
			Address:        cfg.Address,
			ConnectTimeout: cfg.ConnectTimeout(),
		}, log)
		if err != nil {
			return nil, err
		}
		return stream, nil
	}
}

// supervise owns the radio link: it connects with exponential backoff,
// watches the connection, and reconnects when it drops. The stream itself
// never reconnects; this loop is the only place that decides to redial.
func supervise(ctx context.Context, client *mesh.Client, cfg config.ReconnectConfig, up *uplink.Uplink, log *logging.Logger) error {
	initial := time.Duration(cfg.InitialDelaySecs) * time.Second
	if initial <= 0 {
		initial = time.Second
	}
	maxDelay := time.Duration(cfg.MaxDelaySecs) * time.Second
	if maxDelay < initial {
		maxDelay = initial
	}

	delay := initial
	attempts := 0

	for {
		if err := client.Connect(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			attempts++
			if cfg.MaxAttempts > 0 && attempts >= cfg.MaxAttempts {
				return fmt.Errorf("radio unreachable after %d attempts: %w", attempts, err)
			}
			log.Warn("radio connect failed",
				"attempt", attempts,
				"retry_in", delay,
				"error", err,
			)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			delay *= 2
			if delay > maxDelay {
				delay = maxDelay
			}
			continue
		}

		attempts = 0
		delay = initial

		watchLink(ctx, client, up, log)

		if disconnectErr := client.Disconnect(); disconnectErr != nil {
			log.Error("error disconnecting from radio", "error", disconnectErr)
		}

		if ctx.Err() != nil {
			log.Info("rfmeshd stopped")
			return nil
		}
		log.Warn("radio link lost, reconnecting")
	}
}

// watchLink blocks while the radio link is healthy, publishing the mesh
// summary periodically. Returns when the link drops or ctx is cancelled.
func watchLink(ctx context.Context, client *mesh.Client, up *uplink.Uplink, log *logging.Logger) {
	check := time.NewTicker(linkCheckInterval)
	defer check.Stop()
	stats := time.NewTicker(statsInterval)
	defer stats.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-check.C:
			if !client.IsConnected() {
				return
			}
		case <-stats.C:
			if up == nil {
				continue
			}
			state := client.DeviceState()
			if state.MyInfo == nil {
				continue
			}
			up.PublishStats(mesh.NodeID(state.MyInfo.NodeNum), client.NetworkStats())
			log.Debug("published mesh stats", "nodes", len(state.Nodes))
		}
	}
}

// textRelay forwards send_text commands to the mesh client. It exists so
// the uplink can be constructed before the client it sends through.
type textRelay struct {
	client *mesh.Client
}

func (r *textRelay) SendText(text string, dest uint32, channel uint32) error {
	return r.client.SendText(text, dest, channel)
}
