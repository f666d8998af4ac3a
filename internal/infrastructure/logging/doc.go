// Package logging configures structured logging for the rfmesh daemon.
//
// It is a thin layer over log/slog: config.yaml chooses level, format
// (JSON for collectors, text for terminals) and destination, and every
// record is stamped with the service name and version. Component
// loggers hang off the root via With:
//
//	log := logging.New(cfg.Logging, version)
//	mqttLog := log.With("component", "mqtt")
//	mqttLog.Info("connected", "broker", cfg.MQTT.Broker.Host)
//
// Secrets (tokens, PSKs, passwords) never go into log fields.
package logging
