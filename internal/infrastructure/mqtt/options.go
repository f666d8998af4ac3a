package mqtt

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/rfmesh/rfmesh-core/internal/infrastructure/config"
)

const (
	// connectTimeout bounds the initial Connect call.
	connectTimeout = 10 * time.Second

	// opTimeout bounds waiting on publish/subscribe/unsubscribe tokens.
	opTimeout = 5 * time.Second

	// disconnectQuiesceMs is how long Close lets in-flight work drain.
	disconnectQuiesceMs = 1000

	keepAlive = 60 * time.Second
	maxQoS    = 2
)

// pahoOptions translates daemon config into a paho option set: tcp or
// ssl broker URL, optional credentials, clean sessions, and
// library-driven reconnect using the configured backoff bounds. The last
// will is registered here too, so the broker announces an unclean exit
// on the same retained status topic the client maintains itself.
func pahoOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port)).
		SetClientID(cfg.Broker.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second).
		SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second).
		SetConnectTimeout(connectTimeout).
		SetKeepAlive(keepAlive)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}
	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	will := statusPayload(cfg.Broker.ClientID, "offline", "unexpected_disconnect")
	opts.SetBinaryWill(Topics{}.SystemStatus(), will, 1, true)

	return opts
}

// statusPayload builds the JSON document for the retained status topic.
// Reason is present only on offline statuses.
func statusPayload(clientID, status, reason string) []byte {
	doc := struct {
		Status    string `json:"status"`
		ClientID  string `json:"client_id"`
		Reason    string `json:"reason,omitempty"`
		Timestamp string `json:"timestamp"`
	}{
		Status:    status,
		ClientID:  clientID,
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	payload, _ := json.Marshal(doc)
	return payload
}
