// Package mqtt connects the rfmesh daemon to an MQTT broker.
//
// The daemon mirrors mesh state onto MQTT so dashboards and automations
// can consume it without speaking the radio protocol:
//
//	Mesh Radio <-> rfmeshd <-> MQTT Broker <-> Consumers
//
// Node state (info, position, telemetry) is published retained so new
// subscribers see the current mesh immediately; text messages go out as
// plain events. The daemon's own liveness is a retained status topic
// backed by a last will, so consumers can tell a graceful shutdown from
// a crash.
//
// Reconnection is delegated to paho: the client replays its tracked
// subscriptions and republishes the online status on every reconnect.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Watch text messages on every channel slot.
//	err = client.Subscribe(mqtt.Topics{}.AllMessages(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("%s: %s", topic, payload)
//	        return nil
//	    })
//
//	// Retained node state.
//	err = client.Publish(mqtt.Topics{}.NodeInfo("!0a0b0c0d"), payload, 1, true)
//
// TLS (cfg.Broker.TLS) and broker credentials are expected for anything
// beyond a local development broker.
package mqtt
