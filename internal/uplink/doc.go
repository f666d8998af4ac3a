// Package uplink bridges mesh events onto MQTT and InfluxDB.
//
// The mesh client's ingestion loop emits events as packets fold into the
// cache; the uplink translates them into retained MQTT state topics, text
// message events, and time-series points, and relays send_text commands
// from MQTT back into the mesh.
//
// # Architecture
//
//	                       ┌───────────────────────────┐
//	 mesh.EventSink ──────▶│  queue  ──▶ worker         │──▶ MQTT (retained state,
//	 (ingestion goroutine) │  (buffered, drop on full)  │        message events)
//	                       └───────────────────────────┘──▶ InfluxDB (telemetry,
//	 MQTT send_text ──────▶ mesh.Client.SendText             signal, environment)
//
// Event callbacks never block: they enqueue work for a single worker
// goroutine and drop (counted) when the queue is full. Broker and database
// round-trips therefore never stall packet ingestion.
//
// # Topics
//
//   - rfmesh/nodes/{id}/info       retained node database entries
//   - rfmesh/nodes/{id}/position   retained GPS fixes
//   - rfmesh/nodes/{id}/telemetry  retained metric samples
//   - rfmesh/messages/{channel}    text messages (not retained)
//   - rfmesh/command/send_text     inbound send commands
//   - rfmesh/system/stats          retained mesh summary
//
// # Usage
//
//	up, err := uplink.New(uplink.Options{
//	    Publisher: mqttClient,
//	    Metrics:   influxClient,
//	    Sender:    meshClient,
//	    Logger:    log,
//	})
//	if err != nil {
//	    return err
//	}
//	if err := up.Start(); err != nil {
//	    return err
//	}
//	defer up.Close()
package uplink
