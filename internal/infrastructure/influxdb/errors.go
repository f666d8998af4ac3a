package influxdb

import "errors"

// Sentinel errors. Write failures do not appear here: writes are
// batched and asynchronous, so they surface through SetOnError.
var (
	ErrNotConnected     = errors.New("influxdb: not connected")
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrDisabled means the integration is switched off in config.
	// Callers treat it as "run without metrics", not as a fault.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
