package influxdb

import "errors"

// Sentinel errors returned by Connect and the health check; match with
// errors.Is. Write failures surface asynchronously through the error
// callback instead.
var (
	ErrNotConnected     = errors.New("influxdb: not connected")
	ErrConnectionFailed = errors.New("influxdb: connection failed")
	ErrDisabled         = errors.New("influxdb: disabled in configuration")
)
