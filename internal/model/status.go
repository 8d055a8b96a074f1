package model

// ServiceStatus is the display state of one probed dependency
type ServiceStatus string

const (
	StatusConnected    ServiceStatus = "connected"
	StatusDisconnected ServiceStatus = "disconnected"
	StatusError        ServiceStatus = "error"
)

// ConnectionStatus is the outcome of a single connectivity probe
type ConnectionStatus struct {
	Service    string                 `json:"service"`
	Status     ServiceStatus          `json:"status"`
	Message    string                 `json:"message"`
	Configured bool                   `json:"configured"`
	Latency    int64                  `json:"responseTime"` // milliseconds
	Details    map[string]interface{} `json:"details,omitempty"`
}
