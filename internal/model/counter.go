package model

// CounterResponse is the body of GET /api/counter and POST /api/increment.
// On store failure Error is set and Count carries the fallback value 0.
type CounterResponse struct {
	Error string `json:"error,omitempty"`
	Count int64  `json:"count"`
}

// ResetResponse is the body of GET /reset. A failed reset carries only Error.
type ResetResponse struct {
	Message string `json:"message,omitempty"`
	Count   *int64 `json:"count,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Health values reported by GET /health.
const (
	StatusHealthy     = "healthy"
	StatusUnhealthy   = "unhealthy"
	RedisConnected    = "connected"
	RedisDisconnected = "disconnected"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Redis  string `json:"redis"`
	Error  string `json:"error,omitempty"`
}
