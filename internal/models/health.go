package models

import "time"

// HealthState is the overall or per-component health classification.
type HealthState string

const (
	HealthStateHealthy   HealthState = "healthy"
	HealthStateDegraded  HealthState = "degraded"
	HealthStateUnhealthy HealthState = "unhealthy"
)

// WorstState returns the more severe of two health states.
func WorstState(a, b HealthState) HealthState {
	rank := map[HealthState]int{
		HealthStateHealthy:   0,
		HealthStateDegraded:  1,
		HealthStateUnhealthy: 2,
	}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// ComponentHealth describes the state of a single checked component.
type ComponentHealth struct {
	Status    HealthState            `json:"status"`
	LatencyMs int64                  `json:"latency_ms"`
	Message   string                 `json:"message,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// HealthReport is the detailed health response covering all components.
type HealthReport struct {
	Status        HealthState                `json:"status"`
	Version       string                     `json:"version"`
	UptimeSeconds int64                      `json:"uptime_seconds"`
	Timestamp     time.Time                  `json:"timestamp"`
	Components    map[string]ComponentHealth `json:"components"`
}

// ProbeResult is the outcome of one live end-to-end fetch probe.
type ProbeResult struct {
	URL           string   `json:"url"`
	Success       bool     `json:"success"`
	LatencyMs     int64    `json:"latency_ms"`
	Completeness  float64  `json:"completeness"`
	MissingFields []string `json:"missing_fields,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// PipelineProbeReport is the response of the deep pipeline probe. The probe
// exercises the live fetch and adapt path end to end without persisting
// anything.
type PipelineProbeReport struct {
	Status       HealthState  `json:"status"`
	ProfileProbe *ProbeResult `json:"profile_probe,omitempty"`
	CompanyProbe *ProbeResult `json:"company_probe,omitempty"`
	Timestamp    time.Time    `json:"timestamp"`
}
