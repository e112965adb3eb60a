package http

// Probe statuses
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// ProbeResponse is the body of a probe endpoint. Any status other than
// StatusOK is served with 503.
type ProbeResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// ProbeCheck computes a probe response
type ProbeCheck func() ProbeResponse

// ProbeHandlers holds the checks behind the liveness, readiness and
// startup endpoints.
type ProbeHandlers struct {
	LivenessCheck  ProbeCheck
	ReadinessCheck ProbeCheck
	StartupCheck   ProbeCheck
}

// DefaultProbeHandlers returns checks that always report StatusOK.
func DefaultProbeHandlers() *ProbeHandlers {
	ok := func() ProbeResponse {
		return ProbeResponse{Status: StatusOK}
	}
	return &ProbeHandlers{
		LivenessCheck:  ok,
		ReadinessCheck: ok,
		StartupCheck:   ok,
	}
}

// SettingsProbeHandlers returns the default checks with readiness failing
// while source reports a store error.
func SettingsProbeHandlers(source SettingsSource) *ProbeHandlers {
	h := DefaultProbeHandlers()
	h.ReadinessCheck = SettingsReadiness(source)
	return h
}

// SettingsReadiness reports StatusFailed with the error message as detail
// while source has a store error.
func SettingsReadiness(source SettingsSource) ProbeCheck {
	return func() ProbeResponse {
		if msg := source.ErrorMessage(); msg != "" {
			return NewProbeResponse(StatusFailed, map[string]any{"settings": msg})
		}
		return NewProbeResponse(StatusOK, nil)
	}
}

// NewProbeResponse creates a ProbeResponse
func NewProbeResponse(status string, details map[string]any) ProbeResponse {
	return ProbeResponse{
		Status:  status,
		Details: details,
	}
}
