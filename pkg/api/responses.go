package api

import "github.com/acisops/cmdhist/pkg/continuity"

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthCheck is one named component check inside a HealthResponse.
type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the GET /health payload.
type HealthResponse struct {
	Status  string                 `json:"status"`
	Version string                 `json:"version"`
	Checks  map[string]HealthCheck `json:"checks"`
}

// ChainLink is one continuity link in an assembly response.
type ChainLink struct {
	Base          string `json:"base"`
	Continuity    string `json:"continuity"`
	LoadType      string `json:"load_type"`
	InterruptTime string `json:"interrupt_time"`
}

// AssembleResponse summarizes one finished assembly.
type AssembleResponse struct {
	RunID        string      `json:"run_id"`
	ReviewLoad   string      `json:"review_load"`
	Scenario     string      `json:"scenario"`
	CommandCount int         `json:"command_count"`
	Chain        []ChainLink `json:"chain"`
	OutputPath   string      `json:"output_path,omitempty"`
}

// ChainResponse is the GET /chains/:load payload.
type ChainResponse struct {
	RunID        string      `json:"run_id"`
	ReviewLoad   string      `json:"review_load"`
	Scenario     string      `json:"scenario"`
	CommandCount int         `json:"command_count"`
	CreatedAt    string      `json:"created_at"`
	Chain        []ChainLink `json:"chain"`
}

func toChainLinks(chain []continuity.Record) []ChainLink {
	links := make([]ChainLink, len(chain))
	for i, rec := range chain {
		links[i] = ChainLink{
			Base:          rec.Base,
			Continuity:    rec.Continuity,
			LoadType:      rec.LoadType,
			InterruptTime: rec.InterruptTime,
		}
	}
	return links
}
