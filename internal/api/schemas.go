package api

import "github.com/Trailblaze-work/loopcast/internal/history"

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
	Pattern string `json:"pattern"`
}

type PatternResponse struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

type PatternsResponse struct {
	Patterns []PatternResponse `json:"patterns"`
}

type ExportsResponse struct {
	Exports []*history.Entry `json:"exports"`
}
