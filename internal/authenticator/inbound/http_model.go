package inbound

import "time"

// CodeResponse is one service's code.
type CodeResponse struct {
	Service string `json:"service"`
	Code    string `json:"code"`
}

// CodesResponse is the current code set with its countdown.
type CodesResponse struct {
	Step             uint64         `json:"step"`
	GeneratedAt      time.Time      `json:"generated_at"`
	PeriodSeconds    int            `json:"period_seconds"`
	RemainingSeconds int            `json:"remaining_seconds"`
	Digits           int            `json:"digits"`
	Codes            []CodeResponse `json:"codes"`
	Unavailable      []string       `json:"unavailable,omitempty"`
}

// HealthResponse reports whether codes have been published.
type HealthResponse struct {
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
}
