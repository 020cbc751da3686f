// Package advisory wraps the external generative-text service consulted
// for diagnosis suggestions during consultation. Its output is advisory
// text a clinician chooses to copy into the diagnosis field; it never
// touches the patient store, and every failure mode degrades to a safe
// placeholder instead of an error.
package advisory

import (
	"fmt"
	"strings"

	"github.com/opdflow/opdflow/internal/domain/patientflow"
)

// Status classifies an advisory result.
type Status string

const (
	StatusSuccess     Status = "success"
	StatusUnavailable Status = "unavailable"
	StatusFailed      Status = "failed"
)

// Placeholder analyses returned in the degraded modes. These are part of
// the contract: with no credential configured the gateway always answers
// with AnalysisUnavailable and no suggestions.
const (
	AnalysisUnavailable = "AI assistant unavailable: missing API key."
	AnalysisFailed      = "Error generating analysis. Please rely on clinical judgment."
)

// Request carries the consultation context for one analysis call.
type Request struct {
	PatientID string              `json:"patient_id"`
	Age       int                 `json:"age"`
	Gender    string              `json:"gender"`
	Symptoms  string              `json:"symptoms"`
	Vitals    *patientflow.Vitals `json:"vitals,omitempty"`
}

// Validate gates the call: an analysis without symptom text is useless,
// so the boundary rejects it before any network traffic.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Symptoms) == "" {
		return fmt.Errorf("symptoms text is required")
	}
	if r.Age <= 0 {
		return fmt.Errorf("age must be positive")
	}
	return nil
}

// Result is the typed outcome of an analysis call. Suggestions are
// "code - description" strings (target four entries); both degraded modes
// carry an empty list.
type Result struct {
	Status      Status   `json:"status"`
	Analysis    string   `json:"analysis"`
	Suggestions []string `json:"suggestions"`
}

func unavailableResult() Result {
	return Result{Status: StatusUnavailable, Analysis: AnalysisUnavailable, Suggestions: []string{}}
}

func failedResult() Result {
	return Result{Status: StatusFailed, Analysis: AnalysisFailed, Suggestions: []string{}}
}

// vitalsSummary renders the vitals line for the prompt, mirroring what
// the consultation screen shows the clinician.
func vitalsSummary(v *patientflow.Vitals) string {
	if v == nil {
		return "Vitals not yet recorded"
	}
	parts := make([]string, 0, 3)
	if v.Systolic != nil && v.Diastolic != nil {
		parts = append(parts, fmt.Sprintf("BP: %d/%d mmHg", *v.Systolic, *v.Diastolic))
	}
	if v.Temperature != nil {
		parts = append(parts, fmt.Sprintf("Temp: %.1f°C", *v.Temperature))
	}
	if v.Pulse != nil {
		parts = append(parts, fmt.Sprintf("Pulse: %d bpm", *v.Pulse))
	}
	if len(parts) == 0 {
		return "Vitals not yet recorded"
	}
	return strings.Join(parts, ", ")
}
