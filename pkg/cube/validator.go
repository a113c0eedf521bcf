// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cube

import (
	"fmt"
	"math"
)

// AnomalyType represents different kinds of suspicious reply content
type AnomalyType int

const (
	AnomalyIDMismatch AnomalyType = iota
	AnomalyInvalidMode
	AnomalyInvalidPosition
	AnomalyLengthMismatch
)

// ValidationError describes one anomaly found in a decoded reply
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidateReply checks a reply against the command it answers.
// Returns a slice of anomalies (empty if the reply looks sane). Anomalies never
// fail a transaction; they are reported and counted.
func ValidateReply(r *Reply, sentID uint32) []ValidationError {
	errors := []ValidationError{}

	if r.Status.ID != sentID {
		errors = append(errors, ValidationError{
			Type:    AnomalyIDMismatch,
			Message: fmt.Sprintf("Reply id=%d does not match command id=%d", r.Status.ID, sentID),
			Details: map[string]interface{}{"id": r.Status.ID, "expected": sentID},
		})
	}

	if !r.Status.Mode.Valid() {
		errors = append(errors, ValidationError{
			Type:    AnomalyInvalidMode,
			Message: fmt.Sprintf("Invalid coordinate mode=%d (max %d)", r.Status.Mode, ModeSpherical),
			Details: map[string]interface{}{"mode": r.Status.Mode, "max": ModeSpherical},
		})
	}

	pos := r.Status.Position
	for i, v := range []float32{pos.A, pos.B, pos.C} {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			errors = append(errors, ValidationError{
				Type:    AnomalyInvalidPosition,
				Message: fmt.Sprintf("Non-finite position component %d (%v)", i, v),
				Details: map[string]interface{}{"axis": i, "value": v},
			})
		}
	}

	if d, ok := r.Data(); ok {
		errors = append(errors, validateData(d)...)
	}

	return errors
}

// validateData checks a data payload's declared length
func validateData(d DataPayload) []ValidationError {
	if d.Length > BufferSize {
		return []ValidationError{{
			Type:    AnomalyLengthMismatch,
			Message: fmt.Sprintf("Data length=%d exceeds buffer (max %d)", d.Length, BufferSize),
			Details: map[string]interface{}{"length": d.Length, "max": BufferSize},
		}}
	}
	if int(d.Length) > len(d.Bytes) {
		return []ValidationError{{
			Type:    AnomalyLengthMismatch,
			Message: fmt.Sprintf("Data length=%d but only %d bytes received", d.Length, len(d.Bytes)),
			Details: map[string]interface{}{"length": d.Length, "received": len(d.Bytes)},
		}}
	}
	return nil
}
