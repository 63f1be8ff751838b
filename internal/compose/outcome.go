// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package compose

import "time"

// Status is the terminal status of a job.
type Status string

const (
	StatusSuccess       Status = "success"
	StatusEncodeFailure Status = "encode_failure"
)

// FailureReason categorizes why an encode failed.
type FailureReason string

const (
	ReasonNone      FailureReason = ""
	ReasonStartFail FailureReason = "START_FAIL"
	ReasonCrash     FailureReason = "CRASH"
	ReasonStall     FailureReason = "STALL"
	ReasonTimeout   FailureReason = "TIMEOUT"
	ReasonCanceled  FailureReason = "CANCELED"
	ReasonPublish   FailureReason = "PUBLISH"
)

// JobOutcome is produced exactly once per job.
type JobOutcome struct {
	Status   Status
	ID       string
	Pipeline Pipeline
	// Locator is the storage-relative name of the published file. It is only
	// set on success.
	Locator string
	// ErrorDetail carries the engine's diagnostic on failure.
	ErrorDetail string
	Reason      FailureReason
	Duration    time.Duration
}

// Succeeded reports whether the outcome advertises a usable output.
func (o JobOutcome) Succeeded() bool {
	return o.Status == StatusSuccess && o.Locator != ""
}

// Success builds the outcome of a published job.
func Success(d JobDescriptor, took time.Duration) JobOutcome {
	return JobOutcome{
		Status:   StatusSuccess,
		ID:       d.ID,
		Pipeline: d.Pipeline,
		Locator:  d.OutputName(),
		Duration: took,
	}
}

// Failure builds the outcome of a failed job. It never carries a locator.
func Failure(d JobDescriptor, reason FailureReason, detail string, took time.Duration) JobOutcome {
	return JobOutcome{
		Status:      StatusEncodeFailure,
		ID:          d.ID,
		Pipeline:    d.Pipeline,
		ErrorDetail: detail,
		Reason:      reason,
		Duration:    took,
	}
}
