package constants

// UploadStatus is the canonical status for an upload item's journey
// through the initialize/transfer/confirm protocol.
type UploadStatus string

// Stable values (store these exact strings).
const (
	UploadQueued       UploadStatus = "QUEUED"       // accepted, not yet started
	UploadTransferring UploadStatus = "TRANSFERRING" // bytes in flight
	UploadConfirming   UploadStatus = "CONFIRMING"   // transfer done, awaiting server ack
	UploadComplete     UploadStatus = "COMPLETE"     // server document id assigned
	UploadError        UploadStatus = "ERROR"        // failure, retryable via resubmit
	UploadCancelled    UploadStatus = "CANCELLED"    // caller aborted before completion
)

// Terminal reports whether no further automatic transition occurs.
func (s UploadStatus) Terminal() bool {
	switch s {
	case UploadComplete, UploadError, UploadCancelled:
		return true
	}
	return false
}

// JobState is the extraction job state as reported by the extraction
// service, plus the client-side TIMEOUT outcome.
type JobState string

const (
	JobPending        JobState = "PENDING"
	JobProcessing     JobState = "PROCESSING"
	JobCompleted      JobState = "COMPLETED"
	JobFailed         JobState = "FAILED"
	JobRequiresReview JobState = "REQUIRES_REVIEW"
	// JobTimeout is never reported by the service; it marks an exhausted
	// poll budget while the job may still be running server-side.
	JobTimeout JobState = "TIMEOUT"
)

func (s JobState) Terminal() bool {
	switch s {
	case JobCompleted, JobFailed, JobRequiresReview:
		return true
	}
	return false
}

// ReviewState tracks a document through extraction and human review.
type ReviewState string

const (
	ReviewUnprocessed    ReviewState = "UNPROCESSED"
	ReviewProcessing     ReviewState = "PROCESSING"
	ReviewCompleted      ReviewState = "COMPLETED"
	ReviewFailed         ReviewState = "FAILED"
	ReviewRequiresReview ReviewState = "REQUIRES_REVIEW"
	ReviewApproved       ReviewState = "APPROVED"
	ReviewRejected       ReviewState = "REJECTED"
)

func (s ReviewState) Terminal() bool {
	return s == ReviewApproved || s == ReviewRejected
}

// ConfidenceTier classifies a field's extraction confidence against
// configured thresholds.
type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "HIGH"
	TierMedium ConfidenceTier = "MEDIUM"
	TierLow    ConfidenceTier = "LOW"
)
