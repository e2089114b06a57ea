package constants

// VerificationStatus is the label printed in the registry status column.
type VerificationStatus string

const (
	StatusVerified VerificationStatus = "Проверено"
	StatusDraft    VerificationStatus = "Черновик"
)

func VerificationLabel(verified bool) VerificationStatus {
	if verified {
		return StatusVerified
	}
	return StatusDraft
}

// BatchStatus is the lifecycle of one queued ingest batch.
type BatchStatus string

const (
	BatchStatusQueued  BatchStatus = "QUEUED"
	BatchStatusRunning BatchStatus = "RUNNING"
	BatchStatusDone    BatchStatus = "DONE"
	BatchStatusPartial BatchStatus = "PARTIAL" // aborted mid-run, partial results kept
	BatchStatusFailed  BatchStatus = "FAILED"
)
