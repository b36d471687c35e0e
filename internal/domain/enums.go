package domain

// ExtractionStatus is the terminal outcome of the text-extraction step for one document.
type ExtractionStatus string

const (
	ExtractionSucceeded ExtractionStatus = "succeeded"
	ExtractionFailed    ExtractionStatus = "failed"
)

// ClassificationLabel labels a structured document as a bill or a supporting document.
// Once assigned within a run it is never reversed.
type ClassificationLabel string

const (
	LabelBill          ClassificationLabel = "BILL"
	LabelSupportingDoc ClassificationLabel = "SUPPORTING_DOC"
	LabelUnknown       ClassificationLabel = "UNKNOWN"
)

// ClaimStatus is the terminal status of a whole claim run.
type ClaimStatus string

const (
	ClaimStatusSuccess      ClaimStatus = "SUCCESS"
	ClaimStatusPartial      ClaimStatus = "PARTIAL"
	ClaimStatusNoBill       ClaimStatus = "FAILED_NO_BILL"
	ClaimStatusAllDocsFail  ClaimStatus = "FAILED_ALL_DOCUMENTS"
	ClaimStatusInvalidInput ClaimStatus = "INVALID_INPUT"
)

// DocTerminalStatus tags every document with its final disposition for the
// supporting document map.
type DocTerminalStatus string

const (
	DocStatusFinalBill        DocTerminalStatus = "final_bill"
	DocStatusSupporting       DocTerminalStatus = "supporting_doc"
	DocStatusDuplicate        DocTerminalStatus = "duplicate_of"
	DocStatusNotSelected      DocTerminalStatus = "bill_not_selected"
	DocStatusFingerprintError DocTerminalStatus = "fingerprint_error"
)

// Stage identifies one pipeline stage. Stages run in the order listed in
// StageOrder; each stage is a barrier over all per-document work of the
// previous one.
type Stage string

const (
	StageIngestion      Stage = "ingestion"
	StageExtraction     Stage = "extraction"
	StageStructuring    Stage = "structuring"
	StageClassification Stage = "classification"
	StageDuplicateCheck Stage = "duplicate_check"
	StageSelection      Stage = "selection"
	StageAssembly       Stage = "assembly"
)

// StageOrder is the fixed transition order of the pipeline.
var StageOrder = []Stage{
	StageIngestion,
	StageExtraction,
	StageStructuring,
	StageClassification,
	StageDuplicateCheck,
	StageSelection,
	StageAssembly,
}

// AuditOutcome is the outcome recorded on an audit event.
type AuditOutcome string

const (
	OutcomeSuccess AuditOutcome = "SUCCESS"
	OutcomeFailed  AuditOutcome = "FAILED"
	OutcomeSkipped AuditOutcome = "SKIPPED"
)

// RunState is the lifecycle of a persisted claim run in the processing queue.
type RunState string

const (
	RunStateQueued     RunState = "queued"
	RunStateProcessing RunState = "processing"
	RunStateCompleted  RunState = "completed"
	RunStateFailed     RunState = "failed"
)

// HashAlgorithm selects the digest used for duplicate fingerprints.
type HashAlgorithm string

const (
	HashSHA256 HashAlgorithm = "sha256"
	HashSHA1   HashAlgorithm = "sha1"
	HashMD5    HashAlgorithm = "md5"
)
