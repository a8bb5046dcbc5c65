package metrics

const (
	LabelMethod  = "method"
	LabelSuccess = "success"
	LabelReason  = "reason"
	LabelEvent   = "event"
	LabelOutcome = "outcome"
)

// namespaces
const (
	namespaceQuestkit = "questkit"
)

// subsystems
const (
	subsystemScanner = "scanner"
	subsystemRPC     = "ledger_rpc"
	subsystemClaim   = "claim"
)

const (
	SkipReasonFailed   = "failed"
	SkipReasonNotFound = "not_found"
)
