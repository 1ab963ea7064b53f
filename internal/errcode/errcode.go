package errcode

// Error code convention for notify payloads:
// - 0: no error
// - 4xxx: recoverable, safe to retry
// - 5xxx: system error, flow aborted
const (
	OK             = 0
	RenderMissing  = 4001
	ExportInFlight = 4009
	SystemError    = 5000
)
