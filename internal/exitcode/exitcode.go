package exitcode

const (
	Success         = 0
	UsageError      = 1
	ValidationError = 2
	DBConnError     = 3
	StatusLogError  = 4
	ProcessingError = 5
	PartialSuccess  = 6
)
