package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldKey       = "key"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status_code"
	FieldDuration  = "duration_ms"
	FieldError     = "error"
	FieldOperation = "operation"
	FieldStart     = "start_date"
	FieldEnd       = "end_date"
	FieldTicker    = "ticker"
	FieldCount     = "count"
)

// Component names
const (
	ComponentApp      = "app"
	ComponentAPI      = "api"
	ComponentCache    = "cache"
	ComponentStorage  = "storage"
	ComponentSession  = "session"
	ComponentPipeline = "pipeline"
	ComponentDaemon   = "daemon"
	ComponentTUI      = "tui"
)
