package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldReport     = "report"
	FieldRows       = "rows"
	FieldRecords    = "records"
	FieldSource     = "source"
	FieldItemID     = "item_id"
	FieldHorizon    = "horizon_days"
	FieldToday      = "today"
	FieldSheetsRef  = "sheets_ref"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentProjector = "projector"
	ComponentReports   = "reports"
	ComponentLoader    = "loader"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentBanking   = "banking"
	ComponentAssistant = "assistant"
)

// Operations defines standard operation names
const (
	OpLoad     = "load"
	OpProject  = "project"
	OpReport   = "report"
	OpExport   = "export"
	OpImport   = "import"
	OpSync     = "sync"
	OpAsk      = "ask"
	OpValidate = "validate"
	OpParse    = "parse"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithRequestID adds request ID field
func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithReport adds the report name and its row count
func (f LogFields) WithReport(name string, rows int) LogFields {
	f[FieldReport] = name
	f[FieldRows] = rows
	return f
}

// WithSource adds a record source and how many records it produced
func (f LogFields) WithSource(source string, records int) LogFields {
	f[FieldSource] = source
	f[FieldRecords] = records
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(method, path string, statusCode int, durationMs int64) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
