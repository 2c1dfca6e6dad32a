package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldActorID     = "actor_id"
	FieldActorRole   = "actor_role"
	FieldExpenseID   = "expense_id"
	FieldOwnerID     = "owner_id"
	FieldBudgetID    = "budget_id"
	FieldCategoryID  = "category_id"
	FieldAmountCents = "amount_cents"
	FieldFromStatus  = "from_status"
	FieldToStatus    = "to_status"
	FieldUtilization = "utilization_pct"
	FieldAlertTier   = "alert_tier"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentVisibility = "visibility"
	ComponentLifecycle  = "lifecycle"
	ComponentBudget     = "budget"
	ComponentAnalytics  = "analytics"
	ComponentStorage    = "storage"
	ComponentAMQP       = "amqp"
	ComponentWorker     = "worker"
	ComponentRateLimit  = "rate_limit"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpList     = "list"
	OpSubmit   = "submit"
	OpApprove  = "approve"
	OpReject   = "reject"
	OpPay      = "pay"
	OpReopen   = "reopen"
	OpEvaluate = "evaluate"
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

// WithClientIP adds client IP field
func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
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

// WithActor adds actor identity fields
func (f LogFields) WithActor(actorID int64, role string) LogFields {
	f[FieldActorID] = actorID
	f[FieldActorRole] = role
	return f
}

// WithExpense adds expense identity fields
func (f LogFields) WithExpense(expenseID, ownerID, amountCents int64) LogFields {
	f[FieldExpenseID] = expenseID
	f[FieldOwnerID] = ownerID
	f[FieldAmountCents] = amountCents
	return f
}

// WithTransition adds lifecycle transition fields
func (f LogFields) WithTransition(from, to string) LogFields {
	f[FieldFromStatus] = from
	f[FieldToStatus] = to
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldUserAgent] = userAgent
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
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
