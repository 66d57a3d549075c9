package logging

// Common structured log field keys to keep logs searchable/consistent.
const (
	FieldService    = "service"
	FieldVersion    = "version"
	FieldDomain     = "domain"
	FieldTask       = "task"
	FieldCacheKey   = "cache_key"
	FieldRequestID  = "request_id"
	FieldPath       = "path"
	FieldMethod     = "method"
	FieldStatusCode = "status_code"
	FieldCount      = "count"
	FieldDurationMS = "duration_ms"
	FieldInterval   = "interval"
	FieldAttempt    = "attempt"
)
