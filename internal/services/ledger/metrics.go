package ledger

// MetricsCollector receives operation outcomes from the engine.
type MetricsCollector interface {
	RecordTransaction(operation string, amount int64)
	RecordError(operation, errType string)
	RecordConflictRetry(operation string)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordTransaction(string, int64) {}
func (n *NoopMetricsCollector) RecordError(string, string)      {}
func (n *NoopMetricsCollector) RecordConflictRetry(string)      {}
