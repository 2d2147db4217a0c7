package scan

// Collector names, also used as keys in serialized output.
const (
	CollectorHTTP  = "http"
	CollectorTLS   = "tls"
	CollectorWhois = "whois"
)

const notCollected = "not collected"

// Outcome is the tagged result of one collector: either a record or a failure
// reason, never both. The zero value is a failure ("not collected").
type Outcome[T any] struct {
	record  *T
	failure string
}

// Succeeded wraps a collected record.
func Succeeded[T any](record T) Outcome[T] {
	return Outcome[T]{record: &record}
}

// Failed records why a collector produced no data.
func Failed[T any](reason string) Outcome[T] {
	if reason == "" {
		reason = "unknown error"
	}
	return Outcome[T]{failure: reason}
}

// Record returns the collected record and true on success.
func (o Outcome[T]) Record() (T, bool) {
	if o.record == nil {
		var zero T
		return zero, false
	}
	return *o.record, true
}

// Failure returns the failure reason and true when no record was collected.
func (o Outcome[T]) Failure() (string, bool) {
	if o.record != nil {
		return "", false
	}
	if o.failure == "" {
		return notCollected, true
	}
	return o.failure, true
}

// OK reports whether the collector produced a record.
func (o Outcome[T]) OK() bool {
	return o.record != nil
}

// Collection holds one outcome per collector. Each collector owns exactly one
// field, so concurrent collectors never write the same slot.
type Collection struct {
	HTTP  Outcome[HTTPRecord]
	TLS   Outcome[TLSRecord]
	Whois Outcome[WhoisRecord]
}
