package redis

import "time"

// DefaultPrefix namespaces every key written by this package.
const DefaultPrefix = "fluxo:"

type options struct {
	prefix string
	ttl    time.Duration
	maxLog int64
	now    func() time.Time
}

// Option configures the Redis adapters.
type Option func(*options)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithTTL sets how long finalized executions are retained.
// Active executions never expire.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithMaxLogLength caps the conversation log of each contact to the newest n records.
func WithMaxLogLength(n int64) Option {
	return func(o *options) {
		o.maxLog = n
	}
}

// WithClock overrides the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func newOptions(opts []Option) options {
	o := options{
		prefix: DefaultPrefix,
		ttl:    0, // No expiration by default
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) contactKey(kind, tenantID, contact string) string {
	return o.prefix + kind + ":" + tenantID + ":" + contact
}
