package redisstream

import "time"

// Option configures the Redis Streams broker.
type Option func(*options)

type options struct {
	db        int
	keyPrefix string
	maxLen    int64
	startID   string
	block     time.Duration
	count     int64
}

func defaults() options {
	return options{
		keyPrefix: "mqtt:",
		maxLen:    10000,
		startID:   "$", // only entries added after Subscribe
		block:     time.Second,
		count:     100,
	}
}

// WithDB selects the Redis logical database.
func WithDB(db int) Option {
	return func(o *options) { o.db = db }
}

// WithKeyPrefix sets the prefix prepended to topics to form stream keys.
func WithKeyPrefix(p string) Option {
	return func(o *options) { o.keyPrefix = p }
}

// WithMaxLen caps each stream at roughly n entries. Zero disables trimming.
func WithMaxLen(n int64) Option {
	return func(o *options) { o.maxLen = n }
}

// WithStartID sets the entry id Subscribe reads after ("0" replays the stream).
func WithStartID(id string) Option {
	return func(o *options) { o.startID = id }
}

// WithBlock sets how long a single XREAD waits for new entries.
func WithBlock(d time.Duration) Option {
	return func(o *options) { o.block = d }
}
