package transport

import "time"

// Options tunes Listen and Dial. The zero value of every field means the
// transport's own default.
type Options struct {
	// DialTimeout bounds a stream dial. Zero leaves it to the OS.
	DialTimeout time.Duration
	// Linger bounds how long a message socket that has sent waits on Close
	// for the peer to take the message and hang up. Zero waits without limit.
	Linger time.Duration
	// MaxMessageSize caps an inbound message. Zero means unlimited.
	MaxMessageSize int
	// Ready is called once the listening address is bound, before Listen
	// blocks waiting for a peer.
	Ready func(addr string)
}

func DefaultOptions() *Options {
	return &Options{
		Linger: 30 * time.Second,
	}
}

type Option func(*Options)

func WithDialTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.DialTimeout = timeout
	}
}

func WithLinger(linger time.Duration) Option {
	return func(opts *Options) {
		opts.Linger = linger
	}
}

func WithMaxMessageSize(size int) Option {
	return func(opts *Options) {
		opts.MaxMessageSize = size
	}
}

// WithReady registers a callback fired as soon as the listener is bound.
func WithReady(fn func(addr string)) Option {
	return func(opts *Options) {
		opts.Ready = fn
	}
}

func buildOptions(opts []Option) *Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Options) ready(addr string) {
	if o.Ready != nil {
		o.Ready(addr)
	}
}
