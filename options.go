package tilegemm

import (
	"github.com/sirupsen/logrus"
)

// options holds settings shared by Selector and Launcher. Each consumer
// reads the fields it needs.
type options struct {
	workers int
	logger  *logrus.Entry
	rank    RankPolicy
}

// Option configures a Selector or Launcher
type Option func(*options)

// WithWorkers bounds the number of goroutines running tiles. Zero or
// negative means runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithLogger routes a component's logs to l instead of the package logger
func WithLogger(l *logrus.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l.WithField("component", "tilegemm")
		}
	}
}

// WithRankPolicy replaces the selector's ranking of applicable instances
func WithRankPolicy(p RankPolicy) Option {
	return func(o *options) {
		if p != nil {
			o.rank = p
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{rank: RegistrationOrder{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) log() *logrus.Entry {
	if o.logger != nil {
		return o.logger
	}
	return Logger()
}
