/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package log provides a zerolog backed logger provider for component/log.
//
// Module and level filtering stay with component/log; every logger handed out here writes all it receives.
//
//	log.Initialize(zlog.NewProvider(os.Stderr))
package log

import (
	"io"
	"time"

	"github.com/rs/zerolog"

	spilog "github.com/hyperledger/aries-framework-go/spi/log"
)

const moduleField = "module"

// Option configures the Provider.
type Option func(*Provider)

// WithConsole writes human readable lines instead of JSON.
func WithConsole() Option {
	return func(p *Provider) {
		p.console = true
	}
}

// WithTimestamp adds a timestamp to every entry.
func WithTimestamp() Option {
	return func(p *Provider) {
		p.timestamp = true
	}
}

// Provider is a spilog.LoggerProvider writing through zerolog.
type Provider struct {
	base      zerolog.Logger
	console   bool
	timestamp bool
}

// NewProvider returns a Provider writing to w.
func NewProvider(w io.Writer, opts ...Option) *Provider {
	p := &Provider{}

	for _, opt := range opts {
		opt(p)
	}

	if p.console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(w).Level(zerolog.TraceLevel).With()
	if p.timestamp {
		ctx = ctx.Timestamp()
	}

	p.base = ctx.Logger()

	return p
}

// GetLogger returns a logger tagged with module.
func (p *Provider) GetLogger(module string) spilog.Logger {
	return &logger{l: p.base.With().Str(moduleField, module).Logger()}
}

type logger struct {
	l zerolog.Logger
}

// Panicf logs and panics with the formatted message.
func (z *logger) Panicf(msg string, args ...interface{}) {
	z.l.Panic().Msgf(msg, args...)
}

// Fatalf logs and exits the process.
func (z *logger) Fatalf(msg string, args ...interface{}) {
	z.l.Fatal().Msgf(msg, args...)
}

func (z *logger) Errorf(msg string, args ...interface{}) {
	z.l.Error().Msgf(msg, args...)
}

func (z *logger) Warnf(msg string, args ...interface{}) {
	z.l.Warn().Msgf(msg, args...)
}

func (z *logger) Infof(msg string, args ...interface{}) {
	z.l.Info().Msgf(msg, args...)
}

func (z *logger) Debugf(msg string, args ...interface{}) {
	z.l.Debug().Msgf(msg, args...)
}
