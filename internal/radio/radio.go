// Package radio controls the network link used to reach the time source.
package radio

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/sweeney/matrix-clock/internal/gpio"
)

// Link is the network link's recovery surface.
type Link interface {
	// Reset hard-resets the radio. Fire-and-forget: failures surface through
	// the next Reconnect or time query.
	Reset(ctx context.Context)

	// Reconnect blocks until the link is usable again, retrying internally.
	// It only returns an error when ctx ends first.
	Reconnect(ctx context.Context) error
}

// DefaultReconnectDelay is the pause between reconnect probes.
const DefaultReconnectDelay = 5 * time.Second

// NetLink is a Link backed by a GPIO reset line and a DNS reachability probe.
type NetLink struct {
	host       string
	resetLine  gpio.ResetLine
	resetPulse time.Duration
	delay      time.Duration
	clock      clockwork.Clock
	probe      func(ctx context.Context) error
}

// NewNetLink creates a link that considers itself connected once host
// resolves. resetLine may be nil when the radio has no controllable reset.
func NewNetLink(host string, resetLine gpio.ResetLine, delay time.Duration, clock clockwork.Clock) *NetLink {
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}
	l := &NetLink{
		host:       host,
		resetLine:  resetLine,
		resetPulse: gpio.DefaultResetPulse,
		delay:      delay,
		clock:      clock,
	}
	l.probe = l.resolve
	return l
}

func (l *NetLink) resolve(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, l.delay)
	defer cancel()
	addrs, err := net.DefaultResolver.LookupHost(ctx, l.host)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", l.host, err)
	}
	if len(addrs) == 0 {
		return fmt.Errorf("resolve %s: no addresses", l.host)
	}
	return nil
}

// Reset pulses the radio reset line, if one is configured.
func (l *NetLink) Reset(ctx context.Context) {
	if l.resetLine == nil {
		log.Warn().Msg("radio reset requested but no reset line configured")
		return
	}
	log.Warn().Dur("pulse", l.resetPulse).Msg("resetting radio")
	if err := l.resetLine.Pulse(l.resetPulse); err != nil {
		log.Error().Err(err).Msg("radio reset pulse failed")
	}
}

// Reconnect probes the link every delay until it succeeds or ctx ends.
func (l *NetLink) Reconnect(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		err := l.probe(ctx)
		if err == nil {
			log.Info().Int("attempt", attempt).Str("host", l.host).Msg("link connected")
			return nil
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("could not connect, retrying")

		select {
		case <-ctx.Done():
			return fmt.Errorf("reconnect: %w", ctx.Err())
		case <-l.clock.After(l.delay):
		}
	}
}
