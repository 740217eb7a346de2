package timesource

import (
	"context"
	"fmt"
	"time"

	"github.com/beevik/ntp"
)

// DefaultTimeout bounds a single NTP exchange.
const DefaultTimeout = 5 * time.Second

// queryFunc matches ntp.QueryWithOptions; replaced in tests.
type queryFunc func(host string, opt ntp.QueryOptions) (*ntp.Response, error)

// NTP queries an NTP server (one request per Fetch).
type NTP struct {
	host    string
	timeout time.Duration
	query   queryFunc
	wall    func() time.Time
}

// NewNTP creates an NTP source for host. A non-positive timeout selects
// DefaultTimeout.
func NewNTP(host string, timeout time.Duration) *NTP {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &NTP{host: host, timeout: timeout, query: ntp.QueryWithOptions, wall: time.Now}
}

// Name returns "ntp:<host>".
func (n *NTP) Name() string {
	return fmt.Sprintf("ntp:%s", n.host)
}

type ntpResult struct {
	resp *ntp.Response
	err  error
}

// Fetch performs one NTP exchange and returns the server's estimate of now.
// Responses failing validation (kiss-of-death, unsynchronised server,
// stratum 0) are rejected.
func (n *NTP) Fetch(ctx context.Context) (time.Time, error) {
	done := make(chan ntpResult, 1)
	go func() {
		resp, err := n.query(n.host, ntp.QueryOptions{Timeout: n.timeout})
		done <- ntpResult{resp, err}
	}()

	var res ntpResult
	select {
	case <-ctx.Done():
		return time.Time{}, fmt.Errorf("%w: %s: %v", ErrTransport, n.Name(), ctx.Err())
	case res = <-done:
	}

	if res.err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: query: %v", ErrTransport, n.Name(), res.err)
	}
	if err := res.resp.Validate(); err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: invalid response: %v", ErrTransport, n.Name(), err)
	}
	return n.wall().Add(res.resp.ClockOffset).UTC(), nil
}
