package status

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rileyhilliard/relaystat/internal/control"
	"github.com/rileyhilliard/relaystat/internal/errors"
	"github.com/rileyhilliard/relaystat/internal/logger"
	"github.com/rileyhilliard/relaystat/internal/torrc"
	"github.com/rileyhilliard/relaystat/internal/util"
)

// fingerprintSuffixLen is how much of the 40-char fingerprint fits the display.
const fingerprintSuffixLen = 8

// Collector builds Snapshots from the relay's control port and torrc.
type Collector struct {
	dial      control.DialFunc
	torrcPath string
	timeout   time.Duration
	log       logger.Logger
	now       func() time.Time
}

// NewCollector creates a collector that opens one session per Collect call.
func NewCollector(dial control.DialFunc, torrcPath string, log logger.Logger) *Collector {
	return &Collector{
		dial:      dial,
		torrcPath: torrcPath,
		timeout:   30 * time.Second,
		log:       logger.OrNoop(log),
		now:       time.Now,
	}
}

// SetTimeout sets the upper bound for one collection, session included.
func (c *Collector) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// Collect gathers one Snapshot.
//
// Individual queries that fail leave their field missing and are logged;
// the snapshot is still returned. Only failing to open or authenticate the
// session is an error, since then nothing at all can be collected.
func (c *Collector) Collect(ctx context.Context) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctl, err := c.dial(ctx)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrControl,
			"Can't open a control port session",
			"Check that tor is running with ControlPort enabled and that relaystat can authenticate (cookie file permissions or control.password)")
	}
	defer ctl.Close()

	snap := &Snapshot{
		Timestamp: c.now(),
		Nickname:  torrc.ReadNickname(c.torrcPath, c.log),
	}

	version, err := ctl.GetVersion(ctx)
	snap.Version = c.textField(snap, "version", version, err)

	fingerprint, err := ctl.GetInfo(ctx, "fingerprint")
	full := c.textField(snap, "fingerprint", fingerprint, err)
	if fp, ok := full.Get(); ok {
		snap.Fingerprint = Known(util.LastN(fp, fingerprintSuffixLen))
		snap.Flags = c.collectFlags(ctx, ctl, snap, fp)
	} else {
		c.fieldFailed(snap, "flags", fmt.Errorf("fingerprint unavailable"))
	}

	snap.Uptime = c.collectUptime(ctx, ctl, snap)
	snap.BytesRead, snap.BytesWritten = c.collectAccounting(ctx, ctl, snap)

	if quota, ok := torrc.ReadAccountingQuota(c.torrcPath, c.log); ok {
		snap.Quota = Known(quota)
	}

	c.log.Debug("collected: version=%s uptime=%s problems=%d",
		snap.Version.Value, snap.UptimeHours(), len(snap.Problems))
	return snap, nil
}

func (c *Collector) textField(snap *Snapshot, name, v string, err error) Field[string] {
	v = strings.TrimSpace(v)
	if err == nil && v == "" {
		err = fmt.Errorf("empty value")
	}
	if err != nil {
		c.fieldFailed(snap, name, err)
		return Missing[string]()
	}
	return Known(v)
}

func (c *Collector) collectFlags(ctx context.Context, ctl control.Controller, snap *Snapshot, fingerprint string) Field[[]string] {
	rs, err := ctl.GetNetworkStatus(ctx, fingerprint)
	if err != nil {
		c.fieldFailed(snap, "flags", err)
		return Missing[[]string]()
	}
	return Known(rs.Flags)
}

func (c *Collector) collectUptime(ctx context.Context, ctl control.Controller, snap *Snapshot) Field[time.Duration] {
	raw, err := ctl.GetInfo(ctx, "uptime")
	if err != nil {
		c.fieldFailed(snap, "uptime", err)
		return Missing[time.Duration]()
	}
	secs, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || secs < 0 {
		c.fieldFailed(snap, "uptime", fmt.Errorf("unexpected value %q", raw))
		return Missing[time.Duration]()
	}
	return Known(time.Duration(secs) * time.Second)
}

// collectAccounting parses accounting/bytes, "<read> <written>" for the
// current accounting period.
func (c *Collector) collectAccounting(ctx context.Context, ctl control.Controller, snap *Snapshot) (read, written Field[int64]) {
	raw, err := ctl.GetInfo(ctx, "accounting/bytes")
	if err != nil {
		c.fieldFailed(snap, "accounting bytes", err)
		return Missing[int64](), Missing[int64]()
	}

	r, w, err := ParseAccountingBytes(raw)
	if err != nil {
		c.fieldFailed(snap, "accounting bytes", err)
		return Missing[int64](), Missing[int64]()
	}
	return Known(r), Known(w)
}

// ParseAccountingBytes parses the "<read> <written>" pair reported by
// GETINFO accounting/bytes.
func ParseAccountingBytes(raw string) (read, written int64, err error) {
	fields := strings.Fields(raw)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("expected \"<read> <written>\", got %q", raw)
	}
	read, err = strconv.ParseInt(fields[0], 10, 64)
	if err != nil || read < 0 {
		return 0, 0, fmt.Errorf("bad read count %q", fields[0])
	}
	written, err = strconv.ParseInt(fields[1], 10, 64)
	if err != nil || written < 0 {
		return 0, 0, fmt.Errorf("bad written count %q", fields[1])
	}
	return read, written, nil
}

func (c *Collector) fieldFailed(snap *Snapshot, name string, err error) {
	snap.Problems = append(snap.Problems, &FieldError{Field: name, Err: err})
	c.log.Warn("Unable to fetch %s: %v", name, err)
}
