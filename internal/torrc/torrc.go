// Package torrc reads the handful of relay settings relaystat displays
// straight from the relay's torrc file.
//
// Nothing here returns an error: a missing file, a missing key and a
// malformed value all degrade to an "unknown" result, logged for the
// operator, so one bad line never stops a display cycle.
package torrc

import (
	"bufio"
	"os"
	"strings"

	"github.com/rileyhilliard/relaystat/internal/logger"
	"github.com/rileyhilliard/relaystat/internal/units"
)

// DefaultPath is where Debian and most distributions install torrc.
const DefaultPath = "/etc/tor/torrc"

const (
	keyNickname      = "Nickname"
	keyAccountingMax = "AccountingMax"
)

// ReadNickname returns the relay's configured nickname, or "" when the file
// has no Nickname line or cannot be read.
func ReadNickname(path string, log logger.Logger) string {
	line, ok := findKey(path, keyNickname, logger.OrNoop(log))
	if !ok {
		return ""
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return ""
	}
	return strings.TrimSpace(fields[1])
}

// ReadAccountingQuota returns the combined-direction accounting limit in
// bytes. Tor enforces AccountingMax on each direction separately, while
// accounting/bytes reports read and written together, so the configured
// value is doubled to give a comparable ceiling.
//
// The second return value is false when the limit is absent, malformed or
// unreadable.
func ReadAccountingQuota(path string, log logger.Logger) (int64, bool) {
	log = logger.OrNoop(log)

	line, ok := findKey(path, keyAccountingMax, log)
	if !ok {
		return 0, false
	}

	quota, err := units.ParseQuota(line)
	if err != nil {
		log.Warn("Unexpected format in %s: %v", keyAccountingMax, err)
		return 0, false
	}
	return 2 * quota, true
}

// findKey returns the first line whose first token matches key. torrc
// keywords are case-insensitive.
func findKey(path, key string, log logger.Logger) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		log.Warn("Unable to read %s: %v", path, err)
		return "", false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if strings.EqualFold(fields[0], key) {
			return line, true
		}
	}
	if err := scanner.Err(); err != nil {
		log.Warn("Unable to read %s: %v", path, err)
	}
	return "", false
}
