package control

import (
	"fmt"
	"strconv"
	"strings"
)

// RouterStatus is the subset of a router status entry (dir-spec "r", "s"
// and "w" lines) relaystat cares about.
type RouterStatus struct {
	Nickname  string
	Address   string
	ORPort    int
	Flags     []string
	Bandwidth int64 // consensus weight, kilobytes per second
}

// ParseRouterStatus parses the document returned by GETINFO ns/id/<fp>.
func ParseRouterStatus(doc string) (*RouterStatus, error) {
	rs := &RouterStatus{}
	seenR := false

	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimRight(line, "\r")
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "r":
			// r <nickname> <identity> <digest> <date> <time> <IP> <ORPort> <DirPort>
			if len(fields) < 9 {
				return nil, fmt.Errorf("router status: short r line %q", line)
			}
			seenR = true
			rs.Nickname = fields[1]
			rs.Address = fields[6]
			if port, err := strconv.Atoi(fields[7]); err == nil {
				rs.ORPort = port
			}
		case "s":
			rs.Flags = append([]string{}, fields[1:]...)
		case "w":
			for _, kv := range fields[1:] {
				if v, ok := strings.CutPrefix(kv, "Bandwidth="); ok {
					if bw, err := strconv.ParseInt(v, 10, 64); err == nil {
						rs.Bandwidth = bw
					}
				}
			}
		}
	}

	if !seenR {
		return nil, fmt.Errorf("router status: no r line")
	}
	return rs, nil
}
