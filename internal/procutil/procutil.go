package procutil

import (
	"bufio"
	"errors"
	"strconv"
	"strings"
)

// ErrNoListener is returned when nothing listens on the requested port
var ErrNoListener = errors.New("no process listening on port")

// parsePIDLines reads one PID per line, ignoring anything that is not a
// positive integer, and removes duplicates while keeping order.
func parsePIDLines(out string) []int {
	var pids []int
	seen := make(map[int]bool)
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		for _, field := range strings.Fields(scanner.Text()) {
			pid, err := strconv.Atoi(strings.TrimSuffix(field, ":"))
			if err != nil || pid <= 0 || seen[pid] {
				continue
			}
			seen[pid] = true
			pids = append(pids, pid)
		}
	}
	return pids
}

// parseNetstat extracts the owning PIDs of TCP sockets listening on port
// from `netstat -ano -p tcp` output.
func parseNetstat(out string, port int) []int {
	suffix := ":" + strconv.Itoa(port)
	var pids []int
	seen := make(map[int]bool)
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		// Proto  Local Address  Foreign Address  State  PID
		if len(fields) < 5 || !strings.EqualFold(fields[0], "TCP") {
			continue
		}
		if !strings.HasSuffix(fields[1], suffix) || fields[3] != "LISTENING" {
			continue
		}
		pid, err := strconv.Atoi(fields[4])
		if err != nil || pid <= 0 || seen[pid] {
			continue
		}
		seen[pid] = true
		pids = append(pids, pid)
	}
	return pids
}
