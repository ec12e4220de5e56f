// Package ports enumerates TCP sockets and the processes that own them.
//
// Windows hosts are read with `netstat -ano -p TCP` and `tasklist`, other
// hosts with `ss -tanp` and `ps`. Parsers are pure functions over command
// output; the Inspector only runs the commands.
package ports

import (
	"context"
	"encoding/csv"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/grupotelles/comercial/internal/lib/shell"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// maxLookups bounds concurrent process name lookups.
const maxLookups = 8

// ErrInvalidPort is returned for port parameters outside 1-65535.
var ErrInvalidPort = errors.New("invalid port")

// Socket is one TCP socket row.
type Socket struct {
	Protocol       string  `json:"protocol"`
	LocalAddress   string  `json:"localAddress"`
	ForeignAddress string  `json:"foreignAddress"`
	State          string  `json:"state"`
	PID            int     `json:"pid"`
	Process        *string `json:"process"`
}

// Port returns the port of the local address, or "".
func (s Socket) Port() string {
	i := strings.LastIndex(s.LocalAddress, ":")
	if i < 0 {
		return ""
	}
	return s.LocalAddress[i+1:]
}

// ParsePort validates a port path parameter.
func ParsePort(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 65535 {
		return 0, errors.Wrap(ErrInvalidPort, s)
	}
	return n, nil
}

// Filter returns the sockets whose local address ends with ":port".
func Filter(sockets []Socket, port int) []Socket {
	suffix := ":" + strconv.Itoa(port)
	var out []Socket
	for _, s := range sockets {
		if strings.HasSuffix(s.LocalAddress, suffix) {
			out = append(out, s)
		}
	}
	return out
}

// netstatHeaderLines is the banner `netstat -ano` prints before the rows.
const netstatHeaderLines = 4

// ParseNetstat parses Windows `netstat -ano -p TCP` output.
func ParseNetstat(out string) []Socket {
	lines := strings.Split(strings.ReplaceAll(out, "\r\n", "\n"), "\n")
	if len(lines) <= netstatHeaderLines {
		return []Socket{}
	}

	sockets := []Socket{}
	for _, line := range lines[netstatHeaderLines:] {
		parts := strings.Fields(line)
		if len(parts) < 5 || !strings.Contains(parts[1], ":") {
			continue
		}
		pid, err := strconv.Atoi(parts[4])
		if err != nil {
			continue
		}
		sockets = append(sockets, Socket{
			Protocol:       parts[0],
			LocalAddress:   parts[1],
			ForeignAddress: parts[2],
			State:          parts[3],
			PID:            pid,
		})
	}
	return sockets
}

var (
	ssPIDRe  = regexp.MustCompile(`pid=(\d+)`)
	ssNameRe = regexp.MustCompile(`\(\("([^"]+)"`)
)

// ParseSS parses Linux `ss -tanp` output. The owning process is only
// visible for sockets the caller may inspect; others get PID 0.
func ParseSS(out string) []Socket {
	sockets := []Socket{}
	for i, line := range strings.Split(out, "\n") {
		parts := strings.Fields(line)
		if i == 0 && len(parts) > 0 && parts[0] == "State" {
			continue
		}
		if len(parts) < 5 || !strings.Contains(parts[3], ":") {
			continue
		}

		s := Socket{
			Protocol:       "TCP",
			LocalAddress:   parts[3],
			ForeignAddress: parts[4],
			State:          parts[0],
		}
		if len(parts) > 5 {
			users := strings.Join(parts[5:], " ")
			if m := ssPIDRe.FindStringSubmatch(users); m != nil {
				s.PID, _ = strconv.Atoi(m[1])
			}
			if m := ssNameRe.FindStringSubmatch(users); m != nil {
				name := m[1]
				s.Process = &name
			}
		}
		sockets = append(sockets, s)
	}
	return sockets
}

// ParseTasklist returns the image name from `tasklist /FO CSV /NH` output.
func ParseTasklist(out string) string {
	out = strings.TrimSpace(out)
	if out == "" || strings.HasPrefix(out, "INFO:") {
		return ""
	}
	record, err := csv.NewReader(strings.NewReader(out)).Read()
	if err != nil || len(record) == 0 {
		return ""
	}
	return strings.TrimSpace(record[0])
}

// Inspector lists sockets and resolves or kills their owners.
type Inspector interface {
	List(ctx context.Context) ([]Socket, error)
	Kill(ctx context.Context, pid int) error
}

// SystemInspector runs the platform's networking tools.
type SystemInspector struct {
	runner  shell.Runner
	windows bool
	logger  *zerolog.Logger
}

func NewSystemInspector(runner shell.Runner, logger *zerolog.Logger) *SystemInspector {
	return &SystemInspector{runner: runner, windows: runtime.GOOS == "windows", logger: logger}
}

// List returns every TCP socket with the owning process name resolved.
func (si *SystemInspector) List(ctx context.Context) ([]Socket, error) {
	var (
		sockets []Socket
		err     error
	)
	if si.windows {
		sockets, err = si.listNetstat(ctx)
	} else {
		sockets, err = si.listSS(ctx)
	}
	if err != nil {
		return nil, err
	}

	si.resolveNames(ctx, sockets)
	return sockets, nil
}

func (si *SystemInspector) listNetstat(ctx context.Context) ([]Socket, error) {
	res, err := si.runner.Run(ctx, shell.Command{Name: "netstat", Args: []string{"-ano", "-p", "TCP"}})
	if err != nil {
		return nil, errors.Wrapf(err, "netstat: %s", shell.Output(res, err))
	}
	return ParseNetstat(res.Stdout), nil
}

func (si *SystemInspector) listSS(ctx context.Context) ([]Socket, error) {
	res, err := si.runner.Run(ctx, shell.Command{Name: "ss", Args: []string{"-tanp"}})
	if err != nil {
		return nil, errors.Wrapf(err, "ss: %s", shell.Output(res, err))
	}
	return ParseSS(res.Stdout), nil
}

// resolveNames looks each distinct PID up once, concurrently.
func (si *SystemInspector) resolveNames(ctx context.Context, sockets []Socket) {
	seen := make(map[int]bool)
	var pids []int
	for _, s := range sockets {
		if s.Process == nil && s.PID > 0 && !seen[s.PID] {
			seen[s.PID] = true
			pids = append(pids, s.PID)
		}
	}

	var (
		g     errgroup.Group
		mu    sync.Mutex
		names = make(map[int]*string, len(pids))
	)
	g.SetLimit(maxLookups)
	for _, pid := range pids {
		g.Go(func() error {
			name := si.processName(ctx, pid)
			if name == "" {
				return nil
			}
			mu.Lock()
			names[pid] = &name
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for i := range sockets {
		if sockets[i].Process == nil {
			sockets[i].Process = names[sockets[i].PID]
		}
	}
}

func (si *SystemInspector) processName(ctx context.Context, pid int) string {
	var cmd shell.Command
	if si.windows {
		cmd = shell.Command{Name: "tasklist", Args: []string{"/FI", "PID eq " + strconv.Itoa(pid), "/FO", "CSV", "/NH"}}
	} else {
		cmd = shell.Command{Name: "ps", Args: []string{"-p", strconv.Itoa(pid), "-o", "comm="}}
	}

	res, err := si.runner.Run(ctx, cmd)
	if err != nil {
		si.logger.Debug().Err(err).Int("pid", pid).Msg("could not resolve process name")
		return ""
	}
	if si.windows {
		return ParseTasklist(res.Stdout)
	}
	return strings.TrimSpace(res.Stdout)
}

// Kill force-terminates pid.
func (si *SystemInspector) Kill(ctx context.Context, pid int) error {
	if pid <= 0 {
		return errors.Errorf("refusing to kill pid %d", pid)
	}

	var cmd shell.Command
	if si.windows {
		cmd = shell.Command{Name: "taskkill", Args: []string{"/PID", strconv.Itoa(pid), "/F"}}
	} else {
		cmd = shell.Command{Name: "kill", Args: []string{"-9", strconv.Itoa(pid)}}
	}

	res, err := si.runner.Run(ctx, cmd)
	if err != nil {
		return errors.Errorf("kill %d: %s", pid, shell.Output(res, err))
	}
	return nil
}
