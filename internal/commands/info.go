package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/tecnoter/ttsh/internal/state"
)

// Whoami describes the session user.
func Whoami(st state.SessionState) string {
	return fmt.Sprintf("User: %s\nHost: tecnoter.io\nShell: ttsh\nStatus: AUTHENTICATED\nProtocol: ENCRYPTED/1.0", st.CurrentUser)
}

// Fortune picks one of the session's fortunes. intn returns a value in
// [0, n).
func Fortune(st state.SessionState, intn func(n int) int) string {
	if len(st.Fortunes) == 0 {
		return "Uplink silent (no fortunes loaded)."
	}
	i := intn(len(st.Fortunes))
	if i < 0 || i >= len(st.Fortunes) {
		return "Uplink silent."
	}
	return fmt.Sprintf("\nNODE WISDOM: %s", st.Fortunes[i])
}

const cowsayArt = `
 ______________________________
< Moo. Welcome to tecnoter.io. >
 ------------------------------
        \   ^__^
         \  (oo)\_______
            (__)\       )\/\
                ||----w |
                ||     ||`

// Cowsay draws the node mascot.
func Cowsay() string {
	return cowsayArt
}

// Uptime reports host uptime and load.
func Uptime(st state.SessionState) string {
	return fmt.Sprintf("up %s, 4 users, load average: %s", st.SystemInfo.Uptime, st.SystemInfo.LoadAverage)
}

// Weather prints the simulated weather report.
func Weather() string {
	return "\nWEATHER: 24C | SUNNY\n"
}

// Top prints a simulated process table.
func Top() string {
	var b strings.Builder
	b.WriteString("Tasks: 42 total,   1 running,  41 sleeping,   0 stopped,   0 zombie\n")
	b.WriteString("%Cpu(s):  4.2 us,  1.0 sy,  0.0 ni, 94.8 id,  0.0 wa,  0.0 hi,  0.0 si,  0.0 st\n")
	b.WriteString("MiB Mem :  128.0 total,   42.1 free,   64.2 used,   21.7 buff/cache\n\n")
	b.WriteString("  PID USER      PR  NI    VIRT    RES    SHR S  %CPU  %MEM     TIME+ COMMAND\n")
	b.WriteString("    1 root      20   0    4242    128     64 S   0.0   0.1   0:01.42 init\n")
	b.WriteString("   42 tecnoter  20   0   12842   4242   2048 R   4.2   3.3   0:42.12 ttsh\n")
	b.WriteString("   88 guest     20   0    2048    512    256 S   0.0   0.4   0:00.12 cat\n")
	return b.String()
}

// Who prints a simulated login table.
func Who() string {
	return "NAME     LINE         TIME             COMMENT\n" +
		"guest    tty1         2026-01-04 10:00 (127.0.0.1)\n" +
		"admin    pts/0        2026-01-04 09:42 (remote.uplink)\n"
}

// Date prints now in the host's local zone.
func Date(now time.Time) string {
	return now.Format("Mon Jan 02 2006 15:04:05 GMT-0700 (MST)")
}

// Motd builds the message of the day.
func Motd(st state.SessionState) string {
	return fmt.Sprintf("SYSTEM SHELL READY\n"+
		"Authentication successful.\n"+
		"Last login: %s from 127.0.0.1\n\n"+
		"Welcome to tecnoter.io, %s!\n\n"+
		"[ SUGGESTION: %s ]\n\n"+
		"Type 'cat bio' to read the company biology.\n"+
		"Type 'help' to see available commands. Use Ctrl+D or 'logout' to exit.\n",
		st.SystemInfo.CurrentDate, st.CurrentUser, st.SystemInfo.MotdSuggestion)
}
