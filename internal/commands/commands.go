// Package commands holds the leaf handlers of the shell's command table.
// Handlers are functions of the session snapshot and their arguments; the two
// network commands hand their work to a Fetcher and return immediately.
package commands

import (
	"fmt"
	"strings"
)

// Fetcher starts background requests whose output reaches the session later.
type Fetcher interface {
	FetchContent(itemURL string, debug bool)
	FetchURL(url string, debug bool)
}

var helpLines = []string{
	"Available commands (type 'man [cmd]' for deep info):",
	"  help       - Show available commands",
	"  ls [-l]    - List directory contents",
	"  cd [path]  - Change directory",
	"  cat [file] - Show file content",
	"  whoami     - Display system user info",
	"  bbs        - Launch the BBS interface",
	"  man [cmd]  - Show the manual for a command",
	"  uptime     - System availability timer",
	"  fortune    - Random node wisdom",
	"  cowsay     - Digital mascot ASCII art",
	"  weather    - Simulated weather report",
	"  top        - Display system processes",
	"  who        - List online users",
	"  social     - Social media connections",
	"  curl [url] - Download content from URL",
	"  date       - Show system date",
	"  clear      - Clear terminal screen",
	"  exit       - Terminate session",
}

// Help lists the available commands.
func Help() string {
	return strings.Join(helpLines, "\n")
}

// Ping answers a liveness probe.
func Ping() string {
	return "PONG (Core Online)"
}

type manPage struct {
	summary  string
	synopsis string
	detail   string
}

var manPages = map[string]manPage{
	"help":   {"Show available commands", "help", "Displays a list of all commands recognized by the tecnoter.io shell."},
	"ls":     {"List directory contents", "ls [-l] [path]", "Lists files and subdirectories in the current or specified path."},
	"cd":     {"Change directory", "cd [path]", "Moves to another virtual directory. Without a path, returns to /."},
	"cat":    {"Show file content", "cat [file]", "Fetches and prints a post or page by its slug or path."},
	"bbs":    {"Launch the Bulletin Board System", "bbs [r|c|s|u]", "Enters the main tecnoter.io interactive node."},
	"top":    {"Display system processes", "top", "Provides a dynamic real-time view of a running system."},
	"who":    {"List online users", "who", "Shows who is currently logged on to the tecnoter node."},
	"date":   {"Display system date and time", "date", "Displays the current node system time."},
	"motd":   {"Show Message of the Day", "motd", "Displays the system welcome message and node information."},
	"social": {"Social media connections", "social [network]", "Displays connected social networks or opens the specified network in a new uplink."},
	"curl":   {"Download content from URL", "curl [url]", "Fetches a URL in the background and prints up to 2000 bytes of it."},
}

// Man prints the manual entry for args[0].
func Man(args []string) string {
	if len(args) == 0 {
		return "Usage: man [command]. Try man help, man ls, man bbs."
	}
	page, ok := manPages[args[0]]
	if !ok {
		return fmt.Sprintf("No manual entry for %s", args[0])
	}
	return fmt.Sprintf("NAME\n    %s - %s\n\nSYNOPSIS\n    %s\n\nDESCRIPTION\n    %s",
		args[0], page.summary, page.synopsis, page.detail)
}
