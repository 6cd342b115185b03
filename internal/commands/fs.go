package commands

import (
	"fmt"
	"strings"

	"github.com/tecnoter/ttsh/internal/state"
	"github.com/tecnoter/ttsh/internal/vfs"
)

const defaultEntryDate = "2026-01-01"

var monthNames = map[string]string{
	"01": "Jan", "02": "Feb", "03": "Mar", "04": "Apr",
	"05": "May", "06": "Jun", "07": "Jul", "08": "Aug",
	"09": "Sep", "10": "Oct", "11": "Nov", "12": "Dec",
}

// formatDate turns YYYY-MM-DD into "Mon DD YYYY". Other shapes pass through.
func formatDate(date string) string {
	parts := strings.Split(date, "-")
	if len(parts) < 3 {
		return date
	}
	month, ok := monthNames[parts[1]]
	if !ok {
		month = parts[1]
	}
	return fmt.Sprintf("%s %s %s", month, parts[2], parts[0])
}

// Ls lists a virtual directory. -l selects the long format.
func Ls(st state.SessionState, args []string) string {
	long := false
	target := st.Cwd
	for _, arg := range args {
		if arg == "-l" {
			long = true
		} else if !strings.HasPrefix(arg, "-") {
			target = vfs.Resolve(st.Cwd, arg)
		}
	}

	files, ok := vfs.Members(st, target)
	if !ok {
		return fmt.Sprintf("ls: cannot access '%s': No such directory", target)
	}
	if !long {
		return strings.Join(files, "  ")
	}

	var b strings.Builder
	for _, file := range files {
		perm, size, date, extra := longEntry(st, target, file)
		fmt.Fprintf(&b, "%s tecnoter staff %5s %s %s%s\n", perm, size, formatDate(date), file, extra)
	}
	return strings.TrimRight(b.String(), " \n")
}

func longEntry(st state.SessionState, dir, file string) (perm, size, date, extra string) {
	_, inTag := vfs.TagOf(dir)
	_, inCategory := vfs.CategoryOf(dir)

	find := func(items []state.Post) (state.Post, bool) {
		for _, p := range items {
			if p.Slug == file {
				return p, true
			}
		}
		return state.Post{}, false
	}
	tagSuffix := func(p state.Post) string {
		if len(p.Tags) == 0 {
			return ""
		}
		return " [" + strings.Join(p.Tags, ",") + "]"
	}

	switch {
	case dir == "/"+vfs.DirPosts || inTag || inCategory:
		if p, ok := find(st.Posts); ok {
			return "-rw-r--r--", "1228", p.Date, tagSuffix(p)
		}
		if p, ok := find(st.Pages); ok {
			return "-rw-r--r--", "1024", p.Date, tagSuffix(p)
		}
		return "-rw-r--r--", "1024", defaultEntryDate, ""
	case dir == "/"+vfs.DirPages:
		if p, ok := find(st.Pages); ok {
			return "-rw-r--r--", "1024", p.Date, tagSuffix(p)
		}
		return "-rw-r--r--", "1024", defaultEntryDate, ""
	case dir == "/" || dir == "/"+vfs.DirTags || dir == "/"+vfs.DirCategories:
		return "drwxr-xr-x", "4096", defaultEntryDate, ""
	}
	return "-rw-r--r--", "1024", defaultEntryDate, ""
}

// CdResult is the outcome of cd: the new working directory and an optional
// message.
type CdResult struct {
	Message string
	Path    string
}

// Cd changes directory. With no argument it returns to the root.
func Cd(st state.SessionState, args []string) CdResult {
	if len(args) == 0 {
		return CdResult{Path: "/"}
	}
	target := vfs.Resolve(st.Cwd, args[0])
	if !vfs.IsDir(target) {
		return CdResult{Message: fmt.Sprintf("cd: no such directory: %s", args[0]), Path: st.Cwd}
	}
	return CdResult{Path: target}
}

// Cat starts fetching a page or post named by slug or path. Pages win over
// posts with the same slug.
func Cat(st state.SessionState, args []string, fetcher Fetcher) string {
	if len(args) == 0 {
		return "Usage: cat [filename]"
	}
	arg := args[0]
	slug := vfs.Base(vfs.Resolve(st.Cwd, arg))

	item, ok := vfs.FindBySlug(st, slug, arg)
	if !ok {
		return fmt.Sprintf("cat: %s: No such file or directory", arg)
	}
	if fetcher != nil {
		fetcher.FetchContent(item.URL, st.DebugMode)
	}
	return fmt.Sprintf("Reading %s...", item.Title)
}

// Curl starts downloading args[0].
func Curl(st state.SessionState, args []string, fetcher Fetcher) string {
	if len(args) == 0 {
		return "Usage: curl [url]"
	}
	if fetcher != nil {
		fetcher.FetchURL(args[0], st.DebugMode)
	}
	return "Establishing uplink..."
}
