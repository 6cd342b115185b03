// Package bbs draws the bulletin board screens and routes input while a
// session is navigating them.
package bbs

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tecnoter/ttsh/internal/output"
	"github.com/tecnoter/ttsh/internal/state"
	"github.com/tecnoter/ttsh/internal/vfs"
)

// Width is the outer width of every screen, borders included.
const Width = 80

const contentWidth = Width - 4

type borderKind int

const (
	borderTop borderKind = iota
	borderMid
	borderBottom
	borderSep
)

var borderRunes = map[borderKind][3]string{
	borderTop:    {"╔", "═", "╗"},
	borderMid:    {"╠", "═", "╣"},
	borderBottom: {"╚", "═", "╝"},
	borderSep:    {"╟", "─", "╢"},
}

func border(kind borderKind) output.Line {
	r := borderRunes[kind]
	return output.Of(output.BBSBorder, r[0]+strings.Repeat(r[1], Width-2)+r[2])
}

// row frames text between the side borders. Text wider than the content
// area is left as is.
func row(t output.Type, text string, pos lipgloss.Position) output.Line {
	if lipgloss.Width(text) < contentWidth {
		text = lipgloss.PlaceHorizontal(contentWidth, pos, text)
	}
	return output.Of(t, "║ "+text+" ║")
}

func centered(t output.Type, text string) output.Line { return row(t, text, lipgloss.Center) }

func left(t output.Type, text string) output.Line { return row(t, text, lipgloss.Left) }

var logo = []string{
	" ████████╗███████╗ ██████╗███╗   ██╗ ██████╗ ████████╗███████╗██████╗      ██╗ ██████╗ ",
	" ╚══██╔══╝██╔════╝██╔════╝████╗  ██║██╔═══██╗╚══██╔══╝██╔════╝██╔══██╗     ╚═╝██╔═══██╗",
	"    ██║   █████╗  ██║     ██╔██╗ ██║██║   ██║   ██║   █████╗  ██████╔╝     ██╗██║   ██║ ",
	"    ██║   ██╔══╝  ██║     ██║╚██╗██║██║   ██║   ██║   ██╔══╝  ██╔══██╗     ██║██║   ██║ ",
	"    ██║   ███████╗╚██████╗██║ ╚████║╚██████╔╝   ██║   ███████╗██║  ██║  ██╗██║╚██████╔╝",
	"    ╚═╝   ╚══════╝ ╚═════╝╚═╝  ╚═══╝ ╚═════╝    ╚═╝   ╚══════╝╚═╝  ╚═╝  ╚═╝╚═╝ ╚═════╝ ",
}

type menuCell struct {
	label  string
	action string
}

// MainMenu renders the main menu: fixed module rows around the pages,
// numbered from 1 and laid out two per row.
func MainMenu(st state.SessionState) []output.Line {
	out := []output.Line{border(borderTop)}
	for _, l := range logo {
		out = append(out, centered(output.BBSTitle, l))
	}
	out = append(out,
		centered(output.BBSHeader, "--- tecnoter.io Bulletin Board System ---"),
		border(borderMid),
		centered(output.BBSHeader, " AVAILABLE MODULES "),
		border(borderSep),
	)

	rows := [][2]menuCell{{{"[R]ead Posts", "bbs-row-r"}, {"[C]ategories", "bbs-row-c"}}}
	for i := 0; i < len(st.Pages); i += 2 {
		var pair [2]menuCell
		for j := 0; j < 2 && i+j < len(st.Pages); j++ {
			p := st.Pages[i+j]
			pair[j] = menuCell{fmt.Sprintf("[%d] %s", i+j+1, p.Title), "bbs-page-" + p.Slug}
		}
		rows = append(rows, pair)
	}
	rows = append(rows, [2]menuCell{{"[S]ystem Stats", "bbs-row-s"}, {"[Q]uit Shell", "bbs-row-q"}})

	for _, r := range rows {
		var text string
		if r[1].label != "" {
			text = fmt.Sprintf("%-34s │ %-34s", r[0].label, r[1].label)
		} else {
			text = fmt.Sprintf("%-34s │", r[0].label)
		}
		out = append(out, left(output.MultiRow(r[0].action, r[1].action), text))
	}

	return append(out,
		border(borderMid),
		centered(output.BBSFooter, "COMMANDS: [R]ead, [C]ategories, [Q]uit, [1-N] Pages"),
		border(borderBottom),
	)
}

// channelTitle names the post area selected by cwd.
func channelTitle(cwd string) string {
	if cat, ok := vfs.CategoryOf(cwd); ok {
		return fmt.Sprintf(" CHANNEL: CATEGORY - %s ", strings.ToUpper(cat))
	}
	if tag, ok := vfs.TagOf(cwd); ok {
		return fmt.Sprintf(" CHANNEL: TAG - %s ", strings.ToUpper(tag))
	}
	return " CHANNEL 1: ALL POSTS "
}

func shortTitle(title string) string {
	r := []rune(title)
	if len(r) > 18 {
		return string(r[:15]) + "..."
	}
	return title
}

func postCell(id int, p state.Post) string {
	return fmt.Sprintf("%2d %-8s %-18s", id, p.Date, shortTitle(p.Title))
}

// PostList renders the posts visible from cwd in two columns. IDs run down
// the first column, then the second.
func PostList(st state.SessionState) []output.Line {
	out := []output.Line{
		border(borderTop),
		centered(output.BBSTitle, channelTitle(st.Cwd)),
		border(borderMid),
	}

	posts := vfs.FilterPosts(st.Posts, st.Cwd)
	if len(posts) == 0 {
		out = append(out, centered(output.Regular, "No posts found in this area."))
	} else {
		half := (len(posts) + 1) / 2
		for i := 0; i < half; i++ {
			text := postCell(i+1, posts[i])
			if j := i + half; j < len(posts) {
				text += "  │  " + postCell(j+1, posts[j])
			}
			out = append(out, left(output.PostsRow(i), text))
		}
	}

	return append(out,
		border(borderMid),
		centered(output.BBSFooter, "COMMANDS: [M]ain Menu, [Q]uit, [C]ategories, [ID] to Read"),
		border(borderBottom),
	)
}

// CategoryList renders the message areas: the sorted categories of all
// posts, numbered from 1.
func CategoryList(st state.SessionState) []output.Line {
	out := []output.Line{
		border(borderTop),
		centered(output.BBSTitle, " CHANNEL 3: MESSAGE AREAS (CATEGORIES) "),
		border(borderMid),
	}

	cats := vfs.Categories(st.Posts)
	if len(cats) == 0 {
		out = append(out, centered(output.Regular, "No categories found."))
	}
	for i, c := range cats {
		out = append(out, left(output.CategoryRow(i), fmt.Sprintf("[%2d] %s", i+1, c)))
	}

	return append(out,
		border(borderMid),
		centered(output.BBSFooter, "COMMANDS: [M]ain Menu, [Q]uit, [ID] to Join Area"),
		border(borderBottom),
	)
}

func pauseScreen(title string, body []output.Line) []output.Line {
	out := []output.Line{
		border(borderTop),
		centered(output.BBSTitle, title),
		border(borderMid),
	}
	out = append(out, body...)
	return append(out,
		border(borderMid),
		centered(output.BBSFooter, "Press any key to return..."),
		border(borderBottom),
	)
}

// SystemStats renders node statistics.
func SystemStats(st state.SessionState) []output.Line {
	info := st.SystemInfo
	return pauseScreen(" CHANNEL 4: SYSTEM STATISTICS ", []output.Line{
		left(output.Regular, "Node Name: "+info.NodeName),
		left(output.Regular, fmt.Sprintf("Software: TT-BBS v%s (Go-Core)", st.Version)),
		left(output.Regular, "System Uptime: "+info.Uptime),
		left(output.Regular, "Total Calls: 84,291"),
		left(output.Regular, "Total Users: 1,024"),
		left(output.Regular, "Active Nodes: 4"),
		left(output.Regular, "Current Load: "+info.LoadAverage),
	})
}

// UserList renders the online users screen.
func UserList() []output.Line {
	return pauseScreen(" CHANNEL 5: CURRENTLY ONLINE USERS ", []output.Line{
		left(output.BBSHeader, " NODE │ USERNAME     │ LOCATION       │ ACTION"),
		border(borderSep),
		left(output.Regular, "  01  │ guest        │ Local          │ Reading Bulletins"),
		left(output.Regular, "  02  │ sysop        │ Remote         │ Maintenance"),
		left(output.Regular, "  03  │ wizard       │ Unknown        │ matrix"),
		left(output.Regular, "  04  │ cyber_pioneer│ Seattle, WA    │ Composing Mail"),
	})
}

// Bulletins renders the system bulletins.
func Bulletins() []output.Line {
	return pauseScreen(" CHANNEL 2: SYSTEM BULLETINS ", []output.Line{
		left(output.Regular, " 1. 2026-01-01: Welcome to the New Year on tecnoter.io!"),
		left(output.Regular, " 2. 2026-01-02: System memory upgraded to 128GB."),
		left(output.Regular, " 3. 2026-01-03: New ANSI art collection added."),
		left(output.Regular, " 4. 2026-01-03: Mail routing issues resolved."),
	})
}

// Help renders the BBS command reference.
func Help() []output.Line {
	return []output.Line{
		border(borderTop),
		centered(output.BBSHeader, "--- BBS COMMAND LIST ---"),
		border(borderSep),
		left(output.Regular, "1-99 : Select a post by its ID"),
		left(output.Regular, "B    : Show system bulletins"),
		left(output.Regular, "M    : Refresh/Show the main post menu"),
		left(output.Regular, "Q    : Exit BBS and return to system prompt"),
		left(output.Regular, "H / ? : Show this help message"),
		centered(output.BBSFooter, "--- System commands work here too! ---"),
		border(borderBottom),
	}
}
