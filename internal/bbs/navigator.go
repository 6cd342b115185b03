package bbs

import (
	"strconv"
	"strings"

	"github.com/tecnoter/ttsh/internal/output"
	"github.com/tecnoter/ttsh/internal/state"
	"github.com/tecnoter/ttsh/internal/vfs"
)

// Reader displays a content item by slug and returns the text to print.
type Reader func(st state.SessionState, slug string) string

// Navigator routes input while a session is on a BBS screen.
type Navigator struct {
	Read Reader
}

// Hotkeys are the single letters Handle acts on. A host may submit them
// on the keypress instead of waiting for Enter.
const Hotkeys = "qmrlcsubh?"

// Handle interprets input in a BBS mode. Numeric selections come first;
// out-of-range numbers and unknown letters are not handled, so the caller
// can try its command table.
func (n Navigator) Handle(st state.SessionState, input string) ([]output.Line, state.SessionState, bool) {
	fields := strings.Fields(input)
	if len(fields) == 0 || !st.LoginState.IsBBS() {
		return nil, st, false
	}
	cmd := strings.ToLower(fields[0])

	if num, err := strconv.Atoi(cmd); err == nil && num > 0 {
		if lines, next, ok := n.selectItem(st, num); ok {
			return lines, next, true
		}
	}

	switch cmd {
	case "q":
		return output.Lines("Returned to system shell."), st.Enter(state.ModePrompt), true
	case "m":
		return MainMenu(st), st.Enter(state.ModeBBSMain), true
	case "r", "l":
		return PostList(st), st.Enter(state.ModeBBSPosts), true
	case "c":
		return CategoryList(st), st.Enter(state.ModeBBSCategories), true
	case "s":
		return SystemStats(st), st.Pause(state.ModeBBSMain), true
	case "u":
		return UserList(), st.Pause(state.ModeBBSMain), true
	case "b":
		return Bulletins(), st.Pause(state.ModeBBSMain), true
	case "h", "?", "help":
		return Help(), st, true
	}
	return nil, st, false
}

// selectItem handles a 1-based numeric choice on the current screen.
func (n Navigator) selectItem(st state.SessionState, num int) ([]output.Line, state.SessionState, bool) {
	switch st.LoginState {
	case state.ModeBBSMain:
		if num <= len(st.Pages) {
			return n.read(st, st.Pages[num-1].Slug), st.Pause(state.ModeBBSMain), true
		}
	case state.ModeBBSPosts:
		posts := vfs.FilterPosts(st.Posts, st.Cwd)
		if num <= len(posts) {
			return n.read(st, posts[num-1].Slug), st.Pause(state.ModeBBSMain), true
		}
	case state.ModeBBSCategories:
		cats := vfs.Categories(st.Posts)
		if num <= len(cats) {
			st.Cwd = vfs.CategoryPath(cats[num-1])
			st = st.Enter(state.ModeBBSPosts)
			return PostList(st), st, true
		}
	}
	return nil, st, false
}

func (n Navigator) read(st state.SessionState, slug string) []output.Line {
	if n.Read == nil {
		return nil
	}
	return output.Lines(n.Read(st, slug))
}

// Enter opens the BBS from the shell. sub selects a screen directly: r or l
// for posts, c for categories, s for stats and u for users. Anything else
// opens the main menu.
func Enter(st state.SessionState, sub string) ([]output.Line, state.SessionState) {
	switch strings.ToLower(sub) {
	case "r", "l":
		return PostList(st), st.Enter(state.ModeBBSPosts)
	case "c":
		return CategoryList(st), st.Enter(state.ModeBBSCategories)
	case "s":
		return SystemStats(st), st.Pause(state.ModeBBSMain)
	case "u":
		return UserList(), st.Pause(state.ModeBBSMain)
	}
	return MainMenu(st), st.Enter(state.ModeBBSMain)
}

// Screen re-renders the screen a session resumes to after a pause. Modes
// without a screen render nothing.
func Screen(st state.SessionState) []output.Line {
	switch st.LoginState {
	case state.ModeBBSMain:
		return MainMenu(st)
	case state.ModeBBSPosts:
		return PostList(st)
	}
	return nil
}
