package complete

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/tecnoter/ttsh/internal/state"
)

func testState(cwd string) state.SessionState {
	st := state.Default()
	st.Cwd = cwd
	st.Posts = []state.Post{
		{Slug: "hello-world", Tags: []string{"go"}, Categories: []string{"dev"}},
		{Slug: "hugo-tips", Tags: []string{"hugo", "go"}, Categories: []string{"web"}},
	}
	st.Pages = []state.Post{{Slug: "bio"}, {Slug: "contact"}}
	return st
}

func TestCompleteCommands(t *testing.T) {
	testCases := []struct {
		input string
		want  []string
	}{
		{"l", []string{"ls"}},
		{"L", []string{"ls"}},
		{"m", []string{"mail", "msg", "message", "matrix", "man", "motd"}},
		{"c", []string{"cowsay", "cat", "clear", "curl", "cd"}},
		{"zz", nil},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got := Complete(testState("/"), tc.input)
			if diff := cmp.Diff(tc.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Complete(%q) mismatch (-want +got):\n%s", tc.input, diff)
			}
		})
	}
}

func TestCompletePrefixStability(t *testing.T) {
	st := testState("/")
	for _, cmd := range Commands {
		for i := 1; i <= len(cmd); i++ {
			if got := Complete(st, cmd[:i]); !slices.Contains(got, cmd) {
				t.Errorf("Complete(%q) = %v, missing %q", cmd[:i], got, cmd)
			}
		}
	}
}

func TestCompletePaths(t *testing.T) {
	testCases := []struct {
		name  string
		cwd   string
		input string
		want  []string
	}{
		{"root entries", "/", "ls ", []string{"posts", "pages", "tags", "categories"}},
		{"root prefix", "/", "cd p", []string{"posts", "pages"}},
		{"posts slugs", "/posts", "cat h", []string{"hello-world", "hugo-tips"}},
		{"dir fragment kept", "/", "cat posts/he", []string{"posts/hello-world"}},
		{"absolute fragment", "/tags", "cat /pages/", []string{"/pages/bio", "/pages/contact"}},
		{"tags sorted unique", "/", "cd tags/", []string{"tags/go", "tags/hugo"}},
		{"categories", "/categories", "cd ", []string{"dev", "web"}},
		{"tag members", "/", "cat tags/hugo/", []string{"tags/hugo/hugo-tips"}},
		{"unknown dir", "/", "ls nowhere/", nil},
		{"non path command", "/", "man l", nil},
		{"empty input", "/", "", nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Complete(testState(tc.cwd), tc.input)
			if diff := cmp.Diff(tc.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Complete(%q) mismatch (-want +got):\n%s", tc.input, diff)
			}
		})
	}
}

func TestSuggest(t *testing.T) {
	testCases := []struct {
		name string
		cwd  string
		text string
		want string
	}{
		{"empty", "/", "", ""},
		{"first command wins", "/", "m", "mail"},
		{"exact command is not extended", "/", "ls", ""},
		{"cat dir entry", "/", "cat po", "cat posts"},
		{"ls trailing space", "/", "ls ", "ls posts"},
		{"falls back to post slug", "/", "cat hu", "cat hugo-tips"},
		{"too many args", "/", "cat a b", ""},
		{"other command", "/", "man x", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Suggest(testState(tc.cwd), tc.text); got != tc.want {
				t.Errorf("Suggest(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}

func TestCompleteListsMatchLs(t *testing.T) {
	st := testState("/")
	st.Pages[0].Tags = []string{"about"}
	st.Pages[0].Categories = []string{"meta"}

	testCases := []struct {
		input string
		want  []string
	}{
		{"cd tags/", []string{"tags/about", "tags/go", "tags/hugo"}},
		{"cd categories/m", []string{"categories/meta"}},
		{"cat tags/about/", []string{"tags/about/bio"}},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, Complete(st, tc.input)); diff != "" {
				t.Errorf("Complete(%q) mismatch (-want +got):\n%s", tc.input, diff)
			}
		})
	}
}
