package vfs

import (
	"slices"

	"github.com/tecnoter/ttsh/internal/state"
)

// Members lists the entries of directory path for the session: the static
// catalog when it is non-empty, otherwise entries derived from posts and
// pages. The second result is false when path is not a directory.
func Members(st state.SessionState, path string) ([]string, bool) {
	entries, ok := ListDirectory(path)
	if !ok {
		return nil, false
	}
	if len(entries) > 0 {
		return entries, true
	}

	switch path {
	case "/" + DirPosts:
		return slugs(st.Posts), true
	case "/" + DirPages:
		return slugs(st.Pages), true
	case "/" + DirTags:
		return Tags(st.Posts, st.Pages), true
	case "/" + DirCategories:
		return Categories(st.Posts, st.Pages), true
	}
	if tag, ok := TagOf(path); ok {
		return append(slugs(filter(st.Posts, state.Post.HasTag, tag)), slugs(filter(st.Pages, state.Post.HasTag, tag))...), true
	}
	if cat, ok := CategoryOf(path); ok {
		return append(slugs(filter(st.Posts, state.Post.HasCategory, cat)), slugs(filter(st.Pages, state.Post.HasCategory, cat))...), true
	}
	return []string{}, true
}

// Categories returns the sorted, de-duplicated categories of every item.
func Categories(groups ...[]state.Post) []string {
	return union(func(p state.Post) []string { return p.Categories }, groups...)
}

// Tags returns the sorted, de-duplicated tags of every item.
func Tags(groups ...[]state.Post) []string {
	return union(func(p state.Post) []string { return p.Tags }, groups...)
}

// FilterPosts returns the posts visible from cwd: those in the category or
// tag the path names, or all posts elsewhere.
func FilterPosts(posts []state.Post, cwd string) []state.Post {
	if cat, ok := CategoryOf(cwd); ok {
		return filter(posts, state.Post.HasCategory, cat)
	}
	if tag, ok := TagOf(cwd); ok {
		return filter(posts, state.Post.HasTag, tag)
	}
	return posts
}

// FindBySlug returns the first page, then post, whose slug is one of keys.
func FindBySlug(st state.SessionState, keys ...string) (state.Post, bool) {
	for _, group := range [][]state.Post{st.Pages, st.Posts} {
		for _, p := range group {
			if slices.Contains(keys, p.Slug) {
				return p, true
			}
		}
	}
	return state.Post{}, false
}

func union(field func(state.Post) []string, groups ...[]state.Post) []string {
	var all []string
	for _, group := range groups {
		for _, p := range group {
			all = append(all, field(p)...)
		}
	}
	slices.Sort(all)
	return slices.Compact(all)
}

func filter(posts []state.Post, has func(state.Post, string) bool, value string) []state.Post {
	var out []state.Post
	for _, p := range posts {
		if has(p, value) {
			out = append(out, p)
		}
	}
	return out
}

func slugs(posts []state.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Slug)
	}
	return out
}
