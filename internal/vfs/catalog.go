package vfs

import "strings"

// Top-level directory names, in listing order.
const (
	DirPosts      = "posts"
	DirPages      = "pages"
	DirTags       = "tags"
	DirCategories = "categories"
)

const (
	tagsPrefix       = "/tags/"
	categoriesPrefix = "/categories/"
)

// ListDirectory returns the static entries of path and whether path is a
// directory at all. Every directory below the root lists empty here; its
// members come from the content feed (see Members).
func ListDirectory(path string) ([]string, bool) {
	switch path {
	case "/":
		return []string{DirPosts, DirPages, DirTags, DirCategories}, true
	case "/" + DirPosts, "/" + DirPages, "/" + DirTags, "/" + DirCategories:
		return []string{}, true
	}
	if _, ok := TagOf(path); ok {
		return []string{}, true
	}
	if _, ok := CategoryOf(path); ok {
		return []string{}, true
	}
	return nil, false
}

// IsDir reports whether path names a virtual directory.
func IsDir(path string) bool {
	_, ok := ListDirectory(path)
	return ok
}

// TagOf returns the tag named by a /tags/<x> path.
func TagOf(path string) (string, bool) {
	return member(path, tagsPrefix)
}

// CategoryOf returns the category named by a /categories/<x> path.
func CategoryOf(path string) (string, bool) {
	return member(path, categoriesPrefix)
}

// member is the single non-empty segment following prefix.
func member(path, prefix string) (string, bool) {
	x, ok := strings.CutPrefix(path, prefix)
	if !ok || x == "" || strings.Contains(x, "/") {
		return "", false
	}
	return x, true
}

// CategoryPath is the directory of one category.
func CategoryPath(category string) string { return categoriesPrefix + category }
