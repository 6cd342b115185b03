// Package vfs is the node's virtual directory tree: a flat two-level
// hierarchy of synthetic directories whose members are derived from the
// session's content feed.
package vfs

import "strings"

// Resolve normalizes input against cwd. There is no true parent tracking:
// ".." always goes to the root.
func Resolve(cwd, input string) string {
	if strings.HasPrefix(input, "/") {
		return input
	}
	if input == ".." {
		return "/"
	}
	if input == "." || input == "" {
		return cwd
	}

	var p string
	if cwd == "/" {
		p = "/" + input
	} else {
		p = cwd + "/" + input
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = p[:len(p)-1]
	}
	return p
}

// Base returns the last path segment of p.
func Base(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}
