package terminalio

// Window is a terminal size in character cells.
type Window struct {
	Width  int
	Height int
}

// DefaultWindow is assumed until a client reports its size.
var DefaultWindow = Window{Width: 80, Height: 24}
