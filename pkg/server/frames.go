package server

// Frame types.
const (
	frameNavigate = "navigate"
	framePopstate = "popstate"
	framePing     = "ping"

	framePush    = "push"
	frameReplace = "replace"
	frameAssign  = "assign"
	frameRender  = "render"
	frameLoading = "loading"
	frameError   = "error"
)

// clientFrame is a frame sent by the browser.
type clientFrame struct {
	Type    string            `json:"type"`
	To      string            `json:"to,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
	Query   map[string]string `json:"query,omitempty"`
	Replace bool              `json:"replace,omitempty"`
	URL     string            `json:"url,omitempty"`
}

// serverFrame is a frame sent to the browser.
type serverFrame struct {
	Type    string `json:"type"`
	URL     string `json:"url,omitempty"`
	HTML    string `json:"html,omitempty"`
	Pending *bool  `json:"pending,omitempty"`
	Message string `json:"message,omitempty"`
}
