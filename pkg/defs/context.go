package defs

// Context carries the caller-supplied attributes flags are evaluated
// against. The well-known fields map to the standard context names
// (userId, sessionId, remoteAddress, environment, appName,
// currentTime); everything else goes into Properties.
type Context struct {
	UserID        string            `json:"userId,omitempty"`
	SessionID     string            `json:"sessionId,omitempty"`
	RemoteAddress string            `json:"remoteAddress,omitempty"`
	Environment   string            `json:"environment,omitempty"`
	AppName       string            `json:"appName,omitempty"`
	CurrentTime   string            `json:"currentTime,omitempty"`
	Properties    map[string]string `json:"properties,omitempty"`
}

// Field resolves a context name to its value. Well-known names are
// checked first, then Properties. The second return reports whether
// the field was present at all, so constraints can distinguish an
// empty value from a missing one.
func (c Context) Field(name string) (string, bool) {
	switch name {
	case "userId":
		return c.UserID, c.UserID != ""
	case "sessionId":
		return c.SessionID, c.SessionID != ""
	case "remoteAddress":
		return c.RemoteAddress, c.RemoteAddress != ""
	case "environment":
		return c.Environment, c.Environment != ""
	case "appName":
		return c.AppName, c.AppName != ""
	case "currentTime":
		return c.CurrentTime, c.CurrentTime != ""
	}
	v, ok := c.Properties[name]
	return v, ok
}
