// Package buildinfo holds build-time metadata kept apart from user configuration.
package buildinfo

import "fmt"

// UnknownValue is reported for metadata the build did not set.
const UnknownValue = "unknown"

// Context contains build-time metadata injected at startup through ldflags.
type Context struct {
	version   string
	buildDate string
}

// NewContext creates a build context.
func NewContext(version, buildDate string) *Context {
	return &Context{version: version, buildDate: buildDate}
}

// Version returns the Git version tag from the build.
func (c *Context) Version() string {
	if c == nil || c.version == "" {
		return UnknownValue
	}
	return c.version
}

// BuildDate returns the time the binary was built.
func (c *Context) BuildDate() string {
	if c == nil || c.buildDate == "" {
		return UnknownValue
	}
	return c.buildDate
}

// Release is the release name reported to Sentry.
func (c *Context) Release() string {
	return "exodash@" + c.Version()
}

// UserAgent is sent with archive downloads when the configuration sets none.
func (c *Context) UserAgent() string {
	return "exodash/" + c.Version()
}

// String implements fmt.Stringer.
func (c *Context) String() string {
	return fmt.Sprintf("exodash %s (built %s)", c.Version(), c.BuildDate())
}
