package ir

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Version is the IR encoding version. Bump the major version whenever the
// canonical encoding changes shape.
const Version = "1.0.0"

// Compatible reports whether IR encoded at version v can be read by this
// build: same major version, not newer than Version.
func Compatible(v string) (bool, error) {
	got, err := semver.NewVersion(v)
	if err != nil {
		return false, fmt.Errorf("parse IR version %q: %w", v, err)
	}
	cur := semver.MustParse(Version)
	c, err := semver.NewConstraint(fmt.Sprintf(">= %d.0.0, <= %s", cur.Major(), cur.String()))
	if err != nil {
		return false, err
	}
	return c.Check(got), nil
}
