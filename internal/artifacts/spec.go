package artifacts

import (
	"fmt"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// Spec is one post-build copy entry
type Spec struct {
	Src string // Glob pattern, absolute or relative to the workspace root
	Dst string // Destination, absolute or relative to the executable directory; empty means the executable directory
}

// ParseSpec parses a copy specification string into a Spec.
//
// Formats:
//   - "assets/**"            -> Spec{Src: "assets/**"}
//   - "config/app.yaml:conf" -> Spec{Src: "config/app.yaml", Dst: "conf"}
//   - "C:\data\*.json:data"  -> Spec{Src: `C:\data\*.json`, Dst: "data"}
//
// A single letter followed by a colon at the start of either part is a
// Windows drive, not a separator.
func ParseSpec(spec string) (Spec, error) {
	if strings.TrimSpace(spec) == "" {
		return Spec{}, fmt.Errorf("copy specification cannot be empty")
	}

	src, dst := splitSpec(spec)
	if src == "" {
		return Spec{}, fmt.Errorf("copy specification %q has no source", spec)
	}

	var err error
	if src, err = homedir.Expand(src); err != nil {
		return Spec{}, fmt.Errorf("invalid source path: %w", err)
	}
	if dst != "" {
		if dst, err = homedir.Expand(dst); err != nil {
			return Spec{}, fmt.Errorf("invalid destination path: %w", err)
		}
	}
	return Spec{Src: src, Dst: dst}, nil
}

func splitSpec(spec string) (src, dst string) {
	start := 0
	if hasDrive(spec) {
		start = 2
	}
	idx := strings.Index(spec[start:], ":")
	if idx < 0 {
		return spec, ""
	}
	idx += start
	return spec[:idx], spec[idx+1:]
}

func hasDrive(s string) bool {
	if len(s) < 2 || s[1] != ':' {
		return false
	}
	c := s[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
