package compiler

import (
	"fmt"
	"strings"
)

// forbiddenFilterSubstrings are the shell-injection and argv-injection
// vectors a custom filter string is never allowed to contain. FFmpeg argv
// is always built as a positional list, never interpolated into a shell
// string, but the filter text itself still reaches ffmpeg's own argument
// parser and must not be able to smuggle extra flags or file paths.
var forbiddenFilterSubstrings = []string{
	";", "`", "$(", "&&", "||", "\n", "-i ", " -f ",
}

// SanitizeCustomFilter rejects a custom filter string containing a shell
// metacharacter, an additional input/format flag, or a newline. Returns
// nil if the filter string is safe to pass to ffmpeg.
func SanitizeCustomFilter(filter string) error {
	if strings.TrimSpace(filter) == "" {
		return fmt.Errorf("custom filter string must not be empty")
	}
	for _, bad := range forbiddenFilterSubstrings {
		if strings.Contains(filter, bad) {
			return fmt.Errorf("custom filter string contains forbidden sequence %q", bad)
		}
	}
	return nil
}
