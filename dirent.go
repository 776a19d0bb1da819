package simplefs

import (
	"fmt"
	"strconv"
	"strings"
)

// decodeDir interprets a directory's raw file payload (UTF-8 text, one
// "<inum>:<name>\n" line per entry, terminated by a single NUL) into a
// name -> inumber mapping. Duplicate names: last occurrence wins. The
// terminal NUL and any empty lines are ignored.
func decodeDir(payload []byte) map[string]uint32 {
	text := string(payload)
	if i := strings.IndexByte(text, 0); i >= 0 {
		text = text[:i]
	}

	entries := make(map[string]uint32)
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		inumText, name, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		inum, err := strconv.ParseUint(inumText, 10, 32)
		if err != nil {
			continue
		}
		entries[name] = uint32(inum)
	}
	return entries
}

// encodeDir serializes a name -> inumber mapping into its on-disk payload:
// one "<inum>:<name>\n" line per entry, in unspecified order, followed by
// a single NUL terminator.
func encodeDir(entries map[string]uint32) []byte {
	var b strings.Builder
	for name, inum := range entries {
		fmt.Fprintf(&b, "%d:%s\n", inum, name)
	}
	b.WriteByte(0)
	return []byte(b.String())
}

// splitPath parses an absolute path into its logical components. Empty
// components (from "//" or a trailing "/") are dropped. It fails with
// InvalidArgumentError if the path does not begin with the root
// separator.
func splitPath(path string) ([]string, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, &InvalidArgumentError{Message: "path must be absolute: " + path}
	}
	var parts []string
	for _, c := range strings.Split(path, "/") {
		if c != "" {
			parts = append(parts, c)
		}
	}
	return parts, nil
}

// validName reports whether name is usable as a directory entry: it must
// contain none of '/', ':', '\n', or '\0'.
func validName(name string) bool {
	return !strings.ContainsAny(name, "/:\n\x00")
}
