package stacktrace

import "strings"

// InternalPaths reduces a raw goroutine dump to the repo-relative
// "internal/...go:line" frames, which is all a panic log needs.
func InternalPaths(stack []byte) []string {
	var paths []string
	for _, line := range strings.Split(string(stack), "\n") {
		line = strings.TrimSpace(line)
		idx := strings.Index(line, ".go:")
		if idx == -1 {
			continue
		}
		end := strings.Index(line[idx:], " ")
		if end == -1 {
			end = len(line)
		} else {
			end += idx
		}
		frame := line[:end]
		if rel := strings.Index(frame, "/internal/"); rel != -1 {
			paths = append(paths, frame[rel+1:])
		}
	}
	return paths
}
