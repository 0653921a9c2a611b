package standardize

import (
	_ "embed"
	"strings"
)

//go:embed canon/universities.txt
var universitiesRaw string

//go:embed canon/programs.txt
var programsRaw string

var (
	canonicalUniversities = splitLines(universitiesRaw)
	canonicalPrograms     = splitLines(programsRaw)
)

func splitLines(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
