package ffmpeg

import (
	"fmt"
	"os"
	"strings"
)

// WriteConcatList writes a concat-demuxer list file for the given inputs.
// Single quotes inside paths are escaped per the demuxer's quoting rules.
func WriteConcatList(path string, inputs []string) error {
	var builder strings.Builder
	for _, input := range inputs {
		escaped := strings.ReplaceAll(input, "'", `'\''`)
		fmt.Fprintf(&builder, "file '%s'\n", escaped)
	}
	if err := os.WriteFile(path, []byte(builder.String()), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	return nil
}
