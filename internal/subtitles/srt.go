package subtitles

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"clipbeat/internal/services"
)

// ParseSRT reads an SRT file into a validated cue sequence.
func ParseSRT(path string) ([]Cue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	cues, err := parseSRTContent(string(data))
	if err != nil {
		return nil, err
	}
	if err := Validate(cues); err != nil {
		return nil, err
	}
	return cues, nil
}

// WriteSRT serializes the cues to path in SRT format with 1-based indices.
func WriteSRT(path string, cues []Cue) error {
	if err := os.WriteFile(path, []byte(FormatSRT(cues)), 0o644); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}

// FormatSRT renders the cue sequence as SRT text.
func FormatSRT(cues []Cue) string {
	var builder strings.Builder
	for i, cue := range cues {
		fmt.Fprintf(&builder, "%d\n%s --> %s\n%s\n\n",
			i+1, formatTimestamp(cue.Start), formatTimestamp(cue.End), cue.Text)
	}
	return builder.String()
}

func parseSRTContent(content string) ([]Cue, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	blocks := strings.Split(strings.TrimSpace(content), "\n\n")

	var cues []Cue
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		if len(lines) < 2 {
			return nil, services.Wrap(services.ErrMalformedSubtitle, "subtitle", "parse",
				fmt.Sprintf("truncated cue block %q", block), nil)
		}

		// The index line is optional in practice; the timing line is not.
		timingLine := lines[0]
		textStart := 1
		if !strings.Contains(timingLine, "-->") {
			if len(lines) < 3 || !strings.Contains(lines[1], "-->") {
				return nil, services.Wrap(services.ErrMalformedSubtitle, "subtitle", "parse",
					fmt.Sprintf("missing timing line in block %q", block), nil)
			}
			timingLine = lines[1]
			textStart = 2
		}

		start, end, err := parseTimingLine(timingLine)
		if err != nil {
			return nil, services.Wrap(services.ErrMalformedSubtitle, "subtitle", "parse", "bad timing line", err)
		}

		text := strings.TrimSpace(strings.Join(lines[textStart:], "\n"))
		cues = append(cues, NewCue(start, end, text))
	}
	return cues, nil
}

func parseTimingLine(line string) (float64, float64, error) {
	parts := strings.Split(line, "-->")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid timing line %q", line)
	}
	start, err := parseTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	end, err := parseTimestamp(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func parseTimestamp(value string) (float64, error) {
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	// Some writers use a period for milliseconds; SRT proper uses a comma.
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}

func formatTimestamp(seconds float64) string {
	millis := int(math.Round(seconds * 1000))
	hours := millis / 3600000
	millis -= hours * 3600000
	minutes := millis / 60000
	millis -= minutes * 60000
	secs := millis / 1000
	millis -= secs * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}
