package ffmpeg

import (
	"fmt"
	"strconv"
	"strings"
)

// ScaleFilter builds the scale-and-pad filter that letterboxes any source
// into the target canvas without distortion.
func ScaleFilter(width, height int) string {
	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1",
		width, height, width, height,
	)
}

// TrimScaleArgs cuts `duration` seconds from `source` starting at `start`,
// scaled to the canvas at the target frame rate, video only. With loop set
// the input repeats, for windows longer than the source clip.
func TrimScaleArgs(source string, start, duration float64, loop bool, width, height, fps int, preset, dest string) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
	}
	if loop {
		args = append(args, "-stream_loop", "-1")
	}
	args = append(args,
		"-ss", formatSeconds(start),
		"-i", source,
		"-t", formatSeconds(duration),
		"-vf", ScaleFilter(width, height),
		"-r", strconv.Itoa(fps),
		"-an",
		"-c:v", "libx264",
		"-preset", preset,
		dest,
	)
	return args
}

// ConcatArgs joins the files listed in listPath (concat demuxer format) into
// a single silent composite capped at totalDuration.
func ConcatArgs(listPath string, totalDuration float64, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-t", formatSeconds(totalDuration),
		"-c", "copy",
		dest,
	}
}

// MuxArgs lays the audio track onto the silent composite.
func MuxArgs(video, audio string, totalDuration float64, audioBitrate, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", video,
		"-i", audio,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", audioBitrate,
		"-t", formatSeconds(totalDuration),
		dest,
	}
}

// BurnArgs burns the subtitle file into the video using the resolved style.
func BurnArgs(video, subtitlePath string, style BurnStyle, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", video,
		"-vf", subtitleFilter(subtitlePath, style),
		"-c:a", "copy",
		dest,
	}
}

// BurnStyle holds the force_style parameters for subtitle burn-in.
type BurnStyle struct {
	Width        int
	Height       int
	FontName     string
	FontSize     int
	FontColor    string
	OutlineColor string
}

func subtitleFilter(subtitlePath string, style BurnStyle) string {
	// The subtitles filter needs forward slashes and escaped colons in paths.
	escaped := strings.ReplaceAll(subtitlePath, "\\", "/")
	escaped = strings.ReplaceAll(escaped, ":", "\\:")

	return fmt.Sprintf(
		"subtitles='%s':original_size=%dx%d:force_style='FontName=%s,FontSize=%d,PrimaryColour=%s,OutlineColour=%s,Outline=0,Shadow=0,Alignment=10,WrapStyle=2'",
		escaped, style.Width, style.Height,
		style.FontName, style.FontSize, style.FontColor, style.OutlineColor,
	)
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}
