package ffmpeg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTrimScaleArgsContainsFilterAndWindow(t *testing.T) {
	args := TrimScaleArgs("/media/clip.mp4", 1.5, 2.25, false, 1080, 1920, 30, "fast", "/tmp/seg0.mp4")

	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "scale=1080:1920:force_original_aspect_ratio=decrease,pad=1080:1920:(ow-iw)/2:(oh-ih)/2,setsar=1") {
		t.Fatalf("missing scale/pad filter in %q", joined)
	}
	if !strings.Contains(joined, "-ss 1.500") || !strings.Contains(joined, "-t 2.250") {
		t.Fatalf("missing trim window in %q", joined)
	}
	if !strings.Contains(joined, "-an") {
		t.Fatalf("segment encode should drop audio: %q", joined)
	}
	if args[len(args)-1] != "/tmp/seg0.mp4" {
		t.Fatalf("destination must be final arg, got %q", args[len(args)-1])
	}
	if strings.Contains(joined, "-stream_loop") {
		t.Fatalf("loop flag set without loop: %q", joined)
	}

	looped := TrimScaleArgs("/media/clip.mp4", 0, 8, true, 1080, 1920, 30, "fast", "/tmp/seg1.mp4")
	if !strings.Contains(strings.Join(looped, " "), "-stream_loop -1") {
		t.Fatalf("missing stream_loop for looped window: %v", looped)
	}
}

func TestConcatArgsUsesDemuxer(t *testing.T) {
	args := ConcatArgs("/tmp/list.txt", 30.5, "/tmp/out.mp4")
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-f concat -safe 0 -i /tmp/list.txt") {
		t.Fatalf("missing concat demuxer invocation: %q", joined)
	}
	if !strings.Contains(joined, "-t 30.500") {
		t.Fatalf("missing duration cap: %q", joined)
	}
}

func TestMuxArgsMapsStreams(t *testing.T) {
	args := MuxArgs("/tmp/video.mp4", "/media/track.mp3", 42, "192k", "/tmp/muxed.mp4")
	joined := strings.Join(args, " ")
	for _, want := range []string{"-map 0:v:0", "-map 1:a:0", "-c:a aac", "-b:a 192k", "-t 42.000"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing %q in %q", want, joined)
		}
	}
}

func TestSubtitleFilterEscapesPath(t *testing.T) {
	style := BurnStyle{
		Width:        1080,
		Height:       1920,
		FontName:     "Arial",
		FontSize:     18,
		FontColor:    "&H00FFFFFF",
		OutlineColor: "&H00000000",
	}
	filter := subtitleFilter(`C:\work\subs.srt`, style)

	if !strings.Contains(filter, `subtitles='C\:/work/subs.srt'`) {
		t.Fatalf("path not escaped: %q", filter)
	}
	if !strings.Contains(filter, "original_size=1080x1920") {
		t.Fatalf("missing original_size: %q", filter)
	}
	if !strings.Contains(filter, "Alignment=10,WrapStyle=2") {
		t.Fatalf("missing fixed style tail: %q", filter)
	}
}

func TestWriteConcatListEscapesQuotes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.txt")
	if err := WriteConcatList(path, []string{"/a/seg0.mp4", "/b/it's.mp4"}); err != nil {
		t.Fatalf("WriteConcatList: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read list: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "file '/a/seg0.mp4'\n") {
		t.Fatalf("missing plain entry: %q", content)
	}
	if !strings.Contains(content, `file '/b/it'\''s.mp4'`) {
		t.Fatalf("quote not escaped: %q", content)
	}
}
