package tagfile

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"go.senan.xyz/taglib"

	"mediaprops/internal/native"
)

// createTestAudioFile writes a tagless MP3 of silent frames: MPEG-1 Layer III,
// 128 kbit/s, 44.1 kHz, mono. Each frame is 144*128000/44100 = 417 bytes.
func createTestAudioFile(t *testing.T, dir string) string {
	t.Helper()

	const (
		frames    = 40
		frameSize = 417
	)
	data := make([]byte, frames*frameSize)
	for i := 0; i < frames; i++ {
		copy(data[i*frameSize:], []byte{0xFF, 0xFB, 0x90, 0xC4})
	}

	path := filepath.Join(dir, "test.mp3")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to create test audio file: %v", err)
	}
	return path
}

// createFFmpegAudioFile generates a minimal MP3 using ffmpeg.
// Skips the test if ffmpeg is not available.
func createFFmpegAudioFile(t *testing.T, dir string) string {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available, skipping tagfile test")
	}

	path := filepath.Join(dir, "ffmpeg.mp3")
	cmd := exec.Command("ffmpeg", "-f", "lavfi", "-i", "anullsrc=r=44100:cl=mono", "-t", "0.1", "-q:a", "9", path)
	if err := cmd.Run(); err != nil {
		t.Fatalf("failed to create test audio file: %v", err)
	}
	return path
}

func createTextFile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("plain text, no tags here"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func codeOf(err error) native.Code {
	var nerr *native.Error
	if errors.As(err, &nerr) {
		return nerr.Code
	}
	return 0
}

func TestStringRoundTrip(t *testing.T) {
	path := createTestAudioFile(t, t.TempDir())
	e := New()

	for ordinal := range tagKeys {
		if err := e.WriteString(path, ordinal, "value"); err != nil {
			t.Fatalf("WriteString(%d): %v", ordinal, err)
		}
		got, ok, err := e.ReadString(path, ordinal)
		if err != nil || !ok || got != "value" {
			t.Errorf("ReadString(%d) = %q, %v, %v", ordinal, got, ok, err)
		}
	}

	tags, err := taglib.ReadTags(path)
	if err != nil {
		t.Fatalf("failed to read tags: %v", err)
	}
	if got := tags[taglib.Artist]; len(got) != 1 || got[0] != "value" {
		t.Errorf("ARTIST = %v", got)
	}
}

func TestYearUsesDate(t *testing.T) {
	path := createTestAudioFile(t, t.TempDir())
	e := New()

	if n, err := e.ReadUint(path, year); err != nil || n != native.NullUint {
		t.Fatalf("ReadUint(year) on fresh file = %d, %v", n, err)
	}

	if err := taglib.WriteTags(path, map[string][]string{taglib.Date: {"2019-06-01"}}, 0); err != nil {
		t.Fatalf("failed to write date: %v", err)
	}
	if n, err := e.ReadUint(path, year); err != nil || n != 2019 {
		t.Errorf("ReadUint(year) = %d, %v; want 2019", n, err)
	}

	if err := e.WriteUint(path, year, 2023); err != nil {
		t.Fatalf("WriteUint(year): %v", err)
	}
	tags, _ := taglib.ReadTags(path)
	if got := tags[taglib.Date]; len(got) != 1 || got[0] != "2023" {
		t.Errorf("DATE = %v, want [2023]", got)
	}
}

func TestClear(t *testing.T) {
	path := createTestAudioFile(t, t.TempDir())
	e := New()

	if err := e.WriteString(path, comment, "yo"); err != nil {
		t.Fatal(err)
	}
	if err := e.Clear(path, comment); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if ok, err := e.HasProperty(path, comment); err != nil || ok {
		t.Errorf("HasProperty after Clear = %v, %v", ok, err)
	}
	if err := e.Clear(path, comment); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}

func TestClearAll(t *testing.T) {
	path := createTestAudioFile(t, t.TempDir())
	e := New()

	e.WriteString(path, title, "t")
	e.WriteUint(path, year, 2000)
	if err := e.ClearAll(path); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}

	all, err := e.ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if _, ok := all[title]; ok {
		t.Error("title survived ClearAll")
	}
	if _, ok := all[year]; ok {
		t.Error("year survived ClearAll")
	}
	if _, ok := all[audioSampleRate]; !ok {
		t.Error("technical properties should survive ClearAll")
	}
}

func TestTechnicalProperties(t *testing.T) {
	path := createTestAudioFile(t, t.TempDir())
	e := New()

	if n, err := e.ReadUint(path, audioChannelCount); err != nil || n != 1 {
		t.Errorf("channels = %d, %v; want 1", n, err)
	}
	if n, err := e.ReadUint(path, audioSampleRate); err != nil || n != 44100 {
		t.Errorf("sample rate = %d, %v; want 44100", n, err)
	}
	if n, err := e.ReadUint(path, audioSampleSize); err != nil || n != native.NullUint {
		t.Errorf("sample size = %d, %v; want absent", n, err)
	}
	if n, err := e.ReadUint(path, audioEncodingBitrate); err != nil || n != 128000 {
		t.Errorf("bitrate = %d, %v; want 128000", n, err)
	}
	if n, err := e.ReadUint(path, duration); err != nil || n <= 0 {
		t.Errorf("duration = %d, %v; want a positive value", n, err)
	}
	if f, ok, err := e.ReadString(path, audioFormat); err != nil || !ok || f != formatMP3 {
		t.Errorf("format = %q, %v, %v; want %s", f, ok, err, formatMP3)
	}

	// Once tagged, the format comes from the ID3 header.
	if err := e.WriteString(path, title, "t"); err != nil {
		t.Fatal(err)
	}
	if f, ok, err := e.ReadString(path, audioFormat); err != nil || !ok || f != formatMP3 {
		t.Errorf("format after tagging = %q, %v, %v; want %s", f, ok, err, formatMP3)
	}
}

func TestFFmpegFile(t *testing.T) {
	path := createFFmpegAudioFile(t, t.TempDir())
	e := New()

	if n, err := e.ReadUint(path, audioChannelCount); err != nil || n != 1 {
		t.Errorf("channels = %d, %v; want 1", n, err)
	}
	if n, err := e.ReadUint(path, audioSampleRate); err != nil || n != 44100 {
		t.Errorf("sample rate = %d, %v; want 44100", n, err)
	}
	if err := e.WriteUint(path, year, 2001); err != nil {
		t.Fatalf("WriteUint(year): %v", err)
	}
	if n, err := e.ReadUint(path, year); err != nil || n != 2001 {
		t.Errorf("year = %d, %v; want 2001", n, err)
	}
}

func TestReadOnlyProperties(t *testing.T) {
	path := createTestAudioFile(t, t.TempDir())
	e := New()

	if err := e.WriteUint(path, duration, 5); codeOf(err) != native.CodeReadOnlyProperty {
		t.Errorf("WriteUint(duration) = %v", err)
	}
	if err := e.WriteString(path, audioFormat, "x"); codeOf(err) != native.CodeReadOnlyProperty {
		t.Errorf("WriteString(format) = %v", err)
	}
	if err := e.Clear(path, audioSampleRate); codeOf(err) != native.CodeReadOnlyProperty {
		t.Errorf("Clear(sample rate) = %v", err)
	}
}

func TestWrongAccessor(t *testing.T) {
	path := createTestAudioFile(t, t.TempDir())
	e := New()

	if _, _, err := e.ReadString(path, year); codeOf(err) != native.CodeInvalidArg {
		t.Errorf("ReadString(year) = %v", err)
	}
	if err := e.WriteUint(path, title, 1); codeOf(err) != native.CodeInvalidArg {
		t.Errorf("WriteUint(title) = %v", err)
	}
}

func TestMissingFile(t *testing.T) {
	e := New()
	path := filepath.Join(t.TempDir(), "gone.mp3")

	if _, _, err := e.ReadString(path, title); codeOf(err) != native.CodeFileNotFound {
		t.Errorf("ReadString = %v", err)
	}
	if err := e.WriteString(path, title, "x"); codeOf(err) != native.CodeFileNotFound {
		t.Errorf("WriteString = %v", err)
	}
	if _, err := e.IsValidMediaFile(path); codeOf(err) != native.CodeFileNotFound {
		t.Errorf("IsValidMediaFile = %v", err)
	}
}

func TestNotMediaFile(t *testing.T) {
	e := New()
	path := createTextFile(t, t.TempDir())

	if ok, err := e.IsValidMediaFile(path); err != nil || ok {
		t.Errorf("IsValidMediaFile = %v, %v", ok, err)
	}

	calls := []struct {
		name string
		call func() error
	}{
		{"read comment", func() error { _, _, err := e.ReadString(path, comment); return err }},
		{"read format", func() error { _, _, err := e.ReadString(path, audioFormat); return err }},
		{"read year", func() error { _, err := e.ReadUint(path, year); return err }},
		{"read duration", func() error { _, err := e.ReadUint(path, duration); return err }},
		{"write title", func() error { return e.WriteString(path, title, "x") }},
		{"write format", func() error { return e.WriteString(path, audioFormat, "x") }},
		{"write duration", func() error { return e.WriteUint(path, duration, 5) }},
		{"clear duration", func() error { return e.Clear(path, duration) }},
		{"clear sample rate", func() error { return e.Clear(path, audioSampleRate) }},
		{"has format", func() error { _, err := e.HasProperty(path, audioFormat); return err }},
		{"read all", func() error { _, err := e.ReadAll(path); return err }},
	}
	for _, tt := range calls {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); codeOf(err) != native.CodeFail {
				t.Errorf("err = %v, want E_FAIL", err)
			}
		})
	}
}

func TestYearRoundTrip(t *testing.T) {
	path := createTestAudioFile(t, t.TempDir())
	e := New()

	for _, n := range []uint32{0, 7, 999, 2021, 12345} {
		if err := e.WriteUint(path, year, n); err != nil {
			t.Fatalf("WriteUint(year, %d): %v", n, err)
		}
		if got, err := e.ReadUint(path, year); err != nil || got != int64(n) {
			t.Errorf("ReadUint(year) after writing %d = %d, %v", n, got, err)
		}
	}
}

func TestEmptyStringClears(t *testing.T) {
	path := createTestAudioFile(t, t.TempDir())
	e := New()

	if err := e.WriteString(path, title, "before"); err != nil {
		t.Fatal(err)
	}
	if err := e.WriteString(path, title, ""); err != nil {
		t.Fatalf("WriteString(\"\"): %v", err)
	}
	if s, ok, err := e.ReadString(path, title); err != nil || ok {
		t.Errorf("ReadString = %q, %v, %v; want absent", s, ok, err)
	}
}

func TestInvalidOrdinal(t *testing.T) {
	e := New()
	for _, n := range []int{-1, ordinalCount} {
		if _, _, err := e.ReadString("/x", n); codeOf(err) != native.CodeInvalidArg {
			t.Errorf("ReadString(%d) = %v", n, err)
		}
	}
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		date string
		want int64
	}{
		{"2023", 2023},
		{"2023-05-01", 2023},
		{"1999/12", 1999},
		{"0", 0},
		{"7", 7},
		{"999", 999},
		{"12345", 12345},
		{" 1984", 1984},
		{"99999999999", native.NullUint},
		{"", native.NullUint},
		{"unknown", native.NullUint},
	}

	for _, tt := range tests {
		got := parseYear(map[string][]string{taglib.Date: {tt.date}})
		if got != tt.want {
			t.Errorf("parseYear(%q) = %d, want %d", tt.date, got, tt.want)
		}
	}
	if got := parseYear(nil); got != native.NullUint {
		t.Errorf("parseYear(nil) = %d", got)
	}
}
