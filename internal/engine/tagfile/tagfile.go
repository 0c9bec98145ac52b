// Package tagfile is the shipping property engine. Text properties live in
// the file's tag (ID3, MP4 atoms, Vorbis comments) and are read and written
// with TagLib; technical properties come from the decoded stream and are
// read-only.
package tagfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"go.senan.xyz/taglib"

	"mediaprops/internal/native"
)

// Native property index.
const (
	author = iota
	comment
	copyright
	keywords
	language
	subTitle
	year
	title
	director
	audioChannelCount
	audioEncodingBitrate
	authorURL
	encodedBy
	duration
	audioFormat
	audioSampleRate
	audioSampleSize

	ordinalCount
)

// tagKeys maps text ordinals to TagLib property names.
var tagKeys = map[int]string{
	author:    taglib.Artist,
	comment:   taglib.Comment,
	copyright: "COPYRIGHT",
	keywords:  "KEYWORDS",
	language:  "LANGUAGE",
	subTitle:  "SUBTITLE",
	title:     taglib.Title,
	director:  "DIRECTOR",
	authorURL: "ARTISTWEBPAGE",
	encodedBy: "ENCODEDBY",
}

// Media Foundation audio subtype GUIDs.
const (
	formatMP3    = "{00000055-0000-0010-8000-00AA00389B71}"
	formatAAC    = "{00001610-0000-0010-8000-00AA00389B71}"
	formatFLAC   = "{0000F1AC-0000-0010-8000-00AA00389B71}"
	formatALAC   = "{63616C61-0000-0010-8000-00AA00389B71}"
	formatVorbis = "{8D2FD10B-5841-4a6b-8905-588FEC1ADED9}"
	formatOpus   = "{0000704F-0000-0010-8000-00AA00389B71}"
)

var _ native.Engine = (*Engine)(nil)

// Engine reads and writes properties of files on the local filesystem.
// It holds no state; every call opens the file again.
type Engine struct{}

func New() *Engine {
	return &Engine{}
}

func (e *Engine) ReadString(path string, ordinal int) (string, bool, error) {
	if err := checkOrdinal(ordinal); err != nil {
		return "", false, err
	}
	if ordinal == audioFormat {
		if err := checkMedia(path); err != nil {
			return "", false, err
		}
		return identifyFormat(path)
	}

	key, ok := tagKeys[ordinal]
	if !ok {
		return "", false, native.Errorf(native.CodeInvalidArg, "property %d is not a text property", ordinal)
	}

	tags, err := readTags(path)
	if err != nil {
		return "", false, err
	}
	s, ok := joinTag(tags, key)
	return s, ok, nil
}

func (e *Engine) ReadUint(path string, ordinal int) (int64, error) {
	if err := checkOrdinal(ordinal); err != nil {
		return 0, err
	}

	if ordinal == year {
		tags, err := readTags(path)
		if err != nil {
			return 0, err
		}
		return parseYear(tags), nil
	}

	switch ordinal {
	case audioChannelCount, audioEncodingBitrate, duration, audioSampleRate, audioSampleSize:
	default:
		return 0, native.Errorf(native.CodeInvalidArg, "property %d is not an unsigned property", ordinal)
	}

	props, err := readProperties(path)
	if err != nil {
		return 0, err
	}
	return technical(props, ordinal), nil
}

func (e *Engine) WriteString(path string, ordinal int, value string) error {
	if err := checkOrdinal(ordinal); err != nil {
		return err
	}
	if ordinal == audioFormat {
		return readOnly(path, ordinal)
	}
	key, ok := tagKeys[ordinal]
	if !ok {
		return native.Errorf(native.CodeInvalidArg, "property %d is not a text property", ordinal)
	}
	// TagLib drops empty values, so an empty string is stored as no value.
	if value == "" {
		return writeTags(path, map[string][]string{key: nil}, 0)
	}
	return writeTags(path, map[string][]string{key: {value}}, 0)
}

func (e *Engine) WriteUint(path string, ordinal int, value uint32) error {
	if err := checkOrdinal(ordinal); err != nil {
		return err
	}
	if ordinal != year {
		if _, ok := tagKeys[ordinal]; ok {
			return native.Errorf(native.CodeInvalidArg, "property %d is not an unsigned property", ordinal)
		}
		return readOnly(path, ordinal)
	}
	return writeTags(path, map[string][]string{taglib.Date: {strconv.FormatUint(uint64(value), 10)}}, 0)
}

func (e *Engine) Clear(path string, ordinal int) error {
	if err := checkOrdinal(ordinal); err != nil {
		return err
	}

	key, ok := tagKeys[ordinal]
	if ordinal == year {
		key, ok = taglib.Date, true
	}
	if !ok {
		return readOnly(path, ordinal)
	}
	return writeTags(path, map[string][]string{key: nil}, 0)
}

// ClearAll removes the whole tag. Technical properties are untouched.
func (e *Engine) ClearAll(path string) error {
	return writeTags(path, map[string][]string{}, taglib.Clear)
}

func (e *Engine) HasProperty(path string, ordinal int) (bool, error) {
	if err := checkOrdinal(ordinal); err != nil {
		return false, err
	}
	if _, ok := tagKeys[ordinal]; ok || ordinal == audioFormat {
		_, ok, err := e.ReadString(path, ordinal)
		return ok, err
	}
	n, err := e.ReadUint(path, ordinal)
	if err != nil {
		return false, err
	}
	return n != native.NullUint, nil
}

func (e *Engine) IsValidMediaFile(path string) (bool, error) {
	_, err := readTags(path)
	if err == nil {
		return true, nil
	}
	var nerr *native.Error
	if errors.As(err, &nerr) && nerr.Code == native.CodeFail {
		return false, nil
	}
	return false, err
}

func (e *Engine) ReadAll(path string) (map[int]any, error) {
	tags, err := readTags(path)
	if err != nil {
		return nil, err
	}
	props, err := readProperties(path)
	if err != nil {
		return nil, err
	}

	out := make(map[int]any)
	for ordinal, key := range tagKeys {
		if s, ok := joinTag(tags, key); ok {
			out[ordinal] = s
		}
	}
	if y := parseYear(tags); y != native.NullUint {
		out[year] = uint32(y)
	}
	for _, ordinal := range []int{audioChannelCount, audioEncodingBitrate, duration, audioSampleRate, audioSampleSize} {
		if n := technical(props, ordinal); n != native.NullUint {
			out[ordinal] = uint32(n)
		}
	}
	if f, ok, err := identifyFormat(path); err == nil && ok {
		out[audioFormat] = f
	}
	return out, nil
}

func checkOrdinal(ordinal int) error {
	if ordinal < 0 || ordinal >= ordinalCount {
		return native.Errorf(native.CodeInvalidArg, "unknown property %d", ordinal)
	}
	return nil
}

// readOnly reports a write to a technical property. A file TagLib cannot
// open is reported as such first.
func readOnly(path string, ordinal int) error {
	if err := checkMedia(path); err != nil {
		return err
	}
	return native.Errorf(native.CodeReadOnlyProperty, "property %d is read-only", ordinal)
}

// checkMedia fails with E_FAIL when TagLib does not recognize the file.
func checkMedia(path string) error {
	_, err := readTags(path)
	return err
}

// checkFile classifies filesystem failures before TagLib sees the file, since
// TagLib itself only reports that a file could not be opened.
func checkFile(path string, write bool) error {
	flag := os.O_RDONLY
	if write {
		flag = os.O_RDWR
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return osError(err, write)
	}
	return f.Close()
}

func osError(err error, write bool) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return native.Wrap(native.CodeFileNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return native.Wrap(native.CodeAccessDenied, err)
	case write:
		return native.Wrap(native.CodeWriteFault, err)
	default:
		return native.Wrap(native.CodeReadFault, err)
	}
}

func tagLibError(err error, write bool) error {
	switch {
	case errors.Is(err, taglib.ErrInvalidFile):
		return native.Wrap(native.CodeFail, err)
	case errors.Is(err, taglib.ErrSavingFile):
		return native.Wrap(native.CodeWriteFault, err)
	default:
		return osError(err, write)
	}
}

func readTags(path string) (map[string][]string, error) {
	if err := checkFile(path, false); err != nil {
		return nil, err
	}
	tags, err := taglib.ReadTags(path)
	if err != nil {
		return nil, tagLibError(fmt.Errorf("failed to read tags from %s: %w", path, err), false)
	}
	return tags, nil
}

// readProperties checks the file with readTags first: TagLib reports zero
// properties rather than an error for a file it cannot open.
func readProperties(path string) (taglib.Properties, error) {
	if err := checkMedia(path); err != nil {
		return taglib.Properties{}, err
	}
	props, err := taglib.ReadProperties(path)
	if err != nil {
		return taglib.Properties{}, tagLibError(fmt.Errorf("failed to read properties from %s: %w", path, err), false)
	}
	return props, nil
}

func writeTags(path string, tags map[string][]string, opts taglib.WriteOption) error {
	if err := checkFile(path, true); err != nil {
		return err
	}
	if err := taglib.WriteTags(path, tags, opts); err != nil {
		// A failed save also covers files TagLib cannot open at all.
		if _, rerr := taglib.ReadTags(path); errors.Is(rerr, taglib.ErrInvalidFile) {
			return native.Wrap(native.CodeFail, fmt.Errorf("failed to write tags to %s: %w", path, rerr))
		}
		return tagLibError(fmt.Errorf("failed to write tags to %s: %w", path, err), true)
	}
	return nil
}

// joinTag returns the values of key joined the way the shell displays
// multi-valued text properties.
func joinTag(tags map[string][]string, key string) (string, bool) {
	vals := tags[key]
	if len(vals) == 0 {
		return "", false
	}
	return strings.Join(vals, "; "), true
}

// parseYear takes the leading digits of DATE, e.g. 2023 from 2023-05-01.
func parseYear(tags map[string][]string) int64 {
	vals := tags[taglib.Date]
	if len(vals) == 0 {
		return native.NullUint
	}
	date := strings.TrimSpace(vals[0])
	end := 0
	for end < len(date) && date[end] >= '0' && date[end] <= '9' {
		end++
	}
	n, err := strconv.ParseUint(date[:end], 10, 32)
	if err != nil {
		return native.NullUint
	}
	return int64(n)
}

func technical(props taglib.Properties, ordinal int) int64 {
	var n uint64
	switch ordinal {
	case audioChannelCount:
		n = uint64(props.Channels)
	case audioEncodingBitrate:
		n = uint64(props.Bitrate) * 1000
	case duration:
		if props.Length <= 0 {
			return native.NullUint
		}
		n = uint64(props.Length / (100 * time.Nanosecond))
	case audioSampleRate:
		n = uint64(props.SampleRate)
	default:
		return native.NullUint
	}
	if n == 0 {
		return native.NullUint
	}
	if n > math.MaxUint32 {
		n = math.MaxUint32
	}
	return int64(n)
}

// identifyFormat reports the audio subtype of the container. Ogg streams
// are taken as Vorbis unless the file carries the .opus extension.
func identifyFormat(path string) (string, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", false, osError(err, false)
	}
	defer f.Close()

	format, fileType, err := tag.Identify(f)
	if err != nil {
		// No tag to identify by (e.g. a bare MPEG stream, or a file too
		// short for the ID3v1 probe); fall back to the stream itself.
		return sniffFormat(f, path)
	}

	switch fileType {
	case tag.MP3:
		return formatMP3, true, nil
	case tag.M4A, tag.M4B, tag.M4P:
		return formatAAC, true, nil
	case tag.ALAC:
		return formatALAC, true, nil
	case tag.FLAC:
		return formatFLAC, true, nil
	case tag.OGG:
		if strings.EqualFold(filepath.Ext(path), ".opus") {
			return formatOpus, true, nil
		}
		return formatVorbis, true, nil
	}
	if format == tag.MP4 {
		return formatAAC, true, nil
	}
	return sniffFormat(f, path)
}

func sniffFormat(f *os.File, path string) (string, bool, error) {
	head := make([]byte, 4)
	n, err := f.ReadAt(head, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", false, native.Wrap(native.CodeReadFault, err)
	}
	head = head[:n]

	switch {
	case len(head) >= 2 && head[0] == 0xFF && head[1]&0xE6 == 0xE2:
		// MPEG audio frame sync, Layer III
		return formatMP3, true, nil
	case bytes.HasPrefix(head, []byte("fLaC")):
		return formatFLAC, true, nil
	case bytes.HasPrefix(head, []byte("OggS")):
		if strings.EqualFold(filepath.Ext(path), ".opus") {
			return formatOpus, true, nil
		}
		return formatVorbis, true, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return formatMP3, true, nil
	case ".m4a", ".mp4", ".aac":
		return formatAAC, true, nil
	}
	return "", false, nil
}
