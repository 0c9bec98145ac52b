// Package mediaprops reads, checks, writes and clears media-file metadata
// properties through a native property engine.
//
// Properties come from a closed registry. Each one is declared with the Go
// type of its value, so the accessor pair used for it is fixed at compile
// time:
//
//	title, ok, err := mediaprops.Read(m, "clip.mp4", mediaprops.Title)
//	err = mediaprops.Write(m, "clip.mp4", mediaprops.Year, 2021)
//
// Untyped variants (ReadValue, WriteValue) take a *Descriptor and are meant
// for callers that pick properties at runtime, such as the CLI.
package mediaprops

import (
	"strings"
)

// Kind is the value kind of a property. It selects the native accessor pair.
type Kind uint8

const (
	KindString Kind = iota
	KindUint
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindUint:
		return "uint"
	default:
		return "unknown"
	}
}

// Descriptor identifies one supported metadata field. Descriptors exist only
// in the registry below and are compared by pointer.
type Descriptor struct {
	ordinal int
	kind    Kind
	ident   string
	name    string
}

// Ordinal is the index the native engine knows this property by.
func (d *Descriptor) Ordinal() int { return d.ordinal }

func (d *Descriptor) Kind() Kind { return d.kind }

// Ident is the upper-snake identifier, e.g. AUDIO_SAMPLE_RATE.
func (d *Descriptor) Ident() string { return d.ident }

// Name is the human-readable label, e.g. "Audio Sample Rate".
func (d *Descriptor) Name() string { return d.name }

func (d *Descriptor) String() string { return d.name }

// Value is the set of Go types a property value can have.
// Unsigned properties use int so that negative input can be rejected
// explicitly instead of wrapping around.
type Value interface {
	string | int
}

// Property is a typed handle on a registry descriptor.
type Property[T Value] struct {
	desc *Descriptor
}

// Descriptor returns the untyped descriptor behind p.
func (p Property[T]) Descriptor() *Descriptor { return p.desc }

func (p Property[T]) Name() string { return p.desc.name }

func (p Property[T]) String() string { return p.desc.name }

func stringProperty(ordinal int, ident, name string) Property[string] {
	return Property[string]{desc: &Descriptor{ordinal: ordinal, kind: KindString, ident: ident, name: name}}
}

func uintProperty(ordinal int, ident, name string) Property[int] {
	return Property[int]{desc: &Descriptor{ordinal: ordinal, kind: KindUint, ident: ident, name: name}}
}

// Supported properties. Ordinals match the native property index.
var (
	Author               = stringProperty(0, "AUTHOR", "Author")
	Comment              = stringProperty(1, "COMMENT", "Comment")
	Copyright            = stringProperty(2, "COPYRIGHT", "Copyright")
	Keywords             = stringProperty(3, "KEYWORDS", "Keywords")
	Language             = stringProperty(4, "LANGUAGE", "Language")
	SubTitle             = stringProperty(5, "SUB_TITLE", "Subtitle")
	Year                 = uintProperty(6, "YEAR", "Year")
	Title                = stringProperty(7, "TITLE", "Title")
	Director             = stringProperty(8, "DIRECTOR", "Director")
	AudioChannelCount    = uintProperty(9, "AUDIO_CHANNEL_COUNT", "Audio Channel Count")
	AudioEncodingBitrate = uintProperty(10, "AUDIO_ENCODING_BITRATE", "Audio Encoding Bitrate")
	AuthorURL            = stringProperty(11, "AUTHOR_URL", "Author URL")
	EncodedBy            = stringProperty(12, "ENCODED_BY", "Encoded By")
	Duration             = uintProperty(13, "DURATION", "Duration")
	AudioFormat          = stringProperty(14, "AUDIO_FORMAT", "Audio Format")
	AudioSampleRate      = uintProperty(15, "AUDIO_SAMPLE_RATE", "Audio Sample Rate")
	AudioSampleSize      = uintProperty(16, "AUDIO_SAMPLE_SIZE", "Audio Sample Size")
)

// registry is indexed by ordinal.
var registry = []*Descriptor{
	Author.desc,
	Comment.desc,
	Copyright.desc,
	Keywords.desc,
	Language.desc,
	SubTitle.desc,
	Year.desc,
	Title.desc,
	Director.desc,
	AudioChannelCount.desc,
	AudioEncodingBitrate.desc,
	AuthorURL.desc,
	EncodedBy.desc,
	Duration.desc,
	AudioFormat.desc,
	AudioSampleRate.desc,
	AudioSampleSize.desc,
}

// All returns every descriptor in ordinal order. The slice is a copy.
func All() []*Descriptor {
	out := make([]*Descriptor, len(registry))
	copy(out, registry)
	return out
}

// ByOrdinal returns the descriptor with the given native ordinal.
func ByOrdinal(ordinal int) (*Descriptor, bool) {
	if ordinal < 0 || ordinal >= len(registry) {
		return nil, false
	}
	return registry[ordinal], true
}

// PropertyByName finds a descriptor by identifier or display name.
// Matching ignores case and treats spaces, dashes and underscores alike, so
// "sub_title", "Subtitle" and "audio sample rate" all resolve.
func PropertyByName(name string) (*Descriptor, bool) {
	key := foldName(name)
	if key == "" {
		return nil, false
	}
	for _, d := range registry {
		if foldName(d.ident) == key || foldName(d.name) == key {
			return d, true
		}
	}
	return nil, false
}

func foldName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch r {
		case ' ', '_', '-':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
