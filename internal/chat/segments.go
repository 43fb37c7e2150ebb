package chat

import (
	"regexp"
	"strings"
)

type SegmentKind int

const (
	SegmentText SegmentKind = iota
	SegmentCode
)

func (k SegmentKind) String() string {
	if k == SegmentCode {
		return "code"
	}
	return "text"
}

// DefaultLanguage is used for fences that carry no language tag.
const DefaultLanguage = "plaintext"

// Segment is a slice of message content: either plain text or a fenced code
// block. Raw is the exact source span, fences included, so JoinSegments can
// rebuild the original content.
type Segment struct {
	Kind     SegmentKind
	Language string
	Content  string
	Raw      string
}

var codeFenceRE = regexp.MustCompile("```(\\w+)?\\s*\\n((?s:.*?))```")

// ParseSegments splits content into text and code segments in source order.
// Empty text segments are dropped; content without fences comes back as a
// single text segment.
func ParseSegments(content string) []Segment {
	matches := codeFenceRE.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return []Segment{{Kind: SegmentText, Content: content, Raw: content}}
	}
	segs := make([]Segment, 0, 2*len(matches)+1)
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start > last {
			text := content[last:start]
			segs = append(segs, Segment{Kind: SegmentText, Content: text, Raw: text})
		}
		lang := DefaultLanguage
		if m[2] >= 0 {
			lang = content[m[2]:m[3]]
		}
		segs = append(segs, Segment{
			Kind:     SegmentCode,
			Language: lang,
			Content:  strings.TrimSpace(content[m[4]:m[5]]),
			Raw:      content[start:end],
		})
		last = end
	}
	if last < len(content) {
		text := content[last:]
		segs = append(segs, Segment{Kind: SegmentText, Content: text, Raw: text})
	}
	return segs
}

// JoinSegments concatenates the raw spans; JoinSegments(ParseSegments(s)) == s.
func JoinSegments(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Raw)
	}
	return b.String()
}

// FormatSegments rebuilds content from the parsed fields, writing every code
// segment as "```lang\n<body>\n```". For content already in that canonical
// form the result equals the input.
func FormatSegments(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		if s.Kind != SegmentCode {
			b.WriteString(s.Content)
			continue
		}
		b.WriteString("```")
		b.WriteString(s.Language)
		b.WriteString("\n")
		b.WriteString(s.Content)
		b.WriteString("\n```")
	}
	return b.String()
}

// CodeBlocks returns only the code segments of content.
func CodeBlocks(content string) []Segment {
	var out []Segment
	for _, s := range ParseSegments(content) {
		if s.Kind == SegmentCode {
			out = append(out, s)
		}
	}
	return out
}
