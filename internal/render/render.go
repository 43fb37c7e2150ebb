// Package render turns parsed message segments into highlighted output.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"buntychat/internal/chat"
)

const StyleName = "monokai"

// Block is the JSON shape returned by /api/render.
type Block struct {
	Type     string `json:"type"`
	Language string `json:"language,omitempty"`
	Content  string `json:"content"`
	HTML     string `json:"html,omitempty"`
}

var htmlFormatter = html.New(html.WithClasses(false), html.TabWidth(4))

// HTML renders code segments as inline-styled HTML. Text segments are
// returned as-is; escaping them is the page's job.
func HTML(segs []chat.Segment) ([]Block, error) {
	out := make([]Block, 0, len(segs))
	for _, s := range segs {
		if s.Kind != chat.SegmentCode {
			out = append(out, Block{Type: s.Kind.String(), Content: s.Content})
			continue
		}
		var buf bytes.Buffer
		if err := highlight(&buf, htmlFormatter, s.Content, s.Language); err != nil {
			return nil, fmt.Errorf("highlight %s block: %w", s.Language, err)
		}
		out = append(out, Block{Type: s.Kind.String(), Language: s.Language, Content: s.Content, HTML: buf.String()})
	}
	return out, nil
}

// ANSI renders code with 256-color escapes for terminals.
func ANSI(code, language string) (string, error) {
	var buf bytes.Buffer
	if err := highlight(&buf, formatters.Get("terminal256"), code, language); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func lexerFor(language string) chroma.Lexer {
	l := lexers.Get(language)
	if l == nil {
		l = lexers.Fallback
	}
	return chroma.Coalesce(l)
}

func highlight(buf *bytes.Buffer, f chroma.Formatter, code, language string) error {
	it, err := lexerFor(language).Tokenise(nil, code)
	if err != nil {
		return err
	}
	return f.Format(buf, styles.Get(StyleName), it)
}
