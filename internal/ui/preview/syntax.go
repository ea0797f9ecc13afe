package preview

import (
	"encoding/json"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/charmbracelet/lipgloss"
)

// syntaxColors maps chroma token types to foreground colors for the params
// panel.
var syntaxColors = map[chroma.TokenType]lipgloss.Color{
	// Keys: blue
	chroma.NameTag: lipgloss.Color("#8ED0FF"),

	// Strings: warm yellow
	chroma.LiteralString: lipgloss.Color("#FFE4A4"),

	// Numbers / constants: amber
	chroma.LiteralNumber:   lipgloss.Color("#F2BE88"),
	chroma.KeywordConstant: lipgloss.Color("#F2BE88"),

	// Braces and separators: grey
	chroma.Punctuation: lipgloss.Color("#8A949E"),
}

// tokenColor returns the foreground color for a chroma token type,
// walking up the type hierarchy to find a match.
func tokenColor(tt chroma.TokenType) lipgloss.Color {
	for t := tt; t > 0; t = t.Parent() {
		if c, ok := syntaxColors[t]; ok {
			return c
		}
	}
	return ""
}

var jsonLexer = chroma.Coalesce(lexers.Get("json"))

// highlightJSON indents v as JSON and colors it. It falls back to the plain
// indented text if tokenizing fails.
func highlightJSON(v any) string {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err.Error()
	}
	src := string(raw)

	iterator, err := jsonLexer.Tokenise(nil, src)
	if err != nil {
		return src
	}

	var result strings.Builder
	for _, token := range iterator.Tokens() {
		fg := tokenColor(token.Type)
		if fg == "" {
			result.WriteString(token.Value)
			continue
		}
		// Style line by line so lipgloss never pads across a newline.
		style := lipgloss.NewStyle().Foreground(fg)
		for i, part := range strings.Split(token.Value, "\n") {
			if i > 0 {
				result.WriteByte('\n')
			}
			if part != "" {
				result.WriteString(style.Render(part))
			}
		}
	}
	return result.String()
}
