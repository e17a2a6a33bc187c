package rst

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Rules are tried in order; Char guarantees that lexing never fails.
var inlineLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Role", Pattern: ":[A-Za-z][\\w.+-]*:`[^`]+`"},
	{Name: "Literal", Pattern: "``[^`]+``"},
	{Name: "Interpreted", Pattern: "`[^`]+`(?:__?)?"},
	{Name: "Strong", Pattern: `\*\*[^*\s][^*]*\*\*`},
	{Name: "Emphasis", Pattern: `\*[^*\s][^*]*\*`},
	{Name: "Text", Pattern: "[^:`*]+"},
	{Name: "Char", Pattern: `[\s\S]`},
})

var (
	inlineSymbols  = inlineLexer.Symbols()
	tokRole        = inlineSymbols["Role"]
	tokLiteral     = inlineSymbols["Literal"]
	tokInterpreted = inlineSymbols["Interpreted"]
	tokStrong      = inlineSymbols["Strong"]
	tokEmphasis    = inlineSymbols["Emphasis"]
)

// parseInline splits content into inline nodes. at maps a byte offset in
// content to its source point. Runs of plain tokens are merged into a
// single text leaf.
func parseInline(content string, at func(int) Point) []Node {
	if content == "" {
		return nil
	}
	pos := func(start, end int) Position {
		return Position{Start: at(start), End: at(end)}
	}

	tokens, err := lexInline(content)
	if err != nil {
		return []Node{NewText(content, pos(0, len(content)))}
	}

	var out []Node
	run := -1
	flush := func(end int) {
		if run < 0 {
			return
		}
		out = append(out, NewText(content[run:end], pos(run, end)))
		run = -1
	}
	wrap := func(n Node, start, end, open, close int) Node {
		n.SetPos(pos(start, end))
		n.SetChildren([]Node{NewText(content[start+open:end-close], pos(start+open, end-close))})
		return n
	}

	for _, tok := range tokens {
		if tok.EOF() {
			break
		}
		start := tok.Pos.Offset
		end := start + len(tok.Value)

		var n Node
		switch tok.Type {
		case tokRole:
			open := strings.IndexByte(tok.Value, '`')
			n = wrap(&InterpretedText{Role: tok.Value[1 : open-1]}, start, end, open+1, 1)
		case tokLiteral:
			n = wrap(&InlineLiteral{}, start, end, 2, 2)
		case tokInterpreted:
			if strings.HasSuffix(tok.Value, "_") {
				// hyperlink references are kept as text
				if run < 0 {
					run = start
				}
				continue
			}
			n = wrap(&InterpretedText{}, start, end, 1, 1)
		case tokStrong:
			n = wrap(&Strong{}, start, end, 2, 2)
		case tokEmphasis:
			n = wrap(&Emphasis{}, start, end, 1, 1)
		default:
			if run < 0 {
				run = start
			}
			continue
		}
		flush(start)
		out = append(out, n)
	}
	flush(len(content))
	return out
}

func lexInline(content string) ([]lexer.Token, error) {
	lex, err := inlineLexer.LexString("", content)
	if err != nil {
		return nil, err
	}
	return lexer.ConsumeAll(lex)
}
