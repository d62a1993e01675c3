package extract

import (
	"bytes"

	"golang.org/x/net/html"
)

// Tokenizer reads src and href attributes from start tags with the
// x/net/html tokenizer. Unlike Regex it ignores text inside comments and
// attribute-like strings in script bodies.
type Tokenizer struct {
	Resolve Resolver
}

func (t Tokenizer) Extract(markup []byte, base string, suffixes []string) []string {
	var raw []string
	z := html.NewTokenizer(bytes.NewReader(markup))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF, or a document the tokenizer gave up on.
			return filterResolve(raw, base, suffixes, t.Resolve)
		case html.StartTagToken, html.SelfClosingTagToken:
			_, hasAttr := z.TagName()
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				switch string(key) {
				case "src", "href":
					raw = append(raw, string(val))
				}
			}
		}
	}
}
