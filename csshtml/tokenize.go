package csshtml

import (
	"strings"

	"github.com/speedata/css/scanner"
)

// Tokenstream is a list of CSS tokens
type Tokenstream []*scanner.Token

// TokenizeCSSString converts a string into a Tokenstream. Comments are dropped
// and consecutive white space collapses into a single S token.
func TokenizeCSSString(contents string) Tokenstream {
	var tokens Tokenstream

	s := scanner.New(contents)
	for {
		token := s.Next()
		if token.Type == scanner.EOF || token.Type == scanner.Error {
			break
		}
		switch token.Type {
		case scanner.Comment:
			// ignore
		case scanner.S:
			if len(tokens) > 0 && tokens[len(tokens)-1].Type == scanner.S {
				// ignore
			} else {
				tokens = append(tokens, token)
			}
		default:
			tokens = append(tokens, token)
		}
	}
	return tokens
}

func trimSpace(toks Tokenstream) Tokenstream {
	for len(toks) > 0 && toks[0].Type == scanner.S {
		toks = toks[1:]
	}
	for len(toks) > 0 && toks[len(toks)-1].Type == scanner.S {
		toks = toks[:len(toks)-1]
	}
	return toks
}

// String returns the CSS text of the token stream.
func (t Tokenstream) String() string {
	var sb strings.Builder
	for _, tok := range t {
		switch tok.Type {
		case scanner.S:
			sb.WriteByte(' ')
		case scanner.String:
			sb.WriteString(`"` + strings.ReplaceAll(tok.Value, `"`, `\"`) + `"`)
		case scanner.Percentage:
			sb.WriteString(tok.Value + "%")
		case scanner.Hash:
			sb.WriteString("#" + tok.Value)
		case scanner.Function:
			sb.WriteString(tok.Value + "(")
		case scanner.AtKeyword:
			sb.WriteString("@" + tok.Value)
		case scanner.URI:
			sb.WriteString("url(" + tok.Value + ")")
		default:
			sb.WriteString(tok.Value)
		}
	}
	return sb.String()
}
