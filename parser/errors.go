package parser

import (
	"github.com/hashicorp/go-multierror"
	"github.com/quill-lang/quill/errz"
	"github.com/quill-lang/quill/token"
)

// newParseError builds a structured syntax error for the given token,
// including the line of source text it appeared on.
func newParseError(message, filename string, tok token.Token, sourceLine string) error {
	return errz.NewStructuredError(errz.ErrSyntax, message, errz.SourceLocation{
		Filename: filename,
		Line:     tok.StartPosition.LineNumber(),
		Column:   tok.StartPosition.ColumnNumber(),
		Source:   sourceLine,
	}, nil)
}

// combinedErrors aggregates all collected parse errors into one error value.
// Each underlying error remains reachable via errors.As and errors.Is.
func (p *Parser) combinedErrors() error {
	var result *multierror.Error
	for _, err := range p.errors {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// Errors returns the individual parse errors collected so far.
func (p *Parser) Errors() []error {
	return p.errors
}
