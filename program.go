package quill

import (
	"github.com/gofrs/uuid"

	"github.com/quill-lang/quill/compiler"
)

// Program is the compiled representation of Quill source code. It is
// immutable after creation and safe for concurrent use. Multiple goroutines
// may run the same Program simultaneously.
type Program struct {
	id       string
	code     *compiler.Code
	source   string
	filename string
}

func newProgram(code *compiler.Code, source, filename string) *Program {
	return &Program{
		id:       uuid.Must(uuid.NewV4()).String(),
		code:     code,
		source:   source,
		filename: filename,
	}
}

// ID returns a unique identifier for this compilation.
func (p *Program) ID() string {
	return p.id
}

// Source returns the original source code that was compiled.
func (p *Program) Source() string {
	return p.source
}

// Filename returns the filename associated with this program, if any.
func (p *Program) Filename() string {
	return p.filename
}

// GlobalNames returns the names of the global variables the program was
// compiled against.
func (p *Program) GlobalNames() []string {
	var names []string
	for _, name := range p.code.GlobalNames() {
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Code returns the compiled bytecode for use by the VM.
func (p *Program) Code() *compiler.Code {
	return p.code
}
