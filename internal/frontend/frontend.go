// Package frontend dispatches a source file to the VHDL, Verilog, or
// SystemVerilog parser by its extension (spec §4.A), so the rest of the
// core never imports a specific language's symbol package directly.
package frontend

import (
	"fmt"
	"os"

	"github.com/hdlkit/orbit/internal/lang"
	svsym "github.com/hdlkit/orbit/internal/sv/symbol"
	verilogsym "github.com/hdlkit/orbit/internal/verilog/symbol"
	vhdlsym "github.com/hdlkit/orbit/internal/vhdl/symbol"
)

// Parse reads path and parses it with the front end selected by its
// extension. An unrecognized extension is not an error: it yields an empty
// lang.File with Lang left at its zero value, so callers can filter it out
// of a fileset the way the original treats non-HDL files as opaque blobs.
func Parse(path string) (lang.File, error) {
	ext := extOf(path)
	language, known := lang.LanguageOf(ext)
	if !known {
		return lang.File{Path: path}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return lang.File{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseSource(path, language, string(raw)), nil
}

// ParseSource parses already-loaded source text as the given language,
// useful for tests and for archive members that are never written to disk.
func ParseSource(path string, language lang.Language, src string) lang.File {
	switch language {
	case lang.VHDL:
		return vhdlsym.Parse(path, src)
	case lang.Verilog:
		return verilogsym.Parse(path, src)
	case lang.SystemVerilog:
		return svsym.Parse(path, src)
	default:
		return lang.File{Path: path, Lang: language}
	}
}

func extOf(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[i:]
		}
	}
	return ""
}
