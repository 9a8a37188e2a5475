package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/hdlkit/orbit/internal/checksum"
)

// flagSet is a minimal hand-rolled "--name value" / "--name=value" /
// "--flag" parser, matching the teacher's own avoidance of a CLI framework
// (cmd/vhdl-lint/main.go switches on os.Args directly rather than pulling
// in a flags library).
type flagSet struct {
	values     map[string][]string
	positional []string
}

func parseFlags(args []string) *flagSet {
	fs := &flagSet{values: make(map[string][]string)}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			fs.positional = append(fs.positional, arg)
			continue
		}
		name := strings.TrimPrefix(arg, "--")
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			fs.values[name[:eq]] = append(fs.values[name[:eq]], name[eq+1:])
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "--") {
			fs.values[name] = append(fs.values[name], args[i+1])
			i++
			continue
		}
		fs.values[name] = append(fs.values[name], "true")
	}
	return fs
}

func (fs *flagSet) str(name, fallback string) string {
	if v, ok := fs.values[name]; ok && len(v) > 0 {
		return v[len(v)-1]
	}
	return fallback
}

func (fs *flagSet) bool(name string) bool {
	v, ok := fs.values[name]
	return ok && len(v) > 0 && v[len(v)-1] != "false"
}

func (fs *flagSet) list(name string) []string {
	return fs.values[name]
}

// parseSum decodes a checksum's hex string form, the inverse of
// checksum.Sum.String.
func parseSum(hexStr string) (checksum.Sum, error) {
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return checksum.Sum{}, fmt.Errorf("invalid checksum %q: %w", hexStr, err)
	}
	var sum checksum.Sum
	if len(raw) != len(sum) {
		return checksum.Sum{}, fmt.Errorf("invalid checksum %q: want %d bytes, got %d", hexStr, len(sum), len(raw))
	}
	copy(sum[:], raw)
	return sum, nil
}
