// Package textenc provides printer code page encoders backed by
// golang.org/x/text. Receipt printers render single-byte character
// tables, so UTF-8 job text has to be transcoded before it hits the
// wire; runes outside the selected table are replaced rather than
// failing the whole job.
package textenc

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

var codePages = map[string]*charmap.Charmap{
	"cp437":       charmap.CodePage437,
	"cp850":       charmap.CodePage850,
	"cp852":       charmap.CodePage852,
	"cp858":       charmap.CodePage858,
	"cp866":       charmap.CodePage866,
	"windows1252": charmap.Windows1252,
}

// Encoder transcodes UTF-8 text into one printer code page. It
// implements the escpos.TextEncoder interface.
type Encoder struct {
	name string
	enc  *encoding.Encoder
}

// New resolves a code page by name ("cp437", "CP-850", "windows-1252",
// ...). The empty string and "utf8" select no transcoding at all and
// return nil, which callers treat as the passthrough default.
func New(name string) (*Encoder, error) {
	normalized := normalize(name)
	if normalized == "" || normalized == "utf8" {
		return nil, nil
	}
	cm, ok := codePages[normalized]
	if !ok {
		return nil, fmt.Errorf("unknown code page %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	return &Encoder{
		name: normalized,
		enc:  encoding.ReplaceUnsupported(cm.NewEncoder()),
	}, nil
}

// Name returns the normalized code page name.
func (e *Encoder) Name() string {
	return e.name
}

// Encode transcodes content into the code page, substituting the
// table's replacement byte for unmappable runes.
func (e *Encoder) Encode(content string) ([]byte, error) {
	out, err := e.enc.Bytes([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("failed to encode text as %s: %w", e.name, err)
	}
	return out, nil
}

// Names lists the supported code page names, sorted.
func Names() []string {
	names := make([]string, 0, len(codePages))
	for name := range codePages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalize(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	lower = strings.ReplaceAll(lower, "-", "")
	lower = strings.ReplaceAll(lower, "_", "")
	return lower
}
