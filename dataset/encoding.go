package dataset

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// sourceDecoder returns a transformer that strips a leading BOM and decodes
// the configured encoding into UTF-8.
func sourceDecoder(name string) (transform.Transformer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.BOMOverride(transform.Nop), nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("dataset: unsupported encoding %q: %w", name, err)
	}
	return unicode.BOMOverride(enc.NewDecoder()), nil
}

func readDecoded(r io.Reader, t transform.Transformer) ([]byte, error) {
	return io.ReadAll(transform.NewReader(r, t))
}
