// Package artifact persists and loads the pipeline's on-disk outputs: the
// vocabulary mapping, the four windowed dataset arrays, and evaluation
// results. Everything is a flat file, human-inspectable where the format
// allows.
package artifact

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	json "github.com/goccy/go-json"

	"github.com/crimson-sun/presage/internal/dataset/vocab"
)

// WriteVocab writes the vocabulary as a JSON object mapping token strings
// to dense indices, one entry per line in index order: natural tokens
// ascending, then <PAD> and <UNK> at their trailing positions.
func WriteVocab(path string, v *vocab.Vocabulary) error {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	write := func(token string, index, size int) error {
		// Marshal HTML-escapes < and >, which would mangle the reserved
		// tokens; the file must show <PAD> and <UNK> literally.
		var key bytes.Buffer
		enc := json.NewEncoder(&key)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(token); err != nil {
			return err
		}
		fmt.Fprintf(&buf, "  %s: %d", bytes.TrimSuffix(key.Bytes(), []byte("\n")), index)
		if index < size-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
		return nil
	}

	size := v.Size()
	for i, tok := range v.Tokens() {
		if err := write(tok, i, size); err != nil {
			return fmt.Errorf("artifact: vocab: %w", err)
		}
	}
	if err := write(vocab.PadString, v.Index(vocab.Pad()), size); err != nil {
		return fmt.Errorf("artifact: vocab: %w", err)
	}
	if err := write(vocab.UnkString, v.Index(vocab.Unk()), size); err != nil {
		return fmt.Errorf("artifact: vocab: %w", err)
	}
	buf.WriteString("}\n")

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("artifact: vocab: %w", err)
	}
	return nil
}

// LoadVocab reads a vocabulary artifact back, validating that indices are
// contiguous from zero and that the two reserved tokens sit at the trailing
// positions with the natural tokens in sorted order.
func LoadVocab(path string) (*vocab.Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("artifact: vocab: %w", err)
	}
	var entries map[string]int
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("artifact: vocab: parse %s: %w", path, err)
	}
	if len(entries) < 2 {
		return nil, fmt.Errorf("artifact: vocab: %s holds %d entries, reserved tokens missing", path, len(entries))
	}

	byIndex := make([]string, len(entries))
	seen := make([]bool, len(entries))
	for tok, idx := range entries {
		if idx < 0 || idx >= len(entries) {
			return nil, fmt.Errorf("artifact: vocab: token %q has index %d outside [0, %d)", tok, idx, len(entries))
		}
		if seen[idx] {
			return nil, fmt.Errorf("artifact: vocab: duplicate index %d at token %q", idx, tok)
		}
		seen[idx] = true
		byIndex[idx] = tok
	}

	n := len(entries) - 2
	if byIndex[n] != vocab.PadString {
		return nil, fmt.Errorf("artifact: vocab: index %d is %q, expected %q", n, byIndex[n], vocab.PadString)
	}
	if byIndex[n+1] != vocab.UnkString {
		return nil, fmt.Errorf("artifact: vocab: index %d is %q, expected %q", n+1, byIndex[n+1], vocab.UnkString)
	}
	naturals := byIndex[:n]
	if !sort.StringsAreSorted(naturals) {
		return nil, fmt.Errorf("artifact: vocab: natural tokens in %s are not in sorted index order", path)
	}
	return vocab.Build(naturals), nil
}
