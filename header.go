package sfddust

import (
	"fmt"
	"strconv"
	"strings"
)

// FITS block geometry. Headers and data are both padded to whole blocks.
const (
	blockSize     = 2880
	cardSize      = 80
	cardsPerBlock = blockSize / cardSize
)

// Input sanity limits, well above any real SFD file values.
const (
	// maxGridDim: SFD maps are 4096×4096. Cap at 16384 per axis (1 GiB of float32).
	maxGridDim = 16384

	// maxHeaderBlocks: real SFD headers fit in 2 blocks. A header that never
	// reaches END must not make the decoder scan an arbitrarily large buffer.
	maxHeaderBlocks = 256
)

// Header is a parsed FITS primary header.
// Values are string, int64, float64 or bool depending on the card.
type Header struct {
	values map[string]any
	keys   []string // card order, first occurrence only
}

// Keys returns the keywords in card order.
func (h Header) Keys() []string { return h.keys }

// Has reports whether the keyword is present with a value.
func (h Header) Has(key string) bool {
	_, ok := h.values[key]
	return ok
}

// String returns a string-valued keyword.
func (h Header) String(key string) (string, bool) {
	s, ok := h.values[key].(string)
	return s, ok
}

// Int returns an integer-valued keyword.
func (h Header) Int(key string) (int64, bool) {
	n, ok := h.values[key].(int64)
	return n, ok
}

// Float returns a numeric keyword. Integer cards are widened.
func (h Header) Float(key string) (float64, bool) {
	switch v := h.values[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Bool returns a logical keyword.
func (h Header) Bool(key string) (bool, bool) {
	b, ok := h.values[key].(bool)
	return b, ok
}

// floatOr returns the numeric keyword or def when it is absent.
func (h Header) floatOr(key string, def float64) float64 {
	if v, ok := h.Float(key); ok {
		return v
	}
	return def
}

func (h *Header) set(key string, v any) {
	if _, dup := h.values[key]; dup {
		return
	}
	h.values[key] = v
	h.keys = append(h.keys, key)
}

// parseHeader decodes the header blocks at the start of raw.
// Returns the header and the byte offset of the first data block.
func parseHeader(raw []byte) (Header, int, error) {
	h := Header{values: make(map[string]any, 64)}

	for block := 0; ; block++ {
		if block >= maxHeaderBlocks {
			return Header{}, 0, fmt.Errorf("header: no END card in first %d blocks", maxHeaderBlocks)
		}
		off := block * blockSize
		if off+blockSize > len(raw) {
			return Header{}, 0, fmt.Errorf("header: block %d at %d: out of bounds (buf=%d)", block, off, len(raw))
		}
		for i := 0; i < cardsPerBlock; i++ {
			card := raw[off+i*cardSize : off+(i+1)*cardSize]
			if block == 0 && i == 0 && string(card[:8]) != "SIMPLE  " {
				return Header{}, 0, fmt.Errorf("header: missing SIMPLE card: %q", card[:8])
			}
			key, val, end, err := parseCard(card)
			if err != nil {
				return Header{}, 0, fmt.Errorf("header: card %d: %w", block*cardsPerBlock+i, err)
			}
			if end {
				if simple, _ := h.Bool("SIMPLE"); !simple {
					return Header{}, 0, fmt.Errorf("header: SIMPLE is not T")
				}
				return h, off + blockSize, nil
			}
			if val != nil {
				h.set(key, val)
			}
		}
	}
}

// parseCard decodes one 80-byte header card.
// Commentary cards and cards without a value indicator return a nil value.
func parseCard(card []byte) (key string, val any, end bool, err error) {
	if len(card) != cardSize {
		return "", nil, false, fmt.Errorf("card length %d, want %d", len(card), cardSize)
	}
	for _, c := range card {
		if c < 0x20 || c > 0x7E {
			return "", nil, false, fmt.Errorf("non-ASCII byte 0x%02X in card", c)
		}
	}
	key = strings.TrimRight(string(card[:8]), " ")
	if key == "END" {
		return key, nil, true, nil
	}
	// Value indicator is fixed at columns 9-10.
	if string(card[8:10]) != "= " {
		return key, nil, false, nil
	}
	s := strings.TrimSpace(string(card[10:]))
	if s == "" {
		return key, nil, false, nil
	}
	if s[0] == '\'' {
		str, err := parseString(s)
		if err != nil {
			return "", nil, false, fmt.Errorf("%s: %w", key, err)
		}
		return key, str, false, nil
	}
	if j := strings.IndexByte(s, '/'); j >= 0 {
		s = strings.TrimSpace(s[:j])
	}
	switch s {
	case "":
		return key, nil, false, nil
	case "T":
		return key, true, false, nil
	case "F":
		return key, false, false, nil
	}
	if strings.HasPrefix(s, "(") {
		// Complex values never appear in map headers.
		return key, nil, false, nil
	}
	if strings.ContainsAny(s, ".EeDd") {
		f, err := strconv.ParseFloat(strings.NewReplacer("D", "E", "d", "e").Replace(s), 64)
		if err != nil {
			return "", nil, false, fmt.Errorf("%s: invalid float %q", key, s)
		}
		return key, f, false, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return "", nil, false, fmt.Errorf("%s: invalid integer %q", key, s)
	}
	return key, n, false, nil
}

// parseString decodes a quoted FITS string value. Embedded quotes are doubled;
// trailing blanks are not significant.
func parseString(s string) (string, error) {
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		if s[i] != '\'' {
			b.WriteByte(s[i])
			continue
		}
		if i+1 < len(s) && s[i+1] == '\'' {
			b.WriteByte('\'')
			i++
			continue
		}
		return strings.TrimRight(b.String(), " "), nil
	}
	return "", fmt.Errorf("unterminated string")
}
