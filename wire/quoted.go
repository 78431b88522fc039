package wire

// escape table for quoted parameter values; the zero entry means the
// byte passes through untouched.
var quotedEscapes = [256]string{
	0x00: `\x00`,
	0x08: `\x08`,
	'\t': `\\t`,
	'\n': `\\n`,
	'\'': `\x27`,
	'\\': `\\\`,
}

// WriteQuotedString writes value as a length-prefixed single-quoted SQL
// string with server-side escaping: NUL, backspace, and the quote become
// hex escapes, tab, newline, and backslash become doubled-backslash
// escapes. The length prefix counts the escaped form exactly.
func (w *Writer) WriteQuotedString(value string) error {
	b := []byte(value)
	total := 2
	for _, c := range b {
		if esc := quotedEscapes[c]; esc != "" {
			total += len(esc)
		} else {
			total++
		}
	}
	if err := w.WriteUVarint(uint64(total)); err != nil {
		return err
	}
	if err := w.WriteUInt8('\''); err != nil {
		return err
	}

	start := 0
	for i, c := range b {
		esc := quotedEscapes[c]
		if esc == "" {
			continue
		}
		if i > start {
			if err := w.WriteBytes(b[start:i]); err != nil {
				return err
			}
		}
		if err := w.WriteBytes([]byte(esc)); err != nil {
			return err
		}
		start = i + 1
	}
	if start < len(b) {
		if err := w.WriteBytes(b[start:]); err != nil {
			return err
		}
	}
	return w.WriteUInt8('\'')
}
