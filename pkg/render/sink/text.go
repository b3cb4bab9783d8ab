package sink

import (
	"bytes"
	"encoding/xml"
	"strconv"
)

// charWidthRatio approximates the advance of a sans-serif glyph relative to
// the font size.
const charWidthRatio = 0.55

// truncate shortens s so that it fits into width at the given font size.
func truncate(s string, width, fontSize float64) string {
	maxChars := max(3, int(width/(fontSize*charWidthRatio)))
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars-2]) + ".."
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
