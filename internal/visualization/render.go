// Package visualization renders a settled sandpile grid in various output formats.
// Renderers only read the row-major height matrix; they never see the engine.
package visualization

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/nvandessel/sandpile/internal/constants"
)

// Format specifies the output format for grid rendering.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatPGM  Format = "pgm"
)

// ParseFormat maps a format name to a Format. Empty selects text.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatPGM:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unsupported format %q (use 'text', 'json', or 'pgm')", s)
	}
}

// Render writes rows in the given format. rows[x][y] is the height at (x, y).
func Render(w io.Writer, format Format, rows [][]int) error {
	switch format {
	case FormatText, "":
		return RenderText(w, rows)
	case FormatJSON:
		return RenderJSON(w, rows)
	case FormatPGM:
		return RenderPGM(w, rows)
	default:
		return fmt.Errorf("unsupported format %q (use 'text', 'json', or 'pgm')", format)
	}
}

// RenderText writes one line per row with heights separated by spaces.
func RenderText(w io.Writer, rows [][]int) error {
	bw := bufio.NewWriter(w)
	for _, row := range rows {
		for y, h := range row {
			if y > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(strconv.Itoa(h))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// gridJSON is the document written by RenderJSON.
type gridJSON struct {
	Size    int     `json:"size"`
	Grains  int     `json:"grains"`
	Heights [][]int `json:"heights"`
}

// RenderJSON writes the grid as an indented JSON object with size, total
// grains and the height matrix.
func RenderJSON(w io.Writer, rows [][]int) error {
	doc := gridJSON{Size: len(rows), Heights: rows}
	for _, row := range rows {
		for _, h := range row {
			doc.Grains += h
		}
	}
	if doc.Heights == nil {
		doc.Heights = [][]int{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// RenderPGM writes the grid as a plain (P2) greyscale image, one pixel per
// site. White is the highest height present, never less than
// CriticalHeight-1, so stable grids of any run share one scale.
func RenderPGM(w io.Writer, rows [][]int) error {
	maxVal := constants.CriticalHeight - 1
	for _, row := range rows {
		for _, h := range row {
			if h > maxVal {
				maxVal = h
			}
		}
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "P2\n%d %d\n%d\n", len(rows), len(rows), maxVal)
	if err := RenderText(bw, rows); err != nil {
		return err
	}
	return bw.Flush()
}
