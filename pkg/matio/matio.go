// Package matio reads and writes the plain-text matrix and selection files.
//
// A matrix file holds up to four lines of four space-separated numbers, the
// rows of a voxel-to-world matrix. A selection file holds two lines of three
// numbers: the minimum and maximum corners of the crop box in millimetres.
package matio

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"net/url"
	"strconv"
	"strings"

	"reorient/internal/models"
	"reorient/pkg/affine"
)

// ParseError reports a malformed line in a matrix or selection file.
type ParseError struct {
	// Line and Column are 1-based; Column is 0 when the whole line is wrong
	Line   int
	Column int
	Token  string
	Msg    string
}

func (e *ParseError) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("line %d, column %d: %s %q", e.Line, e.Column, e.Msg, e.Token)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

type row struct {
	line   int
	values []float64
}

// readRows returns every non-blank line as a row of numbers, stopping after limit rows.
func readRows(r io.Reader, limit int) ([]row, error) {
	var rows []row
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() && len(rows) < limit {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		values := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, &ParseError{Line: line, Column: i + 1, Token: f, Msg: "not a number"}
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &ParseError{Line: line, Column: i + 1, Token: f, Msg: "not a finite number"}
			}
			values[i] = v
		}
		rows = append(rows, row{line: line, values: values})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return rows, nil
}

// ParseMatrix reads a voxel-to-world matrix. At least three rows are required;
// a missing fourth row is taken as 0 0 0 1 and lines past the fourth are ignored.
func ParseMatrix(r io.Reader) (affine.Mat4, error) {
	m := affine.Identity()
	rows, err := readRows(r, 4)
	if err != nil {
		return m, err
	}
	if len(rows) < 3 {
		return m, &ParseError{Line: len(rows) + 1, Msg: fmt.Sprintf("expected at least 3 matrix rows, got %d", len(rows))}
	}
	for i, rw := range rows {
		if len(rw.values) != 4 {
			return m, &ParseError{Line: rw.line, Msg: fmt.Sprintf("expected 4 values, got %d", len(rw.values))}
		}
		copy(m[i][:], rw.values)
	}
	return m, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// FormatMatrix writes the rows of m as space-separated values joined by newlines.
func FormatMatrix(m affine.Mat4) string {
	lines := make([]string, 4)
	for i := 0; i < 4; i++ {
		vals := make([]string, 4)
		for j := 0; j < 4; j++ {
			vals[j] = formatFloat(m[i][j])
		}
		lines[i] = strings.Join(vals, " ")
	}
	return strings.Join(lines, "\n")
}

// WriteMatrix writes FormatMatrix(m) followed by a newline.
func WriteMatrix(w io.Writer, m affine.Mat4) error {
	_, err := io.WriteString(w, FormatMatrix(m)+"\n")
	return err
}

// ParseSelection reads a crop box from two lines of three numbers.
func ParseSelection(r io.Reader) (models.CropBox, error) {
	var box models.CropBox
	rows, err := readRows(r, 3)
	if err != nil {
		return box, err
	}
	if len(rows) != 2 {
		line := len(rows) + 1
		if len(rows) > 2 {
			line = rows[2].line
		}
		return box, &ParseError{Line: line, Msg: fmt.Sprintf("expected 2 selection lines, got %d", len(rows))}
	}
	for _, rw := range rows {
		if len(rw.values) != 3 {
			return box, &ParseError{Line: rw.line, Msg: fmt.Sprintf("expected 3 values, got %d", len(rw.values))}
		}
	}
	box.Min = models.Vec3{X: rows[0].values[0], Y: rows[0].values[1], Z: rows[0].values[2]}
	box.Max = models.Vec3{X: rows[1].values[0], Y: rows[1].values[1], Z: rows[1].values[2]}
	return box, nil
}

// FormatSelection writes the min and max corners on two lines.
func FormatSelection(box models.CropBox) string {
	corner := func(v models.Vec3) string {
		return strings.Join([]string{formatFloat(v.X), formatFloat(v.Y), formatFloat(v.Z)}, " ")
	}
	return corner(box.Min) + "\n" + corner(box.Max)
}

// WriteSelection writes FormatSelection(box) followed by a newline.
func WriteSelection(w io.Writer, box models.CropBox) error {
	_, err := io.WriteString(w, FormatSelection(box)+"\n")
	return err
}

// DataURI wraps text in a data: link a browser can download, newlines
// encoded as %0A.
func DataURI(text string) string {
	return "data:text/plain;charset=utf-8," + strings.ReplaceAll(url.PathEscape(text), "+", "%2B")
}
