package ui

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"reorient/internal/models"
	"reorient/pkg/affine"
	"reorient/pkg/session"
)

var (
	primaryColor   = lipgloss.Color("#7D56F4")
	secondaryColor = lipgloss.Color("#00D9FF")
	successColor   = lipgloss.Color("#04B575")
	errorColor     = lipgloss.Color("#FF5F87")
	mutedColor     = lipgloss.Color("#626262")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			PaddingLeft(1)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(secondaryColor)

	valueStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)
)

// ToPrecision formats v with p significant digits the way JavaScript's
// Number.prototype.toPrecision does.
func ToPrecision(v float64, p int) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		if p == 1 {
			return "0"
		}
		return "0." + strings.Repeat("0", p-1)
	}

	sci := strconv.FormatFloat(v, 'e', p-1, 64)
	i := strings.IndexByte(sci, 'e')
	e, _ := strconv.Atoi(sci[i+1:])
	if e < -6 || e >= p {
		sign := "+"
		if e < 0 {
			sign, e = "-", -e
		}
		return sci[:i] + "e" + sign + strconv.Itoa(e)
	}
	return strconv.FormatFloat(v, 'f', p-1-e, 64)
}

// MatrixString renders a matrix with two significant digits per value,
// non-negative values padded with a space so columns line up.
func MatrixString(m affine.Mat4) string {
	rows := make([]string, 4)
	for i := 0; i < 4; i++ {
		vals := make([]string, 4)
		for j := 0; j < 4; j++ {
			prefix := ""
			if m[i][j] >= 0 {
				prefix = " "
			}
			vals[j] = prefix + ToPrecision(m[i][j], 2)
		}
		rows[i] = strings.Join(vals, ",")
	}
	return strings.Join(rows, "\n")
}

// CropBoxString renders the crop corners as two parenthesised triples.
func CropBoxString(box models.CropBox) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return fmt.Sprintf("(%s,%s,%s)\n(%s,%s,%s)",
		f(box.Min.X), f(box.Min.Y), f(box.Min.Z),
		f(box.Max.X), f(box.Max.Y), f(box.Max.Z))
}

// infoSections returns the five panel entries in display order.
func infoSections(info session.Info) []string {
	return []string{
		info.FileName,
		fmt.Sprintf("%dx%dx%d", info.Dim[0], info.Dim[1], info.Dim[2]),
		MatrixString(info.Mm2Vox),
		MatrixString(info.Vox2Mm),
		CropBoxString(info.CropBox),
	}
}

// PlainInfo renders the info panel without styling.
func PlainInfo(info session.Info) string {
	return strings.Join(infoSections(info), "\n\n")
}

// RenderInfo renders the info panel as a bordered terminal block.
func RenderInfo(info session.Info) string {
	labels := []string{"Volume", "Dimensions", "World to voxel", "Voxel to world", "Selection"}
	sections := infoSections(info)

	blocks := make([]string, 0, len(sections)+1)
	blocks = append(blocks, titleStyle.Render(fmt.Sprintf("Reorient · %s", info.Tool)))
	for i, s := range sections {
		blocks = append(blocks, labelStyle.Render(labels[i])+"\n"+valueStyle.Render(s))
	}
	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, blocks...))
}

// PrintSuccess prints a success line.
func PrintSuccess(msg string) {
	fmt.Println(successStyle.Render("✓ " + msg))
}

// PrintError prints an error line to stderr.
func PrintError(msg string) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("✗ "+msg))
}
