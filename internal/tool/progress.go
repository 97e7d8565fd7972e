package tool

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/dennisklein/kgate/internal/util"
)

// ProgressReader wraps an io.Reader and draws a download bar for it.
//
//nolint:govet // fieldalignment: readability preferred over minor memory optimization
type ProgressReader struct {
	reader   io.Reader
	label    string
	total    int64
	current  int64
	progress progress.Model
	writer   io.Writer
	lastPct  int
}

// NewProgressReader creates a progress reader labelled with the tool name.
func NewProgressReader(reader io.Reader, total int64, writer io.Writer, label string) *ProgressReader {
	prog := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return &ProgressReader{
		reader:   reader,
		label:    label,
		total:    total,
		progress: prog,
		writer:   writer,
		lastPct:  -1,
	}
}

// Read implements io.Reader and updates progress.
func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.current += int64(n)

	if pr.writer != nil && pr.total > 0 {
		percent := float64(pr.current) / float64(pr.total)
		currentPct := int(percent * 100)

		// redraw in 5% steps
		if currentPct != pr.lastPct && (currentPct%5 == 0 || currentPct == 100 || pr.lastPct == -1) {
			pr.lastPct = currentPct
			pr.render(percent)
		}
	}

	return n, err
}

func (pr *ProgressReader) render(percent float64) {
	if pr.writer == nil {
		return
	}

	_, _ = fmt.Fprint(pr.writer, "\r\033[K") //nolint:errcheck // best effort progress display

	label := lipgloss.NewStyle().Bold(true).Render(pr.label)
	info := lipgloss.NewStyle().
		Foreground(lipgloss.Color("green")).
		Render(fmt.Sprintf(" %3.0f%% (%s / %s)", percent*100, util.FormatBytes(pr.current), util.FormatBytes(pr.total)))

	_, _ = fmt.Fprint(pr.writer, label+" "+pr.progress.ViewAs(percent)+info) //nolint:errcheck // best effort progress display
}

// Finish completes the progress display.
func (pr *ProgressReader) Finish() {
	if pr.writer != nil {
		pr.render(1.0)
		_, _ = fmt.Fprintln(pr.writer) //nolint:errcheck // best effort progress display
	}
}

// ProgressWriter wraps progress messages for non-interactive output.
type ProgressWriter struct {
	writer io.Writer
}

// NewProgressWriter creates a simple progress writer.
func NewProgressWriter(writer io.Writer) *ProgressWriter {
	return &ProgressWriter{writer: writer}
}

// WriteMessage writes a progress message. It is a no-op without a writer.
func (pw *ProgressWriter) WriteMessage(format string, args ...any) error {
	if pw.writer == nil {
		return nil
	}

	_, err := fmt.Fprintf(pw.writer, format, args...)

	return err
}
