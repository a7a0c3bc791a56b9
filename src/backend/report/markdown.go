package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/hannes/irongate/src/backend/pii/scoring"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in Markdown format
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// Write renders the report
func (w *MarkdownWriter) Write(report *ScanReport) error {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeAlert(md, report)
	w.writeEntities(md, report)
	w.writeFailures(md, report)
	w.writeMaskedText(md, report)

	return md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *ScanReport) {
	md.H1("Iron Gate Scan Report")
	md.PlainText("")

	rows := [][]string{
		{"Source", "`" + report.Source + "`"},
		{"Scan Date", report.ScannedAt.Format("2006-01-02 15:04:05 MST")},
		{"Score", strconv.Itoa(report.Score) + " / 100"},
		{"Level", string(report.Level)},
		{"Entities", strconv.Itoa(report.EntityCount)},
		{"Engines", joinOrDash(report.EnginesUsed)},
	}
	if report.SessionID != "" {
		rows = append(rows, []string{"Session", "`" + report.SessionID + "`"})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *ScanReport) {
	switch report.Level {
	case scoring.LevelCritical:
		md.Cautionf("Critical sensitivity (%d). %s", report.Score, report.Explanation)
	case scoring.LevelHigh:
		md.Warningf("High sensitivity (%d). %s", report.Score, report.Explanation)
	case scoring.LevelMedium:
		md.Importantf("Medium sensitivity (%d). %s", report.Score, report.Explanation)
	default:
		if report.EntityCount > 0 {
			md.Note(report.Explanation)
		} else {
			md.Tip(report.Explanation)
		}
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeEntities(md *markdown.Markdown, report *ScanReport) {
	md.H2("Entities")
	md.PlainText("")

	if len(report.Entities) == 0 {
		md.PlainText("No sensitive entities detected.")
		md.PlainText("")
		return
	}

	w.writePieChart(md, report)

	header := []string{"Type", "Span", "Confidence", "Source"}
	withPseudonyms := report.MaskedText != ""
	if withPseudonyms {
		header = append(header, "Pseudonym")
	}

	rows := make([][]string, len(report.Entities))
	for i, e := range report.Entities {
		row := []string{
			e.Type,
			fmt.Sprintf("%d-%d", e.Start, e.End),
			strconv.FormatFloat(e.Confidence, 'f', 2, 64),
			e.Source,
		}
		if withPseudonyms {
			row = append(row, orDash(e.Pseudonym))
		}
		rows[i] = row
	}

	md.Table(markdown.TableSet{
		Header: header,
		Rows:   rows,
	})
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of the entity type distribution
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *ScanReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Entity Types"),
		piechart.WithShowData(true),
	)
	for _, tc := range report.TypeCounts() {
		chart.LabelAndIntValue(tc.Type, uint64(tc.Count))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *ScanReport) {
	if len(report.Failures) == 0 {
		return
	}

	md.H2("Producer Failures")
	md.PlainText("")
	items := make([]string, len(report.Failures))
	for i, f := range report.Failures {
		items[i] = f.Producer + ": " + f.Error
	}
	md.BulletList(items...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeMaskedText(md *markdown.Markdown, report *ScanReport) {
	if report.MaskedText == "" {
		return
	}

	md.H2("Masked Text")
	md.PlainText("")
	md.CodeBlocks("text", report.MaskedText)
	md.PlainText("")
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	out := values[0]
	for _, v := range values[1:] {
		out += ", " + v
	}
	return out
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
