package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// writeMarkdown renders the assembled report as a single markdown document
// with the charts referenced relative to the document.
func writeMarkdown(rep *Report, path string) error {
	var sb strings.Builder
	sb.WriteString("# Unemployment benefit survey analysis\n\n")
	sb.WriteString(fmt.Sprintf("Working sample: %d respondents after cleaning, %d of them benefit recipients.\n\n",
		rep.CleanRows, rep.NonZeroRows))

	for _, sec := range rep.Sections {
		sb.WriteString("## " + sec.Title + "\n\n")
		for _, p := range sec.Paragraphs {
			sb.WriteString(p + "\n\n")
		}
		for _, t := range sec.Tables {
			writeTable(&sb, t)
		}
		for _, c := range sec.Charts {
			rel := filepath.Join("charts", filepath.Base(c))
			sb.WriteString(fmt.Sprintf("![%s](%s)\n\n", strings.TrimSuffix(filepath.Base(c), ".png"), rel))
		}
	}

	if len(rep.Limitations) > 0 {
		sb.WriteString("## Limitations\n\n")
		for _, l := range rep.Limitations {
			sb.WriteString("- " + l + "\n")
		}
		sb.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("writing markdown: %w", err)
	}
	return nil
}

func writeTable(sb *strings.Builder, t Table) {
	sb.WriteString("**" + t.Name + "**\n\n")
	sb.WriteString("| " + strings.Join(t.Header, " | ") + " |\n")
	sep := make([]string, len(t.Header))
	for i := range sep {
		sep[i] = "---"
	}
	sb.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	for _, row := range t.Rows {
		sb.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	sb.WriteString("\n")
}
