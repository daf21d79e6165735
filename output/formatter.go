package output

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/s0up4200/apodctl/apod"
	"github.com/s0up4200/apodctl/download"
	"github.com/s0up4200/apodctl/metrics"
)

const (
	dateLayout = "2006-01-02"
	wrapWidth  = 76
)

// FormatOptions controls what is shown for each entry
type FormatOptions struct {
	ShowExplanation bool
	ShowURLs        bool
}

// ConsoleFormatter provides console output formatting for entries
type ConsoleFormatter struct {
	p painter
}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter(useColors bool) *ConsoleFormatter {
	return &ConsoleFormatter{p: painter(useColors)}
}

// FormatEntryList formats a list of entries as a tree
func (f *ConsoleFormatter) FormatEntryList(entries []apod.Entry, options FormatOptions) string {
	if len(entries) == 0 {
		return "No entries found\n"
	}

	var sb strings.Builder

	sb.WriteString("\nEntr")
	if len(entries) == 1 {
		sb.WriteString("y")
	} else {
		sb.WriteString("ies")
	}
	fmt.Fprintf(&sb, " (%d):\n\n", len(entries))

	for i, entry := range entries {
		isLast := i == len(entries)-1
		f.formatEntry(&sb, entry, isLast, options)

		if !isLast {
			sb.WriteString("│\n")
		}
	}

	sb.WriteString("\n")
	return sb.String()
}

func (f *ConsoleFormatter) formatEntry(sb *strings.Builder, entry apod.Entry, isLast bool, options FormatOptions) {
	prefix := "├"
	indent := "│   "
	if isLast {
		prefix = "╰"
		indent = "    "
	}

	fmt.Fprintf(sb, "%s── %s  %s\n", prefix,
		f.p.paint(entry.Date.Format(dateLayout), color.FgCyan),
		f.p.paint(entry.Title, color.Bold))

	details := []string{"Media: " + entry.MediaType.String()}
	if credit := oneLine(entry.Copyright); credit != "" {
		details = append(details, "© "+credit)
	}
	fmt.Fprintf(sb, "%s%s\n", indent, strings.Join(details, " | "))

	if options.ShowURLs {
		if entry.URL != "" {
			fmt.Fprintf(sb, "%sURL: %s\n", indent, entry.URL)
		}
		if entry.HDURL != "" {
			fmt.Fprintf(sb, "%sHD: %s\n", indent, entry.HDURL)
		}
		if entry.ThumbnailURL != "" {
			fmt.Fprintf(sb, "%sThumbnail: %s\n", indent, entry.ThumbnailURL)
		}
	}

	fmt.Fprintf(sb, "%s%s\n", indent, f.p.paint(apod.Permalink(entry), color.Faint))

	if options.ShowExplanation && entry.Explanation != "" {
		sb.WriteString(indent + "\n")
		for _, line := range wrap(entry.Explanation, wrapWidth) {
			fmt.Fprintf(sb, "%s%s\n", indent, line)
		}
	}
}

// FormatError formats an error envelope with a hint on how to recover
func (f *ConsoleFormatter) FormatError(info apod.ErrorInfo) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s %s\n", f.p.paint("Error ("+info.Kind.String()+"):", color.FgRed, color.Bold), info.Message)
	if hint := errorHint(info.Kind); hint != "" {
		fmt.Fprintf(&sb, "  %s\n", f.p.paint(hint, color.FgYellow))
	}
	return sb.String()
}

func errorHint(kind apod.ErrorKind) string {
	switch kind {
	case apod.KindDateOutOfRange, apod.KindStartDateAfterEndDate:
		return "Check the dates you asked for."
	case apod.KindCountOutOfRange:
		return fmt.Sprintf("Ask for between %d and %d entries.", apod.MinCount, apod.MaxCount)
	case apod.KindAPIKeyMissing, apod.KindAPIKeyInvalid:
		return "Set api.key in the config file or APOD_API_KEY; get a key at https://api.nasa.gov."
	case apod.KindOverRateLimit:
		return "The API key is over its hourly limit. Wait, or use a personal key instead of DEMO_KEY."
	case apod.KindTimeout, apod.KindInternalServiceError:
		return "The service is having trouble; try again later."
	default:
		return ""
	}
}

// FormatDownloadResult summarizes a batch download
func (f *ConsoleFormatter) FormatDownloadResult(result download.BatchResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "\nDownloaded %d of %d entries\n", len(result.Successful), result.Requested)

	for _, file := range result.Successful {
		fmt.Fprintf(&sb, "  %s %s (%s)\n", f.p.paint("✓", color.FgGreen), file.Path, formatBytes(file.Bytes))
	}
	for _, s := range result.Skipped {
		fmt.Fprintf(&sb, "  %s %s %s: %s\n", f.p.paint("-", color.FgYellow), s.Date.Format(dateLayout), s.Title, s.Reason)
	}
	for _, e := range result.Failed {
		fmt.Fprintf(&sb, "  %s %s\n", f.p.paint("✗", color.FgRed), e.Error())
	}

	return sb.String()
}

// FormatStats formats the fetch counters
func (f *ConsoleFormatter) FormatStats(samples []metrics.Sample) string {
	if len(samples) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\nRequests:\n")
	for _, s := range samples {
		fmt.Fprintf(&sb, "  %-6s %-22s %d\n", s.Operation, s.Outcome, int(s.Count))
	}
	return sb.String()
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// wrap splits text into lines of at most width runes, breaking on spaces
func wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len([]rune(line))+1+len([]rune(w)) > width {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	return append(lines, line)
}
