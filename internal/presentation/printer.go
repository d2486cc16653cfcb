package presentation

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"drive2photos/internal/domain"
)

const rule = "============================================================"

// maxTreeFolders bounds the empty-folder tree in non-verbose output.
const maxTreeFolders = 25

type Printer struct {
	Writer  io.Writer
	Verbose bool
}

func (p Printer) PrintBanner(title string) {
	fmt.Fprintln(p.Writer, rule)
	fmt.Fprintln(p.Writer, title)
	fmt.Fprintln(p.Writer, rule)
}

func (p Printer) PrintScanSummary(result domain.ScanResult) {
	fmt.Fprintln(p.Writer)
	fmt.Fprintln(p.Writer, "Scan complete!")
	fmt.Fprintf(p.Writer, "Found %d photos (%s)\n", len(result.Assets), humanize.Bytes(result.TotalSize()))
	fmt.Fprintf(p.Writer, "Found %d empty folders\n", len(result.EmptyFolders))

	if len(result.EmptyFolders) == 0 {
		return
	}
	if !p.Verbose && len(result.EmptyFolders) > maxTreeFolders {
		fmt.Fprintf(p.Writer, "(run with --verbose to list all %d empty folders)\n", len(result.EmptyFolders))
		return
	}
	fmt.Fprintln(p.Writer)
	fmt.Fprint(p.Writer, EmptyFolderTree(result.EmptyFolders))
}

// PrintResult writes the per-asset progress lines once an asset is settled.
func (p Printer) PrintResult(index, total int, asset domain.Asset, result domain.UploadResult) {
	prefix := fmt.Sprintf("[%d/%d]", index, total)
	if result.Status == domain.StatusSkippedDuplicate {
		fmt.Fprintf(p.Writer, "%s Skipping (duplicate): %s\n", prefix, asset.FileName())
		return
	}

	if asset.Size != nil && p.Verbose {
		fmt.Fprintf(p.Writer, "%s Uploading: %s (%s)\n", prefix, asset.FileName(), humanize.Bytes(uint64(max(*asset.Size, 0))))
	} else {
		fmt.Fprintf(p.Writer, "%s Uploading: %s\n", prefix, asset.FileName())
	}
	if result.Success {
		fmt.Fprintln(p.Writer, "    SUCCESS")
		return
	}
	message := result.Error
	if message == "" {
		message = "Unknown error"
	}
	fmt.Fprintf(p.Writer, "    FAILED: %s\n", message)
}

func (p Printer) PrintRunSummary(report domain.RunReport) {
	counts := report.Counts()
	fmt.Fprintln(p.Writer)
	fmt.Fprintln(p.Writer, "Upload complete!")
	fmt.Fprintln(p.Writer, renderTable(
		[]string{"Album", "Uploaded", "Skipped (duplicates)", "Failed"},
		[][]string{{report.Album.Title, fmt.Sprint(counts.Uploaded), fmt.Sprint(counts.Skipped), fmt.Sprint(counts.Failed)}},
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
	))

	if counts.Failed == 0 {
		return
	}
	rows := make([][]string, 0, counts.Failed)
	for _, result := range report.Results {
		if result.Success {
			continue
		}
		rows = append(rows, []string{string(result.Status), result.Path, truncate(result.Error, 80)})
	}
	fmt.Fprintln(p.Writer)
	fmt.Fprintln(p.Writer, "Failures:")
	fmt.Fprintln(p.Writer, renderTable([]string{"Status", "Path", "Error"}, rows, nil))
}

func (p Printer) PrintOutputFiles(paths []string) {
	if len(paths) == 0 {
		return
	}
	fmt.Fprintln(p.Writer)
	fmt.Fprintln(p.Writer, "Output files:")
	for _, path := range paths {
		fmt.Fprintln(p.Writer, "  - "+path)
	}
}

func truncate(value string, limit int) string {
	value = strings.ReplaceAll(value, "\n", " ")
	if len(value) <= limit {
		return value
	}
	return value[:limit-3] + "..."
}
