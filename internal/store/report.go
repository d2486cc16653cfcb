package store

import (
	"bytes"
	"fmt"
	"time"

	"drive2photos/internal/domain"
	appErrors "drive2photos/internal/errors"
)

// WriteReport overwrites the report of the previous run.
func (f Files) WriteReport(report domain.RunReport) (string, error) {
	path := f.Path(ReportFile)
	if err := f.fs.WriteFileAtomic(path, FormatReport(report), 0o644); err != nil {
		return "", appErrors.Wrap(appErrors.Persistence, "write upload report", path, err)
	}
	return path, nil
}

func FormatReport(report domain.RunReport) []byte {
	counts := report.Counts()

	var buf bytes.Buffer
	buf.WriteString("# Google Photos Upload Status\n")
	fmt.Fprintf(&buf, "# Generated: %s\n", report.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&buf, "# Run ID: %s\n", report.RunID)
	fmt.Fprintf(&buf, "# Album: %s\n", report.Album.Title)
	fmt.Fprintf(&buf, "# Album ID: %s\n", report.Album.ID)
	fmt.Fprintf(&buf, "# Total: %d files\n", len(report.Results))
	fmt.Fprintf(&buf, "# Uploaded: %d\n", counts.Uploaded)
	fmt.Fprintf(&buf, "# Skipped (duplicates): %d\n", counts.Skipped)
	fmt.Fprintf(&buf, "# Failed: %d\n", counts.Failed)
	buf.WriteString("# Format: status|path|photos_id_or_error\n\n")

	for _, result := range report.Results {
		fmt.Fprintf(&buf, "%s|%s|%s\n", result.Status, result.Path, reportExtra(result))
	}
	return buf.Bytes()
}

func reportExtra(result domain.UploadResult) string {
	switch {
	case result.Status == domain.StatusSkippedDuplicate:
		return "md5:" + result.Checksum
	case result.Success:
		return result.DestinationID
	case result.Error == "":
		return "Unknown error"
	default:
		return result.Error
	}
}
