package presentation

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"drive2photos/internal/domain"
)

func TestPrintResultLines(t *testing.T) {
	var buf bytes.Buffer
	printer := Printer{Writer: &buf}
	asset := domain.Asset{ID: "1", Path: "My Drive/Photos/a.jpg"}

	printer.PrintResult(1, 3, asset, domain.UploadResult{Status: domain.StatusSkippedDuplicate, Success: true})
	printer.PrintResult(2, 3, asset, domain.UploadResult{Status: domain.StatusSuccess, Success: true})
	printer.PrintResult(3, 3, asset, domain.UploadResult{Status: domain.StatusFailed, Error: "Internal error"})

	want := strings.Join([]string{
		"[1/3] Skipping (duplicate): a.jpg",
		"[2/3] Uploading: a.jpg",
		"    SUCCESS",
		"[3/3] Uploading: a.jpg",
		"    FAILED: Internal error",
		"",
	}, "\n")
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}

func TestPrintScanSummary(t *testing.T) {
	var buf bytes.Buffer
	size := int64(1500)
	Printer{Writer: &buf}.PrintScanSummary(domain.ScanResult{
		Assets:       []domain.Asset{{Size: &size}},
		EmptyFolders: []string{"My Drive/Photos/A", "My Drive/Photos/C/D"},
	})

	output := buf.String()
	for _, want := range []string{"Found 1 photos (1.5 kB)", "Found 2 empty folders", "Empty folders", "D"} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestPrintScanSummaryElidesLargeTrees(t *testing.T) {
	var buf bytes.Buffer
	folders := make([]string, maxTreeFolders+1)
	for i := range folders {
		folders[i] = fmt.Sprintf("My Drive/F%d", i)
	}
	Printer{Writer: &buf}.PrintScanSummary(domain.ScanResult{EmptyFolders: folders})
	if !strings.Contains(buf.String(), "run with --verbose") {
		t.Fatalf("expected elision hint:\n%s", buf.String())
	}
}

func TestEmptyFolderTreeSharesParents(t *testing.T) {
	tree := EmptyFolderTree([]string{"My Drive/Photos/A", "My Drive/Photos/C/D"})
	if strings.Count(tree, "Photos") != 1 {
		t.Fatalf("shared parent should render once:\n%s", tree)
	}
	for _, want := range []string{"A", "C", "D"} {
		if !strings.Contains(tree, want) {
			t.Fatalf("missing %q:\n%s", want, tree)
		}
	}
}

func TestPrintRunSummaryListsFailures(t *testing.T) {
	var buf bytes.Buffer
	Printer{Writer: &buf}.PrintRunSummary(domain.RunReport{
		Album: domain.Album{Title: "Trip"},
		Results: []domain.UploadResult{
			{Path: "ok.jpg", Status: domain.StatusSuccess, Success: true},
			{Path: "bad.jpg", Status: domain.StatusError, Error: "connection reset"},
		},
	})

	output := buf.String()
	for _, want := range []string{"Upload complete!", "Trip", "Failures:", "bad.jpg", "connection reset"} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected %q in output:\n%s", want, output)
		}
	}
	if strings.Contains(output, "ok.jpg") {
		t.Fatalf("successful uploads are not listed as failures:\n%s", output)
	}
}
