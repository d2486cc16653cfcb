package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"drive2photos/internal/domain"
)

var fixedNow = time.Date(2024, 10, 2, 15, 4, 0, 0, time.Local)

func newTestPipeline(src *fakeSource, photos *fakePhotos, ledger Ledger) *Pipeline {
	return &Pipeline{
		Source:  src,
		Photos:  photos,
		Tracker: ledger,
		Now:     func() time.Time { return fixedNow },
	}
}

func asset(id, path, checksum string) domain.Asset {
	return domain.Asset{ID: id, Name: path[strings.LastIndex(path, "/")+1:], Path: path, MimeType: "image/jpeg", Checksum: checksum}
}

func sourceWith(ids ...string) *fakeSource {
	src := newFakeSource()
	for _, id := range ids {
		src.content[id] = []byte("content " + id)
	}
	return src
}

func TestPipelineUploadsAndRecords(t *testing.T) {
	src := sourceWith("1", "2")
	photos := &fakePhotos{}
	ledger := newMemLedger(true)
	pipeline := newTestPipeline(src, photos, ledger)

	assets := []domain.Asset{
		asset("1", "My Drive/Photos/a.jpg", "aaa"),
		asset("2", "My Drive/Photos/b.jpg", "bbb"),
	}
	report, err := pipeline.Run(context.Background(), assets, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(photos.albums) != 1 || photos.albums[0] != "Drive Import 2024-10-02 15:04" {
		t.Fatalf("unexpected albums: %v", photos.albums)
	}
	if report.Album.ID != "album-1" || report.RunID == "" {
		t.Fatalf("unexpected report header: %+v", report)
	}
	if len(report.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(report.Results))
	}
	for i, result := range report.Results {
		if result.Status != domain.StatusSuccess || !result.Success {
			t.Fatalf("result %d not successful: %+v", i, result)
		}
		if result.Path != assets[i].Path {
			t.Fatalf("results out of order: %+v", report.Results)
		}
	}
	if report.Results[0].DestinationID != "media-1" {
		t.Fatalf("unexpected destination id %q", report.Results[0].DestinationID)
	}
	item := photos.items[0]
	if item.AlbumID != "album-1" || item.FileName != "a.jpg" || item.UploadToken != "token-a.jpg" {
		t.Fatalf("unexpected media item: %+v", item)
	}
	if item.Description != "Uploaded from Google Drive: My Drive/Photos/a.jpg" {
		t.Fatalf("unexpected description %q", item.Description)
	}
	if ledger.Len() != 2 {
		t.Fatalf("expected 2 tracked entries, got %d", ledger.Len())
	}
}

func TestPipelineSkipsSharedChecksumWithoutDownload(t *testing.T) {
	src := sourceWith("1", "2")
	photos := &fakePhotos{}
	pipeline := newTestPipeline(src, photos, newMemLedger(true))

	report, err := pipeline.Run(context.Background(), []domain.Asset{
		asset("1", "My Drive/Photos/a.jpg", "abc123"),
		asset("2", "My Drive/Photos/copy/a.jpg", "abc123"),
	}, "Album")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Results[0].Status != domain.StatusSuccess {
		t.Fatalf("first copy should upload: %+v", report.Results[0])
	}
	second := report.Results[1]
	if second.Status != domain.StatusSkippedDuplicate || !second.Success || second.Checksum != "abc123" {
		t.Fatalf("second copy should be skipped: %+v", second)
	}
	if len(src.downloads) != 1 || src.downloads[0] != "1" {
		t.Fatalf("duplicate must not be downloaded: %v", src.downloads)
	}
}

func TestPipelineIsIdempotentAcrossRuns(t *testing.T) {
	src := sourceWith("1", "2", "3")
	ledger := newMemLedger(true)
	assets := []domain.Asset{
		asset("1", "P/1.jpg", "c1"),
		asset("2", "P/2.jpg", "c2"),
		asset("3", "P/3.jpg", "c3"),
	}

	first, err := newTestPipeline(src, &fakePhotos{}, ledger).Run(context.Background(), assets, "run 1")
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Counts().Uploaded != 3 {
		t.Fatalf("first run should upload all: %+v", first.Counts())
	}

	src.downloads = nil
	second, err := newTestPipeline(src, &fakePhotos{}, ledger).Run(context.Background(), assets, "run 2")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	counts := second.Counts()
	if counts.Uploaded != 0 || counts.Skipped != 3 {
		t.Fatalf("second run should skip all: %+v", counts)
	}
	if len(src.downloads) != 0 {
		t.Fatalf("second run must not download: %v", src.downloads)
	}
}

func TestPipelineDisabledSkippingUploadsAgain(t *testing.T) {
	src := sourceWith("1")
	ledger := newMemLedger(false)
	ledger.entries["c1"] = domain.TrackerEntry{SourceID: "1"}

	report, err := newTestPipeline(src, &fakePhotos{}, ledger).Run(context.Background(), []domain.Asset{asset("1", "P/1.jpg", "c1")}, "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Results[0].Status != domain.StatusSuccess {
		t.Fatalf("expected re-upload with skipping disabled: %+v", report.Results[0])
	}
}

func TestPipelineSkipsBySourceIDWhenChecksumMissing(t *testing.T) {
	src := sourceWith("1")
	ledger := newMemLedger(true)
	ledger.entries["old"] = domain.TrackerEntry{SourceID: "1"}

	report, err := newTestPipeline(src, &fakePhotos{}, ledger).Run(context.Background(), []domain.Asset{asset("1", "P/1.jpg", "")}, "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Results[0].Status != domain.StatusSkippedDuplicate {
		t.Fatalf("expected identifier match to skip: %+v", report.Results[0])
	}
}

func TestPipelineBatchCreateServerErrorIsFailed(t *testing.T) {
	src := sourceWith("1")
	photos := &fakePhotos{createErr: &domain.ServiceError{Op: "batchCreate", StatusCode: 500, Message: `{"error":"internal"}`}}
	ledger := newMemLedger(true)

	report, err := newTestPipeline(src, photos, ledger).Run(context.Background(), []domain.Asset{asset("1", "P/1.jpg", "c1")}, "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result := report.Results[0]
	if result.Status != domain.StatusFailed || result.Success {
		t.Fatalf("expected FAILED, got %+v", result)
	}
	if result.Error != `{"error":"internal"}` {
		t.Fatalf("error should be the server body, got %q", result.Error)
	}
	if ledger.Len() != 0 || ledger.records != 0 {
		t.Fatalf("tracker must be unchanged on failure")
	}
}

func TestPipelineCapturesPerAssetFailuresAndContinues(t *testing.T) {
	src := sourceWith("2", "3")
	src.downloadFn = func(id string) ([]byte, error) {
		if id == "1" {
			return nil, errors.New("connection reset")
		}
		return []byte("ok"), nil
	}
	photos := &fakePhotos{}
	pipeline := newTestPipeline(src, photos, newMemLedger(true))

	var seen []int
	pipeline.OnResult = func(index, total int, _ domain.Asset, result domain.UploadResult) {
		seen = append(seen, index)
		if total != 3 {
			t.Fatalf("unexpected total %d", total)
		}
	}

	report, err := pipeline.Run(context.Background(), []domain.Asset{
		asset("1", "P/1.jpg", "c1"),
		asset("2", "P/2.jpg", "c2"),
		asset("3", "P/3.jpg", "c3"),
	}, "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Results[0].Status != domain.StatusError || report.Results[0].Error != "connection reset" {
		t.Fatalf("expected ERROR for download failure: %+v", report.Results[0])
	}
	if report.Results[1].Status != domain.StatusSuccess || report.Results[2].Status != domain.StatusSuccess {
		t.Fatalf("later assets should still upload: %+v", report.Results)
	}
	if len(seen) != 3 {
		t.Fatalf("expected a callback per asset, got %v", seen)
	}
}

func TestPipelineUploadTransportErrorIsError(t *testing.T) {
	src := sourceWith("1")
	photos := &fakePhotos{uploadErr: errors.New("dial tcp: timeout")}

	report, err := newTestPipeline(src, photos, newMemLedger(true)).Run(context.Background(), []domain.Asset{asset("1", "P/1.jpg", "c1")}, "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Results[0].Status != domain.StatusError {
		t.Fatalf("expected ERROR for transport failure: %+v", report.Results[0])
	}
	if len(photos.items) != 0 {
		t.Fatalf("media item must not be created after failed upload")
	}
}

func TestPipelineUploadRejectedIsFailed(t *testing.T) {
	src := sourceWith("1")
	photos := &fakePhotos{uploadErr: &domain.ServiceError{Op: "upload", StatusCode: 403, Message: "quota exceeded"}}

	report, err := newTestPipeline(src, photos, newMemLedger(true)).Run(context.Background(), []domain.Asset{asset("1", "P/1.jpg", "c1")}, "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Results[0].Status != domain.StatusFailed || report.Results[0].Error != "quota exceeded" {
		t.Fatalf("expected FAILED with server text: %+v", report.Results[0])
	}
}

func TestPipelineAlbumFailureIsFatal(t *testing.T) {
	src := sourceWith("1")
	photos := &fakePhotos{albumErr: errors.New("403")}

	_, err := newTestPipeline(src, photos, newMemLedger(true)).Run(context.Background(), []domain.Asset{asset("1", "P/1.jpg", "c1")}, "x")
	if err == nil {
		t.Fatalf("expected album failure to abort the run")
	}
	if len(src.downloads) != 0 || len(photos.uploads) != 0 {
		t.Fatalf("no transfer may happen without an album")
	}
}

func TestPipelineTrackerWriteFailureKeepsSuccess(t *testing.T) {
	src := sourceWith("1")
	ledger := newMemLedger(true)
	ledger.recordErr = errors.New("disk full")

	report, err := newTestPipeline(src, &fakePhotos{}, ledger).Run(context.Background(), []domain.Asset{asset("1", "P/1.jpg", "c1")}, "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Results[0].Status != domain.StatusSuccess {
		t.Fatalf("upload already happened, result must stay SUCCESS: %+v", report.Results[0])
	}
}

func TestPipelineStopsBetweenAssetsOnCancel(t *testing.T) {
	src := sourceWith("1", "2")
	ctx, cancel := context.WithCancel(context.Background())
	pipeline := newTestPipeline(src, &fakePhotos{}, newMemLedger(true))
	pipeline.OnResult = func(index, _ int, _ domain.Asset, _ domain.UploadResult) {
		if index == 1 {
			cancel()
		}
	}

	report, err := pipeline.Run(ctx, []domain.Asset{asset("1", "P/1.jpg", "c1"), asset("2", "P/2.jpg", "c2")}, "x")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(report.Results) != 1 {
		t.Fatalf("expected partial report with 1 result, got %d", len(report.Results))
	}
}

func TestPipelineDescribesWithExifWhenMetadataMissing(t *testing.T) {
	src := sourceWith("1", "2")
	photos := &fakePhotos{}
	exif := &fakeExif{takenAt: time.Date(2019, 7, 14, 9, 30, 0, 0, time.UTC)}
	pipeline := newTestPipeline(src, photos, newMemLedger(true))
	pipeline.Exif = exif

	withMeta := asset("2", "P/2.jpg", "c2")
	withMeta.Metadata = &domain.CaptureMetadata{CameraMake: "Canon"}
	if _, err := pipeline.Run(context.Background(), []domain.Asset{asset("1", "P/1.jpg", "c1"), withMeta}, "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if photos.items[0].Description != "Uploaded from Google Drive: P/1.jpg (taken 2019-07-14 09:30)" {
		t.Fatalf("unexpected description %q", photos.items[0].Description)
	}
	if photos.items[1].Description != "Uploaded from Google Drive: P/2.jpg" {
		t.Fatalf("assets with scan metadata keep the plain description, got %q", photos.items[1].Description)
	}
	if exif.calls != 1 {
		t.Fatalf("expected a single exif probe, got %d", exif.calls)
	}
}
