package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"drive2photos/internal/domain"
	appErrors "drive2photos/internal/errors"
	"drive2photos/internal/logging"
)

const descriptionPrefix = "Uploaded from Google Drive: "

// DefaultAlbumTitle names the album created when the caller supplies none.
func DefaultAlbumTitle(now time.Time) string {
	return "Drive Import " + now.Format("2006-01-02 15:04")
}

// Pipeline migrates assets one at a time: duplicate check, download, upload,
// register in the run's album, record in the ledger.
type Pipeline struct {
	Source  Downloader
	Photos  PhotoService
	Tracker Ledger
	Exif    ExifReader
	Logger  logging.Logger
	Now     func() time.Time

	OnAlbum  func(album domain.Album)
	OnAsset  func(index, total int, asset domain.Asset)
	OnResult func(index, total int, asset domain.Asset, result domain.UploadResult)
}

// Run creates the album and transfers every asset in order. Failing to create
// the album is fatal. Per-asset failures are captured in the report and never
// stop the run. When ctx is cancelled the run stops between assets and returns
// the partial report together with the context error.
func (p *Pipeline) Run(ctx context.Context, assets []domain.Asset, albumTitle string) (domain.RunReport, error) {
	if p.Source == nil || p.Photos == nil || p.Tracker == nil {
		return domain.RunReport{}, errors.New("pipeline requires source, photo service and tracker")
	}

	stop := p.Logger.Measure("Migration run")
	defer stop()

	if albumTitle == "" {
		albumTitle = DefaultAlbumTitle(p.now())
	}
	report := domain.RunReport{RunID: uuid.NewString()}

	p.Logger.Infof("Creating album '%s'...", albumTitle)
	album, err := p.Photos.CreateAlbum(ctx, albumTitle)
	if err != nil {
		return report, appErrors.Wrap(appErrors.Transfer, "create album", albumTitle, err)
	}
	if album.Title == "" {
		album.Title = albumTitle
	}
	report.Album = album
	p.Logger.Infof("Created album: '%s' (ID: %s)", album.Title, album.ID)
	if p.OnAlbum != nil {
		p.OnAlbum(album)
	}

	p.Logger.Verbosef("%d photos already tracked", p.Tracker.Len())
	p.Logger.Infof("Starting upload of %d photos to Google Photos...", len(assets))

	total := len(assets)
	report.Results = make([]domain.UploadResult, 0, total)
	for i, asset := range assets {
		if err := ctx.Err(); err != nil {
			report.GeneratedAt = p.now()
			return report, err
		}
		if p.OnAsset != nil {
			p.OnAsset(i+1, total, asset)
		}

		var result domain.UploadResult
		if p.Tracker.IsDuplicate(asset.Checksum, asset.ID) {
			result = domain.NewUploadResult(asset, domain.StatusSkippedDuplicate, p.now())
		} else {
			result = p.transfer(ctx, asset, album)
		}
		report.Results = append(report.Results, result)

		if p.OnResult != nil {
			p.OnResult(i+1, total, asset, result)
		}
	}

	report.GeneratedAt = p.now()
	return report, nil
}

func (p *Pipeline) transfer(ctx context.Context, asset domain.Asset, album domain.Album) domain.UploadResult {
	fileName := asset.FileName()

	data, err := p.Source.Download(ctx, asset.ID)
	if err != nil {
		return p.failure(asset, err, false)
	}

	token, err := p.Photos.UploadBytes(ctx, data, fileName, asset.MimeType)
	if err != nil {
		return p.failure(asset, err, true)
	}

	mediaID, err := p.Photos.CreateMediaItem(ctx, domain.NewMediaItem{
		UploadToken: token,
		FileName:    fileName,
		Description: p.describe(ctx, asset, data),
		AlbumID:     album.ID,
	})
	if err != nil {
		return p.failure(asset, err, true)
	}

	result := domain.NewUploadResult(asset, domain.StatusSuccess, p.now())
	result.DestinationID = mediaID
	if err := p.Tracker.Record(ctx, asset.Checksum, asset.ID, mediaID, asset.Path); err != nil {
		p.Logger.Warnf("Could not record upload of %s in tracker: %v", asset.Path, err)
	}
	return result
}

// failure maps an error to a result. Rejections reported by the destination
// service are FAILED with the server's text; anything else is ERROR.
func (p *Pipeline) failure(asset domain.Asset, err error, serviceCall bool) domain.UploadResult {
	var svcErr *domain.ServiceError
	if serviceCall && errors.As(err, &svcErr) {
		result := domain.NewUploadResult(asset, domain.StatusFailed, p.now())
		result.Error = svcErr.Message
		return result
	}
	result := domain.NewUploadResult(asset, domain.StatusError, p.now())
	result.Error = err.Error()
	return result
}

// describe builds the media item description. Without scan-time capture
// metadata the downloaded bytes are probed for an EXIF capture time.
func (p *Pipeline) describe(ctx context.Context, asset domain.Asset, data []byte) string {
	description := descriptionPrefix + asset.Path
	if asset.Metadata != nil || p.Exif == nil {
		return description
	}
	takenAt, err := p.Exif.CaptureTime(ctx, data)
	if err != nil || takenAt.IsZero() {
		return description
	}
	return fmt.Sprintf("%s (taken %s)", description, takenAt.Format("2006-01-02 15:04"))
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
