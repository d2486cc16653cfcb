package exif

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	goexif "github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
)

var registerOnce sync.Once

// Reader extracts capture timestamps from downloaded image bytes.
type Reader struct{}

func (Reader) CaptureTime(ctx context.Context, data []byte) (time.Time, error) {
	select {
	case <-ctx.Done():
		return time.Time{}, ctx.Err()
	default:
	}

	registerOnce.Do(func() {
		goexif.RegisterParsers(mknote.All...)
	})

	x, err := goexif.Decode(bytes.NewReader(data))
	if err != nil {
		return time.Time{}, err
	}

	if tag, err := x.Get(goexif.DateTimeOriginal); err == nil {
		if str, err := tag.StringVal(); err == nil {
			parsed, err := time.Parse("2006:01:02 15:04:05", str)
			if err == nil {
				return parsed, nil
			}
		}
	}

	if parsed, err := x.DateTime(); err == nil {
		return parsed, nil
	}

	return time.Time{}, errors.New("exif datetime not found")
}
