package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"drive2photos/internal/domain"
)

// fakeSource is an in-memory folder tree keyed by node id.
type fakeSource struct {
	children   map[string][]domain.Entry
	names      map[string]string
	content    map[string][]byte
	pageSize   int
	listErr    map[string]error
	nameErr    error
	findErr    error
	listCalls  []string
	downloads  []string
	findCalls  []string
	downloadFn func(id string) ([]byte, error)
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		children: map[string][]domain.Entry{},
		names:    map[string]string{},
		content:  map[string][]byte{},
		listErr:  map[string]error{},
	}
}

func (f *fakeSource) folder(parent, id, name string) {
	f.children[parent] = append(f.children[parent], domain.Entry{ID: id, Name: name, TypeMarker: domain.FolderType, MimeType: domain.FolderType})
	f.names[id] = name
	if _, ok := f.children[id]; !ok {
		f.children[id] = nil
	}
}

func (f *fakeSource) file(parent, id, name, mimeType string) {
	f.children[parent] = append(f.children[parent], domain.Entry{ID: id, Name: name, TypeMarker: mimeType, MimeType: mimeType, Checksum: "md5-" + id})
	f.content[id] = []byte("bytes of " + name)
}

func (f *fakeSource) GetName(ctx context.Context, id string) (string, error) {
	if f.nameErr != nil {
		return "", f.nameErr
	}
	name, ok := f.names[id]
	if !ok {
		return "", errors.New("no such node")
	}
	return name, nil
}

func (f *fakeSource) FindFolder(ctx context.Context, parentID, name string) (string, bool, error) {
	f.findCalls = append(f.findCalls, parentID+"/"+name)
	if f.findErr != nil {
		return "", false, f.findErr
	}
	for _, entry := range f.children[parentID] {
		if entry.TypeMarker == domain.FolderType && entry.Name == name {
			return entry.ID, true, nil
		}
	}
	return "", false, nil
}

func (f *fakeSource) ListPage(ctx context.Context, parentID, pageToken string) (domain.Page, error) {
	f.listCalls = append(f.listCalls, parentID+"@"+pageToken)
	if err := f.listErr[parentID]; err != nil {
		return domain.Page{}, err
	}
	entries := f.children[parentID]
	if f.pageSize <= 0 {
		return domain.Page{Entries: entries}, nil
	}
	start := 0
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil {
			return domain.Page{}, err
		}
		start = n
	}
	end := min(start+f.pageSize, len(entries))
	page := domain.Page{Entries: entries[start:end]}
	if end < len(entries) {
		page.NextPageToken = strconv.Itoa(end)
	}
	return page, nil
}

func (f *fakeSource) Download(ctx context.Context, id string) ([]byte, error) {
	f.downloads = append(f.downloads, id)
	if f.downloadFn != nil {
		return f.downloadFn(id)
	}
	data, ok := f.content[id]
	if !ok {
		return nil, fmt.Errorf("download %s: not found", id)
	}
	return data, nil
}

type fakePhotos struct {
	albumErr   error
	uploadErr  error
	createErr  error
	albums     []string
	uploads    []string
	items      []domain.NewMediaItem
	nextItemID int
}

func (f *fakePhotos) CreateAlbum(ctx context.Context, title string) (domain.Album, error) {
	f.albums = append(f.albums, title)
	if f.albumErr != nil {
		return domain.Album{}, f.albumErr
	}
	return domain.Album{ID: "album-1", Title: title}, nil
}

func (f *fakePhotos) UploadBytes(ctx context.Context, data []byte, fileName, mimeType string) (string, error) {
	f.uploads = append(f.uploads, fileName)
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return "token-" + fileName, nil
}

func (f *fakePhotos) CreateMediaItem(ctx context.Context, item domain.NewMediaItem) (string, error) {
	f.items = append(f.items, item)
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextItemID++
	return fmt.Sprintf("media-%d", f.nextItemID), nil
}

// memLedger mirrors the tracker's duplicate rules without persistence.
type memLedger struct {
	skip      bool
	entries   map[string]domain.TrackerEntry
	recordErr error
	records   int
}

func newMemLedger(skip bool) *memLedger {
	return &memLedger{skip: skip, entries: map[string]domain.TrackerEntry{}}
}

func (m *memLedger) IsDuplicate(checksum, sourceID string) bool {
	if !m.skip {
		return false
	}
	if _, ok := m.entries[checksum]; checksum != "" && ok {
		return true
	}
	for _, entry := range m.entries {
		if entry.SourceID == sourceID {
			return true
		}
	}
	return false
}

func (m *memLedger) Record(ctx context.Context, checksum, sourceID, destID, path string) error {
	m.records++
	if m.recordErr != nil {
		return m.recordErr
	}
	if checksum == "" {
		return nil
	}
	m.entries[checksum] = domain.TrackerEntry{SourceID: sourceID, DestinationID: destID, Path: path}
	return nil
}

func (m *memLedger) Len() int { return len(m.entries) }

type fakeExif struct {
	takenAt time.Time
	err     error
	calls   int
}

func (f *fakeExif) CaptureTime(ctx context.Context, data []byte) (time.Time, error) {
	f.calls++
	return f.takenAt, f.err
}
