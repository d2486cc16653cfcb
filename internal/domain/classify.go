package domain

// FolderType is the type marker the source store reserves for folders.
const FolderType = "application/vnd.google-apps.folder"

type EntryClass int

const (
	OtherFile EntryClass = iota
	Folder
	Photo
)

func (c EntryClass) String() string {
	switch c {
	case Folder:
		return "folder"
	case Photo:
		return "photo"
	default:
		return "other"
	}
}

// Classify decides what an entry is. The folder marker wins over any content
// type; everything else is a photo only when its MIME type is allow-listed.
func Classify(entry Entry) EntryClass {
	if entry.TypeMarker == FolderType {
		return Folder
	}
	if IsPhotoMimeType(entry.MimeType) {
		return Photo
	}
	return OtherFile
}

func IsPhotoMimeType(mimeType string) bool {
	switch mimeType {
	case "image/jpeg", "image/png", "image/gif", "image/bmp", "image/webp", "image/tiff",
		"image/heic", "image/heif":
		return true
	default:
		return IsRawMimeType(mimeType)
	}
}

func IsRawMimeType(mimeType string) bool {
	switch mimeType {
	case "image/raw", "image/x-raw",
		"image/x-canon-cr2", "image/x-nikon-nef", "image/x-sony-arw", "image/x-panasonic-rw2",
		"image/x-olympus-orf", "image/x-fuji-raf", "image/x-adobe-dng":
		return true
	default:
		return false
	}
}
