package drive

import "time"

// RootFolderID is the well-known identifier of the top-level folder.
// Root is never recorded as a parent on normalized records.
const RootFolderID = "root"

// FolderMimeType is the MIME type Drive uses to mark an entry as a folder.
const FolderMimeType = "application/vnd.google-apps.folder"

// SizeUnknown indicates the size was not present in the API response.
const SizeUnknown = -1

// FileRecord is the normalized representation of one remote file or folder
// entry. Records are transient view objects rebuilt from each API response —
// nothing is cached or diffed between calls, and no identity persists
// beyond the ID string.
type FileRecord struct {
	ID         string
	Name       string // NFC-normalized
	MimeType   string
	Size       int64     // SizeUnknown if not reported
	ModifiedAt time.Time // zero if not reported
	IconLink   string
	IsFolder   bool   // derived: MimeType == FolderMimeType
	ParentID   string // empty for root-level and unknown parents
}
