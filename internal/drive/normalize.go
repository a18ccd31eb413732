package drive

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// fileResponse mirrors the Drive v3 file resource JSON exactly.
// Unexported — callers only ever see FileRecord via toRecord().
type fileResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	MimeType     string          `json:"mimeType"`
	Size         json.RawMessage `json:"size"`
	ModifiedTime string          `json:"modifiedTime"`
	IconLink     string          `json:"iconLink"`
	Parents      []string        `json:"parents"`
}

type listResponse struct {
	Files []fileResponse `json:"files"`
}

// toRecord normalizes a raw Drive file resource into a FileRecord.
// IsFolder is derived from the MIME type here and nowhere else; the API's
// own flags are never trusted. When a parent list is present, only the
// first entry is consulted — Drive's data model allows multiple parents,
// but this system never uses more than one.
func (f *fileResponse) toRecord(logger *slog.Logger) FileRecord {
	rec := FileRecord{
		ID:       f.ID,
		Name:     norm.NFC.String(f.Name),
		MimeType: f.MimeType,
		Size:     parseSize(f.Size, f.ID, logger),
		IconLink: f.IconLink,
		IsFolder: f.MimeType == FolderMimeType,
	}

	if len(f.Parents) > 0 {
		rec.ParentID = f.Parents[0]
	}

	rec.ModifiedAt = parseModifiedTime(f.ModifiedTime, f.ID, logger)

	return rec
}

// parseSize tolerates the API reporting size as either a JSON string or a
// bare number. Absent or garbled sizes map to SizeUnknown.
func parseSize(raw json.RawMessage, itemID string, logger *slog.Logger) int64 {
	if len(raw) == 0 {
		return SizeUnknown
	}

	n, err := strconv.ParseInt(strings.Trim(string(raw), `"`), 10, 64)
	if err != nil {
		logger.Warn("unparseable size, treating as unknown",
			slog.String("item_id", itemID),
			slog.String("raw", string(raw)),
		)

		return SizeUnknown
	}

	return n
}

// parseModifiedTime parses the RFC3339 modification timestamp. Absent or
// invalid timestamps yield the zero time — the field is optional on
// FileRecord, so no fallback value is invented.
func parseModifiedTime(raw, itemID string, logger *slog.Logger) time.Time {
	if raw == "" {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		logger.Warn("invalid modifiedTime, treating as unknown",
			slog.String("item_id", itemID),
			slog.String("raw", raw),
			slog.String("error", err.Error()),
		)

		return time.Time{}
	}

	return t
}
