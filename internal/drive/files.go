package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
)

// Fixed field projections requested from the API. Listings omit parents
// (the parent is already known); single-item and search responses include
// them so callers can recover the enclosing folder.
const (
	listFields   = "files(id,name,mimeType,size,modifiedTime,iconLink)"
	searchFields = "files(id,name,mimeType,size,modifiedTime,iconLink,parents)"
	fileFields   = "id,name,mimeType,size,modifiedTime,iconLink,parents"
)

// listPageSize is the pageSize value sent on listing and search queries.
const listPageSize = 100

// ListFiles returns the non-trashed children of folderID (the root
// sentinel when empty). ParentID is set to folderID on every record unless
// folderID is the root sentinel — root is never recorded as a parent.
func (c *Client) ListFiles(ctx context.Context, folderID string) ([]FileRecord, error) {
	if folderID == "" {
		folderID = RootFolderID
	}

	c.logger.Info("listing files", slog.String("folder_id", folderID))

	query := fmt.Sprintf("'%s' in parents and trashed = false", folderID)

	records, err := c.fetchList(ctx, query, listFields)
	if err != nil {
		return nil, err
	}

	if folderID != RootFolderID {
		for i := range records {
			records[i].ParentID = folderID
		}
	}

	c.logger.Info("listed files",
		slog.String("folder_id", folderID),
		slog.Int("count", len(records)),
	)

	return records, nil
}

// SearchFiles returns non-trashed entries whose name contains query.
// The query string is interpolated into the server-side filter grammar
// verbatim — callers must not pass operator-breaking characters such as
// single quotes, or the filter will be malformed.
func (c *Client) SearchFiles(ctx context.Context, query string) ([]FileRecord, error) {
	c.logger.Info("searching files", slog.String("query", query))

	filter := fmt.Sprintf("name contains '%s' and trashed = false", query)

	records, err := c.fetchList(ctx, filter, searchFields)
	if err != nil {
		return nil, err
	}

	c.logger.Info("search complete",
		slog.String("query", query),
		slog.Int("count", len(records)),
	)

	return records, nil
}

// fetchList runs a files query with the given filter and projection and
// normalizes every entry.
func (c *Client) fetchList(ctx context.Context, query, fields string) ([]FileRecord, error) {
	v := url.Values{}
	v.Set("q", query)
	v.Set("fields", fields)
	v.Set("pageSize", strconv.Itoa(listPageSize))

	resp, err := c.get(ctx, c.baseURL+"/files?"+v.Encode(), ErrRemoteRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, fmt.Errorf("drive: decoding list response: %w", err)
	}

	records := make([]FileRecord, 0, len(lr.Files))
	for i := range lr.Files {
		records = append(records, lr.Files[i].toRecord(c.logger))
	}

	return records, nil
}

// GetFile fetches metadata for a single file and normalizes it. The parent
// is the first entry of the returned parent list.
func (c *Client) GetFile(ctx context.Context, fileID string) (*FileRecord, error) {
	c.logger.Info("getting file", slog.String("file_id", fileID))

	v := url.Values{}
	v.Set("fields", fileFields)

	resp, err := c.get(ctx, c.baseURL+"/files/"+url.PathEscape(fileID)+"?"+v.Encode(), ErrRemoteRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var fr fileResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return nil, fmt.Errorf("drive: decoding file response: %w", err)
	}

	rec := fr.toRecord(c.logger)

	return &rec, nil
}
