package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/drivedrawers/gdrive-go/internal/drive"
)

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [folder-id]",
		Short: "List files and folders (defaults to the Drive root)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLs,
	}
}

func newStatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat <file-id>",
		Short: "Display file or folder metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  runStat,
	}
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search files by name across the whole Drive",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearch,
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <file-id> [local-path]",
		Short: "Download a file (Google documents are exported to an interchange format)",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runGet,
	}
}

func newURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "url <file-id>",
		Short: "Print a browser viewer URL for a file",
		RunE:  runURL,
		Args:  cobra.ExactArgs(1),
	}
}

// friendlyErr maps well-known sentinel errors to actionable messages.
func friendlyErr(err error) error {
	if errors.Is(err, drive.ErrNotAuthenticated) {
		return fmt.Errorf("not signed in — run 'gdrive login' first")
	}

	return err
}

func runLs(cmd *cobra.Command, args []string) error {
	folderID := drive.RootFolderID
	if len(args) > 0 {
		folderID = args[0]
	}

	ctx := cmd.Context()

	sess, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	sess.logger.Debug("ls", "folder_id", folderID)

	records, err := sess.client.ListFiles(ctx, folderID)
	if err != nil {
		return friendlyErr(fmt.Errorf("listing folder %q: %w", folderID, err))
	}

	sortRecords(records)

	if flagJSON {
		return printRecordsJSON(records)
	}

	printRecords(records)

	return nil
}

// sortRecords orders folders before files, each group alphabetically.
func sortRecords(records []drive.FileRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].IsFolder != records[j].IsFolder {
			return records[i].IsFolder
		}

		return records[i].Name < records[j].Name
	})
}

// recordJSON is the JSON output schema for a single file record.
type recordJSON struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	MimeType   string `json:"mime_type"`
	Size       int64  `json:"size"`
	IsFolder   bool   `json:"is_folder"`
	ModifiedAt string `json:"modified_at,omitempty"`
	ParentID   string `json:"parent_id,omitempty"`
}

func toRecordJSON(rec drive.FileRecord) recordJSON {
	out := recordJSON{
		ID:       rec.ID,
		Name:     rec.Name,
		MimeType: rec.MimeType,
		Size:     rec.Size,
		IsFolder: rec.IsFolder,
		ParentID: rec.ParentID,
	}

	if !rec.ModifiedAt.IsZero() {
		out.ModifiedAt = rec.ModifiedAt.Format(time.RFC3339)
	}

	return out
}

func printRecordsJSON(records []drive.FileRecord) error {
	out := make([]recordJSON, 0, len(records))
	for i := range records {
		out = append(out, toRecordJSON(records[i]))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}

func printRecords(records []drive.FileRecord) {
	rows := make([][]string, 0, len(records))

	for i := range records {
		name := records[i].Name
		if records[i].IsFolder {
			name += "/"
		}

		rows = append(rows, []string{
			name,
			formatSize(records[i].Size),
			formatTime(records[i].ModifiedAt),
			records[i].ID,
		})
	}

	if stdoutIsTerminal() {
		printTable(os.Stdout, []string{"NAME", "SIZE", "MODIFIED", "ID"}, rows)
		return
	}

	printTabSeparated(os.Stdout, rows)
}

func runStat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	sess, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	rec, err := sess.client.GetFile(ctx, args[0])
	if err != nil {
		return friendlyErr(fmt.Errorf("fetching metadata for %q: %w", args[0], err))
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(toRecordJSON(*rec))
	}

	fmt.Printf("Name:      %s\n", rec.Name)
	fmt.Printf("ID:        %s\n", rec.ID)
	fmt.Printf("Type:      %s\n", rec.MimeType)
	fmt.Printf("Size:      %s\n", formatSize(rec.Size))
	fmt.Printf("Modified:  %s\n", formatTime(rec.ModifiedAt))

	if rec.ParentID != "" {
		fmt.Printf("Parent:    %s\n", rec.ParentID)
	}

	return nil
}

// parentResolveWorkers bounds the concurrent metadata lookups used to turn
// parent folder IDs into names in search output.
const parentResolveWorkers = 4

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	sess, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	sess.logger.Debug("search", "query", args[0])

	records, err := sess.client.SearchFiles(ctx, args[0])
	if err != nil {
		return friendlyErr(fmt.Errorf("searching for %q: %w", args[0], err))
	}

	parentNames := resolveParentNames(ctx, sess, records)

	if flagJSON {
		return printRecordsJSON(records)
	}

	printSearchResults(records, parentNames)

	return nil
}

// resolveParentNames fetches metadata for each distinct parent folder so
// search output can show folder names instead of opaque IDs. Lookups run
// concurrently with bounded parallelism; failures degrade to showing the
// raw ID rather than failing the search.
func resolveParentNames(ctx context.Context, sess *session, records []drive.FileRecord) map[string]string {
	distinct := make(map[string]bool)

	for i := range records {
		if records[i].ParentID != "" {
			distinct[records[i].ParentID] = true
		}
	}

	names := make(map[string]string, len(distinct))

	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parentResolveWorkers)

	for parentID := range distinct {
		g.Go(func() error {
			rec, err := sess.client.GetFile(gctx, parentID)
			if err != nil {
				sess.logger.Debug("parent lookup failed", "parent_id", parentID, "error", err)

				return nil
			}

			mu.Lock()
			names[parentID] = rec.Name
			mu.Unlock()

			return nil
		})
	}

	// Workers never return errors; Wait only synchronizes completion.
	_ = g.Wait()

	return names
}

func printSearchResults(records []drive.FileRecord, parentNames map[string]string) {
	rows := make([][]string, 0, len(records))

	for i := range records {
		parent := records[i].ParentID
		if name, ok := parentNames[parent]; ok {
			parent = name
		}

		rows = append(rows, []string{
			records[i].Name,
			parent,
			formatSize(records[i].Size),
			records[i].ID,
		})
	}

	if stdoutIsTerminal() {
		printTable(os.Stdout, []string{"NAME", "FOLDER", "SIZE", "ID"}, rows)
		return
	}

	printTabSeparated(os.Stdout, rows)
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	sess, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	rec, err := sess.client.GetFile(ctx, args[0])
	if err != nil {
		return friendlyErr(fmt.Errorf("fetching metadata for %q: %w", args[0], err))
	}

	if rec.IsFolder {
		return fmt.Errorf("%q is a folder; get works on files", rec.Name)
	}

	localPath := rec.Name
	if len(args) > 1 {
		localPath = args[1]
	}

	n, err := downloadToFile(ctx, sess, *rec, localPath)
	if err != nil {
		return friendlyErr(err)
	}

	statusf("Downloaded %s (%s) to %s\n", rec.Name, formatSize(n), localPath)

	return nil
}

// downloadToFile streams file content to localPath via a temporary .partial
// file so an interrupted download never leaves a truncated file behind.
func downloadToFile(ctx context.Context, sess *session, rec drive.FileRecord, localPath string) (int64, error) {
	if dir := filepath.Dir(localPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("creating directory %q: %w", dir, err)
		}
	}

	partial := localPath + ".partial"

	f, err := os.Create(partial)
	if err != nil {
		return 0, fmt.Errorf("creating %q: %w", partial, err)
	}

	n, err := sess.client.GetFileForPreview(ctx, rec.ID, rec.MimeType, f)
	if err != nil {
		f.Close()
		os.Remove(partial)

		return n, fmt.Errorf("downloading %q: %w", rec.Name, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(partial)

		return n, fmt.Errorf("closing %q: %w", partial, err)
	}

	if err := os.Rename(partial, localPath); err != nil {
		os.Remove(partial)

		return n, fmt.Errorf("renaming to %q: %w", localPath, err)
	}

	return n, nil
}

func runURL(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	sess, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	rec, err := sess.client.GetFile(ctx, args[0])
	if err != nil {
		return friendlyErr(fmt.Errorf("fetching metadata for %q: %w", args[0], err))
	}

	viewerURL, err := sess.client.ViewerURL(ctx, rec.ID, rec.MimeType)
	if err != nil {
		if errors.Is(err, drive.ErrViewerURLDisabled) {
			return fmt.Errorf("%q (%s) needs a token-bearing viewer URL, which is disabled; "+
				"set preview.allow_token_in_viewer_url = true to allow it", rec.Name, rec.MimeType)
		}

		return friendlyErr(err)
	}

	fmt.Println(viewerURL)

	return nil
}
