package monitor

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/dmitrymomot/mediakit/pkg/logger"
	"github.com/dmitrymomot/mediakit/pkg/mediapath"
	"github.com/dmitrymomot/mediakit/pkg/records"
	"github.com/dmitrymomot/mediakit/pkg/storage"
)

// OrphanType classifies an on-disk entry with no matching record.
type OrphanType string

const (
	OrphanUserDirectory    OrphanType = "user_directory"
	OrphanAvatar           OrphanType = "orphaned_avatar"
	OrphanTeamDirectory    OrphanType = "team_directory"
	OrphanProjectDirectory OrphanType = "project_directory"
	OrphanImage            OrphanType = "orphaned_image"
	OrphanTempFile         OrphanType = "temporary_file"
)

// ScanKind selects which orphan categories a scan covers.
type ScanKind string

const (
	ScanUsers     ScanKind = "user"
	ScanTeams     ScanKind = "team"
	ScanProjects  ScanKind = "project"
	ScanImages    ScanKind = "image"
	ScanTemporary ScanKind = "temporary"
)

// AllScanKinds returns every scan category in scan order.
func AllScanKinds() []ScanKind {
	return []ScanKind{ScanUsers, ScanTeams, ScanProjects, ScanImages, ScanTemporary}
}

// Orphan is one on-disk file or directory with no matching record.
type Orphan struct {
	Type          OrphanType `json:"type"`
	Path          string     `json:"path"` // storage-relative
	UserID        int64      `json:"user_id,omitempty"`
	TeamID        int64      `json:"team_id,omitempty"`
	ProjectFolder string     `json:"project_folder,omitempty"`
	SizeBytes     int64      `json:"size_bytes"`
	Reason        string     `json:"reason"`
	IsDir         bool       `json:"is_dir"`
}

// ScanReport aggregates the orphans found across scan categories.
// Per-category failures land in Errors; the remaining categories are
// still scanned.
type ScanReport struct {
	Timestamp  time.Time `json:"timestamp"`
	Orphans    []Orphan  `json:"orphans"`
	TotalBytes int64     `json:"total_bytes"`
	Errors     []string  `json:"errors,omitempty"`
}

// CleanupEntry records the outcome for one orphan during cleanup.
type CleanupEntry struct {
	Orphan  Orphan `json:"orphan"`
	Deleted bool   `json:"deleted"`
}

// CleanupReport summarizes an orphan cleanup run.
type CleanupReport struct {
	Timestamp  time.Time      `json:"timestamp"`
	DryRun     bool           `json:"dry_run"`
	Found      int            `json:"found"`
	Deleted    int            `json:"deleted"`
	BytesFreed int64          `json:"bytes_freed"`
	Entries    []CleanupEntry `json:"entries"`
	Errors     []string       `json:"errors,omitempty"`
}

// MissingFile is a path referenced by an application record with no
// file on disk.
type MissingFile struct {
	Path   string `json:"path"`
	Source string `json:"source"` // avatar, image or document
}

// ConsistencyReport lists record-referenced paths missing from disk.
type ConsistencyReport struct {
	Timestamp time.Time     `json:"timestamp"`
	Checked   int           `json:"checked"`
	Missing   []MissingFile `json:"missing,omitempty"`
}

// Scanner finds files and directories under the storage tree that no
// application record references, plus stale temp files. Scans are
// read-only; Cleanup deletes, and only when dry run is off.
type Scanner struct {
	store      *storage.Manager
	src        records.Source
	log        *slog.Logger
	tempMaxAge time.Duration
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithScannerLogger overrides the diagnostics logger.
func WithScannerLogger(log *slog.Logger) ScannerOption {
	return func(s *Scanner) {
		if log != nil {
			s.log = log
		}
	}
}

// WithTempMaxAge overrides the age after which temp files count as
// stale.
func WithTempMaxAge(d time.Duration) ScannerOption {
	return func(s *Scanner) {
		if d > 0 {
			s.tempMaxAge = d
		}
	}
}

// NewScanner creates an orphan scanner over the storage tree and the
// application records it must match against.
func NewScanner(store *storage.Manager, src records.Source, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		store:      store,
		src:        src,
		log:        slog.Default(),
		tempMaxAge: storage.DefaultTempFileMaxAge,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OrphanedUserFiles reports user directories whose ID has no user
// record, and avatar files on disk for users whose record references
// no avatar.
func (s *Scanner) OrphanedUserFiles(ctx context.Context) ([]Orphan, error) {
	ids, err := s.src.UserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list user records: %w", err)
	}
	known := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}

	var orphans []Orphan
	for _, entry := range s.listDirs("users") {
		userID, err := strconv.ParseInt(entry, 10, 64)
		if err != nil {
			continue
		}
		rel := mediapath.UserPath(userID)

		if _, ok := known[userID]; !ok {
			orphans = append(orphans, Orphan{
				Type:      OrphanUserDirectory,
				Path:      rel,
				UserID:    userID,
				SizeBytes: s.dirSize(rel),
				Reason:    "user no longer exists",
				IsDir:     true,
			})
			continue
		}

		avatar, err := s.checkAvatar(ctx, userID)
		if err != nil {
			return nil, err
		}
		if avatar != nil {
			orphans = append(orphans, *avatar)
		}
	}
	return orphans, nil
}

// checkAvatar reports an avatar file on disk that the user record does
// not reference.
func (s *Scanner) checkAvatar(ctx context.Context, userID int64) (*Orphan, error) {
	rel := mediapath.AvatarPath(userID)
	info, err := os.Stat(s.abs(rel))
	if err != nil {
		return nil, nil
	}

	user, err := s.src.UserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}
	if user.AvatarPath != "" {
		return nil, nil
	}
	return &Orphan{
		Type:      OrphanAvatar,
		Path:      rel,
		UserID:    userID,
		SizeBytes: info.Size(),
		Reason:    "avatar file exists but no avatar is set on the user",
	}, nil
}

// OrphanedTeamFiles reports team directories whose ID has no team
// record.
func (s *Scanner) OrphanedTeamFiles(ctx context.Context) ([]Orphan, error) {
	ids, err := s.src.TeamIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list team records: %w", err)
	}
	known := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}

	var orphans []Orphan
	for _, entry := range s.listDirs("teams") {
		teamID, err := strconv.ParseInt(entry, 10, 64)
		if err != nil {
			continue
		}
		if _, ok := known[teamID]; ok {
			continue
		}
		rel := mediapath.TeamPath(teamID)
		orphans = append(orphans, Orphan{
			Type:      OrphanTeamDirectory,
			Path:      rel,
			TeamID:    teamID,
			SizeBytes: s.dirSize(rel),
			Reason:    "team no longer exists",
			IsDir:     true,
		})
	}
	return orphans, nil
}

// OrphanedProjectFiles reports project content folders with no
// matching project record in the owning team.
func (s *Scanner) OrphanedProjectFiles(ctx context.Context) ([]Orphan, error) {
	projects, err := s.src.Projects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list project records: %w", err)
	}
	known := make(map[int64]map[string]struct{})
	for _, p := range projects {
		folders, ok := known[p.TeamID]
		if !ok {
			folders = make(map[string]struct{})
			known[p.TeamID] = folders
		}
		folders[p.ContentFolder] = struct{}{}
	}

	var orphans []Orphan
	for _, entry := range s.listDirs("teams") {
		teamID, err := strconv.ParseInt(entry, 10, 64)
		if err != nil {
			continue
		}
		for _, folder := range s.listDirs(filepath.Join("teams", entry, mediapath.ProjectsDir)) {
			if _, ok := known[teamID][folder]; ok {
				continue
			}
			rel := mediapath.ProjectPath(teamID, folder)
			orphans = append(orphans, Orphan{
				Type:          OrphanProjectDirectory,
				Path:          rel,
				TeamID:        teamID,
				ProjectFolder: folder,
				SizeBytes:     s.dirSize(rel),
				Reason:        "project no longer exists",
				IsDir:         true,
			})
		}
	}
	return orphans, nil
}

// OrphanedImages reports files in project image directories that no
// image record references.
func (s *Scanner) OrphanedImages(ctx context.Context) ([]Orphan, error) {
	paths, err := s.src.ImagePaths(ctx)
	if err != nil {
		return nil, fmt.Errorf("list image records: %w", err)
	}
	known := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		known[filepath.ToSlash(p)] = struct{}{}
	}

	var orphans []Orphan
	base := s.store.BaseDir()
	for _, teamEntry := range s.listDirs("teams") {
		projectsRel := filepath.Join("teams", teamEntry, mediapath.ProjectsDir)
		for _, folder := range s.listDirs(projectsRel) {
			imagesDir := filepath.Join(base, projectsRel, folder, mediapath.ImagesDir)
			_ = filepath.WalkDir(imagesDir, func(path string, d fs.DirEntry, err error) error {
				if err != nil || d.IsDir() {
					return nil
				}
				relPath, err := filepath.Rel(base, path)
				if err != nil {
					return nil
				}
				rel := filepath.ToSlash(relPath)
				if _, ok := known[rel]; ok {
					return nil
				}
				info, err := d.Info()
				if err != nil {
					return nil
				}
				orphans = append(orphans, Orphan{
					Type:      OrphanImage,
					Path:      rel,
					SizeBytes: info.Size(),
					Reason:    "image not referenced by any record",
				})
				return nil
			})
		}
	}
	return orphans, nil
}

// StaleTempFiles reports temp files older than the configured max age.
func (s *Scanner) StaleTempFiles(ctx context.Context) ([]Orphan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-s.tempMaxAge)
	var orphans []Orphan
	_ = filepath.WalkDir(filepath.Join(s.store.BaseDir(), "temp"), func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}
		relPath, err := filepath.Rel(s.store.BaseDir(), path)
		if err != nil {
			return nil
		}
		orphans = append(orphans, Orphan{
			Type:      OrphanTempFile,
			Path:      filepath.ToSlash(relPath),
			SizeBytes: info.Size(),
			Reason:    fmt.Sprintf("temp file older than %s", s.tempMaxAge),
		})
		return nil
	})
	return orphans, nil
}

// Scan runs the selected scan categories (all when none are given)
// and aggregates their findings. A category failure is recorded in
// the report and the remaining categories still run.
func (s *Scanner) Scan(ctx context.Context, kinds ...ScanKind) ScanReport {
	if len(kinds) == 0 {
		kinds = AllScanKinds()
	}

	report := ScanReport{Timestamp: time.Now()}
	for _, kind := range AllScanKinds() {
		if !slices.Contains(kinds, kind) {
			continue
		}

		var (
			found []Orphan
			err   error
		)
		switch kind {
		case ScanUsers:
			found, err = s.OrphanedUserFiles(ctx)
		case ScanTeams:
			found, err = s.OrphanedTeamFiles(ctx)
		case ScanProjects:
			found, err = s.OrphanedProjectFiles(ctx)
		case ScanImages:
			found, err = s.OrphanedImages(ctx)
		case ScanTemporary:
			found, err = s.StaleTempFiles(ctx)
		}
		if err != nil {
			s.log.ErrorContext(ctx, "orphan scan category failed",
				slog.String("category", string(kind)), logger.Error(err))
			report.Errors = append(report.Errors, fmt.Sprintf("%s scan: %v", kind, err))
			continue
		}
		report.Orphans = append(report.Orphans, found...)
	}

	for _, o := range report.Orphans {
		report.TotalBytes += o.SizeBytes
	}
	return report
}

// Cleanup scans the selected categories and deletes what it finds,
// unless dryRun is set, in which case it only reports. Directory
// deletions go through the storage manager's safe removal, so
// directories containing critical files are refused and counted as
// errors.
func (s *Scanner) Cleanup(ctx context.Context, dryRun bool, kinds ...ScanKind) CleanupReport {
	scan := s.Scan(ctx, kinds...)

	report := CleanupReport{
		Timestamp: time.Now(),
		DryRun:    dryRun,
		Found:     len(scan.Orphans),
		Errors:    scan.Errors,
	}

	for _, o := range scan.Orphans {
		entry := CleanupEntry{Orphan: o}
		if !dryRun {
			if err := s.remove(ctx, o); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("delete %s: %v", o.Path, err))
				report.Entries = append(report.Entries, entry)
				continue
			}
			entry.Deleted = true
			report.Deleted++
			report.BytesFreed += o.SizeBytes
		}
		report.Entries = append(report.Entries, entry)
	}

	if dryRun {
		s.log.InfoContext(ctx, "orphan cleanup dry run completed",
			slog.Int("found", report.Found))
	} else {
		s.log.InfoContext(ctx, "orphan cleanup completed",
			slog.Int("deleted", report.Deleted),
			slog.Int64("bytes_freed", report.BytesFreed))
	}
	return report
}

// ValidateConsistency checks the opposite direction of an orphan
// scan: every file path referenced by a record must exist on disk.
func (s *Scanner) ValidateConsistency(ctx context.Context) (ConsistencyReport, error) {
	report := ConsistencyReport{Timestamp: time.Now()}

	sources := []struct {
		name string
		list func(context.Context) ([]string, error)
	}{
		{"avatar", s.src.AvatarPaths},
		{"image", s.src.ImagePaths},
		{"document", s.src.DocumentPaths},
	}
	for _, src := range sources {
		paths, err := src.list(ctx)
		if err != nil {
			return report, fmt.Errorf("list %s records: %w", src.name, err)
		}
		for _, p := range paths {
			report.Checked++
			if !s.store.Exists(filepath.ToSlash(p)) {
				report.Missing = append(report.Missing, MissingFile{
					Path:   filepath.ToSlash(p),
					Source: src.name,
				})
			}
		}
	}
	return report, nil
}

func (s *Scanner) remove(ctx context.Context, o Orphan) error {
	if o.IsDir {
		return s.store.RemoveDirectorySafe(ctx, o.Path, 0)
	}
	return s.store.DeleteFile(ctx, o.Path)
}

func (s *Scanner) abs(rel string) string {
	return filepath.Join(s.store.BaseDir(), filepath.FromSlash(rel))
}

// listDirs returns the names of subdirectories of the storage-relative
// path rel. Missing or unreadable directories yield an empty list.
func (s *Scanner) listDirs(rel string) []string {
	entries, err := os.ReadDir(filepath.Join(s.store.BaseDir(), rel))
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names
}

func (s *Scanner) dirSize(rel string) int64 {
	var total int64
	_ = filepath.WalkDir(s.abs(rel), func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
