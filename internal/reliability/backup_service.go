package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"github.com/aristath/fpl-planner/internal/database"
	"github.com/aristath/fpl-planner/internal/events"
)

const (
	archivePrefix   = "fpl-backup-"
	archiveTimeFmt  = "2006-01-02-150405"
	manifestName    = "backup-metadata.json"
	manifestVersion = "1.0.0"

	// minArchivesKept archives survive pruning regardless of retention
	minArchivesKept = 3
)

// ObjectStore is the slice of the S3 client the backup service needs.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64) error
	List(ctx context.Context, prefix string) ([]types.Object, error)
	Delete(ctx context.Context, key string) error
}

// Manifest describes the contents of one backup archive.
type Manifest struct {
	Timestamp time.Time          `json:"timestamp"`
	Version   string             `json:"version"`
	Databases []DatabaseManifest `json:"databases"`
}

// DatabaseManifest describes a single database copy inside an archive.
type DatabaseManifest struct {
	Name      string `json:"name"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// BackupInfo summarizes one archive stored in the bucket.
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
	AgeHours  int64     `json:"age_hours"`
}

// BackupService snapshots every database into a compressed archive and
// ships it to the object store. Retention is a count of archives to
// keep; zero keeps everything.
type BackupService struct {
	databases map[string]*database.DB
	store     ObjectStore
	events    *events.Manager
	dataDir   string
	retention int
	log       zerolog.Logger
}

// NewBackupService creates a new backup service.
func NewBackupService(
	databases map[string]*database.DB,
	store ObjectStore,
	eventManager *events.Manager,
	dataDir string,
	retention int,
	log zerolog.Logger,
) *BackupService {
	return &BackupService{
		databases: databases,
		store:     store,
		events:    eventManager,
		dataDir:   dataDir,
		retention: retention,
		log:       log.With().Str("service", "backup").Logger(),
	}
}

// Run performs one full backup cycle: stage, archive, upload, prune.
func (s *BackupService) Run(ctx context.Context) error {
	archive, err := s.CreateAndUpload(ctx)
	if err != nil {
		return err
	}

	if _, err := s.Prune(ctx); err != nil {
		s.log.Error().Err(err).Msg("Failed to prune old backups")
		// Don't fail - the archive was uploaded
	}

	s.events.Emit(events.BackupCompleted, "reliability", map[string]interface{}{
		"archive": archive,
	})

	return nil
}

// CreateAndUpload stages every database with VACUUM INTO, wraps the
// verified copies and a checksum manifest in a tar.gz archive, and
// uploads it. Returns the archive name.
func (s *BackupService) CreateAndUpload(ctx context.Context) (string, error) {
	s.log.Info().Msg("Starting backup")
	startTime := time.Now()

	stagingDir := filepath.Join(s.dataDir, "backup-staging")
	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	manifest := Manifest{
		Timestamp: time.Now().UTC(),
		Version:   manifestVersion,
		Databases: make([]DatabaseManifest, 0, len(s.databases)),
	}

	files := make([]string, 0, len(s.databases)+1)
	for _, name := range s.databaseNames() {
		copyPath := filepath.Join(stagingDir, name+".db")
		if err := s.stageDatabase(name, copyPath); err != nil {
			return "", fmt.Errorf("failed to stage %s: %w", name, err)
		}

		info, err := os.Stat(copyPath)
		if err != nil {
			return "", fmt.Errorf("failed to stat %s copy: %w", name, err)
		}

		checksum, err := checksumFile(copyPath)
		if err != nil {
			return "", fmt.Errorf("failed to checksum %s copy: %w", name, err)
		}

		manifest.Databases = append(manifest.Databases, DatabaseManifest{
			Name:      name,
			Filename:  name + ".db",
			SizeBytes: info.Size(),
			Checksum:  checksum,
		})
		files = append(files, name+".db")
	}

	if err := writeManifest(filepath.Join(stagingDir, manifestName), manifest); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	files = append(files, manifestName)

	archiveName := archivePrefix + time.Now().Format(archiveTimeFmt) + ".tar.gz"
	archivePath := filepath.Join(stagingDir, archiveName)
	if err := createArchive(archivePath, stagingDir, files); err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}

	archiveInfo, err := os.Stat(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to stat archive: %w", err)
	}

	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}
	defer archiveFile.Close()

	if err := s.store.Upload(ctx, archiveName, archiveFile, archiveInfo.Size()); err != nil {
		return "", fmt.Errorf("failed to upload archive: %w", err)
	}

	s.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Str("archive", archiveName).
		Int64("size_bytes", archiveInfo.Size()).
		Int("databases", len(manifest.Databases)).
		Msg("Backup uploaded")

	return archiveName, nil
}

// ListBackups returns the archives in the bucket, newest first.
func (s *BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	objects, err := s.store.List(ctx, archivePrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	backups := make([]BackupInfo, 0, len(objects))
	now := time.Now()

	for _, obj := range objects {
		if obj.Key == nil {
			continue
		}

		filename := *obj.Key
		if !strings.HasPrefix(filename, archivePrefix) || !strings.HasSuffix(filename, ".tar.gz") {
			continue
		}

		stamp := strings.TrimSuffix(strings.TrimPrefix(filename, archivePrefix), ".tar.gz")
		timestamp, err := time.Parse(archiveTimeFmt, stamp)
		if err != nil {
			s.log.Warn().Str("filename", filename).Msg("Unparseable archive name, skipping")
			continue
		}

		var sizeBytes int64
		if obj.Size != nil {
			sizeBytes = *obj.Size
		}

		backups = append(backups, BackupInfo{
			Filename:  filename,
			Timestamp: timestamp,
			SizeBytes: sizeBytes,
			AgeHours:  int64(now.Sub(timestamp).Hours()),
		})
	}

	// Newest first
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})

	return backups, nil
}

// Prune deletes archives beyond the retention count. The newest three
// always survive; zero retention disables pruning entirely.
func (s *BackupService) Prune(ctx context.Context) (int, error) {
	if s.retention <= 0 {
		return 0, nil
	}

	backups, err := s.ListBackups(ctx)
	if err != nil {
		return 0, err
	}

	keep := s.retention
	if keep < minArchivesKept {
		keep = minArchivesKept
	}
	if len(backups) <= keep {
		return 0, nil
	}

	deleted := 0
	for _, backup := range backups[keep:] {
		if err := s.store.Delete(ctx, backup.Filename); err != nil {
			s.log.Error().Err(err).Str("filename", backup.Filename).Msg("Failed to delete old backup")
			continue
		}
		s.log.Info().Str("filename", backup.Filename).Msg("Deleted old backup")
		deleted++
	}

	return deleted, nil
}

// stageDatabase copies one database into the staging directory using
// VACUUM INTO, then runs an integrity check on the copy.
func (s *BackupService) stageDatabase(name, dest string) error {
	db, ok := s.databases[name]
	if !ok {
		return fmt.Errorf("database %s not found", name)
	}

	// VACUUM INTO writes an atomic, WAL-free copy
	if _, err := db.Conn().Exec(fmt.Sprintf("VACUUM INTO '%s'", dest)); err != nil {
		return fmt.Errorf("VACUUM INTO failed: %w", err)
	}

	if err := verifyCopy(dest); err != nil {
		os.Remove(dest)
		return err
	}

	return nil
}

func (s *BackupService) databaseNames() []string {
	names := make([]string, 0, len(s.databases))
	for name := range s.databases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func verifyCopy(path string) error {
	copyDB, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open copy: %w", err)
	}
	defer copyDB.Close()

	var result string
	if err := copyDB.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check returned %q", result)
	}

	return nil
}

func checksumFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}

func writeManifest(path string, manifest Manifest) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(manifest)
}

func createArchive(archivePath, sourceDir string, filenames []string) error {
	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer archiveFile.Close()

	gzipWriter := gzip.NewWriter(archiveFile)
	defer gzipWriter.Close()

	tarWriter := tar.NewWriter(gzipWriter)
	defer tarWriter.Close()

	for _, filename := range filenames {
		if err := addFileToArchive(tarWriter, filepath.Join(sourceDir, filename), filename); err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", filename, err)
		}
	}

	return nil
}

func addFileToArchive(tarWriter *tar.Writer, path, nameInArchive string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header := &tar.Header{
		Name:    nameInArchive,
		Size:    info.Size(),
		Mode:    int64(info.Mode()),
		ModTime: info.ModTime(),
	}
	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}

	_, err = io.Copy(tarWriter, file)
	return err
}

// BackupJob wraps BackupService.Run for the scheduler.
type BackupJob struct {
	service *BackupService
}

// NewBackupJob creates a new backup job.
func NewBackupJob(service *BackupService) *BackupJob {
	return &BackupJob{service: service}
}

// Run executes one backup cycle.
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	return j.service.Run(ctx)
}

// Name returns the job name for the scheduler.
func (j *BackupJob) Name() string {
	return "backup"
}
