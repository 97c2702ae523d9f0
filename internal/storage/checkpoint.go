package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// maxAutoCheckpoints is how many automatic checkpoints are kept.
const maxAutoCheckpoints = 5

// Checkpoint errors.
var (
	ErrCheckpointNotFound  = errors.New("checkpoint not found")
	ErrCheckpointCorrupted = errors.New("checkpoint integrity check failed")
	ErrCheckpointExists    = errors.New("checkpoint already exists")
	ErrInvalidCheckpoint   = errors.New("invalid checkpoint tag")
	ErrInMemoryDatabase    = errors.New("in-memory databases cannot be checkpointed")
)

// CheckpointManager snapshots the database file before imports so a bad
// import can be rolled back.
type CheckpointManager struct {
	db             *sql.DB
	dbPath         string
	checkpointsDir string
}

// CheckpointInfo describes one checkpoint.
type CheckpointInfo struct {
	CreatedAt     time.Time      `json:"created_at"`
	RowCounts     map[string]int `json:"row_counts"`
	ID            string         `json:"id"`
	Description   string         `json:"description"`
	FileSize      int64          `json:"file_size"`
	SchemaVersion int            `json:"schema_version"`
	IsAuto        bool           `json:"is_auto"`
}

// Clients returns the number of clients in the checkpoint.
func (c CheckpointInfo) Clients() int { return c.RowCounts["clients"] }

// Transactions returns the number of transactions in the checkpoint.
func (c CheckpointInfo) Transactions() int { return c.RowCounts["transactions"] }

// NewCheckpointManager creates a checkpoint manager for the store. Checkpoints
// live in a "checkpoints" directory next to the database file.
func NewCheckpointManager(s *SQLiteStorage) (*CheckpointManager, error) {
	if s.dbPath == ":memory:" {
		return nil, ErrInMemoryDatabase
	}

	dbPath, err := filepath.Abs(s.dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database path: %w", err)
	}
	checkpointsDir := filepath.Join(filepath.Dir(dbPath), "checkpoints")
	if err := os.MkdirAll(checkpointsDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	return &CheckpointManager{
		db:             s.db,
		dbPath:         dbPath,
		checkpointsDir: checkpointsDir,
	}, nil
}

// Create writes a checkpoint of the current database.
func (cm *CheckpointManager) Create(ctx context.Context, tag, description string) (*CheckpointInfo, error) {
	return cm.create(ctx, tag, description, false)
}

// AutoCheckpoint creates an automatic checkpoint and prunes old ones.
func (cm *CheckpointManager) AutoCheckpoint(ctx context.Context, prefix string) (*CheckpointInfo, error) {
	tag := fmt.Sprintf("auto-%s-%s", prefix, time.Now().Format("2006-01-02-150405"))
	info, err := cm.create(ctx, tag, fmt.Sprintf("Automatic checkpoint before %s", prefix), true)
	if err != nil {
		return nil, fmt.Errorf("failed to create auto-checkpoint: %w", err)
	}

	if err := cm.cleanupOldAutoCheckpoints(ctx); err != nil {
		slog.Warn("failed to clean up old auto-checkpoints", "error", err)
	}
	return info, nil
}

func (cm *CheckpointManager) create(ctx context.Context, tag, description string, auto bool) (*CheckpointInfo, error) {
	if tag == "" {
		tag = fmt.Sprintf("checkpoint-%s", time.Now().Format("2006-01-02-150405"))
	}
	if err := validateTag(tag); err != nil {
		return nil, err
	}

	checkpointPath := cm.checkpointPath(tag)
	if _, err := os.Stat(checkpointPath); err == nil {
		return nil, ErrCheckpointExists
	}

	var schemaVersion int
	if err := cm.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&schemaVersion); err != nil {
		return nil, fmt.Errorf("failed to get schema version: %w", err)
	}

	rowCounts := cm.collectRowCounts(ctx)

	if err := cm.backupDatabase(ctx, checkpointPath); err != nil {
		return nil, fmt.Errorf("failed to backup database: %w", err)
	}

	stat, err := os.Stat(checkpointPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat checkpoint: %w", err)
	}

	info := &CheckpointInfo{
		ID:            tag,
		CreatedAt:     time.Now(),
		Description:   description,
		FileSize:      stat.Size(),
		RowCounts:     rowCounts,
		SchemaVersion: schemaVersion,
		IsAuto:        auto,
	}

	if err := cm.saveMetadata(cm.metadataPath(tag), info); err != nil {
		if rmErr := os.Remove(checkpointPath); rmErr != nil {
			slog.Error("failed to remove checkpoint file after metadata save failure", "error", rmErr)
		}
		return nil, fmt.Errorf("failed to save metadata: %w", err)
	}

	slog.Info("Created checkpoint", "id", tag, "size", info.FileSize, "auto", auto)
	return info, nil
}

// List returns all checkpoints, newest first. Unreadable metadata is skipped.
func (cm *CheckpointManager) List(_ context.Context) ([]CheckpointInfo, error) {
	entries, err := os.ReadDir(cm.checkpointsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoints directory: %w", err)
	}

	checkpoints := make([]CheckpointInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".meta.json") {
			continue
		}
		info, err := cm.loadMetadata(filepath.Join(cm.checkpointsDir, entry.Name()))
		if err != nil {
			slog.Debug("skipping unreadable checkpoint metadata", "file", entry.Name(), "error", err)
			continue
		}
		checkpoints = append(checkpoints, *info)
	}

	sort.SliceStable(checkpoints, func(i, j int) bool {
		return checkpoints[i].CreatedAt.After(checkpoints[j].CreatedAt)
	})
	return checkpoints, nil
}

// Restore replaces the database file with a checkpoint. It closes the
// store's connection; the caller must open a new store afterwards.
func (cm *CheckpointManager) Restore(_ context.Context, checkpointID string) error {
	if err := validateTag(checkpointID); err != nil {
		return err
	}

	checkpointPath := cm.checkpointPath(checkpointID)
	if _, err := os.Stat(checkpointPath); err != nil {
		if os.IsNotExist(err) {
			return ErrCheckpointNotFound
		}
		return fmt.Errorf("failed to access checkpoint: %w", err)
	}

	if _, err := cm.loadMetadata(cm.metadataPath(checkpointID)); err != nil {
		return fmt.Errorf("failed to load checkpoint metadata: %w", err)
	}

	if err := verifyIntegrity(checkpointPath); err != nil {
		return fmt.Errorf("%w: %w", ErrCheckpointCorrupted, err)
	}

	if err := cm.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	// WAL side files belong to the replaced database.
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(cm.dbPath + suffix); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove database side file", "file", cm.dbPath+suffix, "error", err)
		}
	}

	backupPath := cm.dbPath + ".restore-backup"
	if err := copyFile(cm.dbPath, backupPath); err != nil {
		return fmt.Errorf("failed to backup current database: %w", err)
	}

	if err := copyFile(checkpointPath, cm.dbPath); err != nil {
		if restoreErr := copyFile(backupPath, cm.dbPath); restoreErr != nil {
			slog.Error("failed to restore backup after checkpoint restore failure", "error", restoreErr)
		}
		return fmt.Errorf("failed to restore checkpoint: %w", err)
	}

	if err := os.Remove(backupPath); err != nil {
		slog.Error("failed to remove backup file", "error", err)
	}

	slog.Info("Restored checkpoint", "id", checkpointID)
	return nil
}

// Delete removes a checkpoint.
func (cm *CheckpointManager) Delete(_ context.Context, checkpointID string) error {
	if err := validateTag(checkpointID); err != nil {
		return err
	}

	if err := os.Remove(cm.checkpointPath(checkpointID)); err != nil {
		if os.IsNotExist(err) {
			return ErrCheckpointNotFound
		}
		return fmt.Errorf("failed to remove checkpoint file: %w", err)
	}
	if err := os.Remove(cm.metadataPath(checkpointID)); err != nil {
		slog.Debug("failed to remove metadata file", "error", err, "id", checkpointID)
	}
	return nil
}

func (cm *CheckpointManager) cleanupOldAutoCheckpoints(ctx context.Context) error {
	checkpoints, err := cm.List(ctx)
	if err != nil {
		return err
	}

	autoCount := 0
	for _, cp := range checkpoints {
		if !cp.IsAuto {
			continue
		}
		autoCount++
		if autoCount > maxAutoCheckpoints {
			if err := cm.Delete(ctx, cp.ID); err != nil {
				slog.Debug("failed to delete old auto-checkpoint", "error", err, "checkpoint", cp.ID)
			}
		}
	}
	return nil
}

func (cm *CheckpointManager) checkpointPath(id string) string {
	return filepath.Join(cm.checkpointsDir, id+".db")
}

func (cm *CheckpointManager) metadataPath(id string) string {
	return filepath.Join(cm.checkpointsDir, id+".meta.json")
}

func (cm *CheckpointManager) collectRowCounts(ctx context.Context) map[string]int {
	tableQueries := map[string]string{
		"clients":      "SELECT COUNT(*) FROM clients WHERE deleted_at IS NULL",
		"transactions": "SELECT COUNT(*) FROM transactions",
		"import_runs":  "SELECT COUNT(*) FROM import_runs",
	}

	counts := make(map[string]int, len(tableQueries))
	for table, query := range tableQueries {
		var count int
		if err := cm.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
			// Table might not exist before migration.
			count = 0
		}
		counts[table] = count
	}
	return counts
}

func (cm *CheckpointManager) backupDatabase(ctx context.Context, destPath string) error {
	if strings.ContainsAny(destPath, `'";`) {
		return fmt.Errorf("invalid destination path: contains forbidden characters")
	}

	if _, err := cm.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("failed to checkpoint WAL: %w", err)
	}

	// #nosec G201 - destPath is validated above
	if _, err := cm.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", destPath)); err != nil {
		slog.Debug("VACUUM INTO failed, copying database file", "error", err)
		return copyFile(cm.dbPath, destPath)
	}
	return nil
}

func (cm *CheckpointManager) saveMetadata(path string, info *CheckpointInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func (cm *CheckpointManager) loadMetadata(path string) (*CheckpointInfo, error) {
	// #nosec G304 - path is built from a validated tag
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var info CheckpointInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func validateTag(tag string) error {
	if strings.TrimSpace(tag) == "" || strings.ContainsAny(tag, `/\'";`) || strings.Contains(tag, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidCheckpoint, tag)
	}
	return nil
}

func verifyIntegrity(path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}

func copyFile(src, dst string) error {
	// #nosec G304 - paths are owned by the checkpoint manager
	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = source.Close() }()

	tmpDst := dst + ".tmp"
	// #nosec G304
	destination, err := os.Create(tmpDst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(destination, source); err != nil {
		_ = destination.Close()
		_ = os.Remove(tmpDst)
		return err
	}
	if err := destination.Close(); err != nil {
		_ = os.Remove(tmpDst)
		return err
	}
	return os.Rename(tmpDst, dst)
}
