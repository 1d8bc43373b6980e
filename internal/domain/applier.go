package domain

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"regexp"
	"time"

	"a11yfix.dev/pkg/a11yfix/internal/adapter"
	m "a11yfix.dev/pkg/a11yfix/internal/model"
)

const (
	backupTimeLayout  = "20060102-150405.000"
	maxBackupAttempts = 100
)

var backupNamePattern = regexp.MustCompile(`^(.*)\.\d{8}-\d{6}\.\d{3}(-\d+)?\.bak$`)

// ErrNotBackup is returned when a restore source is not a recognizable backup.
var ErrNotBackup = errors.New("not a backup file name")

// Applier writes an edit to a live source file behind a sibling backup.
type Applier interface {
	// Apply replaces the inclusive line range with the request's code. The
	// file is untouched unless a backup of its current content was written.
	Apply(ctx context.Context, req m.ApplyRequest) m.ApplyResult
	// Restore copies backup over target and returns the restored path. An
	// empty target is derived from the backup's name.
	Restore(ctx context.Context, backup, target m.Path) (m.Path, error)
}

type applier struct {
	fsAdapter adapter.SourceFSAdapter
	now       func() time.Time
}

// NewApplier constructs an Applier. now stamps backup names; nil uses time.Now.
func NewApplier(fsAdapter adapter.SourceFSAdapter, now func() time.Time) Applier {
	if now == nil {
		now = time.Now
	}

	return &applier{fsAdapter: fsAdapter, now: now}
}

func (a *applier) Apply(ctx context.Context, req m.ApplyRequest) m.ApplyResult {
	const op = "apply"

	if req.File == "" {
		return failedApply(m.Errorf(m.KindApplyFailed, op, "no target file"))
	}

	info, err := a.fsAdapter.FileInfo(ctx, req.File)
	if err != nil {
		slog.Error("Failed to stat target file", "file", req.File, "error", err)
		return failedApply(m.NewError(m.KindFileNotFound, op, fmt.Errorf("cannot stat %s: %w", req.File, err)))
	}

	original, err := a.fsAdapter.ReadFileFresh(ctx, req.File)
	if err != nil {
		slog.Error("Failed to read target file", "file", req.File, "error", err)
		return failedApply(m.NewError(m.KindFileNotFound, op, fmt.Errorf("cannot read %s: %w", req.File, err)))
	}

	src := splitSource(original)
	total := len(src.lines)

	if req.StartLine < 1 || req.StartLine > req.EndLine || req.EndLine > total {
		return failedApply(m.Errorf(m.KindOutOfRange, op, "range %d-%d is invalid for %s (1-%d)",
			req.StartLine, req.EndLine, req.File, total))
	}

	perm := info.Mode().Perm()

	backup, err := a.writeBackup(ctx, req.File, original, perm)
	if err != nil {
		slog.Error("Failed to write backup", "file", req.File, "error", err)
		return failedApply(m.NewError(m.KindApplyFailed, op, fmt.Errorf("backup failed: %w", err)))
	}

	if err := a.verifyBackup(ctx, backup, original); err != nil {
		slog.Error("Failed to verify backup", "file", req.File, "backup", backup, "error", err)
		return m.ApplyResult{
			BackupPath: backup,
			Error:      m.NewError(m.KindApplyFailed, op, err).Error(),
			Kind:       m.KindApplyFailed,
		}
	}

	patched := src.replaceRange(req.StartLine, req.EndLine, splitCode(req.NewCode)).join()

	if err := a.fsAdapter.WriteFileAtomic(ctx, req.File, patched, perm); err != nil {
		slog.Error("Failed to write patched file", "file", req.File, "backup", backup, "error", err)
		return m.ApplyResult{
			BackupPath: backup,
			Error:      m.NewError(m.KindApplyFailed, op, fmt.Errorf("write failed: %w", err)).Error(),
			Kind:       m.KindApplyFailed,
		}
	}

	slog.Info("edit applied", "file", req.File, "start", req.StartLine, "end", req.EndLine, "backup", backup)

	return m.ApplyResult{OK: true, BackupPath: backup}
}

// writeBackup creates <file>.<timestamp>.bak exclusively, adding a numeric
// suffix when an earlier backup in the same millisecond exists.
func (a *applier) writeBackup(ctx context.Context, file m.Path, content []byte, perm fs.FileMode) (m.Path, error) {
	stamp := a.now().Format(backupTimeLayout)

	for attempt := 0; attempt < maxBackupAttempts; attempt++ {
		name := m.Path(fmt.Sprintf("%s.%s.bak", file, stamp))
		if attempt > 0 {
			name = m.Path(fmt.Sprintf("%s.%s-%d.bak", file, stamp, attempt))
		}

		err := a.fsAdapter.CreateFile(ctx, name, content, perm)
		if err == nil {
			return name, nil
		}

		if !errors.Is(err, fs.ErrExist) {
			return "", err
		}
	}

	return "", fmt.Errorf("no free backup name for %s", file)
}

// verifyBackup checks the backup on disk holds exactly the original bytes.
func (a *applier) verifyBackup(ctx context.Context, backup m.Path, original []byte) error {
	got, err := a.fsAdapter.HashFile(ctx, backup)
	if err != nil {
		return fmt.Errorf("failed to hash backup: %w", err)
	}

	if want := fmt.Sprintf("%x", sha256.Sum256(original)); got != want {
		return fmt.Errorf("backup %s does not match the original content", backup)
	}

	return nil
}

func (a *applier) Restore(ctx context.Context, backup, target m.Path) (m.Path, error) {
	if target == "" {
		derived, err := BackupTarget(backup)
		if err != nil {
			return "", err
		}

		target = derived
	}

	content, err := a.fsAdapter.ReadFileFresh(ctx, backup)
	if err != nil {
		slog.Error("Failed to read backup", "backup", backup, "error", err)
		return "", fmt.Errorf("failed to read backup: %w", err)
	}

	perm := fs.FileMode(0o644)
	if info, err := a.fsAdapter.FileInfo(ctx, target); err == nil {
		perm = info.Mode().Perm()
	}

	if err := a.fsAdapter.WriteFileAtomic(ctx, target, content, perm); err != nil {
		slog.Error("Failed to restore file", "target", target, "backup", backup, "error", err)
		return "", fmt.Errorf("failed to restore %s: %w", target, err)
	}

	slog.Info("file restored", "target", target, "backup", backup)

	return target, nil
}

// BackupTarget returns the original file path a backup name was derived from.
func BackupTarget(backup m.Path) (m.Path, error) {
	match := backupNamePattern.FindStringSubmatch(string(backup))
	if match == nil || match[1] == "" {
		return "", fmt.Errorf("%w: %s", ErrNotBackup, backup)
	}

	return m.Path(match[1]), nil
}

func failedApply(err *m.EngineError) m.ApplyResult {
	return m.ApplyResult{Error: err.Error(), Kind: err.Kind}
}
