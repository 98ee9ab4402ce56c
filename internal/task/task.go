package task

import (
	"context"
	"errors"
	"fmt"
	"os"

	"bqm/internal/assignment"
	"bqm/internal/bqmqueue"
	"bqm/internal/hostiface"
	"bqm/internal/tool"
)

// Task runs one Queue item through an Assignment's chain and reports a
// single Result, the Go equivalent of digiKam's Task::run. A Task is
// constructed fresh per item by the Worker Pool; it holds no state that
// would need resetting between runs.
type Task struct {
	Host     hostiface.Host
	Chain    *assignment.Assignment
	Settings bqmqueue.Settings
}

// Run executes the full per-item pipeline: decode, chain, encode,
// write. It always returns exactly one Result, even when ctx is already
// canceled on entry, matching task.cpp's guarantee that every run emits
// exactly one ActionData.
func (t *Task) Run(ctx context.Context, item bqmqueue.Item, outputDir string, conflictCheck func(string) bool) Result {
	base := Result{SourcePath: item.SourcePath, FailedStep: -1}

	if err := ctx.Err(); err != nil {
		base.Status = StatusCanceled
		base.Message = err.Error()
		return base
	}

	scratch, err := os.MkdirTemp("", "bqm-task-*")
	if err != nil {
		base.Status = StatusFailed
		base.Message = fmt.Sprintf("create scratch dir: %v", err)
		return base
	}
	defer os.RemoveAll(scratch)

	data, err := t.Host.Files.ReadFile(item.SourcePath)
	if err != nil {
		base.Status = StatusFailed
		base.Message = fmt.Sprintf("read source: %v", err)
		return base
	}

	img, err := t.Host.Decoder.Decode(item.SourcePath, data, t.Settings.RawLoadingRule)
	if err != nil {
		base.Status = StatusFailed
		base.Message = fmt.Sprintf("decode source: %v", err)
		return base
	}

	meta, err := t.Host.Metadata.ReadTags(item.SourcePath, data)
	if err != nil {
		base.Status = StatusFailed
		base.Message = fmt.Sprintf("read metadata: %v", err)
		return base
	}

	ac := &tool.Context{
		Image:           img,
		Meta:            meta,
		WorkDir:         scratch,
		SrcPath:         item.SourcePath,
		NoMetadataWrite: t.Settings.NoMetadataWrite,
	}

	result, failedIndex, err := t.Chain.Run(ctx, ac)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			base.Status = StatusCanceled
			base.Message = err.Error()
			return base
		}
		base.Status = StatusFailed
		base.Message = err.Error()
		base.FailedStep = failedIndex
		return base
	}
	ac = result

	dest, err := bqmqueue.ResolveDestination(item.SourcePath, outputDir, t.Settings, t.Chain, conflictCheck)
	if err != nil {
		base.Status = StatusSkipped
		base.Message = err.Error()
		return base
	}

	encoded, err := t.Host.Encoder.Encode(ac.Image)
	if err != nil {
		base.Status = StatusFailed
		base.Message = fmt.Sprintf("encode result: %v", err)
		return base
	}

	if err := hostiface.EnsureParentDir(t.Host.Files, dest); err != nil {
		base.Status = StatusFailed
		base.Message = fmt.Sprintf("create destination dir: %v", err)
		return base
	}

	// Write to a temp sibling of dest and rename it into place rather
	// than writing dest directly, so a reader polling outputDir never
	// observes a partially-written destination file.
	tempDest := dest + ".bqmtmp"
	if err := t.Host.Files.WriteFile(tempDest, encoded); err != nil {
		base.Status = StatusFailed
		base.Message = fmt.Sprintf("write destination: %v", err)
		return base
	}
	if written, err := t.Host.Files.ReadFile(tempDest); err != nil || bqmqueue.FingerprintBytes(written) != bqmqueue.FingerprintBytes(encoded) {
		_ = t.Host.Files.Remove(tempDest)
		base.Status = StatusFailed
		base.Message = fmt.Sprintf("verify written file %s: content mismatch after write", dest)
		return base
	}
	if err := t.Host.Files.Rename(tempDest, dest); err != nil {
		_ = t.Host.Files.Remove(tempDest)
		base.Status = StatusFailed
		base.Message = fmt.Sprintf("rename into destination: %v", err)
		return base
	}

	if !ac.NoMetadataWrite {
		if err := t.Host.Metadata.WriteTags(dest, ac.Meta); err != nil {
			base.Status = StatusFailed
			base.Message = fmt.Sprintf("write metadata: %v", err)
			return base
		}
	}

	base.Status = StatusDone
	base.DestPath = dest
	return base
}
