package bqmqueue

import (
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"

	"bqm/internal/assignment"
)

// ItemState is the lifecycle of one queue item, reported back to the
// queue's owner as the Worker Pool drains tasks.
type ItemState int

const (
	ItemPending ItemState = iota
	ItemRunning
	ItemDone
	ItemFailed
	ItemCanceled
	ItemSkipped
)

func (s ItemState) String() string {
	switch s {
	case ItemPending:
		return "pending"
	case ItemRunning:
		return "running"
	case ItemDone:
		return "done"
	case ItemFailed:
		return "failed"
	case ItemCanceled:
		return "canceled"
	case ItemSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Item is one source file enqueued for processing, together with its
// resolved destination path and current lifecycle state.
type Item struct {
	SourcePath string
	DestPath   string
	State      ItemState
	Message    string // set on ItemFailed/ItemSkipped
}

// ResolveDestination computes the destination path for an item given the
// queue's conflict and renaming rules, mirroring Task::createSaveFileUrl.
// chain is the item's tool chain, consulted for the extension its steps
// force on the output (Assignment.OutputSuffix); a nil chain or a chain
// that declares no override leaves the source file's own extension in
// place. conflictCheck should report whether a path currently exists on
// disk.
func ResolveDestination(src, outputDir string, s Settings, chain *assignment.Assignment, conflictCheck func(path string) bool) (string, error) {
	base := filepath.Base(src)
	srcExt := strings.TrimPrefix(filepath.Ext(base), ".")
	name := strings.TrimSuffix(base, filepath.Ext(base))

	ext := srcExt
	if chain != nil {
		if suffix, overridden := chain.OutputSuffix(srcExt); overridden {
			ext = suffix
		}
	}

	if s.RenamingRule == RenamingCustomPattern && s.RenamingPattern != "" {
		name = applyRenamingPattern(s.RenamingPattern, name)
	}

	dest := filepath.Join(outputDir, name+"."+ext)
	if !conflictCheck(dest) {
		return dest, nil
	}

	switch s.ConflictRule {
	case ConflictOverwrite:
		return dest, nil
	case ConflictSkip:
		return "", fmt.Errorf("bqmqueue: destination %s already exists", dest)
	case ConflictDifferentName:
		for i := 2; i < 1000; i++ {
			candidate := filepath.Join(outputDir, fmt.Sprintf("%s (%d).%s", name, i, ext))
			if !conflictCheck(candidate) {
				return candidate, nil
			}
		}
		// 998 sequential discriminators collided; fall back to a short
		// hash of the source path string itself, which is unique per
		// source regardless of how many prior outputs share its name.
		suffix := shortHashSuffix(src)
		candidate := filepath.Join(outputDir, fmt.Sprintf("%s (%s).%s", name, suffix, ext))
		if !conflictCheck(candidate) {
			return candidate, nil
		}
		return "", fmt.Errorf("bqmqueue: could not find a free name for %s after 998 attempts and a hash suffix", dest)
	default:
		return dest, nil
	}
}

// applyRenamingPattern substitutes the single supported placeholder,
// [name], the way digiKam's AdvancedRename parser resolves the original
// base name token; richer tokens (dates, sequence numbers) are handled
// by the full renaming parser this tool intentionally does not
// reimplement (see SPEC_FULL.md Non-goals).
func applyRenamingPattern(pattern, originalName string) string {
	return strings.ReplaceAll(pattern, "[name]", originalName)
}

// shortHashSuffix derives an 8-character discriminator from src's full
// path, the last-resort uniqueness source once the " (2)".." (999)"
// discriminator search is exhausted.
func shortHashSuffix(src string) string {
	sum := blake3.Sum256([]byte(src))
	return hex.EncodeToString(sum[:4])
}

// FingerprintBytes returns a blake3 content hash of data, used as a cheap
// corruption check on an intermediate file a Task just wrote: read it
// back and compare against the hash taken before the write.
func FingerprintBytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
