package sequence

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Diff derives the ordered remote operations that turn old into new.
//
// This is the fallback sync path: when another process rewrites the stored
// document wholesale (or the op log has been truncated), there are no ops to
// replay, so the host diffs the snapshots and injects the result as remote
// edits. Offsets count runes and are expressed against the document state
// after all preceding ops in the slice have applied.
func Diff(old, new string) []Op {
	if old == new {
		return nil
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(old, new, false)
	diffs = dmp.DiffCleanupEfficiency(diffs)

	var ops []Op
	offset := 0
	for _, df := range diffs {
		n := runeLen(df.Text)
		switch df.Type {
		case diffmatchpatch.DiffEqual:
			offset += n
		case diffmatchpatch.DiffInsert:
			ops = append(ops, Op{Kind: Insert, Offset: offset, Length: n, Body: df.Text})
			offset += n
		case diffmatchpatch.DiffDelete:
			ops = append(ops, Op{Kind: Remove, Offset: offset, Length: n})
		}
	}
	return ops
}

// ApplyRemoteOp applies op to the document as a remote edit.
func (d *Doc) ApplyRemoteOp(op Op) {
	switch op.Kind {
	case Insert:
		d.ApplyRemoteInsert(op.Body, op.Offset)
	case Remove:
		d.ApplyRemoteRemove(op.Offset, op.Offset+op.Length)
	}
}
