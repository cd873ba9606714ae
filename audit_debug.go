// +build debug

package lfmalloc

import "github.com/bnclabs/lfmalloc/lib"

// Audit walks every active and partial superblock of every heap and
// checks the core invariants: `count <= maxcount`, `avail < maxcount`
// unless FULL, and the free-chain length rooted at avail equals count.
// Not lock-free and not safe to call concurrently with
// allocate/free — this is a stop-the-world debugging tool, gated to
// debug builds the same way block-initialization is gated behind
// initblock_debug.go/initblock_release.go.
func (a *Allocator) Audit() *AuditReport {
	report := &AuditReport{}
	for _, h := range a.heaps {
		ha := HeapAudit{BlockSize: h.class.blockSize}

		if desc := h.loadActive().desc(); desc != nil {
			ha.Superblocks = append(ha.Superblocks, auditSuperblock(desc))
		}

		seen := make(map[*Descriptor]bool)
		head := h.loadPartial().desc()
		for d := head; d != nil && !seen[d]; d = d.loadNextPartial().desc() {
			seen[d] = true
			sa := auditSuperblock(d)
			ha.Superblocks = append(ha.Superblocks, sa)
			if !sa.OK {
				violation := lib.GetStacktrace(0, []byte("partial superblock invariant violated"))
				errorf("lfmalloc: %s", violation)
				ha.Violations = append(ha.Violations, violation)
			}
		}

		report.Heaps = append(report.Heaps, ha)
	}
	return report
}

// auditSuperblock checks one descriptor's invariants by walking its
// intrusive free chain with a visited bitmap (Bit32.Setbit, here
// repurposed to catch a cyclic or mis-linked chain rather than to drive
// allocation).
func auditSuperblock(desc *Descriptor) SuperblockAudit {
	a := desc.loadAnchor()
	sa := SuperblockAudit{MaxCount: desc.maxcount, Count: a.count}

	visited := make([]uint32, (desc.maxcount+31)/32)
	chainLen := uint32(0)
	for idx := a.avail; idx != availNil; {
		q, r := idx/32, uint8(idx%32)
		if visited[q]&(1<<r) != 0 {
			break // cycle: stop counting, OK will be reported false below
		}
		visited[q] = lib.Bit32(visited[q]).Setbit(r)
		chainLen++
		idx = desc.readLink(idx)
	}
	sa.ChainLen = chainLen

	sa.OK = a.count <= desc.maxcount &&
		(a.avail < desc.maxcount || a.state == sbFull) &&
		chainLen == a.count
	return sa
}
