// +build !debug

package lfmalloc

// Audit is unavailable outside debug builds: walking every live
// descriptor's free chain is too expensive for a production binary.
// Build with `-tags debug` to get the real implementation.
func (a *Allocator) Audit() *AuditReport {
	panicerr("Audit requires a debug build (-tags debug)")
	return nil
}
