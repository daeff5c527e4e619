// @focus: #sys { term }
// Package terminal provides direct ANSI terminal control for a single-threaded UI loop.
//
// Features:
//   - Raw mode and alternate screen lifecycle with idempotent restoration
//   - Cell buffer output with cell-level diffing
//   - Synchronous, bounded input polling (no reader goroutine)
//   - Legacy CSI/SS3 key decoding plus kitty keyboard protocol press/release reports
//   - Best-effort emergency reset for panic paths
//
// This package bypasses terminfo/termcap entirely, emitting direct ANSI sequences.
// Target environments: Linux, macOS, BSDs with xterm-compatible terminals.
package terminal
