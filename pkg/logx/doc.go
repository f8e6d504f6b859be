// Package logx configures TaskMate's structured logging.
//
// A small wrapper (logx.Logger) on top of zerolog keeps:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//   - Sinks swappable at runtime so config hot reload can change them
package logx
