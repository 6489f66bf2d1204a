// Package logx configures pushbrief's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output on stderr readable (short timestamp + short caller)
//   - File output JSON-structured and append-only
package logx
