package logger

import (
	"log"
	"os"
	"path/filepath"
)

// NewPipelineLogger returns a plain stdlib logger writing to the given
// file. The retrieval pipeline logs every pass and rerank decision, which
// is far too chatty for the structured application log.
func NewPipelineLogger(logFilePath string) *log.Logger {
	if err := os.MkdirAll(filepath.Dir(logFilePath), 0o755); err != nil {
		return log.New(os.Stdout, "[RAG] ", log.LstdFlags)
	}

	file, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return log.New(os.Stdout, "[RAG] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}
