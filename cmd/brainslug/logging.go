package main

import (
	"io"
	"log/slog"
	"os"
)

// newLogger 在终端上输出可读文本，重定向时输出 JSON 行（便于采集）。
func newLogger(w io.Writer) *slog.Logger {
	if isTTY(w) {
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
