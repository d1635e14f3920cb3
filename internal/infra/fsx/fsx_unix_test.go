//go:build unix

package fsx

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
)

func TestWriteFile_EXDEVIsCrossDevice(t *testing.T) {
	old := renameFunc
	renameFunc = func(oldpath, newpath string) error {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: syscall.EXDEV}
	}
	defer func() { renameFunc = old }()

	dir := t.TempDir()
	err := WriteFile(filepath.Join(dir, "report.json"), []byte("{}"))
	if !IsCrossDevice(err) {
		t.Fatalf("期望 CrossDeviceError，实际：%T %v", err, err)
	}

	// 失败时不应留下目标文件或临时文件。
	entries, rerr := os.ReadDir(dir)
	if rerr != nil {
		t.Fatalf("读取目录失败：%v", rerr)
	}
	if len(entries) != 0 {
		t.Fatalf("期望目录为空，实际 %v", entries)
	}
	if _, serr := os.Stat(filepath.Join(dir, "report.json")); !os.IsNotExist(serr) {
		t.Fatalf("目标文件不应存在：%v", serr)
	}
}
