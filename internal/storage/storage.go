// Package storage 实现整记录快照式的文件存储：每个聚合一个 YAML 文件，
// 同类型记录共享一把进程级写锁，归档就是把文件在两个固定目录间原子改名。
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyArchived 重复归档
	ErrAlreadyArchived = errors.New("delivery already archived")
	// ErrNotArchived 对未归档记录执行取消归档
	ErrNotArchived = errors.New("delivery not archived")
)

// writeFileAtomic 先写临时文件再改名，避免写一半的快照被读到
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir failed: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot failed: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write snapshot failed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close snapshot failed: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace snapshot failed: %w", err)
	}
	return nil
}
