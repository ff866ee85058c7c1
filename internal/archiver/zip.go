package archiver

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CreateZip 把给定文件打进一个 ZIP 包（归档内只保留文件名，不带目录）
// 任一文件写入失败直接上抛：残缺归档不如没有归档。
func CreateZip(paths []string, zipPath string) error {
	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("创建归档文件失败: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, p := range paths {
		if err := addFile(zw, p); err != nil {
			zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("关闭归档失败: %w", err)
	}
	return nil
}

func addFile(zw *zip.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("打开待归档文件 %s 失败: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("读取文件信息失败: %w", err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("构建归档头失败: %w", err)
	}
	header.Name = filepath.Base(path)
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("写入归档头失败: %w", err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("写入归档内容失败: %w", err)
	}
	return nil
}
