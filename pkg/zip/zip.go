package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// File is one entry of an export bundle.
type File struct {
	Filename string
	Data     []byte
}

// Archive packs export files into a single zip for download.
func Archive(files []File) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.Create(f.Filename)
		if err != nil {
			return nil, fmt.Errorf("zip %s: %w", f.Filename, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, fmt.Errorf("zip %s: %w", f.Filename, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
