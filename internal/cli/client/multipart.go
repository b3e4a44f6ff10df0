package client

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
)

type multipartWriter struct {
	*multipart.Writer
}

func newMultipart(w io.Writer) *multipartWriter {
	return &multipartWriter{multipart.NewWriter(w)}
}

// addFile attaches a file with a content type guessed from its extension;
// CreateFormFile would always send application/octet-stream
func (m *multipartWriter) addFile(field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filepath.Base(path)))
	h.Set("Content-Type", contentType)
	part, err := m.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}
