// Package netx contains HTTP body helpers shared by the API client.
package netx

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"sort"
)

// FilePart is a file field of a multipart/form-data body.
type FilePart struct {
	Field    string
	FileName string
	Content  []byte
}

// MultipartBody is a fully buffered multipart/form-data payload.
type MultipartBody struct {
	contentType string
	data        []byte
}

// NewMultipartBody encodes fields (in key order) followed by files.
func NewMultipartBody(fields map[string]string, files ...FilePart) (*MultipartBody, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}

	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.FileName)
		if err != nil {
			return nil, fmt.Errorf("create file part %s: %w", f.Field, err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, fmt.Errorf("write file part %s: %w", f.Field, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	return &MultipartBody{contentType: w.FormDataContentType(), data: buf.Bytes()}, nil
}

// ContentType returns the Content-Type header value including the boundary.
func (b *MultipartBody) ContentType() string {
	return b.contentType
}

// Reader returns a fresh reader over the encoded body.
func (b *MultipartBody) Reader() io.Reader {
	return bytes.NewReader(b.data)
}
