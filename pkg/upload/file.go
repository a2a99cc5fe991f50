package upload

import (
	"bytes"
	"io"
	"mime/multipart"
)

// UploadedFile abstracts an incoming file so validation and handlers
// work the same for multipart uploads and in-memory test files.
type UploadedFile interface {
	// Filename returns the client-supplied name, unsanitized.
	Filename() string
	// Size returns the declared size in bytes.
	Size() int64
	// ContentType returns the declared MIME type.
	ContentType() string
	// Open returns a fresh reader over the file contents.
	Open() (io.ReadSeekCloser, error)
}

type multipartFile struct {
	fh *multipart.FileHeader
}

// FromMultipart wraps a multipart file header as an UploadedFile.
func FromMultipart(fh *multipart.FileHeader) UploadedFile {
	return &multipartFile{fh: fh}
}

func (f *multipartFile) Filename() string { return f.fh.Filename }
func (f *multipartFile) Size() int64      { return f.fh.Size }

func (f *multipartFile) ContentType() string {
	return f.fh.Header.Get("Content-Type")
}

func (f *multipartFile) Open() (io.ReadSeekCloser, error) {
	return f.fh.Open()
}

type memoryFile struct {
	name        string
	contentType string
	data        []byte
}

// NewMemoryFile creates an UploadedFile backed by a byte slice.
// Intended for tests and internal re-uploads.
func NewMemoryFile(name, contentType string, data []byte) UploadedFile {
	return &memoryFile{name: name, contentType: contentType, data: data}
}

func (f *memoryFile) Filename() string    { return f.name }
func (f *memoryFile) Size() int64         { return int64(len(f.data)) }
func (f *memoryFile) ContentType() string { return f.contentType }

func (f *memoryFile) Open() (io.ReadSeekCloser, error) {
	return &memoryReader{Reader: bytes.NewReader(f.data)}, nil
}

type memoryReader struct {
	*bytes.Reader
}

func (r *memoryReader) Close() error { return nil }
