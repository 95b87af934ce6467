package client

import (
	"bytes"
	"io"
	"mime/multipart"
)

type formPart struct {
	name     string
	value    string
	filename string
	content  []byte
	isFile   bool
}

// Form is an ordered multipart/form-data payload. Parts are written in the
// order they were added.
type Form struct {
	parts []formPart
}

func NewForm() *Form {
	return &Form{}
}

// Field adds a plain text field.
func (f *Form) Field(name, value string) *Form {
	f.parts = append(f.parts, formPart{name: name, value: value})
	return f
}

// File adds a file part. The content is copied into the encoded body each
// time Encode is called, so a Form can be sent more than once.
func (f *Form) File(name, filename string, content []byte) *Form {
	f.parts = append(f.parts, formPart{name: name, filename: filename, content: content, isFile: true})
	return f
}

// Encode renders the form and returns the body and its content type.
func (f *Form) Encode() (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, p := range f.parts {
		if !p.isFile {
			if err := w.WriteField(p.name, p.value); err != nil {
				return nil, "", err
			}
			continue
		}
		fw, err := w.CreateFormFile(p.name, p.filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := fw.Write(p.content); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}
