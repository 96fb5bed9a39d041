package httpapi

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/louisbranch/lms/internal/platform/archive"
	apperrors "github.com/louisbranch/lms/internal/platform/errors"
	"github.com/louisbranch/lms/internal/platform/filestore"
)

// uploadField is the multipart field carrying files.
const uploadField = "files"

// multipartMemory is how much of a form is buffered before spilling to disk.
const multipartMemory = 1 << 20

var errNoUploads = apperrors.New(apperrors.CodeInvalidArgument, "at least one file is required in field \"files\"")

// uploads parses a multipart request into uploads. The returned cleanup
// closes the parts and removes spilled temp files.
func (h *Handler) uploads(w http.ResponseWriter, r *http.Request) ([]filestore.Upload, func(), error) {
	noop := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxRequest)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, noop, apperrors.WithMetadata(apperrors.CodePayloadTooLarge,
				fmt.Sprintf("request exceeds %d bytes", h.maxRequest),
				map[string]string{"Field": uploadField})
		}
		return nil, noop, apperrors.Wrap(apperrors.CodeInvalidArgument, "multipart form is invalid", err)
	}
	form := r.MultipartForm
	headers := form.File[uploadField]
	if len(headers) == 0 {
		_ = form.RemoveAll()
		return nil, noop, errNoUploads
	}

	var opened []multipart.File
	cleanup := func() {
		for _, f := range opened {
			_ = f.Close()
		}
		if err := form.RemoveAll(); err != nil {
			h.logger.Warn("remove multipart temp files", zap.Error(err))
		}
	}
	uploads := make([]filestore.Upload, 0, len(headers))
	for _, header := range headers {
		if header.Size > h.maxFile {
			cleanup()
			return nil, noop, apperrors.WithMetadata(apperrors.CodePayloadTooLarge,
				fmt.Sprintf("file %s exceeds %d bytes", header.Filename, h.maxFile),
				map[string]string{"File": header.Filename})
		}
		file, err := header.Open()
		if err != nil {
			cleanup()
			return nil, noop, fmt.Errorf("open upload %s: %w", header.Filename, err)
		}
		opened = append(opened, file)
		uploads = append(uploads, filestore.Upload{Name: header.Filename, Body: file})
	}
	return uploads, cleanup, nil
}

// writeArchive builds a zip of entries and writes it as an attachment.
func writeArchive(w http.ResponseWriter, name string, entries []archive.Entry) error {
	data, err := archive.Bytes(entries)
	if err != nil {
		return err
	}
	writeDownload(w, name, "application/zip", data)
	return nil
}

func writeDownload(w http.ResponseWriter, name, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
