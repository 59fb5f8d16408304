package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vbonduro/animalexplorer/internal/photostore"
)

const maxPhotoSize = 10 << 20 // 10 MB

// multipartOverhead leaves room for boundaries and headers around the image.
const multipartOverhead = 1 << 20

var (
	errImageRequired    = errors.New("please choose a photo to upload")
	errImageTooLarge    = errors.New("that photo is too big, the limit is 10 MB")
	errUnsupportedImage = errors.New("only JPEG and PNG photos are supported")
)

// allowedImageTypes is the set of MIME types accepted for uploaded photos,
// detected from magic bytes rather than the client's claim.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

// readUpload reads the "image" multipart field and validates it. Returned
// errors are safe to show to the user.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize+multipartOverhead)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", errImageTooLarge
		}
		return nil, "", errImageRequired
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, "", errImageRequired
	}
	defer closeWithLog(file, "upload file", s.logger)

	imageData, err := io.ReadAll(io.LimitReader(file, maxPhotoSize+1))
	if err != nil {
		s.logger.Error("read upload failed", "error", err)
		return nil, "", errImageRequired
	}
	if len(imageData) == 0 {
		return nil, "", errImageRequired
	}
	if len(imageData) > maxPhotoSize {
		return nil, "", errImageTooLarge
	}

	mimeType, ok := allowedImageMIME(imageData)
	if !ok {
		return nil, "", errUnsupportedImage
	}
	return imageData, mimeType, nil
}

func (s *Server) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r)
	key := chi.URLParam(r, "*")

	reader, mimeType, err := s.service.Photo(r.Context(), st, key)
	if err != nil {
		if !errors.Is(err, photostore.ErrNotFound) {
			s.logger.Error("get photo failed", "session_id", st.ID(), "storage_key", key, "error", err)
		}
		http.NotFound(w, r)
		return
	}
	defer closeWithLog(reader, "photo reader", s.logger)

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write photo failed", "storage_key", key, "error", err)
	}
}
