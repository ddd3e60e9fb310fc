package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"wellness/internal/domain"
	"wellness/internal/nutrition"
)

var imageExts = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// readImage reads the multipart file in field and sniffs its type. Only
// the formats in imageExts are accepted.
func readImage(w http.ResponseWriter, r *http.Request, field string) (nutrition.Image, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+1<<20)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nutrition.Image{}, domain.Invalid(field, "must be at most 10 MB")
		}
		return nutrition.Image{}, domain.Invalid(field, "multipart form expected")
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return nutrition.Image{}, domain.Invalid(field, "is required")
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		return nutrition.Image{}, domain.Invalid(field, "could not be read")
	}
	if len(data) == 0 {
		return nutrition.Image{}, domain.Invalid(field, "is empty")
	}
	if len(data) > maxImageBytes {
		return nutrition.Image{}, domain.Invalid(field, "must be at most 10 MB")
	}
	mime := http.DetectContentType(data)
	if _, ok := imageExts[mime]; !ok {
		return nutrition.Image{}, domain.Invalid(field, "unsupported image type %s", mime)
	}
	return nutrition.Image{Data: data, Filename: header.Filename, MIME: mime}, nil
}

// storeImage uploads img under prefix/<userID>/ and returns its URL.
func (a *App) storeImage(r *http.Request, prefix, userID string, img nutrition.Image) (string, string, error) {
	key := path.Join(prefix, userID, uuid.NewString()+imageExts[img.MIME])
	url, err := a.Storage.Upload(r.Context(), key, img.Data, img.MIME)
	if err != nil {
		return "", "", err
	}
	return url, key, nil
}

// discardImage removes an upload whose request failed afterwards. The
// request context may already be done, so cleanup gets its own.
func (a *App) discardImage(r *http.Request, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 10*time.Second)
	defer cancel()
	if err := a.Storage.Delete(ctx, key); err != nil {
		a.log(r).Warn().Err(err).Str("key", key).Msg("discard orphan image")
	}
}

type uploadResponse struct {
	URL  string `json:"url"`
	Key  string `json:"key"`
	MIME string `json:"mime"`
	Size int    `json:"size"`
}

// UploadImage hosts a profile picture or any other user image.
func (a *App) UploadImage(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, r, domain.ErrUnauthorized)
		return
	}
	if a.Storage == nil {
		a.unavailable(w, r)
		return
	}
	img, err := readImage(w, r, "image")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	prefix := "uploads"
	if p := strings.TrimSpace(r.FormValue("purpose")); p == "profile" {
		prefix = "profiles"
	}
	url, key, err := a.storeImage(r, prefix, userID, img)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, uploadResponse{URL: url, Key: key, MIME: img.MIME, Size: len(img.Data)})
}
