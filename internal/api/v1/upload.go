package v1

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/webp"

	"github.com/edu-center/site-api/internal/utils"
)

var (
	allowedExt      = map[string]bool{".jpeg": true, ".jpg": true, ".png": true, ".gif": true, ".webp": true}
	allowedDeclared = regexp.MustCompile(`jpeg|jpg|png|gif|webp`)
	allowedSniffed  = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}
)

const (
	msgOnlyImages   = "only image files are allowed (JPEG, JPG, PNG, GIF, WebP)"
	msgFileTooLarge = "file too large"
)

// uploadError is a client mistake in an upload; its message is safe to return.
type uploadError struct{ msg string }

func (e *uploadError) Error() string { return e.msg }

func isUploadError(err error) (string, bool) {
	var ue *uploadError
	if errors.As(err, &ue) {
		return ue.msg, true
	}
	return "", false
}

type uploadedFile struct {
	Key          string
	URL          string
	OriginalName string
	Size         int64
	MimeType     string
	Width        int
	Height       int
}

type uploader struct {
	storage  utils.Storage
	maxBytes int64
	maxFiles int
	log      *logrus.Logger
	now      func() time.Time
}

func newUploader(storage utils.Storage, maxBytes int64, maxFiles int, log *logrus.Logger) *uploader {
	return &uploader{storage: storage, maxBytes: maxBytes, maxFiles: maxFiles, log: log, now: time.Now}
}

// limitBody caps the request body to what the given number of files may need
// plus room for the text fields.
func (u *uploader) limitBody(w http.ResponseWriter, r *http.Request, files int) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(files)*u.maxBytes+1<<20)
}

// formFile returns the first file of a multipart field, nil when absent.
func formFile(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	if fhs := r.MultipartForm.File[field]; len(fhs) > 0 {
		return fhs[0]
	}
	return nil
}

func formFiles(r *http.Request, field string) []*multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	return r.MultipartForm.File[field]
}

// uniqueName builds "<field>-<unix millis>-<random><ext>".
func (u *uploader) uniqueName(field, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("%s-%d-%s%s", field, u.now().UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:12], ext)
}

// inspect enforces the extension, declared type, size and content checks and
// returns the sniffed MIME type and image dimensions.
func (u *uploader) inspect(fh *multipart.FileHeader) (string, image.Config, error) {
	var cfg image.Config
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExt[ext] {
		return "", cfg, &uploadError{msgOnlyImages}
	}
	declared := strings.ToLower(fh.Header.Get("Content-Type"))
	if !allowedDeclared.MatchString(declared) {
		return "", cfg, &uploadError{msgOnlyImages}
	}
	if fh.Size > u.maxBytes {
		return "", cfg, &uploadError{msgFileTooLarge}
	}

	f, err := fh.Open()
	if err != nil {
		return "", cfg, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", cfg, fmt.Errorf("detect mime: %w", err)
	}
	if !mimetype.EqualsAny(mt.String(), allowedSniffed...) {
		return "", cfg, &uploadError{msgOnlyImages}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", cfg, fmt.Errorf("rewind upload: %w", err)
	}
	cfg, _, err = image.DecodeConfig(f)
	if err != nil {
		return "", cfg, &uploadError{"image file is corrupt or unreadable"}
	}
	return mt.String(), cfg, nil
}

// save validates one file and writes it to storage under a fresh name.
func (u *uploader) save(ctx context.Context, field string, fh *multipart.FileHeader) (*uploadedFile, error) {
	mt, cfg, err := u.inspect(fh)
	if err != nil {
		return nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	key := u.uniqueName(field, fh.Filename)
	if err := u.storage.SaveFile(ctx, key, mt, f); err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}
	return &uploadedFile{
		Key:          key,
		URL:          u.storage.URL(key),
		OriginalName: filepath.Base(fh.Filename),
		Size:         fh.Size,
		MimeType:     mt,
		Width:        cfg.Width,
		Height:       cfg.Height,
	}, nil
}

// saveAll validates every file before writing any of them.
func (u *uploader) saveAll(ctx context.Context, field string, fhs []*multipart.FileHeader) ([]*uploadedFile, error) {
	for _, fh := range fhs {
		if _, _, err := u.inspect(fh); err != nil {
			return nil, err
		}
	}
	out := make([]*uploadedFile, 0, len(fhs))
	for _, fh := range fhs {
		up, err := u.save(ctx, field, fh)
		if err != nil {
			u.discard(ctx, keysOf(out)...)
			return nil, err
		}
		out = append(out, up)
	}
	return out, nil
}

// discard removes stored files, logging failures; used to roll back uploads
// whose database write did not happen.
func (u *uploader) discard(ctx context.Context, keys ...string) {
	ctx = context.WithoutCancel(ctx)
	for _, k := range keys {
		if k == "" {
			continue
		}
		if err := u.storage.DeleteFile(ctx, k); err != nil {
			u.log.WithError(err).WithField("key", k).Warn("failed to remove stored file")
		}
	}
}

func keysOf(files []*uploadedFile) []string {
	keys := make([]string, len(files))
	for i, f := range files {
		keys[i] = f.Key
	}
	return keys
}
