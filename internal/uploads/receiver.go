package uploads

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campushub/campushub-backend/internal/apperr"
)

// StagedFile is an upload resting in the staging directory, waiting to be
// moved to its permanent location.
type StagedFile struct {
	OriginalName string
	Filename     string
	StagedPath   string
	ContentType  string
	Size         int64
}

// formSlack covers multipart boundaries, part headers and text fields on top
// of the file payloads.
const formSlack = 1 << 20

// Receiver stages multipart image uploads under a shared directory using
// generated unique filenames.
type Receiver struct {
	dir      string
	maxFiles int
	maxBytes int64
}

func NewReceiver(dir string, maxFiles int, maxBytes int64) (*Receiver, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &Receiver{dir: abs, maxFiles: maxFiles, maxBytes: maxBytes}, nil
}

func (r *Receiver) Dir() string { return r.dir }

// Stage saves every file of the multipart field into the staging directory.
// A request that is not multipart, or has no such field, yields no files.
// On error nothing staged by this call is left behind.
func (r *Receiver) Stage(c *gin.Context, field string) ([]StagedFile, error) {
	if limit := r.bodyLimit(); limit > 0 && c.Request.MultipartForm == nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperr.Validation("request body too large", map[string]string{
				field: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
			})
		}
		return nil, apperr.Validation("invalid multipart body", map[string]string{field: err.Error()})
	}

	headers := form.File[field]
	if len(headers) > r.maxFiles {
		return nil, apperr.Validation("too many files", map[string]string{
			field: fmt.Sprintf("at most %d files allowed", r.maxFiles),
		})
	}

	staged := make([]StagedFile, 0, len(headers))
	for _, fh := range headers {
		sf, err := r.stageOne(c, field, fh)
		if err != nil {
			Discard(staged)
			return nil, err
		}
		staged = append(staged, sf)
	}
	return staged, nil
}

// bodyLimit is the largest request body Stage will read; 0 means unlimited.
func (r *Receiver) bodyLimit() int64 {
	if r.maxBytes <= 0 {
		return 0
	}
	return int64(max(r.maxFiles, 1))*r.maxBytes + formSlack
}

// StageSingle stages at most one file from field; nil when absent.
func (r *Receiver) StageSingle(c *gin.Context, field string) (*StagedFile, error) {
	files, err := r.Stage(c, field)
	if err != nil {
		return nil, err
	}
	switch len(files) {
	case 0:
		return nil, nil
	case 1:
		return &files[0], nil
	default:
		Discard(files)
		return nil, apperr.Validation("too many files", map[string]string{field: "only one file allowed"})
	}
}

func (r *Receiver) stageOne(c *gin.Context, field string, fh *multipart.FileHeader) (StagedFile, error) {
	if r.maxBytes > 0 && fh.Size > r.maxBytes {
		return StagedFile{}, apperr.Validation("file too large", map[string]string{
			field: fmt.Sprintf("%s exceeds %d bytes", fh.Filename, r.maxBytes),
		})
	}

	mt, err := detect(fh)
	if err != nil {
		return StagedFile{}, apperr.Storage("failed to read upload", err)
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		return StagedFile{}, apperr.Validation("unsupported file type", map[string]string{
			field: fmt.Sprintf("%s is %s, expected an image", fh.Filename, mt.String()),
		})
	}

	ext := mt.Extension()
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(fh.Filename))
	}
	name := uuid.NewString() + ext
	dst := filepath.Join(r.dir, name)

	if err := c.SaveUploadedFile(fh, dst); err != nil {
		return StagedFile{}, apperr.Storage("saving uploaded file failed", err)
	}

	return StagedFile{
		OriginalName: filepath.Base(fh.Filename),
		Filename:     name,
		StagedPath:   dst,
		ContentType:  mt.String(),
		Size:         fh.Size,
	}, nil
}

func detect(fh *multipart.FileHeader) (*mimetype.MIME, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return mimetype.DetectReader(f)
}

// Discard removes whatever is still at the staged paths. Files already moved
// away are skipped.
func Discard(files []StagedFile) {
	for _, f := range files {
		_ = os.Remove(f.StagedPath)
	}
}

