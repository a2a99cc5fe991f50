package upload

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mediakit/pkg/mediapath"
	"github.com/dmitrymomot/mediakit/pkg/oplog"
	"github.com/dmitrymomot/mediakit/pkg/records"
	"github.com/dmitrymomot/mediakit/pkg/storage"
)

// DocumentKind selects the project subdirectory for document uploads.
type DocumentKind string

const (
	DocumentKindDocuments DocumentKind = "documents"
	DocumentKindGlossary  DocumentKind = "glossary"
)

var (
	// ErrInvalidDocumentKind is returned for unknown document kinds.
	ErrInvalidDocumentKind = errors.New("invalid document kind")
	// ErrUploadFailed wraps filesystem failures during upload.
	ErrUploadFailed = errors.New("upload failed")
)

// ValidationError carries the aggregated validation result of a
// rejected upload. The error list is user-presentable.
type ValidationError struct {
	Result Result
}

func (e *ValidationError) Error() string {
	return "upload validation failed: " + strings.Join(e.Result.Errors, "; ")
}

// Handler is the single entry point per upload kind. It validates,
// ensures the destination directory, persists the bytes and returns
// the storage-relative path.
type Handler struct {
	validator *Validator
	store     *storage.Manager
	oplog     *oplog.Logger
}

// NewHandler creates an upload handler. validator and store are
// required; the logger is optional.
func NewHandler(validator *Validator, store *storage.Manager, log *oplog.Logger) *Handler {
	return &Handler{validator: validator, store: store, oplog: log}
}

// HandleAvatarUpload validates and stores a user avatar. The avatar is
// always normalized to the fixed per-user path, replacing any previous
// file. Failure to delete the previous avatar is logged but does not
// fail the new upload.
func (h *Handler) HandleAvatarUpload(ctx context.Context, user records.User, f UploadedFile) (string, error) {
	// Replacement overwrites the fixed path, so the count limit sees
	// zero existing avatars.
	res := h.validator.ValidateComprehensive(ctx, f, KindAvatar, user.ID, nil, 0)
	if !res.Valid {
		return "", &ValidationError{Result: res}
	}
	h.logWarnings(ctx, "avatar_upload_warnings", res.Warnings, user.ID)

	if err := h.store.CreateUserDirectory(ctx, user.ID); err != nil {
		return "", errors.Join(ErrUploadFailed, err)
	}

	path := mediapath.AvatarPath(user.ID)

	if user.AvatarPath != "" && user.AvatarPath != path && h.store.Exists(user.AvatarPath) {
		if err := h.store.DeleteFile(ctx, user.AvatarPath); err != nil {
			h.logError(ctx, "delete_old_avatar", err, user.AvatarPath, user.ID)
		} else if h.oplog != nil {
			h.oplog.FileDeleted(ctx, user.AvatarPath, user.ID, "avatar_replacement")
		}
	}

	if err := h.save(ctx, path, f); err != nil {
		return "", err
	}

	if h.oplog != nil {
		h.oplog.FileUploaded(ctx, path, user.ID, f.Size(), f.ContentType())
	}
	return path, nil
}

// HandleProjectImageUpload validates and stores a project image under
// the project's images directory with a sanitized filename.
func (h *Handler) HandleProjectImageUpload(ctx context.Context, project ProjectRef, userID int64, f UploadedFile, currentCount int) (string, error) {
	res := h.validator.ValidateComprehensive(ctx, f, KindProjectImage, userID, &project, currentCount)
	if !res.Valid {
		return "", &ValidationError{Result: res}
	}
	h.logWarnings(ctx, "project_image_upload_warnings", res.Warnings, userID)

	if err := h.store.CreateProjectDirectory(ctx, project.TeamID, project.ContentFolder); err != nil {
		return "", errors.Join(ErrUploadFailed, err)
	}

	cleanName := mediapath.SanitizeFilenameAdvanced(f.Filename())
	path := mediapath.ProjectImagePath(project.TeamID, project.ContentFolder, cleanName)

	if err := h.save(ctx, path, f); err != nil {
		return "", err
	}

	if h.oplog != nil {
		h.oplog.FileUploaded(ctx, path, userID, f.Size(), f.ContentType())
	}
	return path, nil
}

// HandleDocumentUpload validates and stores a project document or
// glossary file, selecting the policy and subdirectory by kind.
func (h *Handler) HandleDocumentUpload(ctx context.Context, project ProjectRef, userID int64, f UploadedFile, kind DocumentKind, currentCount int) (string, error) {
	var fileKind Kind
	switch kind {
	case DocumentKindDocuments:
		fileKind = KindProjectDocument
	case DocumentKindGlossary:
		fileKind = KindGlossaryFile
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidDocumentKind, kind)
	}

	res := h.validator.ValidateComprehensive(ctx, f, fileKind, userID, &project, currentCount)
	if !res.Valid {
		return "", &ValidationError{Result: res}
	}
	h.logWarnings(ctx, "document_upload_warnings", res.Warnings, userID)

	if err := h.store.CreateProjectDirectory(ctx, project.TeamID, project.ContentFolder); err != nil {
		return "", errors.Join(ErrUploadFailed, err)
	}

	cleanName := mediapath.SanitizeFilenameAdvanced(f.Filename())
	var path string
	if kind == DocumentKindGlossary {
		path = mediapath.ProjectGlossaryPath(project.TeamID, project.ContentFolder, cleanName)
	} else {
		path = mediapath.ProjectDocumentPath(project.TeamID, project.ContentFolder, cleanName)
	}

	if err := h.save(ctx, path, f); err != nil {
		return "", err
	}

	if h.oplog != nil {
		h.oplog.FileUploaded(ctx, path, userID, f.Size(), f.ContentType())
	}
	return path, nil
}

// StageTemp stores an upload in the temp staging area under a unique
// name, for flows where the owning record does not exist yet. Staged
// files fall under stale temp cleanup until the caller moves the
// content to its final destination. Only the per-type file policy is
// checked here; count, quota and membership checks run on the final
// upload.
func (h *Handler) StageTemp(ctx context.Context, userID int64, f UploadedFile, kind Kind) (string, error) {
	res := h.validator.ValidateFileType(ctx, f, kind, userID)
	if !res.Valid {
		return "", &ValidationError{Result: res}
	}
	h.logWarnings(ctx, "temp_upload_warnings", res.Warnings, userID)

	ext := strings.ToLower(filepath.Ext(f.Filename()))
	path := fmt.Sprintf("%s/%s%s", mediapath.TempUploadsPath, uuid.NewString(), ext)
	if err := h.save(ctx, path, f); err != nil {
		return "", err
	}

	if h.oplog != nil {
		h.oplog.FileUploaded(ctx, path, userID, f.Size(), f.ContentType())
	}
	return path, nil
}

func (h *Handler) save(ctx context.Context, path string, f UploadedFile) error {
	r, err := f.Open()
	if err != nil {
		return errors.Join(ErrUploadFailed, err)
	}
	defer func() { _ = r.Close() }()

	if _, err := h.store.SaveFile(ctx, path, r); err != nil {
		return errors.Join(ErrUploadFailed, err)
	}
	return nil
}

func (h *Handler) logWarnings(ctx context.Context, operation string, warnings []string, userID int64) {
	if len(warnings) == 0 || h.oplog == nil {
		return
	}
	h.oplog.Error(ctx, operation, errors.New(strings.Join(warnings, "; ")), "", userID, false)
}

func (h *Handler) logError(ctx context.Context, operation string, err error, path string, userID int64) {
	if h.oplog != nil {
		h.oplog.Error(ctx, operation, err, path, userID, false)
	}
}
