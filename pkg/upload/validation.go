package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/dmitrymomot/mediakit/pkg/mediapath"
	"github.com/dmitrymomot/mediakit/pkg/oplog"
	"github.com/dmitrymomot/mediakit/pkg/records"
	"github.com/dmitrymomot/mediakit/pkg/storage"
)

// Kind identifies the upload category and selects its policy.
type Kind string

const (
	KindAvatar          Kind = "avatar"
	KindProjectImage    Kind = "project_image"
	KindProjectDocument Kind = "project_document"
	KindGlossaryFile    Kind = "glossary_file"
)

// Policy bounds one upload kind.
type Policy struct {
	AllowedTypes       []string
	AllowedExtensions  []string
	MaxSize            int64
	MaxCountPerUser    int // avatars only
	MaxCountPerProject int
	Description        string
}

// policies is the per-kind validation table.
var policies = map[Kind]Policy{
	KindAvatar: {
		AllowedTypes:      []string{"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp"},
		AllowedExtensions: []string{".jpg", ".jpeg", ".png", ".gif", ".webp"},
		MaxSize:           5 * 1024 * 1024,
		MaxCountPerUser:   1,
		Description:       "user avatar",
	},
	KindProjectImage: {
		AllowedTypes:       []string{"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp"},
		AllowedExtensions:  []string{".jpg", ".jpeg", ".png", ".gif", ".webp"},
		MaxSize:            10 * 1024 * 1024,
		MaxCountPerProject: 50,
		Description:        "project image",
	},
	KindProjectDocument: {
		AllowedTypes: []string{
			"application/pdf", "text/plain", "application/msword",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			"text/csv", "application/json", "text/markdown",
		},
		AllowedExtensions:  []string{".pdf", ".txt", ".doc", ".docx", ".csv", ".json", ".md"},
		MaxSize:            25 * 1024 * 1024,
		MaxCountPerProject: 100,
		Description:        "project document",
	},
	KindGlossaryFile: {
		AllowedTypes: []string{
			"application/json", "text/csv", "text/plain",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		},
		AllowedExtensions:  []string{".json", ".csv", ".txt", ".xlsx"},
		MaxSize:            15 * 1024 * 1024,
		MaxCountPerProject: 20,
		Description:        "glossary file",
	},
}

// PolicyFor returns the policy for a kind.
func PolicyFor(kind Kind) (Policy, bool) {
	p, ok := policies[kind]
	return p, ok
}

// Global storage quotas.
const (
	MaxTotalSizePerUser    = 100 * 1024 * 1024
	MaxTotalSizePerTeam    = 1024 * 1024 * 1024
	MaxTotalSizePerProject = 500 * 1024 * 1024
	MaxFilesPerUpload      = 10
)

// executableSignatures reject the upload outright.
var executableSignatures = [][]byte{
	{'M', 'Z'},               // Windows PE
	{0x7f, 'E', 'L', 'F'},    // Linux ELF
	{0xca, 0xfe, 0xba, 0xbe}, // Java class
	{'P', 'K', 0x03, 0x04},   // ZIP, may contain executables
}

// scriptPatterns only produce warnings.
var scriptPatterns = [][]byte{
	[]byte("<script"),
	[]byte("javascript:"),
	[]byte("vbscript:"),
	[]byte("<?php"),
	[]byte("<%"),
	[]byte("#!/bin/"),
	[]byte("#!/usr/bin/"),
}

// FileInfo summarizes the file a validation ran against.
type FileInfo struct {
	Name        string
	Size        int64
	ContentType string
	Kind        Kind
}

// Result aggregates every check outcome for one validation pass.
// Errors reject the upload; warnings do not.
type Result struct {
	Valid           bool
	Errors          []string
	Warnings        []string
	FileInfo        FileInfo
	ChecksPerformed []string
}

func (r *Result) addError(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Result) merge(other Result) {
	if !other.Valid {
		r.Valid = false
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// ProjectRef identifies the target project of a project-scoped upload.
type ProjectRef struct {
	ID            int64
	TeamID        int64
	ContentFolder string
}

// Validator runs upload validation: type policy, content security,
// count limits, storage quotas and team membership.
type Validator struct {
	recordsSrc records.Source
	store      *storage.Manager
	oplog      *oplog.Logger
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithRecords attaches the record source used for membership checks.
func WithRecords(src records.Source) ValidatorOption {
	return func(v *Validator) { v.recordsSrc = src }
}

// WithStorage attaches the storage manager used for quota checks.
func WithStorage(m *storage.Manager) ValidatorOption {
	return func(v *Validator) { v.store = m }
}

// WithOperationLogger attaches the audit logger.
func WithOperationLogger(l *oplog.Logger) ValidatorOption {
	return func(v *Validator) { v.oplog = l }
}

// NewValidator creates an upload validator.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateFileType checks the file against the kind's policy: presence,
// size bounds, MIME type, extension, filename safety and content
// security. All failures are aggregated into the result.
func (v *Validator) ValidateFileType(ctx context.Context, f UploadedFile, kind Kind, userID int64) Result {
	res := Result{Valid: true}

	policy, ok := policies[kind]
	if !ok {
		res.addError("unknown file kind: %s", kind)
		return res
	}

	if f == nil {
		res.addError("file is missing or corrupted")
		return res
	}

	res.FileInfo = FileInfo{
		Name:        f.Filename(),
		Size:        f.Size(),
		ContentType: f.ContentType(),
		Kind:        kind,
	}

	if f.Size() <= 0 {
		res.addError("file is empty")
		return res
	}

	if f.Size() > policy.MaxSize {
		res.addError("file size (%d bytes) exceeds the maximum allowed (%d bytes) for %s",
			f.Size(), policy.MaxSize, policy.Description)
	}

	if !slices.Contains(policy.AllowedTypes, f.ContentType()) {
		res.addError("file type %q is not allowed for %s", f.ContentType(), policy.Description)
	}

	if name := f.Filename(); name != "" {
		if !mediapath.ValidateFileExtension(name, policy.AllowedExtensions) {
			res.addError("file extension is not allowed for %s", policy.Description)
		}
		if !mediapath.ValidateFilenameSecurity(name) {
			res.addError("filename %q contains forbidden characters or is unsafe", name)
		}
	}

	secErrors, secWarnings := v.contentSecurityCheck(ctx, f, userID)
	if len(secErrors) > 0 {
		res.Valid = false
		res.Errors = append(res.Errors, secErrors...)
	}
	res.Warnings = append(res.Warnings, secWarnings...)

	if !res.Valid && v.oplog != nil {
		v.oplog.Error(ctx, "file_validation_failed",
			fmt.Errorf("validation failed: %v", res.Errors), f.Filename(), userID, false)
	}
	return res
}

// contentSecurityCheck sniffs the first 2KB of content. Executable
// signatures reject; script patterns and binary-heavy content warn.
// A failed read warns but never blocks the upload.
func (v *Validator) contentSecurityCheck(ctx context.Context, f UploadedFile, userID int64) (errs, warnings []string) {
	r, err := f.Open()
	if err != nil {
		return nil, []string{"could not perform full content security check"}
	}
	defer func() { _ = r.Close() }()

	sample := make([]byte, 2048)
	n, readErr := io.ReadFull(r, sample)
	if readErr != nil && readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
		return nil, []string{"could not perform full content security check"}
	}
	sample = sample[:n]

	for _, sig := range executableSignatures {
		if bytes.HasPrefix(sample, sig) {
			errs = append(errs, "potentially executable file detected")
			if v.oplog != nil {
				v.oplog.SecurityViolation(ctx, "executable_file_upload", f.Filename(), userID, "",
					fmt.Sprintf("executable signature detected: %x", sig))
			}
			break
		}
	}

	lower := bytes.ToLower(sample)
	for _, pattern := range scriptPatterns {
		if bytes.Contains(lower, pattern) {
			warnings = append(warnings, fmt.Sprintf("potentially dangerous content detected: %s", pattern))
			if v.oplog != nil {
				v.oplog.SecurityViolation(ctx, "suspicious_content_detected", f.Filename(), userID, "",
					fmt.Sprintf("suspicious pattern detected: %s", pattern))
			}
		}
	}

	if n > 0 && bytes.Count(sample, []byte{0}) > n*3/10 {
		warnings = append(warnings, "file contains a large amount of binary data")
	}

	return errs, warnings
}

// CheckFileCountLimits enforces per-user (avatar) and per-project
// count limits, warning at 80% of the project limit.
func (v *Validator) CheckFileCountLimits(kind Kind, currentCount int) Result {
	res := Result{Valid: true}

	policy, ok := policies[kind]
	if !ok {
		res.addError("unknown file kind: %s", kind)
		return res
	}

	switch {
	case kind == KindAvatar && policy.MaxCountPerUser > 0:
		if currentCount >= policy.MaxCountPerUser {
			res.addError("maximum number of %s files reached (%d)",
				policy.Description, policy.MaxCountPerUser)
		}
	case policy.MaxCountPerProject > 0:
		if currentCount >= policy.MaxCountPerProject {
			res.addError("maximum number of %s files reached for this project (%d)",
				policy.Description, policy.MaxCountPerProject)
		} else if currentCount >= policy.MaxCountPerProject*8/10 {
			res.addWarning("approaching the %s file limit: %d/%d",
				policy.Description, currentCount, policy.MaxCountPerProject)
		}
	}
	return res
}

// CheckStorageLimits enforces user, team and project storage quotas,
// warning at 80% of each. A failed usage calculation warns but does
// not block the upload.
func (v *Validator) CheckStorageLimits(ctx context.Context, userID, teamID int64, project *ProjectRef, additionalSize int64) Result {
	res := Result{Valid: true}
	if v.store == nil {
		res.addWarning("could not verify storage quota limits")
		return res
	}

	userUsage, err := v.store.DirectorySize(mediapath.UserPath(userID))
	if err != nil {
		v.logError(ctx, "storage_limits_check", err, userID)
		res.addWarning("could not verify storage quota limits")
		return res
	}
	checkQuota(&res, "user", userUsage+additionalSize, MaxTotalSizePerUser)

	if teamID != 0 {
		teamUsage, err := v.store.DirectorySize(mediapath.TeamPath(teamID))
		if err != nil {
			v.logError(ctx, "storage_limits_check", err, userID)
			res.addWarning("could not verify team storage quota")
		} else {
			checkQuota(&res, "team", teamUsage+additionalSize, MaxTotalSizePerTeam)
		}
	}

	if project != nil {
		projectUsage, err := v.store.DirectorySize(mediapath.ProjectPath(project.TeamID, project.ContentFolder))
		if err != nil {
			v.logError(ctx, "storage_limits_check", err, userID)
			res.addWarning("could not verify project storage quota")
		} else {
			checkQuota(&res, "project", projectUsage+additionalSize, MaxTotalSizePerProject)
		}
	}

	return res
}

func checkQuota(res *Result, scope string, total, limit int64) {
	switch {
	case total > limit:
		res.addError("%s storage quota exceeded: %d of %d bytes", scope, total, limit)
	case total > limit*8/10:
		res.addWarning("more than 80%% of %s storage quota used: %d/%d bytes", scope, total, limit)
	}
}

// CheckUserPermissions verifies the user may perform this upload.
// Avatars are always permitted for self; project uploads require team
// membership. Unauthorized attempts are logged as security events.
func (v *Validator) CheckUserPermissions(ctx context.Context, userID int64, kind Kind, project *ProjectRef) Result {
	res := Result{Valid: true}

	if kind == KindAvatar {
		return res
	}

	if project == nil {
		res.addError("no target project specified for the upload")
		return res
	}

	if v.recordsSrc == nil {
		res.addError("could not verify upload permissions")
		return res
	}

	member, err := v.recordsSrc.IsTeamMember(ctx, userID, project.TeamID)
	if err != nil {
		v.logError(ctx, "permission_check", err, userID)
		res.addError("could not verify upload permissions")
		return res
	}
	if !member {
		res.addError("you do not have permission to upload files to this project")
		if v.oplog != nil {
			v.oplog.SecurityViolation(ctx, "unauthorized_file_upload",
				fmt.Sprintf("project_%d", project.ID), userID, "",
				fmt.Sprintf("user %d attempted to upload %s to project %d without team membership",
					userID, kind, project.ID))
		}
	}
	return res
}

// ValidateComprehensive runs the full validation sequence and
// aggregates all errors: type policy, permissions, count limits and
// storage quotas.
func (v *Validator) ValidateComprehensive(ctx context.Context, f UploadedFile, kind Kind, userID int64, project *ProjectRef, currentCount int) Result {
	res := v.ValidateFileType(ctx, f, kind, userID)
	res.ChecksPerformed = append(res.ChecksPerformed, "file_type_validation")

	res.merge(v.CheckUserPermissions(ctx, userID, kind, project))
	res.ChecksPerformed = append(res.ChecksPerformed, "permission_check")

	res.merge(v.CheckFileCountLimits(kind, currentCount))
	res.ChecksPerformed = append(res.ChecksPerformed, "file_count_limits")

	var teamID int64
	if project != nil {
		teamID = project.TeamID
	}
	var size int64
	if f != nil {
		size = f.Size()
	}
	res.merge(v.CheckStorageLimits(ctx, userID, teamID, project, size))
	res.ChecksPerformed = append(res.ChecksPerformed, "storage_limits")

	return res
}

func (v *Validator) logError(ctx context.Context, operation string, err error, userID int64) {
	if v.oplog != nil {
		v.oplog.Error(ctx, operation, err, "", userID, false)
	}
}
