// Package upload validates and places uploaded files into the media
// tree: avatars, project images, project documents and glossary files.
//
// Validation aggregates every failed check into a single structured
// result so callers can present the complete error list to the user.
// Security findings (executable signatures, unsafe filenames,
// unauthorized attempts) are logged as security events and always
// reject the upload.
package upload
