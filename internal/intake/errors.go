package intake

import "errors"

var (
	ErrInvalidFileType  = errors.New("invalid file type")
	ErrTooManyFiles     = errors.New("too many files")
	ErrUpload           = errors.New("upload failed")
	ErrNoImagesUploaded = errors.New("no images uploaded")
	ErrNoIdentity       = errors.New("no authenticated user")
	ErrDraftNotFound    = errors.New("draft not found")
	ErrDraftBusy        = errors.New("draft is being submitted")

	errNotExpired = errors.New("draft not expired")
)
