package entity

import "errors"

// ErrorKind names the class of a pipeline failure.
type ErrorKind string

const (
	KindNone             ErrorKind = ""
	KindAuthentication   ErrorKind = "authentication"
	KindExtraction       ErrorKind = "extraction"
	KindSearchResolution ErrorKind = "search_resolution"
	KindDownload         ErrorKind = "download"
	KindAuditWrite       ErrorKind = "audit_write"
	KindPathPrecondition ErrorKind = "path_precondition"
	KindUnknown          ErrorKind = "unknown"
)

var (
	// ErrAuthentication aborts the job: the session could not log in.
	ErrAuthentication = errors.New("authentication failed")
	// ErrExtraction aborts the job: a page's structural anchor never appeared.
	ErrExtraction = errors.New("extraction failed")
	// ErrSearchResolution aborts an author job: the author profile could not be resolved.
	ErrSearchResolution = errors.New("search resolution failed")
	// ErrDownload is recoverable per asset.
	ErrDownload = errors.New("download failed")
	// ErrAuditWrite is reported as a warning only.
	ErrAuditWrite = errors.New("audit write failed")
	// ErrPathPrecondition is raised before a job is accepted.
	ErrPathPrecondition = errors.New("path does not exist")
)

// KindOf classifies err. A nil error has KindNone.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrAuthentication):
		return KindAuthentication
	case errors.Is(err, ErrSearchResolution):
		return KindSearchResolution
	case errors.Is(err, ErrExtraction):
		return KindExtraction
	case errors.Is(err, ErrDownload):
		return KindDownload
	case errors.Is(err, ErrAuditWrite):
		return KindAuditWrite
	case errors.Is(err, ErrPathPrecondition):
		return KindPathPrecondition
	default:
		return KindUnknown
	}
}

// Fatal reports whether an error of this kind aborts the whole job.
func (k ErrorKind) Fatal() bool {
	return k == KindAuthentication || k == KindExtraction || k == KindSearchResolution
}
