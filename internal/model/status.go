package model

// DownloadStatus tracks a plugin package download.
type DownloadStatus int

const (
	// DownloadNone means nothing has been requested.
	DownloadNone DownloadStatus = iota

	// DownloadAdding means the package is queued or being fetched.
	DownloadAdding

	// DownloadAdded means the package was fetched and saved.
	DownloadAdded

	// DownloadError means the package had no URL, failed to fetch, or could
	// not be saved.
	DownloadError
)

// String returns the status name.
func (s DownloadStatus) String() string {
	switch s {
	case DownloadAdding:
		return "Adding"
	case DownloadAdded:
		return "Added"
	case DownloadError:
		return "Error"
	default:
		return "None"
	}
}

// IsFinished reports whether the download reached a terminal state.
func (s DownloadStatus) IsFinished() bool {
	return s == DownloadAdded || s == DownloadError
}
