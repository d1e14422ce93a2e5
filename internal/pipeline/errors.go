package pipeline

// FailureKind classifies why a job failed. Every step failure is caught at
// the pipeline boundary and reduced to one of these; no error type crosses
// the delivery front.
type FailureKind int

const (
	FailureNone FailureKind = iota
	// FailurePlaylistNotSupported: the URL resolves to a collection.
	FailurePlaylistNotSupported
	// FailureNoMediaFound: extraction succeeded but returned no metadata.
	FailureNoMediaFound
	// FailureDownloadFailed: the extraction engine itself failed.
	FailureDownloadFailed
	// FailureFileMissing: extraction reported success but the file is absent.
	FailureFileMissing
	// FailureUploadFailed: the storage backend rejected the write.
	FailureUploadFailed
	// FailureLinkGeneration: the backend could not issue a retrieval link.
	FailureLinkGeneration
	// FailureUnknown: anything unclassified. Always logged with context.
	FailureUnknown
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailurePlaylistNotSupported:
		return "playlist_not_supported"
	case FailureNoMediaFound:
		return "no_media_found"
	case FailureDownloadFailed:
		return "download_failed"
	case FailureFileMissing:
		return "file_missing_after_download"
	case FailureUploadFailed:
		return "upload_failed"
	case FailureLinkGeneration:
		return "link_generation_failed"
	default:
		return "unknown"
	}
}

// Result is the terminal state of one job, tagged rather than raised.
type Result struct {
	Kind      FailureKind
	Err       error
	URL       string
	MediaType string
	Title     string
	SizeBytes int64
}

// OK reports whether the job published successfully.
func (r Result) OK() bool {
	return r.Kind == FailureNone
}
