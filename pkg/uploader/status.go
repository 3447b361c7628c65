package uploader

type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusConverting Status = "converting"
	StatusUploading  Status = "uploading"
	StatusGenerating Status = "generating"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
)

var statusLabels = map[Status]string{
	StatusWaiting:    "Upload video",
	StatusConverting: "Converting...",
	StatusUploading:  "Uploading...",
	StatusGenerating: "Transcribing...",
	StatusSuccess:    "Done!",
	StatusFailed:     "Failed",
}

// Label is the human readable text shown for a status.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Busy reports whether a submission is in flight.
func (s Status) Busy() bool {
	return s == StatusConverting || s == StatusUploading || s == StatusGenerating
}

// isValidTransition enforces the forward-only pipeline. Resets to waiting
// go through Select and are not edges of this table.
func isValidTransition(from, to Status) bool {
	switch from {
	case StatusWaiting:
		return to == StatusConverting
	case StatusConverting:
		return to == StatusUploading || to == StatusFailed
	case StatusUploading:
		return to == StatusGenerating || to == StatusFailed
	case StatusGenerating:
		return to == StatusSuccess || to == StatusFailed
	default:
		return false
	}
}
