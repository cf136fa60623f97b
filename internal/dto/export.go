package dto

// ExportJobRequest selects the output format for an asynchronous roster export.
type ExportJobRequest struct {
	Format string `json:"format" validate:"omitempty,oneof=csv pdf"`
}

// ExportJobResponse acknowledges an accepted export job.
type ExportJobResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ExportStatusResponse reports job progress and, once finished, the signed
// download URL.
type ExportStatusResponse struct {
	ID        string  `json:"id"`
	Status    string  `json:"status"`
	ResultURL *string `json:"resultUrl,omitempty"`
	Error     *string `json:"error,omitempty"`
}
