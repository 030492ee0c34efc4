package api

import (
	"net/http"

	"github.com/poiesic/commandcore/core"
)

// supportedFileTypes lists the file extensions accepted for upload.
func supportedFileTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"supported_file_types": core.SupportedExtensions(),
	})
}

// domains lists the knowledge domains documents can be filed under.
func domains(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"domains": core.Domains(),
	})
}
