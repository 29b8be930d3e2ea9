package handlers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sapiencia-analitica/matricula-portal/internal/services"
	"github.com/sapiencia-analitica/matricula-portal/internal/storage"
	"github.com/sapiencia-analitica/matricula-portal/types"
)

// displayColumns is how many leading view columns the results table shows;
// the named columns below are appended to that subset.
const displayColumns = 6

var extraDisplayColumns = []string{"ies_adscritas", "programa_admitido"}

// documentRule gates lookups: national IDs are numeric, 6 to 15 digits.
const documentRule = "required,number,min=6,max=15"

var validate = validator.New()

// EnrollmentHandler serves document lookups and CSV exports.
type EnrollmentHandler struct {
	enrollmentService *services.EnrollmentService
	archive           *storage.ExportArchive
	auditor           services.Auditor
}

// NewEnrollmentHandler constructs a handler with the provided dependencies.
// archive and auditor may be nil.
func NewEnrollmentHandler(enrollmentService *services.EnrollmentService, archive *storage.ExportArchive, auditor services.Auditor) *EnrollmentHandler {
	return &EnrollmentHandler{
		enrollmentService: enrollmentService,
		archive:           archive,
		auditor:           auditor,
	}
}

// EnrollmentRouter registers enrollment routes on the given router. All
// routes require an authenticated session.
func EnrollmentRouter(
	r chi.Router,
	enrollmentService *services.EnrollmentService,
	archive *storage.ExportArchive,
	auditor services.Auditor,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewEnrollmentHandler(enrollmentService, archive, auditor)

	r.Route("/{documento}", func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		r.Get("/", handler.Lookup)
		r.Get("/export", handler.Export)
	})
}

// Lookup returns the display subset of every record matching the document.
// An empty match is a successful response with zero rows, never an error.
func (h *EnrollmentHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	documento, err := parseDocument(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	set, err := h.enrollmentService.Lookup(r.Context(), documento)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to query enrollment records")
		return
	}

	writeJSON(w, http.StatusOK, LookupResponse{
		Documento:    documento,
		TotalRows:    set.Len(),
		TotalColumns: len(set.Columns),
		Display:      displaySubset(set),
	})
}

// Export streams the full record set as a CSV attachment and archives a copy
// when an archive store is configured.
func (h *EnrollmentHandler) Export(w http.ResponseWriter, r *http.Request) {
	documento, err := parseDocument(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	set, err := h.enrollmentService.Lookup(r.Context(), documento)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to query enrollment records")
		return
	}
	if set.Empty() {
		writeError(w, http.StatusNotFound, "no records found for document")
		return
	}

	data, err := renderCSV(set)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render export")
		return
	}

	filename := fmt.Sprintf("matricula_cero_%s.csv", documento)
	h.archive.Save(r.Context(), filename, data)
	if h.auditor != nil {
		username, _ := usernameFromContext(r.Context())
		h.auditor.Record(r.Context(), types.AuditEvent{
			Action:   types.AuditExportDownloaded,
			Username: username,
			Subject:  documento,
		})
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// LookupResponse carries the display subset plus row/column counts so the
// client can tell the user how much more the full export contains.
type LookupResponse struct {
	Documento    string          `json:"documento"`
	TotalRows    int             `json:"total_rows"`
	TotalColumns int             `json:"total_columns"`
	Display      types.RecordSet `json:"display"`
}

func parseDocument(r *http.Request) (string, error) {
	documento := chi.URLParam(r, "documento")
	if err := validate.Var(documento, documentRule); err != nil {
		return "", errors.New("document must be a 6 to 15 digit number")
	}
	return documento, nil
}

func displaySubset(set types.RecordSet) types.RecordSet {
	n := displayColumns
	if n > len(set.Columns) {
		n = len(set.Columns)
	}
	names := append([]string{}, set.Columns[:n]...)
	names = append(names, extraDisplayColumns...)
	return set.Select(names...)
}

func renderCSV(set types.RecordSet) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(set.Columns); err != nil {
		return nil, err
	}
	for _, row := range set.Rows {
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
