// Package handlers is the HTTP surface: spreadsheet upload, the analysis
// endpoint, the single-number lookup, and artifact download.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jalad-shrimali/missed-calls/analysis"
	"github.com/jalad-shrimali/missed-calls/config"
	"github.com/jalad-shrimali/missed-calls/msisdn"
	"github.com/jalad-shrimali/missed-calls/table"
)

const maxUploadBytes = 64 << 20

// Server handles one deployment's HTTP traffic. Every analysis request is
// an independent run over its own uploaded files; the only shared state is
// the read-only operator lookup.
type Server struct {
	cfg    config.Config
	logger *zap.Logger
	canon  msisdn.Canonicalizer
	ops    *analysis.OperatorDB
}

func New(cfg config.Config, logger *zap.Logger, ops *analysis.OperatorDB) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
		canon:  msisdn.New(cfg.CountryCode),
		ops:    ops,
	}
}

func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/analyze", s.Analyze)
	mux.HandleFunc("/lookup", s.Lookup)
	mux.Handle("/download/",
		http.StripPrefix("/download/", http.FileServer(http.Dir(s.cfg.ReportsDir))))
}

type waitingResponse struct {
	Status  string   `json:"status"`
	Missing []string `json:"missing"`
}

type errorResponse struct {
	Status  string   `json:"status"`
	Error   string   `json:"error"`
	Dataset string   `json:"dataset,omitempty"`
	Columns []string `json:"columns,omitempty"`
}

type runResponse struct {
	Status     string `json:"status"`
	RunID      string `json:"run_id"`
	Total      int    `json:"total"`
	NotEntered int    `json:"not_entered"`
	Download   string `json:"download"`
}

type lookupResponse struct {
	Number    string `json:"number"`
	Canonical string `json:"canonical"`
	Returned  bool   `json:"returned"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeInputError maps the run's error taxonomy onto the response: schema
// and parse failures carry enough detail to fix the source file.
func writeInputError(w http.ResponseWriter, err error) {
	var schemaErr *table.SchemaError
	if errors.As(err, &schemaErr) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Status:  "error",
			Error:   schemaErr.Error(),
			Dataset: schemaErr.Dataset,
			Columns: schemaErr.Missing,
		})
		return
	}
	var parseErr *table.ParseError
	if errors.As(err, &parseErr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Status:  "error",
			Error:   parseErr.Error(),
			Dataset: parseErr.Dataset,
		})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorResponse{Status: "error", Error: err.Error()})
}

// Analyze accepts the inbound and outbound exports (multipart fields
// "inbound" and "outbound", optional "catpro") and responds with the run
// summary plus the download path of the xlsx artifact. Until both required
// files are present the response is a neutral waiting state, not an error.
func (s *Server) Analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Status: "error", Error: err.Error()})
		return
	}

	var missing []string
	for _, field := range []string{"inbound", "outbound"} {
		if _, _, err := r.FormFile(field); err != nil {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		writeJSON(w, http.StatusOK, waitingResponse{Status: "waiting", Missing: missing})
		return
	}

	_ = os.MkdirAll(s.cfg.UploadsDir, 0o755)
	runDir, err := os.MkdirTemp(s.cfg.UploadsDir, "run-")
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Status: "error", Error: err.Error()})
		return
	}
	defer os.RemoveAll(runDir)

	inbound, err := s.readUpload(r, "inbound", runDir, 0)
	if err != nil {
		writeInputError(w, err)
		return
	}
	outbound, err := s.readUpload(r, "outbound", runDir, 0)
	if err != nil {
		writeInputError(w, err)
		return
	}
	var reference *table.Table
	if _, _, ferr := r.FormFile("catpro"); ferr == nil {
		reference, err = s.readUpload(r, "catpro", runDir, analysis.ReferenceHeaderRow)
		if err != nil {
			writeInputError(w, err)
			return
		}
	}

	res, err := analysis.Run(analysis.RunRequest{
		Inbound:   inbound,
		Outbound:  outbound,
		Reference: reference,
		Canon:     s.canon,
		Operators: s.ops,
		Logger:    s.logger,
	})
	if err != nil {
		writeInputError(w, err)
		return
	}

	rows := analysis.Assemble(res, analysis.AssembleOptions{
		Language:       s.language(r),
		NotEnteredOnly: s.notEnteredOnly(r),
		Canon:          s.canon,
	})

	name := res.ID + "_missed_calls.xlsx"
	if err := os.MkdirAll(s.cfg.ReportsDir, 0o755); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Status: "error", Error: err.Error()})
		return
	}
	out, err := os.Create(filepath.Join(s.cfg.ReportsDir, name))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Status: "error", Error: err.Error()})
		return
	}
	defer out.Close()
	if err := analysis.WriteXLSX(out, rows); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Status: "error", Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, runResponse{
		Status:     "ok",
		RunID:      res.ID,
		Total:      res.Total(),
		NotEntered: res.NotEntered,
		Download:   "/download/" + name,
	})
}

// Lookup answers the test box: canonicalize one user-entered number and
// check it against the uploaded outbound export's membership set.
func (s *Server) Lookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Status: "error", Error: err.Error()})
		return
	}
	number := r.FormValue("number")
	if _, _, err := r.FormFile("outbound"); err != nil {
		writeJSON(w, http.StatusOK, waitingResponse{Status: "waiting", Missing: []string{"outbound"}})
		return
	}

	_ = os.MkdirAll(s.cfg.UploadsDir, 0o755)
	runDir, err := os.MkdirTemp(s.cfg.UploadsDir, "lookup-")
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Status: "error", Error: err.Error()})
		return
	}
	defer os.RemoveAll(runDir)

	raw, err := s.readUpload(r, "outbound", runDir, 0)
	if err != nil {
		writeInputError(w, err)
		return
	}
	outbound, err := table.Normalize(raw, s.canon, analysis.OutboundOptions())
	if err != nil {
		writeInputError(w, err)
		return
	}

	canonical, returned := analysis.Lookup(number, outbound, s.canon)
	writeJSON(w, http.StatusOK, lookupResponse{Number: number, Canonical: canonical, Returned: returned})
}

// readUpload stores the uploaded file under the run's private directory and
// parses it, so concurrent requests never share paths.
func (s *Server) readUpload(r *http.Request, field, runDir string, headerRow int) (*table.Table, error) {
	file, hdr, err := r.FormFile(field)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	dst := filepath.Join(runDir, fmt.Sprintf("%s_%s", field, filepath.Base(hdr.Filename)))
	if err := saveUpload(file, dst); err != nil {
		return nil, err
	}

	f, err := os.Open(dst)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return table.ReadXLSX(f, field, headerRow)
}

func saveUpload(src io.Reader, dst string) error {
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, src)
	return err
}

func (s *Server) language(r *http.Request) analysis.Language {
	switch r.FormValue("lang") {
	case "en":
		return analysis.LangEnglish
	case "mk":
		return analysis.LangMacedonian
	}
	if s.cfg.Language == "en" {
		return analysis.LangEnglish
	}
	return analysis.LangMacedonian
}

func (s *Server) notEnteredOnly(r *http.Request) bool {
	switch r.FormValue("not_entered_only") {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return s.cfg.NotEnteredOnly
}
