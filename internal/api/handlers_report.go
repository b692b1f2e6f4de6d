package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/dgallion1/bookkit/internal/parser"
	"github.com/dgallion1/bookkit/internal/proofread"
)

// handleReportJSON runs a fresh pass and returns the report as JSON.
func (s *Server) handleReportJSON(w http.ResponseWriter, r *http.Request) {
	rep, err := s.proofread(r.Context())
	if err != nil {
		s.runError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := rep.WriteJSON(&buf); err != nil {
		jsonError(w, "encode report: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(buf.Bytes())
}

var reportPage = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>校对报告</title>
<style>
body { max-width: 860px; margin: 40px auto; padding: 0 20px; font-family: -apple-system, "PingFang SC", "Microsoft YaHei", sans-serif; line-height: 1.7; color: #24292f; }
h1, h2 { border-bottom: 1px solid #d0d7de; padding-bottom: .3em; }
code { background: #f6f8fa; padding: .2em .4em; border-radius: 4px; }
</style>
</head>
<body>
{{.}}
</body>
</html>
`))

// handleReportHTML runs a fresh pass and renders the markdown report.
func (s *Server) handleReportHTML(w http.ResponseWriter, r *http.Request) {
	rep, err := s.proofread(r.Context())
	if err != nil {
		s.runError(w, err)
		return
	}

	body, err := parser.RenderHTML([]byte(rep.Markdown()))
	if err != nil {
		http.Error(w, "render report: "+err.Error(), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := reportPage.Execute(&buf, template.HTML(body)); err != nil {
		http.Error(w, "render page: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) runError(w http.ResponseWriter, err error) {
	s.log.Error("proofread failed", "error", err)
	code := http.StatusInternalServerError
	if errors.Is(err, proofread.ErrChaptersDir) {
		code = http.StatusServiceUnavailable
	}
	jsonError(w, err.Error(), code)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
