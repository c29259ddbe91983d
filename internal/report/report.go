// Package report renders an EvaluationReport into its wire document and writes the job's
// artifacts: results.json and, optionally, annotated frames.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/andresmejia3/interviewlens/internal/types"
)

const ResultsFile = "results.json"

// Document is the wire shape of a report. Absent summaries render as null.
type Document struct {
	JobID                    string                     `json:"job_id"`
	Video                    string                     `json:"video"`
	Step                     int                        `json:"step"`
	State                    types.State                `json:"state"`
	Source                   string                     `json:"source"`
	FrameAnalysis            map[string][]types.FaceBox `json:"frame_analysis"`
	Transcription            *types.TranscriptionResult `json:"transcription"`
	Evaluation               *types.TextSummary         `json:"evaluation"`
	FacialExpressionAnalysis *types.FacialSummary       `json:"facial_expression_analysis"`
	Warnings                 []string                   `json:"warnings"`
}

// Render maps the report onto its document, handling every Analysis variant.
func Render(r types.EvaluationReport) Document {
	doc := Document{
		JobID:         r.JobID,
		Video:         r.VideoPath,
		Step:          r.Step,
		Source:        r.Source,
		FrameAnalysis: r.FrameAnalysis,
		Transcription: r.Transcription,
		Warnings:      make([]string, 0, len(r.Warnings)),
	}
	if doc.FrameAnalysis == nil {
		doc.FrameAnalysis = map[string][]types.FaceBox{}
	}
	for _, w := range r.Warnings {
		doc.Warnings = append(doc.Warnings, w.String())
	}

	switch a := r.Analysis.(type) {
	case types.NoAnalysis:
		doc.State = a.State()
	case types.FacialOnly:
		doc.State = a.State()
		doc.FacialExpressionAnalysis = a.Facial
	case types.TextOnly:
		doc.State = a.State()
		doc.Evaluation = a.Text
	case types.Both:
		doc.State = a.State()
		doc.FacialExpressionAnalysis = a.Facial
		doc.Evaluation = a.Text
	default:
		panic(fmt.Sprintf("report: unhandled analysis %T", r.Analysis))
	}
	return doc
}

// Marshal encodes the document as indented JSON. Map keys are sorted, so equal reports
// encode to equal bytes.
func Marshal(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode report")
	}
	return append(data, '\n'), nil
}

func Unmarshal(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, errors.Wrap(err, "decode report")
	}
	return doc, nil
}

// JobDir is where a job's artifacts live.
func JobDir(outDir, jobID string) string {
	return filepath.Join(outDir, jobID)
}

// Write stores results.json under the job directory and returns its path.
func Write(outDir string, doc Document) (string, error) {
	dir := JobDir(outDir, doc.JobID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(err, "create %s", dir)
	}
	data, err := Marshal(doc)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, ResultsFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", errors.Wrapf(err, "write %s", path)
	}
	return path, nil
}
