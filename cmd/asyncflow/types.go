package main

import "github.com/jward/asyncflow"

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// CLIVersion is the result of the version command.
type CLIVersion struct {
	Name    string `json:"name"`
	Version int    `json:"version"`
}

// CLIFileReport is the outcome for one file.
type CLIFileReport struct {
	Path     string           `json:"path"`
	Language string           `json:"language,omitempty"`
	Changed  bool             `json:"changed"`
	Cached   bool             `json:"cached,omitempty"`
	Sites    []asyncflow.Site `json:"sites,omitempty"`
	Written  string           `json:"written,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// CLICheckReport is the result of the check command.
type CLICheckReport struct {
	Files  []CLIFileReport `json:"files"`
	Sites  int             `json:"sites"`
	Failed int             `json:"failed"`
}

func newFileReport(res asyncflow.FileResult) CLIFileReport {
	r := CLIFileReport{
		Path:     res.Path,
		Language: res.Language,
		Changed:  res.Changed,
		Cached:   res.Cached,
		Sites:    res.Sites,
	}
	if res.Err != nil {
		r.Error = res.Err.Error()
	}
	return r
}

// status is the one-word state shown in text output.
func (r CLIFileReport) status() string {
	switch {
	case r.Error != "":
		return "error"
	case r.Cached && r.Changed:
		return "changed (cached)"
	case r.Cached:
		return "unchanged (cached)"
	case r.Changed:
		return "changed"
	default:
		return "unchanged"
	}
}
