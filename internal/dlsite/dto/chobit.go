package dto

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/NobeKanai/dvtag/internal/model"
)

const (
	chobitMediaHost = "media.dlsite.com/chobit"
	chobitFileHost  = "file.chobit.cc"
)

// ChobitResponse is the embed listing returned by the chobit API for one work.
type ChobitResponse struct {
	Count int          `json:"count"`
	Works []ChobitWork `json:"works"`
}

// ChobitWork is one sample player entry.
type ChobitWork struct {
	WorkID   string `json:"work_id"`
	WorkName string `json:"work_name"`
	FileType string `json:"file_type"`
	Thumb    string `json:"thumb"`
}

// ParseChobit decodes a JSONP body of the form "callback({...})".
func ParseChobit(body []byte) (*ChobitResponse, error) {
	s := strings.TrimSpace(string(body))

	start := strings.IndexByte(s, '(')
	end := strings.LastIndexByte(s, ')')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("not a JSONP response")
	}

	var resp ChobitResponse
	if err := json.Unmarshal([]byte(s[start+1:end]), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Apply refines rel with the first audio sample, if any: the sample's
// thumbnail becomes the cover, and its work name replaces the release name
// when the release name contains it.
func (r *ChobitResponse) Apply(rel *model.Release) {
	if r.Count == 0 || len(r.Works) == 0 {
		return
	}

	work := r.Works[0]
	if work.FileType != "audio" {
		return
	}

	if work.Thumb != "" {
		rel.ImageURL = NormalizeURL(strings.Replace(work.Thumb, chobitMediaHost, chobitFileHost, 1))
	}
	if work.WorkName != "" && strings.Contains(rel.Name, work.WorkName) {
		rel.Name = work.WorkName
	}
}

// NormalizeURL turns protocol-relative URLs into https URLs.
func NormalizeURL(u string) string {
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}
