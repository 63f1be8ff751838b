// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package result maps composition outcomes and errors onto client-facing
// responses.
package result

import (
	"errors"
	"net/http"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ManuGH/mediacompose/internal/compose"
)

// Category discriminates the failure families a client can observe.
type Category string

const (
	CategoryNone       Category = ""
	CategoryValidation Category = "validation"
	CategoryEncode     Category = "encode_failure"
	CategoryInternal   Category = "internal"
)

// Legacy error strings kept for existing clients.
const (
	ErrorFFmpeg   = "ffmpeg error"
	ErrorInternal = "internal error"
)

// Problem codes.
const (
	CodeValidation    = "VALIDATION_FAILED"
	CodeEncodeFailed  = "ENCODE_FAILED"
	CodeEncodeTimeout = "ENCODE_TIMEOUT"
	CodeEncodeAborted = "ENCODE_CANCELED"
	CodeInternal      = "INTERNAL_ERROR"
)

// Success is the body returned for a published video.
type Success struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Failure carries the legacy error body.
type Failure struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// Response is the mapped result of one composition.
type Response struct {
	Status   int
	Category Category
	// Code is the stable machine-readable problem code; empty on success.
	Code    string
	Success *Success
	Failure *Failure
}

// Mapper converts outcomes into responses. It is a pure function of its
// inputs.
type Mapper struct {
	// PublicPrefix is the URL path under which outputs are served.
	PublicPrefix string
	// Scrubber removes server paths from diagnostics.
	Scrubber Scrubber
}

// Map converts the return values of compose.Service.Compose.
func (m Mapper) Map(o compose.JobOutcome, err error) Response {
	if err != nil {
		return mapError(err)
	}
	if o.Succeeded() {
		return Response{
			Status:  http.StatusOK,
			Success: &Success{ID: o.ID, URL: m.URL(o.Locator)},
		}
	}

	r := Response{
		Status:   http.StatusInternalServerError,
		Category: CategoryEncode,
		Code:     CodeEncodeFailed,
		Failure:  &Failure{Error: ErrorFFmpeg, Detail: m.Scrubber.Strip(o.ErrorDetail)},
	}
	switch o.Reason {
	case compose.ReasonTimeout:
		r.Status = http.StatusGatewayTimeout
		r.Code = CodeEncodeTimeout
	case compose.ReasonCanceled:
		r.Status = http.StatusServiceUnavailable
		r.Code = CodeEncodeAborted
	}
	return r
}

// URL joins the public prefix and a storage locator.
func (m Mapper) URL(locator string) string {
	prefix := strings.TrimRight(m.PublicPrefix, "/")
	return path.Join("/", prefix, locator)
}

func mapError(err error) Response {
	var v *compose.ValidationError
	if errors.As(err, &v) {
		return Response{
			Status:   http.StatusBadRequest,
			Category: CategoryValidation,
			Code:     CodeValidation,
			Failure:  &Failure{Error: v.Msg},
		}
	}
	// Internal details stay in the logs.
	return Response{
		Status:   http.StatusInternalServerError,
		Category: CategoryInternal,
		Code:     CodeInternal,
		Failure:  &Failure{Error: ErrorInternal},
	}
}

const pathDelims = `\s'"(),:\]`

var absPathRe = regexp.MustCompile(`(^|[\s'"(=\[])(/[^` + pathDelims + `]+)`)

// StripPaths replaces absolute filesystem paths in engine output with their
// base names so server layout never reaches clients. Paths containing
// whitespace are only caught by a Scrubber that knows their root.
func StripPaths(s string) string {
	return absPathRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := absPathRe.FindStringSubmatch(m)
		return sub[1] + filepath.Base(sub[2])
	})
}

// Scrubber strips paths below known server directories before falling back
// to StripPaths. The zero value only applies StripPaths.
type Scrubber struct {
	roots []*regexp.Regexp
}

// NewScrubber builds a Scrubber for the given directories. Empty and
// duplicate entries are ignored; longer roots are matched first.
func NewScrubber(roots ...string) Scrubber {
	seen := make(map[string]bool)
	var abs []string
	for _, r := range roots {
		if r == "" {
			continue
		}
		a, err := filepath.Abs(r)
		if err != nil || a == "/" || seen[a] {
			continue
		}
		seen[a] = true
		abs = append(abs, a)
	}
	sort.Slice(abs, func(i, j int) bool { return len(abs[i]) > len(abs[j]) })

	s := Scrubber{}
	for _, a := range abs {
		s.roots = append(s.roots, regexp.MustCompile(regexp.QuoteMeta(a)+`(/[^`+pathDelims+`]*|[`+pathDelims+`]|$)`))
	}
	return s
}

// Strip returns text with every path below a known root, and every other
// absolute path, reduced to its base name.
func (s Scrubber) Strip(text string) string {
	for _, re := range s.roots {
		text = re.ReplaceAllStringFunc(text, func(m string) string {
			tail := re.FindStringSubmatch(m)[1]
			root := strings.TrimSuffix(m, tail)
			if strings.HasPrefix(tail, "/") {
				if rest := strings.Trim(tail, "/"); rest != "" {
					return filepath.Base(rest)
				}
				return filepath.Base(root)
			}
			return filepath.Base(root) + tail
		})
	}
	return StripPaths(text)
}
