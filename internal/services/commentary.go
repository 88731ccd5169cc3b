package services

import (
	"context"
	"fmt"
)

// HTTPCommentator implements Commentator against the commentary
// backend's /analyze endpoint, falling back to the rule-based analyzer
// when the backend is absent, failing, or returns garbage. Analyze
// therefore never returns an error together with a nil commentary.
type HTTPCommentator struct {
	remote   *Remote
	maxChars int
}

// NewHTTPCommentator returns the commentary client. maxChars bounds
// the transcript length sent to the backend.
func NewHTTPCommentator(remote *Remote, maxChars int) *HTTPCommentator {
	return &HTTPCommentator{remote: remote, maxChars: maxChars}
}

type commentaryRequest struct {
	Transcript string          `json:"transcript"`
	Acoustic   AcousticSummary `json:"acoustic"`
}

func (c *HTTPCommentator) Analyze(ctx context.Context, transcriptText string, summary AcousticSummary) (*Commentary, error) {
	truncated := TruncateTranscript(transcriptText, c.maxChars)

	url := c.remote.endpoints.Commentary
	if url == "" {
		return RuleBasedCommentary(truncated, summary), nil
	}

	var out Commentary
	err := c.remote.call(ctx, ServiceCommentary, func(ctx context.Context) error {
		out = Commentary{}
		if err := c.remote.postJSON(ctx, url+"/analyze", commentaryRequest{
			Transcript: truncated,
			Acoustic:   summary,
		}, &out); err != nil {
			return err
		}
		if !plausibleCommentary(out) {
			return fmt.Errorf("commentary response failed validation")
		}
		return nil
	})
	if err != nil {
		c.remote.logger.Warn().Err(err).Msg("Commentary backend failed, using rule-based analysis")
		return RuleBasedCommentary(truncated, summary), nil
	}
	return &out, nil
}

func (c *HTTPCommentator) Available(ctx context.Context) (bool, error) {
	return c.remote.probe(ctx, c.remote.endpoints.Commentary)
}

// plausibleCommentary rejects decoded-but-empty or out-of-range
// responses so a half-broken backend cannot poison reports.
func plausibleCommentary(c Commentary) bool {
	if c.ConfidenceScore < 0 || c.ConfidenceScore > 100 {
		return false
	}
	if c.NervousnessScore < 0 || c.NervousnessScore > 100 {
		return false
	}
	return len(c.Keywords) > 0 || c.OverallImpression != ""
}

// TruncateTranscript bounds a transcript to max runes without splitting
// a multi-byte character. max <= 0 means no bound.
func TruncateTranscript(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
