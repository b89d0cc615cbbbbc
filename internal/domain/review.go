package domain

import "time"

// RawReview is one record as returned by the review source. Keys vary by
// source version, so the normalizer looks fields up through alias lists.
type RawReview = map[string]any

type Review struct {
	At             time.Time `json:"at"` // wall clock of the source, offset discarded
	Country        string    `json:"country"`
	Author         *string   `json:"author,omitempty"`
	Score          int       `json:"score"`
	AppVersion     *string   `json:"app_version,omitempty"`
	Text           string    `json:"text"`
	TranslatedText *string   `json:"translated_text,omitempty"`
	DeveloperReply *string   `json:"developer_reply,omitempty"`
}

// TranslationFailed replaces the translated text of a row whose translation call failed.
const TranslationFailed = "Translation Error"

// Snapshot is the result of one report generation: the full review table
// and the time fetching started.
type Snapshot struct {
	Reviews   []Review  `json:"reviews"`
	FetchedAt time.Time `json:"fetched_at"`
	Warnings  []string  `json:"warnings,omitempty"`
}

func (s Snapshot) Empty() bool { return len(s.Reviews) == 0 }
