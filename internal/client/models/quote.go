package models

// Quote is a cached motivational quote. FetchedAt is in epoch milliseconds.
type Quote struct {
	ID        int64
	Text      string
	Author    string
	Category  string
	FetchedAt int64
}

// DefaultQuote is shown when no quote was ever fetched.
var DefaultQuote = Quote{
	Text:   "The expert in anything was once a beginner.",
	Author: "Helen Hayes",
}
