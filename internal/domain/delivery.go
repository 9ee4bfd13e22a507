package domain

import "time"

// Photo is an image selected for one day's digest. Width and Height
// describe the large rendition that passed the size policy.
type Photo struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	PageURL string `json:"page_url,omitempty"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// DeliveryReport summarizes a single delivery run. A run that resolved
// no canonical zone reports zero counts and the reason; a run that
// dispatched reports per-subscriber outcomes in aggregate.
type DeliveryReport struct {
	Offset    int       `json:"offset"`
	Zone      string    `json:"zone,omitempty"`
	LocalTime time.Time `json:"local_time"`
	Attempted int       `json:"attempted"`
	Sent      int       `json:"sent"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
	Reason    string    `json:"reason,omitempty"`
}
