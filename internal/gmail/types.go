package gmail

// EmailSummary is a lightweight projection of a mailbox message used during
// listing and paging. It carries just enough context for a snippet-only
// classification pass.
type EmailSummary struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	From    string `json:"from"`
	Date    string `json:"date"`
	To      string `json:"to"`
	Snippet string `json:"snippet"`
}

// EmailFull is an EmailSummary plus the decoded message body. It is fetched
// lazily, only for emails that need a second classification pass.
type EmailFull struct {
	EmailSummary
	Body string `json:"body"`
}
