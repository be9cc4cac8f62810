package triage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboxpilot/inboxpilot/internal/gmail"
)

// fakePager serves a fixed slice of summaries and records the requested cap.
type fakePager struct {
	emails    []gmail.EmailSummary
	lastQuery string
	lastCap   int
	err       error
}

func (f *fakePager) FetchSummaries(_ context.Context, query string, cap int) ([]gmail.EmailSummary, error) {
	f.lastQuery = query
	f.lastCap = cap
	if f.err != nil {
		return nil, f.err
	}
	if len(f.emails) > cap {
		return f.emails[:cap], nil
	}
	return f.emails, nil
}

// fakeBodies serves bodies by message ID and can fail selected IDs.
type fakeBodies struct {
	bodies  map[string]string
	failIDs map[string]bool
	calls   []string
}

func (f *fakeBodies) GetMessageBody(messageID string) (string, error) {
	f.calls = append(f.calls, messageID)
	if f.failIDs[messageID] {
		return "", errors.New("body fetch failed")
	}
	return f.bodies[messageID], nil
}

// scriptedClassifier returns per-email confidences: snippet-pass results come
// from snippetConf, full-body results from fullConf. IDs in failIDs error on
// the pass given by failOnFull.
type scriptedClassifier struct {
	snippetConf map[string]float64
	fullConf    map[string]float64
	failSnippet map[string]bool
	failFull    map[string]bool

	snippetCalls []string
	fullCalls    []string
}

func (s *scriptedClassifier) Classify(_ context.Context, email gmail.EmailFull, snippetOnly bool) (Classification, error) {
	if snippetOnly {
		s.snippetCalls = append(s.snippetCalls, email.ID)
		if s.failSnippet[email.ID] {
			return Classification{}, errors.New("model refused")
		}
		return s.result(email, s.snippetConf[email.ID], CategoryOther), nil
	}

	s.fullCalls = append(s.fullCalls, email.ID)
	if s.failFull[email.ID] {
		return Classification{}, errors.New("model refused")
	}
	return s.result(email, s.fullConf[email.ID], CategoryActionRequired), nil
}

func (s *scriptedClassifier) result(email gmail.EmailFull, confidence float64, category Category) Classification {
	c := Classification{
		EmailID:    email.ID,
		Category:   category,
		Confidence: confidence,
		From:       email.From,
		Subject:    email.Subject,
		Date:       email.Date,
	}
	switch category {
	case CategoryActionRequired:
		c.MetaSummary = mustMarshal(ActionRequiredSummary{Subject: email.Subject})
	default:
		c.MetaSummary = mustMarshal(OtherSummary{Subject: email.Subject})
	}
	return c
}

func summariesN(n int) []gmail.EmailSummary {
	out := make([]gmail.EmailSummary, n)
	for i := range out {
		out[i] = gmail.EmailSummary{
			ID:      fmt.Sprintf("m%d", i),
			Subject: fmt.Sprintf("subject %d", i),
			From:    "sender@example.com",
			Snippet: "snippet",
		}
	}
	return out
}

func TestEngine_Run_ThresholdIsStrict(t *testing.T) {
	emails := summariesN(2)
	pager := &fakePager{emails: emails}
	bodies := &fakeBodies{bodies: map[string]string{"m0": "body"}}
	classifier := &scriptedClassifier{
		// m0 sits just below the threshold, m1 exactly on it.
		snippetConf: map[string]float64{"m0": 0.69, "m1": 0.70},
		fullConf:    map[string]float64{"m0": 0.95},
	}
	store := newTestStore(t)

	engine := NewEngine(pager, bodies, classifier, store)

	summary, err := engine.Run(context.Background(), RunOptions{Days: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalEmails)

	// Only the 0.69 result triggers the full-body pass.
	assert.Equal(t, []string{"m0"}, bodies.calls)
	assert.Equal(t, []string{"m0"}, classifier.fullCalls)

	doc, err := store.Load()
	require.NoError(t, err)
	byID := map[string]Classification{}
	for _, c := range doc.Emails {
		byID[c.EmailID] = c
	}
	assert.Equal(t, CategoryActionRequired, byID["m0"].Category, "pass-2 result replaces pass-1 wholesale")
	assert.Equal(t, 0.95, byID["m0"].Confidence)
	assert.Equal(t, CategoryOther, byID["m1"].Category, "0.70 stands without a second pass")
}

func TestEngine_Run_ClampsBatchSize(t *testing.T) {
	pager := &fakePager{emails: summariesN(5)}
	classifier := &scriptedClassifier{snippetConf: map[string]float64{
		"m0": 0.9, "m1": 0.9, "m2": 0.9, "m3": 0.9, "m4": 0.9,
	}}
	engine := NewEngine(pager, &fakeBodies{}, classifier, newTestStore(t))

	_, err := engine.Run(context.Background(), RunOptions{BatchSize: 1000})
	require.NoError(t, err)
	assert.Equal(t, MaxRunBatchSize, pager.lastCap)

	_, err = engine.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, DefaultRunBatchSize, pager.lastCap)
}

func TestEngine_Run_FetchFailureIsFatal(t *testing.T) {
	pager := &fakePager{err: errors.New("gmail unavailable")}
	engine := NewEngine(pager, &fakeBodies{}, &scriptedClassifier{}, newTestStore(t))

	_, err := engine.Run(context.Background(), RunOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch emails")
}

func TestEngine_Run_ClassifierFailureDegradesToFallback(t *testing.T) {
	emails := summariesN(3)
	pager := &fakePager{emails: emails}
	bodies := &fakeBodies{bodies: map[string]string{"m1": "body"}}
	classifier := &scriptedClassifier{
		snippetConf: map[string]float64{"m0": 0.9, "m2": 0.9},
		failSnippet: map[string]bool{"m1": true},
		failFull:    map[string]bool{"m1": true},
	}
	store := newTestStore(t)
	engine := NewEngine(pager, bodies, classifier, store)

	summary, err := engine.Run(context.Background(), RunOptions{})
	require.NoError(t, err, "one failing email must not fail the run")
	assert.Equal(t, 3, summary.TotalEmails)

	doc, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, 3, doc.TotalEmails, "no email is dropped")

	for _, c := range doc.Emails {
		if c.EmailID == "m1" {
			assert.Equal(t, CategoryOther, c.Category)
			assert.Equal(t, fallbackConfidence, c.Confidence)
			assert.NotEmpty(t, c.ReasonForLowConfidence)
		}
	}
}

func TestEngine_Run_SecondPassFailuresRetainFirstPass(t *testing.T) {
	emails := summariesN(4)
	pager := &fakePager{emails: emails}
	// m1's body fetch fails; m2's reclassification fails; both keep their
	// snippet results. m3 reclassifies successfully.
	bodies := &fakeBodies{
		bodies:  map[string]string{"m2": "body", "m3": "body"},
		failIDs: map[string]bool{"m1": true},
	}
	classifier := &scriptedClassifier{
		snippetConf: map[string]float64{"m0": 0.9, "m1": 0.4, "m2": 0.4, "m3": 0.4},
		fullConf:    map[string]float64{"m3": 0.85},
		failFull:    map[string]bool{"m2": true},
	}
	store := newTestStore(t)
	engine := NewEngine(pager, bodies, classifier, store)

	summary, err := engine.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalEmails)

	doc, err := store.Load()
	require.NoError(t, err)
	byID := map[string]Classification{}
	for _, c := range doc.Emails {
		byID[c.EmailID] = c
	}

	assert.Equal(t, 0.4, byID["m1"].Confidence, "body fetch failure keeps snippet result")
	assert.Equal(t, CategoryOther, byID["m1"].Category)
	assert.Equal(t, 0.4, byID["m2"].Confidence, "reclassification failure keeps snippet result")
	assert.Equal(t, 0.85, byID["m3"].Confidence, "successful second pass replaces result")
	assert.Equal(t, CategoryActionRequired, byID["m3"].Category)
}

func TestEngine_Run_Digest(t *testing.T) {
	emails := summariesN(3)
	pager := &fakePager{emails: emails}
	classifier := &scriptedClassifier{
		snippetConf: map[string]float64{"m0": 0.9, "m1": 0.9, "m2": 0.9},
	}
	engine := NewEngine(pager, &fakeBodies{}, classifier, newTestStore(t))

	summary, err := engine.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Triaged 3 emails: OTHER=3", summary.Message)
	assert.Equal(t, 3, summary.ByCategory[CategoryOther])
}

func TestEngine_Run_WindowQuery(t *testing.T) {
	pager := &fakePager{}
	engine := NewEngine(pager, &fakeBodies{}, &scriptedClassifier{}, newTestStore(t))

	_, err := engine.Run(context.Background(), RunOptions{Days: 3})
	require.NoError(t, err)
	assert.Equal(t, "in:inbox newer_than:3d", pager.lastQuery)
}
