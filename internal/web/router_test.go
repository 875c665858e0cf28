package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/Acterion/forum-helper/internal/db"
	"github.com/Acterion/forum-helper/internal/models"
	"github.com/Acterion/forum-helper/internal/services"
	"github.com/Acterion/forum-helper/internal/study"
)

type cannedGen struct{ text string }

func (g cannedGen) Suggest(_ context.Context, _ models.Case, _ string) (string, error) {
	return g.text, nil
}

type wizardState struct {
	Step         string `json:"step"`
	CaseID       string `json:"caseId"`
	AiArm        bool   `json:"aiArm"`
	ReplyText    string `json:"replyText"`
	AiSuggestion string `json:"aiSuggestion"`
	NoAiPrompt   bool   `json:"noAiPrompt"`
	Position     int    `json:"position"`
	Total        int    `json:"total"`
	Complete     bool   `json:"complete"`
}

type wizardResp struct {
	Wizard wizardState `json:"wizard"`
}

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	if err := db.Init(filepath.Join(t.TempDir(), "study.db")); err != nil {
		t.Fatalf("db init: %v", err)
	}
	sm := services.NewSessionManager(
		cannedGen{text: strings.Repeat("a gentler way to phrase the same advice ", 10)},
		5*time.Millisecond,
	)
	ts := httptest.NewServer(Router(sm))
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, payload any, out any) int {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}
	resp, err := http.Post(url, "application/json", &body)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s response: %v", url, err)
		}
	}
	return resp.StatusCode
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s response: %v", url, err)
		}
	}
	return resp.StatusCode
}

func event(t *testing.T, base string, payload map[string]any) wizardState {
	t.Helper()
	var wr wizardResp
	if code := postJSON(t, base+"/wizard/events", payload, &wr); code != http.StatusOK {
		t.Fatalf("event %v: status %d", payload, code)
	}
	return wr.Wizard
}

func fullPostAnswers(branch string) map[string]string {
	m := map[string]string{
		"task_difficulty":       "Neutral",
		"task_engagement":       "Agree",
		study.AttentionCheckKey: study.AttentionCheckAnswer,
		"overall_stress":        "Disagree",
	}
	if branch == models.BranchAI {
		m["ai_helpful"] = "Agree"
		m["ai_trust"] = "Neutral"
		m["ai_ownership"] = "Agree"
		m["ai_future"] = "Neutral"
	}
	return m
}

// TestStudyFlowEndToEnd walks a participant through the whole study
// over HTTP: intake, consent, pre-survey, all five cases through the
// wizard, post-survey, and the completion-code QR image. Works for
// whichever branch the balancer hands out.
func TestStudyFlowEndToEnd(t *testing.T) {
	ts := startServer(t)
	reply := strings.Repeat("you are not alone in this and it does get easier ", 8)

	// Intake: the submission comes back already assigned.
	var sub struct {
		ID            string `json:"id"`
		Branch        string `json:"branch"`
		SequenceIndex int    `json:"sequenceIndex"`
	}
	if code := postJSON(t, ts.URL+"/api/submissions", nil, &sub); code != http.StatusCreated {
		t.Fatalf("intake: status %d", code)
	}
	if sub.Branch != models.BranchAI && sub.Branch != models.BranchControl {
		t.Fatalf("intake branch = %q", sub.Branch)
	}
	if sub.SequenceIndex < 0 || sub.SequenceIndex >= study.SequenceCount {
		t.Fatalf("intake sequence index = %d", sub.SequenceIndex)
	}
	base := ts.URL + "/api/submissions/" + sub.ID

	// Study consent, then the entry questionnaire.
	if code := postJSON(t, base+"/consent", map[string]any{"gate": "study", "granted": true}, nil); code != http.StatusOK {
		t.Fatalf("consent: status %d", code)
	}
	pre := map[string]any{"answers": map[string]string{
		"age":       "25-34",
		"gender":    "Man",
		"education": "Master's degree",
		"forum_use": "Weekly",
		"english":   "Strongly agree",
	}}
	if code := postJSON(t, base+"/presurvey", pre, nil); code != http.StatusOK {
		t.Fatalf("presurvey: status %d", code)
	}

	// The expected case order for the assigned slot.
	wantOrder, ok := study.SequenceRow(sub.SequenceIndex)
	if !ok {
		t.Fatalf("no sequence row for index %d", sub.SequenceIndex)
	}

	var view wizardResp
	if code := getJSON(t, base+"/wizard", &view); code != http.StatusOK {
		t.Fatalf("wizard view: status %d", code)
	}
	w := view.Wizard
	aiArm := w.AiArm
	if aiArm != (sub.Branch == models.BranchAI) {
		t.Fatalf("wizard aiArm %v does not match branch %s", aiArm, sub.Branch)
	}

	for i, wantCase := range wantOrder {
		if w.Complete {
			t.Fatalf("wizard complete after %d cases, want %d", i, len(wantOrder))
		}
		if w.CaseID != wantCase {
			t.Fatalf("case %d is %s, want %s", i, w.CaseID, wantCase)
		}
		if w.Position != i {
			t.Fatalf("case %d: position %d", i, w.Position)
		}

		if w.Step == "intro" {
			if !aiArm {
				t.Fatal("control arm saw the intro step")
			}
			w = event(t, base, map[string]any{"type": "next"})
		}
		if w.Step != "pre-confidence" {
			t.Fatalf("case %d: step %s, want pre-confidence", i, w.Step)
		}
		event(t, base, map[string]any{"type": "set-pre-confidence", "rating": 4})
		w = event(t, base, map[string]any{"type": "next"})
		if w.Step != "writing" {
			t.Fatalf("case %d: step %s, want writing", i, w.Step)
		}

		w = event(t, base, map[string]any{"type": "edit-reply", "text": reply})

		if aiArm && i == 0 {
			// First case exercises the assistant round-trip.
			var ar wizardResp
			if code := postJSON(t, base+"/wizard/assist", nil, &ar); code != http.StatusOK {
				t.Fatalf("assist: status %d", code)
			}
			if ar.Wizard.AiSuggestion == "" {
				t.Fatal("assist returned no suggestion")
			}
			w = event(t, base, map[string]any{"type": "accept-suggestion"})
			if w.ReplyText != ar.Wizard.AiSuggestion {
				t.Fatal("accepted suggestion did not replace the draft")
			}
		}

		w = event(t, base, map[string]any{"type": "next"})
		if w.NoAiPrompt {
			// AI arm, assistant never consulted on this case.
			w = event(t, base, map[string]any{"type": "confirm-no-ai"})
		}
		if w.Step != "post-review" {
			t.Fatalf("case %d: step %s, want post-review", i, w.Step)
		}

		event(t, base, map[string]any{"type": "set-post-ratings", "postConfidence": 4, "postStress": 2})
		event(t, base, map[string]any{"type": "set-comment", "text": "went fine"})
		w = event(t, base, map[string]any{"type": "submit"})
	}
	if !w.Complete {
		t.Fatal("wizard not complete after the last case")
	}

	// Exit questionnaire with a passing attention check.
	var post struct {
		AttentionPassed bool   `json:"attentionPassed"`
		CompletionCode  string `json:"completionCode"`
	}
	payload := map[string]any{"answers": fullPostAnswers(sub.Branch)}
	if code := postJSON(t, base+"/postsurvey", payload, &post); code != http.StatusOK {
		t.Fatalf("postsurvey: status %d", code)
	}
	if !post.AttentionPassed {
		t.Fatal("attention check failed")
	}
	if !regexp.MustCompile(`^FH-\d{6}$`).MatchString(post.CompletionCode) {
		t.Fatalf("completion code = %q", post.CompletionCode)
	}

	// The code renders as a QR image; unissued codes do not.
	resp, err := http.Get(fmt.Sprintf("%s/qr/%s.png", ts.URL, post.CompletionCode))
	if err != nil {
		t.Fatalf("qr: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Errorf("qr: status %d content-type %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	resp, err = http.Get(ts.URL + "/qr/FH-000000.png")
	if err != nil {
		t.Fatalf("qr miss: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unissued qr code: status %d, want 404", resp.StatusCode)
	}
}

// TestWizardErrorMapping checks the HTTP side of the error taxonomy:
// out-of-turn events are 409, validation failures 422 with the field
// named, unknown submissions 404.
func TestWizardErrorMapping(t *testing.T) {
	ts := startServer(t)

	var sub struct {
		ID string `json:"id"`
	}
	if code := postJSON(t, ts.URL+"/api/submissions", nil, &sub); code != http.StatusCreated {
		t.Fatalf("intake: status %d", code)
	}
	base := ts.URL + "/api/submissions/" + sub.ID

	// Rating events are refused before the wizard reaches their step.
	var apiErr struct {
		Error string `json:"error"`
		Field string `json:"field"`
	}
	code := postJSON(t, base+"/wizard/events", map[string]any{"type": "set-post-ratings", "postConfidence": 3, "postStress": 3}, &apiErr)
	if code != http.StatusConflict {
		t.Errorf("out-of-turn event: status %d, want 409", code)
	}

	// An off-scale rating at the right step is a validation failure.
	var wr wizardResp
	if c := getJSON(t, base+"/wizard", &wr); c != http.StatusOK {
		t.Fatalf("wizard view: status %d", c)
	}
	if wr.Wizard.Step == "intro" {
		event(t, base, map[string]any{"type": "next"})
	}
	event(t, base, map[string]any{"type": "set-pre-confidence", "rating": 9})
	code = postJSON(t, base+"/wizard/events", map[string]any{"type": "next"}, &apiErr)
	if code != http.StatusUnprocessableEntity || apiErr.Field != "preConfidence" {
		t.Errorf("bad rating: status %d field %q, want 422/preConfidence", code, apiErr.Field)
	}

	if code := getJSON(t, ts.URL+"/api/submissions/no-such-id/wizard", nil); code != http.StatusNotFound {
		t.Errorf("unknown submission: status %d, want 404", code)
	}
}
