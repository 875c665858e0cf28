// Package study holds the static content of the experiment: the case
// catalog, the counterbalanced presentation orders, and the per-branch
// survey question sets. Everything here is fixed at compile time.
package study

import (
	"encoding/json"

	"github.com/Acterion/forum-helper/internal/models"
)

func mustJSON(v any) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}

func seedCase(id, title string, main models.Post, replies []models.Post) models.Case {
	return models.Case{
		ID:       id,
		Title:    title,
		MainPost: mustJSON(main),
		Replies:  mustJSON(replies),
	}
}

// Cases is the full catalog, in canonical order. The sequence table in
// sequences.go references these ids.
var Cases = []models.Case{
	seedCase("case-1", "Overwhelmed after starting a new job",
		models.Post{
			Author:    "quiet_lurker92",
			Content:   "I started a new job three weeks ago and I feel like I'm drowning. Everyone else seems to know what they're doing and I'm scared to ask questions because I don't want to look incompetent. I lie awake at night replaying every mistake I made during the day. Is it normal to feel this lost, or did I make a huge mistake taking this job?",
			Timestamp: "2023-03-14T21:47:00Z",
			AvatarURL: "/avatars/owl.png",
		},
		[]models.Post{
			{Author: "mossyrock", Content: "Three weeks is nothing, give yourself some credit for even getting hired.", Timestamp: "2023-03-14T22:10:00Z"},
			{Author: "tea_and_rain", Content: "I felt exactly the same at my current job and now I'm the one onboarding new people. It passes.", Timestamp: "2023-03-15T06:32:00Z"},
		}),
	seedCase("case-2", "My best friend stopped replying to my messages",
		models.Post{
			Author:    "halfwaythere",
			Content:   "My best friend of ten years has slowly stopped answering my texts. First it was a day late, then a week, now nothing for almost a month. As far as I know I didn't do anything wrong. I keep drafting messages asking what happened and deleting them. I feel like I'm grieving someone who is still alive. How do I deal with this without making it weird?",
			Timestamp: "2023-03-18T13:05:00Z",
			AvatarURL: "/avatars/fox.png",
		},
		[]models.Post{
			{Author: "bluebottle", Content: "Sometimes people pull away because of their own stuff, not because of you.", Timestamp: "2023-03-18T14:20:00Z"},
		}),
	seedCase("case-3", "Caring for my mother is wearing me down",
		models.Post{
			Author:    "tired_daughter",
			Content:   "I moved back home a year ago to look after my mother after her stroke. I love her and I don't regret it, but between work, appointments, and the housework I have nothing left for myself. My siblings call once a week and think that's helping. Yesterday I snapped at her over something tiny and I've felt guilty ever since. I don't even know what I'm asking for. I just needed to write this somewhere.",
			Timestamp: "2023-03-21T23:58:00Z",
			AvatarURL: "/avatars/bear.png",
		},
		[]models.Post{
			{Author: "nightshift_nurse", Content: "Caregiver burnout is real. Please look into respite care in your area.", Timestamp: "2023-03-22T03:41:00Z"},
			{Author: "bluebottle", Content: "Snapping once after a year of this does not make you a bad daughter.", Timestamp: "2023-03-22T08:15:00Z"},
		}),
	seedCase("case-4", "Failed my driving test for the third time",
		models.Post{
			Author:    "stalled_again",
			Content:   "Third failed driving test today. Everyone I know passed on the first or second try. My instructor says I'm fine in lessons but I fall apart the moment the examiner gets in the car. My hands shake, I forget everything. I'm 26 and I feel like a complete failure over something teenagers manage. The worst part is my family keeps asking about it. I'm starting to think I should just give up and accept I'll never drive.",
			Timestamp: "2023-03-25T17:22:00Z",
			AvatarURL: "/avatars/rabbit.png",
		},
		[]models.Post{
			{Author: "roundabout_fan", Content: "Took me five attempts. Nobody has ever asked me since how many tries it took.", Timestamp: "2023-03-25T18:03:00Z"},
		}),
	seedCase("case-5", "Don't know how to tell my partner about my debt",
		models.Post{
			Author:    "sixfigurehole",
			Content:   "My partner and I are talking about moving in together and they have no idea I'm carrying a lot of credit card debt from a few bad years in my early twenties. I'm paying it down steadily but it will take a while. Every time I try to bring it up my throat closes. I'm terrified they'll see me differently. The longer I wait the worse the secret feels. Has anyone been on either side of this conversation?",
			Timestamp: "2023-03-28T20:11:00Z",
			AvatarURL: "/avatars/deer.png",
		},
		[]models.Post{
			{Author: "ledgerkeeper", Content: "Was on the receiving side of this talk. The debt mattered far less than the honesty.", Timestamp: "2023-03-28T21:30:00Z"},
			{Author: "mossyrock", Content: "A plan you're already following is the best possible framing.", Timestamp: "2023-03-29T07:55:00Z"},
		}),
}

// CaseIDs returns the catalog's ids in canonical order.
func CaseIDs() []string {
	ids := make([]string, len(Cases))
	for i, c := range Cases {
		ids[i] = c.ID
	}
	return ids
}
