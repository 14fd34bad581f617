package services

import (
	"strings"

	types "github.com/yungbote/quizdesk-backend/internal/domain"
)

// ScoreAnswer grades one submitted answer against the snapshot question.
// Multiple choice uses exact-set matching: the selected option indexes must
// equal the correct set, no partial credit. Text answers are trimmed and
// case-folded, then matched against the accepted-answer set.
func ScoreAnswer(q types.SnapshotQuestion, sub types.SubmittedAnswer) (bool, float64) {
	switch q.Type {
	case types.QuestionTypeMultipleChoice:
		if sameIndexSet(sub.Selected, q.CorrectOptions) {
			return true, q.Points
		}
	case types.QuestionTypeText:
		got := normalizeText(sub.Text)
		if got == "" {
			return false, 0
		}
		for _, accepted := range q.AcceptedAnswers {
			if got == normalizeText(accepted) {
				return true, q.Points
			}
		}
	}
	return false, 0
}

// Aggregate computes the final percentage and pass flag over the full
// question list. Questions without an answer record contribute zero points
// but their point value still counts in the denominator.
func Aggregate(snap *types.Snapshot, answers []*types.AnswerRecord) (float64, bool) {
	total := snap.TotalPoints()
	if total <= 0 {
		return 0, snap.PassingScorePercent <= 0
	}

	var earned float64
	for _, rec := range answers {
		earned += rec.PointsAwarded
	}

	percent := 100 * earned / total
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return percent, percent >= snap.PassingScorePercent
}

func sameIndexSet(got, want []int) bool {
	if len(want) == 0 {
		return false
	}
	gotSet := make(map[int]struct{}, len(got))
	for _, idx := range got {
		gotSet[idx] = struct{}{}
	}
	wantSet := make(map[int]struct{}, len(want))
	for _, idx := range want {
		wantSet[idx] = struct{}{}
	}
	if len(gotSet) != len(wantSet) {
		return false
	}
	for idx := range wantSet {
		if _, ok := gotSet[idx]; !ok {
			return false
		}
	}
	return true
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
