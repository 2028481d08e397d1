package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// AttemptResult is the normalized outcome of a submitted or reviewed attempt.
type AttemptResult struct {
	AttemptID      int64            `json:"attempt_id,omitempty"`
	Score          int              `json:"score"`
	CorrectAnswers int              `json:"correct_answers"`
	TotalQuestions int              `json:"total_questions"`
	TimeTaken      int              `json:"time_taken"`
	Results        []QuestionResult `json:"results"`
	LocalScore     int              `json:"local_score"`
	ScoreMismatch  bool             `json:"score_mismatch,omitempty"`
	SubmitFormat   string           `json:"submit_format,omitempty"`
}

// ScorePercent returns the rounded percentage of correct answers.
func ScorePercent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) * 100 / float64(total)))
}

// Grade compares every loaded question with the selected answer. Unanswered
// questions count as incorrect.
func Grade(questions []Question, answers map[int64]SelectedAnswer) []QuestionResult {
	results := make([]QuestionResult, 0, len(questions))
	for _, q := range questions {
		sel := answers[q.ID]
		results = append(results, QuestionResult{
			QuestionID:     q.ID,
			SelectedOption: sel.OptionKey,
			SelectedText:   sel.OptionText,
			CorrectOption:  q.CorrectOption,
			IsCorrect:      sel.OptionKey != "" && sel.OptionKey == q.CorrectOption,
		})
	}
	return results
}

func countCorrect(results []QuestionResult) int {
	n := 0
	for _, r := range results {
		if r.IsCorrect {
			n++
		}
	}
	return n
}

func sortResults(results []QuestionResult) {
	sort.Slice(results, func(i, j int) bool { return results[i].QuestionID < results[j].QuestionID })
}

// flexNumber decodes a JSON number that may arrive quoted.
type flexNumber struct {
	Value float64
	Set   bool
}

func (f *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
		if err != nil {
			return nil
		}
		f.Value, f.Set = v, true
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	f.Value, f.Set = v, true
	return nil
}

type submitResponse struct {
	ID              flexNumber  `json:"id"`
	AttemptID       flexNumber  `json:"attempt_id"`
	Score           flexNumber  `json:"score"`
	CorrectAnswers  flexNumber  `json:"correct_answers"`
	TotalQuestions  flexNumber  `json:"total_questions"`
	TimeTaken       flexNumber  `json:"time_taken"`
	Results         []rawResult `json:"results"`
	QuestionResults []rawResult `json:"question_results"`
}

type rawResult struct {
	QuestionID     flexNumber      `json:"question_id"`
	Question       flexNumber      `json:"question"`
	SelectedOption json.RawMessage `json:"selected_option"`
	IsCorrect      *bool           `json:"is_correct"`
}

// NormalizeResult builds an AttemptResult from a submission response body. Fields the
// backend omits are computed locally from questions and answers; the backend score is
// authoritative when present and is cross-checked against the local score.
func NormalizeResult(body []byte, questions []Question, answers map[int64]SelectedAnswer, timeTaken int) *AttemptResult {
	local := Grade(questions, answers)
	localCorrect := countCorrect(local)
	result := &AttemptResult{
		TotalQuestions: len(questions),
		TimeTaken:      timeTaken,
		Results:        local,
		CorrectAnswers: localCorrect,
		LocalScore:     ScorePercent(localCorrect, len(questions)),
	}

	var resp submitResponse
	if len(bytes.TrimSpace(body)) == 0 || json.Unmarshal(body, &resp) != nil {
		result.Score = result.LocalScore
		return result
	}

	switch {
	case resp.AttemptID.Set:
		result.AttemptID = int64(resp.AttemptID.Value)
	case resp.ID.Set:
		result.AttemptID = int64(resp.ID.Value)
	}
	if resp.TimeTaken.Set {
		result.TimeTaken = int(resp.TimeTaken.Value)
	}

	remote := resp.Results
	if len(remote) == 0 {
		remote = resp.QuestionResults
	}
	if len(remote) > 0 {
		result.Results = mergeResults(local, remote, questions)
		result.CorrectAnswers = countCorrect(result.Results)
	}
	if resp.CorrectAnswers.Set {
		result.CorrectAnswers = int(resp.CorrectAnswers.Value)
	}
	if resp.TotalQuestions.Set && resp.TotalQuestions.Value > 0 {
		result.TotalQuestions = int(resp.TotalQuestions.Value)
	}

	if !resp.Score.Set {
		result.Score = ScorePercent(result.CorrectAnswers, result.TotalQuestions)
		return result
	}
	score := resp.Score.Value
	if score <= 1 && result.LocalScore > 1 {
		score *= 100
	}
	result.Score = int(math.Round(score))
	result.ScoreMismatch = result.Score != result.LocalScore
	return result
}

// mergeResults overlays backend per-question results on the local grading. Backend
// correctness wins where it is given.
func mergeResults(local []QuestionResult, remote []rawResult, questions []Question) []QuestionResult {
	byID := make(map[int64]int, len(local))
	merged := make([]QuestionResult, len(local))
	copy(merged, local)
	for i, r := range merged {
		byID[r.QuestionID] = i
	}
	qByID := make(map[int64]Question, len(questions))
	for _, q := range questions {
		qByID[q.ID] = q
	}

	for _, r := range remote {
		id := int64(r.QuestionID.Value)
		if !r.QuestionID.Set {
			id = int64(r.Question.Value)
		}
		i, ok := byID[id]
		if !ok {
			continue
		}
		if ref := rawRef(r.SelectedOption); ref != "" {
			if key, ok := qByID[id].Options.KeyFor(ref); ok {
				merged[i].SelectedOption = key
				merged[i].SelectedText, _ = qByID[id].Options.Text(key)
			}
		}
		if r.IsCorrect != nil {
			merged[i].IsCorrect = *r.IsCorrect
		} else {
			merged[i].IsCorrect = merged[i].SelectedOption != "" && merged[i].SelectedOption == merged[i].CorrectOption
		}
	}
	return merged
}
