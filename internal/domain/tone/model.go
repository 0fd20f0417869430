package tone

import "time"

// ToneAnalysis is the decoded result of one tone request. It holds the
// document level tone and one entry per sentence in document order.
type ToneAnalysis struct {
	DocumentTone  ElementTone    `json:"documentTone"`
	SentenceTones []SentenceTone `json:"sentenceTones"`
}

// ElementTone scores a unit of text across every tone category.
type ElementTone struct {
	ToneCategories []ToneCategory `json:"toneCategories"`
}

// ToneCategory groups related tones, e.g. emotion_tone or writing_tone.
type ToneCategory struct {
	CategoryID   string      `json:"categoryId"`
	CategoryName string      `json:"categoryName"`
	Tones        []ToneScore `json:"tones"`
}

// ToneScore is a single scored tone.
type ToneScore struct {
	ToneID   string  `json:"toneId"`
	ToneName string  `json:"toneName"`
	Score    float64 `json:"score"`
}

// SentenceTone is the tone of one sentence plus its position in the input.
type SentenceTone struct {
	SentenceID     int            `json:"sentenceId"`
	Text           string         `json:"text"`
	InputFrom      int            `json:"inputFrom"`
	InputTo        int            `json:"inputTo"`
	ToneCategories []ToneCategory `json:"toneCategories"`
}

// Element returns the tone scores of the sentence without positional context.
func (s SentenceTone) Element() ElementTone {
	return ElementTone{ToneCategories: s.ToneCategories}
}

// DominantTone is the highest scoring tone of a category.
type DominantTone struct {
	CategoryID string  `json:"categoryId"`
	ToneID     string  `json:"toneId"`
	ToneName   string  `json:"toneName"`
	Score      float64 `json:"score"`
}

// Dominant picks the top tone of every non-empty category. Ties keep the
// earliest tone.
func (e ElementTone) Dominant() []DominantTone {
	out := make([]DominantTone, 0, len(e.ToneCategories))
	for _, category := range e.ToneCategories {
		if len(category.Tones) == 0 {
			continue
		}
		best := category.Tones[0]
		for _, candidate := range category.Tones[1:] {
			if candidate.Score > best.Score {
				best = candidate
			}
		}
		out = append(out, DominantTone{
			CategoryID: category.CategoryID,
			ToneID:     best.ToneID,
			ToneName:   best.ToneName,
			Score:      best.Score,
		})
	}
	return out
}

// Request is the payload accepted by the tone service.
type Request struct {
	Text string `json:"text" form:"text"`
}

// Response is serialized back to API consumers.
type Response struct {
	ID            string         `json:"id"`
	Version       string         `json:"version"`
	CreatedAt     time.Time      `json:"createdAt"`
	DocumentTone  ElementTone    `json:"documentTone"`
	SentenceTones []SentenceTone `json:"sentenceTones"`
	Dominant      []DominantTone `json:"dominant"`
}

// Record is a persisted analysis.
type Record struct {
	ID        string
	Text      string
	Version   string
	Analysis  ToneAnalysis
	CreatedAt time.Time
}

// TrendingTone reports how often a tone was dominant across analyses.
type TrendingTone struct {
	CategoryID string `json:"categoryId"`
	ToneID     string `json:"toneId"`
	Count      int64  `json:"count"`
}

// Config wires runtime settings for the tone domain.
type Config struct {
	MaxTextBytes int
}
