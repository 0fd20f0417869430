package toneanalyzer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/yanqian/tone-analyzer/internal/domain/tone"
	apperrors "github.com/yanqian/tone-analyzer/pkg/errors"
)

const (
	keyDocumentTone  = "document_tone"
	keySentencesTone = "sentences_tone"
)

type toneScoreWire struct {
	ToneID   string  `json:"tone_id"`
	ToneName string  `json:"tone_name"`
	Score    float64 `json:"score"`
}

type toneCategoryWire struct {
	CategoryID   string           `json:"category_id"`
	CategoryName string           `json:"category_name"`
	Tones        []*toneScoreWire `json:"tones"`
}

type elementToneWire struct {
	ToneCategories []*toneCategoryWire `json:"tone_categories"`
}

type sentenceToneWire struct {
	SentenceID     int                `json:"sentence_id"`
	Text           string             `json:"text"`
	InputFrom      int                `json:"input_from"`
	InputTo        int                `json:"input_to"`
	ToneCategories []*toneCategoryWire `json:"tone_categories"`
}

// Decode parses a tone response body. Invalid JSON yields a parse_error;
// JSON of the wrong shape yields a malformed_response.
func Decode(body []byte) (tone.ToneAnalysis, error) {
	if !json.Valid(body) {
		return tone.ToneAnalysis{}, apperrors.Wrap(apperrors.CodeParse, "tone response is not valid json", nil)
	}
	if kindOf(body) != '{' {
		return tone.ToneAnalysis{}, malformed("tone response must be a json object", nil)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return tone.ToneAnalysis{}, malformed("tone response must be a json object", err)
	}
	return DecodeValue(obj)
}

// DecodeValue maps an already parsed response object to a ToneAnalysis.
func DecodeValue(obj map[string]json.RawMessage) (tone.ToneAnalysis, error) {
	rawDocument, ok := obj[keyDocumentTone]
	if !ok {
		return tone.ToneAnalysis{}, malformed(keyDocumentTone+" is missing", nil)
	}
	if kindOf(rawDocument) != '{' {
		return tone.ToneAnalysis{}, malformed(keyDocumentTone+" must be an object", nil)
	}
	var document elementToneWire
	if err := json.Unmarshal(rawDocument, &document); err != nil {
		return tone.ToneAnalysis{}, malformed(keyDocumentTone+" has an invalid shape", err)
	}
	documentCategories, err := toCategories(document.ToneCategories)
	if err != nil {
		return tone.ToneAnalysis{}, malformed(keyDocumentTone+"."+err.Error(), nil)
	}

	rawSentences, ok := obj[keySentencesTone]
	if !ok {
		return tone.ToneAnalysis{}, malformed(keySentencesTone+" is missing", nil)
	}
	if kindOf(rawSentences) != '[' {
		return tone.ToneAnalysis{}, malformed(keySentencesTone+" must be an array", nil)
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(rawSentences, &elements); err != nil {
		return tone.ToneAnalysis{}, malformed(keySentencesTone+" must be an array", err)
	}

	sentences := make([]tone.SentenceTone, 0, len(elements))
	for i, raw := range elements {
		sentence, err := decodeSentence(raw)
		if err != nil {
			return tone.ToneAnalysis{}, malformed(fmt.Sprintf("%s[%d] is not a valid sentence tone", keySentencesTone, i), err)
		}
		sentences = append(sentences, sentence)
	}

	return tone.ToneAnalysis{
		DocumentTone:  tone.ElementTone{ToneCategories: documentCategories},
		SentenceTones: sentences,
	}, nil
}

func decodeSentence(raw json.RawMessage) (tone.SentenceTone, error) {
	if kindOf(raw) != '{' {
		return tone.SentenceTone{}, fmt.Errorf("expected an object")
	}
	var wire sentenceToneWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return tone.SentenceTone{}, err
	}
	categories, err := toCategories(wire.ToneCategories)
	if err != nil {
		return tone.SentenceTone{}, err
	}
	return tone.SentenceTone{
		SentenceID:     wire.SentenceID,
		Text:           wire.Text,
		InputFrom:      wire.InputFrom,
		InputTo:        wire.InputTo,
		ToneCategories: categories,
	}, nil
}

// toCategories copies wire categories into domain values. A null array entry
// decodes to a nil pointer and is rejected with its path.
func toCategories(wire []*toneCategoryWire) ([]tone.ToneCategory, error) {
	categories := make([]tone.ToneCategory, 0, len(wire))
	for i, category := range wire {
		if category == nil {
			return nil, fmt.Errorf("tone_categories[%d] must be an object", i)
		}
		tones := make([]tone.ToneScore, 0, len(category.Tones))
		for j, score := range category.Tones {
			if score == nil {
				return nil, fmt.Errorf("tone_categories[%d].tones[%d] must be an object", i, j)
			}
			tones = append(tones, tone.ToneScore{
				ToneID:   score.ToneID,
				ToneName: score.ToneName,
				Score:    score.Score,
			})
		}
		categories = append(categories, tone.ToneCategory{
			CategoryID:   category.CategoryID,
			CategoryName: category.CategoryName,
			Tones:        tones,
		})
	}
	return categories, nil
}

// kindOf reports the opening byte of a JSON value: '{', '[', '"', 'n' and so on.
func kindOf(raw []byte) byte {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func malformed(message string, err error) error {
	return apperrors.Wrap(apperrors.CodeMalformedResponse, message, err)
}
