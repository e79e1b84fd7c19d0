package assistant

import (
	"encoding/json"
	"errors"
	"fmt"
)

type Answer struct {
	Answer             string
	Confidence         Confidence
	Citations          []Citation
	Suggestions        []Suggestion
	ClarifyingQuestion *string
}

type Failure struct {
	Error     string
	ErrorCode ErrorCode
}

// Result содержит ровно один из вариантов: Answer или Failure.
// Нулевое значение не является корректным результатом.
type Result struct {
	answer  *Answer
	failure *Failure
}

type successWire struct {
	Success            bool         `json:"success"`
	Answer             string       `json:"answer"`
	Confidence         Confidence   `json:"confidence"`
	Citations          []Citation   `json:"citations"`
	Suggestions        []Suggestion `json:"suggestions"`
	ClarifyingQuestion *string      `json:"clarifyingQuestion"`
}

type failureWire struct {
	Success   bool      `json:"success"`
	Error     string    `json:"error"`
	ErrorCode ErrorCode `json:"errorCode"`
}

type incomingWire struct {
	Success            *bool        `json:"success"`
	Answer             *string      `json:"answer"`
	Confidence         Confidence   `json:"confidence"`
	Citations          []Citation   `json:"citations"`
	Suggestions        []Suggestion `json:"suggestions"`
	ClarifyingQuestion *string      `json:"clarifyingQuestion"`
	Error              *string      `json:"error"`
	ErrorCode          ErrorCode    `json:"errorCode"`
}

// Answered создает успешный результат.
func Answered(answer Answer) Result {
	if answer.Citations == nil {
		answer.Citations = []Citation{}
	}
	if answer.Suggestions == nil {
		answer.Suggestions = []Suggestion{}
	}
	return Result{answer: &answer}
}

// Failed создает результат-ошибку с кодом из таксономии.
func Failed(code ErrorCode, message string) Result {
	return Result{failure: &Failure{Error: message, ErrorCode: code}}
}

func (r Result) Success() bool {
	return r.answer != nil && r.failure == nil
}

// Valid сообщает, что задан ровно один вариант.
func (r Result) Valid() bool {
	return (r.answer != nil) != (r.failure != nil)
}

// Answer возвращает успешный вариант, если он задан.
func (r Result) Answer() (Answer, bool) {
	if r.answer == nil {
		return Answer{}, false
	}
	return *r.answer, true
}

// Failure возвращает вариант-ошибку, если он задан.
func (r Result) Failure() (Failure, bool) {
	if r.failure == nil {
		return Failure{}, false
	}
	return *r.failure, true
}

// ErrorCode возвращает код ошибки или пустую строку для успешного результата.
func (r Result) ErrorCode() ErrorCode {
	if r.failure == nil {
		return ""
	}
	return r.failure.ErrorCode
}

func (r Result) MarshalJSON() ([]byte, error) {
	switch {
	case r.answer != nil && r.failure == nil:
		a := r.answer
		citations := a.Citations
		if citations == nil {
			citations = []Citation{}
		}
		suggestions := a.Suggestions
		if suggestions == nil {
			suggestions = []Suggestion{}
		}
		return json.Marshal(successWire{
			Success:            true,
			Answer:             a.Answer,
			Confidence:         a.Confidence,
			Citations:          citations,
			Suggestions:        suggestions,
			ClarifyingQuestion: a.ClarifyingQuestion,
		})
	case r.failure != nil && r.answer == nil:
		return json.Marshal(failureWire{
			Success:   false,
			Error:     r.failure.Error,
			ErrorCode: r.failure.ErrorCode,
		})
	default:
		return nil, errors.New("result must hold exactly one variant")
	}
}

// UnmarshalJSON принимает только корректно различимые варианты:
// поле success обязательно, confidence и errorCode должны быть из допустимых наборов.
func (r *Result) UnmarshalJSON(data []byte) error {
	var wire incomingWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	if wire.Success == nil {
		return errors.New("result is missing success discriminator")
	}

	if !*wire.Success {
		if wire.Error == nil {
			return errors.New("failure result is missing error")
		}
		if !wire.ErrorCode.Valid() {
			return fmt.Errorf("unknown error code %q", wire.ErrorCode)
		}
		*r = Failed(wire.ErrorCode, *wire.Error)
		return nil
	}

	if wire.Answer == nil {
		return errors.New("success result is missing answer")
	}
	if !wire.Confidence.Valid() {
		return fmt.Errorf("unknown confidence %q", wire.Confidence)
	}
	for _, citation := range wire.Citations {
		if !citation.EntityKind.Valid() {
			return fmt.Errorf("unknown citation entity kind %q", citation.EntityKind)
		}
	}
	for _, suggestion := range wire.Suggestions {
		if !suggestion.Kind.Valid() {
			return fmt.Errorf("unknown suggestion kind %q", suggestion.Kind)
		}
	}

	*r = Answered(Answer{
		Answer:             *wire.Answer,
		Confidence:         wire.Confidence,
		Citations:          wire.Citations,
		Suggestions:        wire.Suggestions,
		ClarifyingQuestion: wire.ClarifyingQuestion,
	})
	return nil
}
