package opentdb

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"strconv"

	"cogniquiz-service/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type questionsResponse struct {
	ResponseCode int           `json:"response_code"`
	Results      []rawQuestion `json:"results"`
}

// rawQuestion is one base64-encoded item of the api.php results array.
type rawQuestion struct {
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
	Difficulty       string   `json:"difficulty"`
	Category         string   `json:"category"`
}

// Fetch loads a multiple-choice question set for params using token.
func (c *Client) Fetch(ctx context.Context, params domain.QuizParameters, token string) ([]domain.Question, error) {
	var body questionsResponse
	if err := c.getJSON(ctx, "/api.php", questionQuery(params, token), &body); err != nil {
		kind := domain.ErrNetwork
		switch {
		case errors.Is(err, domain.ErrRateLimited):
			kind = domain.ErrRateLimited
		case errors.Is(err, domain.ErrUnexpectedResponse):
			kind = domain.ErrUnexpectedResponse
		}
		c.log.Warn("question fetch failed", zap.Error(err))
		return nil, &domain.ServiceError{Kind: kind, Code: -1, Err: err}
	}

	if body.ResponseCode != 0 {
		return nil, &domain.ServiceError{Kind: domain.ErrorForCode(body.ResponseCode), Code: body.ResponseCode}
	}
	if len(body.Results) == 0 {
		return nil, &domain.ServiceError{Kind: domain.ErrNoQuestions, Code: 0}
	}

	questions := make([]domain.Question, 0, len(body.Results))
	for i, raw := range body.Results {
		q, err := c.decodeQuestion(raw)
		if err != nil {
			return nil, &domain.ServiceError{
				Kind: domain.ErrUnexpectedResponse,
				Code: 0,
				Err:  fmt.Errorf("result %d: %w", i, err),
			}
		}
		questions = append(questions, q)
	}
	c.log.Debug("fetched questions",
		zap.Int("requested", params.NumQuestions),
		zap.Int("received", len(questions)))
	return questions, nil
}

func questionQuery(params domain.QuizParameters, token string) url.Values {
	amount := params.NumQuestions
	if amount <= 0 {
		amount = 5
	}
	q := url.Values{}
	q.Set("amount", strconv.Itoa(amount))
	q.Set("type", "multiple")
	if params.Difficulty != "" && params.Difficulty != domain.DifficultyAny {
		q.Set("difficulty", string(params.Difficulty))
	}
	if params.Category != "" && params.Category != domain.CategoryAny {
		if _, err := strconv.Atoi(params.Category); err == nil {
			q.Set("category", params.Category)
		}
	}
	if token != "" {
		q.Set("token", token)
	}
	q.Set("encode", "base64")
	return q
}

func (c *Client) decodeQuestion(raw rawQuestion) (domain.Question, error) {
	prompt, err := decode(raw.Question)
	if err != nil {
		return domain.Question{}, fmt.Errorf("question: %w", err)
	}
	correct, err := decode(raw.CorrectAnswer)
	if err != nil {
		return domain.Question{}, fmt.Errorf("correct_answer: %w", err)
	}

	options := make([]domain.Option, 0, len(raw.IncorrectAnswers)+1)
	options = append(options, domain.Option{Key: "option0", Text: correct})
	for i, enc := range raw.IncorrectAnswers {
		text, err := decode(enc)
		if err != nil {
			return domain.Question{}, fmt.Errorf("incorrect_answers[%d]: %w", i, err)
		}
		options = append(options, domain.Option{Key: "option" + strconv.Itoa(i+1), Text: text})
	}

	c.mu.Lock()
	shuffleOptions(c.rnd, options)
	c.mu.Unlock()

	return domain.Question{
		ID:             uuid.NewString(),
		Prompt:         prompt,
		Options:        options,
		CorrectAnswers: []string{correct},
	}, nil
}

func decode(s string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// shuffleOptions permutes options in place with a Fisher-Yates pass,
// so every ordering is equally likely.
func shuffleOptions(rnd *rand.Rand, options []domain.Option) {
	for i := len(options) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		options[i], options[j] = options[j], options[i]
	}
}
