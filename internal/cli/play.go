package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cogniquiz-service/internal/app"
	"cogniquiz-service/internal/domain"
	"github.com/spf13/cobra"
)

// NewPlayCmd runs one quiz in the terminal against the configured backends.
func NewPlayCmd(configPath *string) *cobra.Command {
	var (
		difficulty string
		category   string
		questions  int
		seconds    int
		daily      bool
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			params := defaultParameters(rt.cfg)
			if cmd.Flags().Changed("difficulty") {
				params.Difficulty = domain.Difficulty(difficulty)
			}
			if cmd.Flags().Changed("category") {
				params.Category = category
			}
			if cmd.Flags().Changed("questions") {
				params.NumQuestions = questions
			}
			if cmd.Flags().Changed("time") {
				params.TimePerChallenge = seconds
			}
			return playQuiz(cmd.Context(), rt.service, params, daily, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&difficulty, "difficulty", "", "easy, medium, hard or any")
	cmd.Flags().StringVar(&category, "category", "", "category id, or any")
	cmd.Flags().IntVar(&questions, "questions", 0, "number of questions (1-50)")
	cmd.Flags().IntVar(&seconds, "time", 0, "seconds per question (5-60)")
	cmd.Flags().BoolVar(&daily, "daily", false, "play today's daily challenge")
	return cmd
}

func playQuiz(ctx context.Context, service *app.QuizService, params domain.QuizParameters, daily bool, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	revealed := make(chan struct{}, 1)
	shell := service.Open(func(ev app.Event) {
		printEvent(out, ev)
		if ev.Type == app.EventReveal {
			select {
			case revealed <- struct{}{}:
			default:
			}
		}
	})
	defer service.Close(shell.ID())

	shell.Wait()
	if snap := shell.Snapshot(); !snap.TokenReady {
		return fmt.Errorf("no session token: %s", snap.TokenError)
	}

	var err error
	if daily {
		err = shell.BeginDaily(ctx)
	} else {
		err = shell.Begin(ctx, params)
	}
	if err != nil {
		return err
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		snap := shell.Snapshot()
		if snap.Phase != domain.PhaseGame || snap.Game == nil {
			break
		}
		if snap.Game.Revealed {
			summary, err := shell.Next(ctx)
			if err != nil {
				return err
			}
			if summary != nil {
				fmt.Fprintln(out)
				fmt.Fprintln(out, domain.ShareText(*summary, service.Categories(ctx)))
			}
			continue
		}

		select {
		case line, ok := <-lines:
			if !ok {
				return shell.Abandon()
			}
			key, err := optionKey(snap.Game.Question, line)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			if err := shell.Select(key); err != nil {
				if errors.Is(err, domain.ErrNoActiveQuestion) {
					continue
				}
				return err
			}
			if err := shell.Submit(); err != nil && !errors.Is(err, domain.ErrNoActiveQuestion) {
				return err
			}
		case <-revealed:
		case <-ctx.Done():
			_ = shell.Abandon()
			return ctx.Err()
		}
	}
	return nil
}

// optionKey maps a typed 1-based choice to the option key.
func optionKey(q *app.QuestionView, line string) (string, error) {
	if q == nil {
		return "", domain.ErrNoActiveQuestion
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 1 || n > len(q.Options) {
		return "", fmt.Errorf("choose 1-%d", len(q.Options))
	}
	return q.Options[n-1].Key, nil
}

func printEvent(out io.Writer, ev app.Event) {
	g := ev.Game
	switch ev.Type {
	case app.EventLoading:
		fmt.Fprintln(out, "Loading questions...")
	case app.EventQuestion:
		if g == nil || g.Question == nil {
			return
		}
		fmt.Fprintf(out, "\nQuestion %d/%d (%ds, score %d)\n%s\n", g.Index+1, g.Count, g.TimeLeft, g.Score.TotalPoints, g.Question.Prompt)
		for i, opt := range g.Question.Options {
			fmt.Fprintf(out, "  %d) %s\n", i+1, opt.Text)
		}
	case app.EventTick:
		if g != nil && g.TimeLeft <= 5 {
			fmt.Fprintf(out, "  %ds left\n", g.TimeLeft)
		}
	case app.EventReveal:
		if g == nil {
			return
		}
		switch g.Feedback {
		case domain.FeedbackCorrect:
			fmt.Fprintln(out, "Correct!")
		case domain.FeedbackTimedOut:
			fmt.Fprintf(out, "Time's up! Answer: %s\n", strings.Join(correctAnswers(g), ", "))
		default:
			fmt.Fprintf(out, "Incorrect. Answer: %s\n", strings.Join(correctAnswers(g), ", "))
		}
	case app.EventComplete:
		if ev.Summary != nil {
			fmt.Fprintf(out, "\nQuiz complete: %d/%d correct, %d points\n",
				ev.Summary.TotalCorrect, ev.Summary.TotalQuestions, ev.Summary.FinalScore)
		}
	case app.EventError:
		if g != nil {
			fmt.Fprintln(out, g.Error)
		}
	}
}

func correctAnswers(g *app.GameSnapshot) []string {
	if g.Question == nil {
		return nil
	}
	return g.Question.CorrectAnswers
}
