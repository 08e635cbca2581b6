package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/luminalearn/lumina/internal/catalog"
	appI18n "github.com/luminalearn/lumina/internal/i18n"
	"github.com/luminalearn/lumina/internal/model"
	"github.com/luminalearn/lumina/internal/quiz"
)

func playCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Take a lesson quiz in the terminal",
		RunE:  runPlay,
	}
	f := cmd.Flags()
	f.String("course", "", "Course ID (prompted when empty)")
	f.String("item", "", "Item ID to quiz on (prompted when empty)")
	commonFlags(f)
	llmFlags(f)
	return cmd
}

func runPlay(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	cfg := loadConfig(v)

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := appI18n.WithLocalizer(cmd.Context(), appI18n.NewLocalizer(cfg.Lang))
	in := bufio.NewReader(os.Stdin)
	out := cmd.OutOrStdout()

	courses, err := db.ListCourses(ctx)
	if err != nil {
		return fmt.Errorf("list courses: %w", err)
	}
	lesson, err := chooseLesson(ctx, in, out, courses, v.GetString("course"), v.GetString("item"))
	if err != nil {
		return err
	}

	llmClient, err := newLLMClient(ctx, cfg)
	if err != nil {
		return err
	}
	m := quiz.New(llmClient, db)
	_, err = playAttempt(ctx, m, lesson, in, out)
	return err
}

type lessonChoice struct {
	course model.Course
	item   model.Item
}

// chooseLesson resolves the lesson from flags, or lists every item and
// reads a choice from in.
func chooseLesson(ctx context.Context, in *bufio.Reader, out io.Writer, courses []model.Course, courseID, itemID string) (model.Lesson, error) {
	var choices []lessonChoice
	for _, c := range courses {
		if courseID != "" && c.ID != courseID {
			continue
		}
		for _, m := range c.Modules {
			for _, it := range m.Items {
				if itemID != "" && it.ID != itemID {
					continue
				}
				choices = append(choices, lessonChoice{course: c, item: it})
			}
		}
	}
	switch {
	case len(choices) == 0:
		return model.Lesson{}, errors.New("no matching lesson found; import a catalog first")
	case len(choices) == 1 || itemID != "":
		l, _ := catalog.Lesson(choices[0].course, choices[0].item.ID)
		return l, nil
	}

	for i, ch := range choices {
		fmt.Fprintf(out, "%3d. [%s] %s / %s\n", i+1, ch.item.Type, ch.course.Title, ch.item.Title)
	}
	n, err := readChoice(ctx, in, out, len(choices), "> ")
	if err != nil {
		return model.Lesson{}, err
	}
	l, _ := catalog.Lesson(choices[n].course, choices[n].item.ID)
	return l, nil
}

// playAttempt runs one attempt against the machine using in and out as the
// terminal. The attempt is reset if input ends before it finishes.
func playAttempt(ctx context.Context, m *quiz.Machine, lesson model.Lesson, in *bufio.Reader, out io.Writer) (quiz.Snapshot, error) {
	fmt.Fprint(out, appI18n.T(ctx, "GeneratingQuiz"))
	pending := m.StartAsync(ctx, lesson)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var res quiz.StartResult
wait:
	for {
		select {
		case res = <-pending:
			break wait
		case <-ticker.C:
			fmt.Fprint(out, ".")
		}
	}
	fmt.Fprintln(out)
	if res.Err != nil {
		return res.Snapshot, fmt.Errorf("start quiz: %w", res.Err)
	}

	snap := res.Snapshot
	if snap.Fallback {
		fmt.Fprintln(out, appI18n.T(ctx, "FallbackNotice"))
	}
	fmt.Fprintf(out, "\n%s\n", snap.Quiz.Title)

	for snap.Phase == quiz.PhaseInProgress {
		q, _ := snap.Current()
		fmt.Fprintf(out, "\n%s\n%s\n", appI18n.Td(ctx, "QuestionN", map[string]any{
			"Index": snap.CurrentIndex + 1,
			"Total": len(snap.Quiz.Questions),
		}), q.Question)
		for i, opt := range q.Options {
			fmt.Fprintf(out, "  %d) %s\n", i+1, opt)
		}

		prompt := appI18n.Td(ctx, "ChooseOption", map[string]any{"Max": len(q.Options)})
		n, err := readChoice(ctx, in, out, len(q.Options), prompt)
		if err != nil {
			m.Reset()
			return m.Snapshot(), err
		}
		if _, err := m.SelectAnswer(n); err != nil {
			return m.Snapshot(), err
		}

		if n == q.CorrectAnswer {
			fmt.Fprintln(out, appI18n.T(ctx, "Correct"))
		} else {
			fmt.Fprintln(out, appI18n.Td(ctx, "Incorrect", map[string]any{"Answer": q.Options[q.CorrectAnswer]}))
		}
		if q.Explanation != "" {
			fmt.Fprintln(out, q.Explanation)
		}

		snap, err = m.Advance(ctx)
		if err != nil && snap.Phase != quiz.PhaseFinished {
			return snap, err
		}
		if err != nil {
			fmt.Fprintln(out, err)
		}
	}

	if snap.Result != nil {
		o := snap.Result.Outcome
		fmt.Fprintf(out, "\n%s\n%s\n", appI18n.Td(ctx, "FinalScore", map[string]any{
			"Score":      o.Fraction(),
			"Percentage": fmt.Sprintf("%.0f", o.Percentage),
		}), appI18n.Status(ctx, o.Status))
	}
	return snap, nil
}

// readChoice reads a 1-based option number and returns it 0-based.
func readChoice(ctx context.Context, in *bufio.Reader, out io.Writer, count int, prompt string) (int, error) {
	for {
		fmt.Fprint(out, prompt)
		line, err := in.ReadString('\n')
		if s := strings.TrimSpace(line); s != "" {
			if n, convErr := strconv.Atoi(s); convErr == nil && n >= 1 && n <= count {
				return n - 1, nil
			}
			fmt.Fprintln(out, appI18n.Td(ctx, "InvalidOption", map[string]any{"Max": count}))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, err
		}
	}
}
