package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	quizrepos "github.com/yungbote/quizdesk-backend/internal/data/repos/quiz"
	types "github.com/yungbote/quizdesk-backend/internal/domain"
	"github.com/yungbote/quizdesk-backend/internal/platform/logger"
	"github.com/yungbote/quizdesk-backend/internal/services"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gopkg.in/yaml.v3"
)

// QuizFile is the YAML shape operators author quizzes in.
type QuizFile struct {
	Title               string         `yaml:"title"`
	Description         string         `yaml:"description"`
	Instructions        string         `yaml:"instructions"`
	Active              *bool          `yaml:"active"`
	TimeLimitSeconds    *int           `yaml:"time_limit_seconds"`
	MaxAttempts         int            `yaml:"max_attempts"`
	PassingScorePercent float64        `yaml:"passing_score_percent"`
	ShowFeedback        *bool          `yaml:"show_feedback"`
	NotificationEmails  []string       `yaml:"notification_emails"`
	Questions           []QuestionFile `yaml:"questions"`
}

type QuestionFile struct {
	Type            string   `yaml:"type"`
	Prompt          string   `yaml:"prompt"`
	Options         []string `yaml:"options"`
	CorrectOptions  []int    `yaml:"correct_options"`
	AcceptedAnswers []string `yaml:"accepted_answers"`
	Points          float64  `yaml:"points"`
	Explanation     string   `yaml:"explanation"`
}

type Loader struct {
	db           *gorm.DB
	log          *logger.Logger
	quizRepo     quizrepos.QuizRepo
	questionRepo quizrepos.QuestionRepo
}

func NewLoader(db *gorm.DB, baseLog *logger.Logger, quizRepo quizrepos.QuizRepo, questionRepo quizrepos.QuestionRepo) *Loader {
	return &Loader{
		db:           db,
		log:          baseLog.With("component", "SeedLoader"),
		quizRepo:     quizRepo,
		questionRepo: questionRepo,
	}
}

// LoadDir parses every .yml/.yaml file under dir and upserts its quiz.
// Already-present quizzes (matched by title) are left untouched so running
// attempts keep pointing at a stable definition; operators deactivate and
// re-create to change a live quiz.
func (l *Loader) LoadDir(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read seed dir %s: %w", dir, err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yml" && ext != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		created, err := l.LoadFile(ctx, path)
		if err != nil {
			return loaded, fmt.Errorf("seed %s: %w", entry.Name(), err)
		}
		if created {
			loaded++
		}
	}
	l.log.Info("seed directory processed", "dir", dir, "created", loaded)
	return loaded, nil
}

func (l *Loader) LoadFile(ctx context.Context, path string) (bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	var file QuizFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return false, fmt.Errorf("parse yaml: %w", err)
	}

	quiz, questions, err := Build(&file)
	if err != nil {
		return false, err
	}

	existing, err := l.quizRepo.GetByTitle(ctx, nil, quiz.Title)
	if err != nil {
		return false, err
	}
	if existing != nil {
		l.log.Debug("quiz already seeded", "title", quiz.Title)
		return false, nil
	}

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := l.quizRepo.Create(ctx, tx, quiz); err != nil {
			return err
		}
		_, err := l.questionRepo.Create(ctx, tx, questions)
		return err
	})
	if err != nil {
		return false, err
	}
	l.log.Info("quiz seeded", "title", quiz.Title, "questions", len(questions))
	return true, nil
}

// Build converts the YAML shape into persistable rows and validates them
// through the same snapshot rules the engine enforces at start time.
func Build(file *QuizFile) (*types.Quiz, []*types.Question, error) {
	title := strings.TrimSpace(file.Title)
	if title == "" {
		return nil, nil, fmt.Errorf("quiz title is required")
	}

	maxAttempts := file.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 1
	}
	active := true
	if file.Active != nil {
		active = *file.Active
	}
	showFeedback := true
	if file.ShowFeedback != nil {
		showFeedback = *file.ShowFeedback
	}

	quiz := &types.Quiz{
		ID:                  uuid.New(),
		Title:               title,
		Description:         strings.TrimSpace(file.Description),
		Instructions:        strings.TrimSpace(file.Instructions),
		IsActive:            active,
		TimeLimitSeconds:    file.TimeLimitSeconds,
		MaxAttempts:         maxAttempts,
		PassingScorePercent: file.PassingScorePercent,
		ScoringMode:         types.ScoringModeExactSet,
		ShowFeedback:        showFeedback,
	}
	if len(file.NotificationEmails) > 0 {
		raw, err := json.Marshal(file.NotificationEmails)
		if err != nil {
			return nil, nil, err
		}
		quiz.NotificationEmails = datatypes.JSON(raw)
	}

	questions := make([]*types.Question, 0, len(file.Questions))
	for i, qf := range file.Questions {
		qType, err := parseQuestionType(qf.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		points := qf.Points
		if points == 0 {
			points = 1
		}
		q := &types.Question{
			ID:          uuid.New(),
			QuizID:      quiz.ID,
			OrderIndex:  i,
			Type:        qType,
			Prompt:      strings.TrimSpace(qf.Prompt),
			Points:      points,
			Explanation: strings.TrimSpace(qf.Explanation),
		}
		if len(qf.Options) > 0 {
			raw, err := json.Marshal(qf.Options)
			if err != nil {
				return nil, nil, err
			}
			q.Options = datatypes.JSON(raw)
		}
		if len(qf.CorrectOptions) > 0 {
			raw, err := json.Marshal(qf.CorrectOptions)
			if err != nil {
				return nil, nil, err
			}
			q.CorrectOptions = datatypes.JSON(raw)
		}
		if len(qf.AcceptedAnswers) > 0 {
			raw, err := json.Marshal(qf.AcceptedAnswers)
			if err != nil {
				return nil, nil, err
			}
			q.AcceptedAnswers = datatypes.JSON(raw)
		}
		questions = append(questions, q)
	}
	quiz.Questions = questions

	// snapshot validation catches bad definitions before they hit the DB
	if _, err := services.BuildSnapshot(quiz); err != nil {
		return nil, nil, err
	}
	return quiz, questions, nil
}

func parseQuestionType(s string) (types.QuestionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "multiple_choice", "mc", "":
		return types.QuestionTypeMultipleChoice, nil
	case "text":
		return types.QuestionTypeText, nil
	default:
		return "", fmt.Errorf("unknown question type %q", s)
	}
}
