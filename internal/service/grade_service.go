package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mhofstetter/schulplan-api/internal/models"
	appErrors "github.com/mhofstetter/schulplan-api/pkg/errors"
	"github.com/mhofstetter/schulplan-api/pkg/export"
)

const defaultSubjectWeight = 1.0

type gradeRepository interface {
	SubjectWeights(ctx context.Context, userID int64) (map[string]float64, error)
	ExamsBySubject(ctx context.Context, userID int64) (map[string][]models.Exam, error)
	ReplaceSubject(ctx context.Context, userID int64, subject string, weight float64, exams []models.Exam) error
}

type enrolledSubjectSource interface {
	DistinctSubjects(ctx context.Context, userID int64) ([]string, error)
}

// ExamInput is one grade entry in a save payload.
type ExamInput struct {
	Grade  float64 `json:"grade" validate:"min=1,max=6"`
	Weight float64 `json:"weight" validate:"gt=0"`
}

// SaveGradesRequest replaces the whole grade sheet of one subject.
type SaveGradesRequest struct {
	Weight float64     `json:"weight" validate:"gt=0"`
	Exams  []ExamInput `json:"exams" validate:"dive"`
}

// GradeService implements the Pluspunkte calculator's persistence contract.
type GradeService struct {
	grades    gradeRepository
	subjects  enrolledSubjectSource
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeService instantiates GradeService.
func NewGradeService(grades gradeRepository, subjects enrolledSubjectSource, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{grades: grades, subjects: subjects, validator: validate, logger: logger}
}

// Load assembles the grade sheet: the subject universe comes from the
// student's current enrollments, each subject carrying its saved weight
// (default 1.0) and exam list (empty when nothing is saved).
func (s *GradeService) Load(ctx context.Context, userID int64) ([]models.SubjectGrades, error) {
	subjects, err := s.subjects.DistinctSubjects(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}

	weights, err := s.grades.SubjectWeights(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject weights")
	}
	examsBySubject, err := s.grades.ExamsBySubject(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exams")
	}

	sheets := make([]models.SubjectGrades, 0, len(subjects))
	for _, subject := range subjects {
		weight, ok := weights[subject]
		if !ok {
			weight = defaultSubjectWeight
		}
		exams := examsBySubject[subject]
		if exams == nil {
			exams = []models.Exam{}
		}
		average := WeightedAverage(exams)
		sheets = append(sheets, models.SubjectGrades{
			Subject:         subject,
			Weight:          weight,
			Exams:           exams,
			WeightedAverage: average,
			Contribution:    average * weight,
		})
	}
	return sheets, nil
}

// Save upserts the subject weight and wholesale-replaces the subject's exam
// entries. Replace-all semantics: the stored set afterwards is exactly the
// submitted one.
func (s *GradeService) Save(ctx context.Context, userID int64, subject string, req SaveGradesRequest) error {
	if subject == "" {
		return appErrors.Clone(appErrors.ErrValidation, "subject is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grades payload")
	}

	exams := make([]models.Exam, 0, len(req.Exams))
	for _, input := range req.Exams {
		exams = append(exams, models.Exam{Grade: input.Grade, Weight: input.Weight})
	}

	if err := s.grades.ReplaceSubject(ctx, userID, subject, req.Weight, exams); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save grades")
	}

	s.logger.Info("grades saved",
		zap.Int64("user_id", userID),
		zap.String("subject", subject),
		zap.Int("exam_count", len(exams)))
	return nil
}

// SheetCSV renders the full grade sheet as CSV.
func (s *GradeService) SheetCSV(ctx context.Context, userID int64) ([]byte, error) {
	sheets, err := s.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	table := export.Table{
		Headers: []string{"Fach", "Gewichtung", "Note", "Notengewicht"},
	}
	for _, sheet := range sheets {
		if len(sheet.Exams) == 0 {
			table.Rows = append(table.Rows, []string{sheet.Subject, formatFloat(sheet.Weight), "", ""})
			continue
		}
		for _, exam := range sheet.Exams {
			table.Rows = append(table.Rows, []string{
				sheet.Subject,
				formatFloat(sheet.Weight),
				formatFloat(exam.Grade),
				formatFloat(exam.Weight),
			})
		}
	}

	data, err := export.RenderCSV(table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return data, nil
}

// WeightedAverage computes sum(grade*weight)/sum(weight). An empty list
// yields zero. The derivation is identical wherever it runs.
func WeightedAverage(exams []models.Exam) float64 {
	var gradeSum, weightSum float64
	for _, exam := range exams {
		gradeSum += exam.Grade * exam.Weight
		weightSum += exam.Weight
	}
	if weightSum == 0 {
		return 0
	}
	return gradeSum / weightSum
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}
