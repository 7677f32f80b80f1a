package models

import (
	"time"
)

// ===== ATTEMPT VIEWS =====

type OptionView struct {
	ID    uint   `json:"id"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

type QuestionView struct {
	ID      uint         `json:"id"`
	Type    QuestionType `json:"type"`
	Prompt  string       `json:"prompt"`
	Marks   *int         `json:"marks"`
	Topic   *string      `json:"topic"`
	Options []OptionView `json:"options"`
}

type ModuleView struct {
	ID           uint           `json:"id"`
	Title        string         `json:"title"`
	Code         *string        `json:"code"`
	Order        int            `json:"order"`
	StartAt      *time.Time     `json:"start_at"`
	EndAt        *time.Time     `json:"end_at"`
	TimeLimitMin *int           `json:"time_limit_min"`
	Questions    []QuestionView `json:"questions"`
}

type AssessmentView struct {
	ID           uint         `json:"id"`
	Title        string       `json:"title"`
	Instructions *string      `json:"instructions"`
	Order        int          `json:"order"`
	Modules      []ModuleView `json:"modules"`
}

type ResponseView struct {
	QuestionID uint    `json:"question_id"`
	OptionID   *uint   `json:"option_id"`
	TextAnswer *string `json:"text_answer"`
}

type AttemptView struct {
	ID             uint            `json:"id"`
	AssessmentID   uint            `json:"assessment_id"`
	StudentID      uint            `json:"student_id"`
	StartedAt      time.Time       `json:"started_at"`
	SubmittedAt    *time.Time      `json:"submitted_at"`
	DurationSec    int             `json:"duration_sec"`
	Score          *float64        `json:"score"`
	TotalMarks     *float64        `json:"total_marks"`
	FocusedModules []uint          `json:"focused_modules"`
	Assessment     *AssessmentView `json:"assessment,omitempty"`
	Responses      []ResponseView  `json:"responses"`
}

// NewAttemptView copies an attempt into a view. Option correctness is never
// exposed here.
func NewAttemptView(a *Attempt, assessment *Assessment) AttemptView {
	v := AttemptView{
		ID:           a.ID,
		AssessmentID: a.AssessmentID,
		StudentID:    a.StudentID,
		StartedAt:    a.StartedAt,
		SubmittedAt:  a.SubmittedAt,
		DurationSec:  a.DurationSec,
		Score:        a.Score,
		TotalMarks:   a.TotalMarks,
		Responses:    make([]ResponseView, 0, len(a.Responses)),
	}
	if f := a.ModuleFilter(); f != nil {
		v.FocusedModules = f.ModuleIDs
	}
	for _, r := range a.Responses {
		v.Responses = append(v.Responses, ResponseView{
			QuestionID: r.QuestionID,
			OptionID:   r.OptionID,
			TextAnswer: r.TextAnswer,
		})
	}
	if assessment != nil {
		av := newAssessmentView(assessment)
		v.Assessment = &av
	}
	return v
}

func newAssessmentView(a *Assessment) AssessmentView {
	v := AssessmentView{
		ID:           a.ID,
		Title:        a.Title,
		Instructions: a.Instructions,
		Order:        a.Order,
		Modules:      make([]ModuleView, 0, len(a.Modules)),
	}
	for _, m := range a.Modules {
		mv := ModuleView{
			ID:           m.ID,
			Title:        m.Title,
			Code:         m.Code,
			Order:        m.Order,
			StartAt:      m.StartAt,
			EndAt:        m.EndAt,
			TimeLimitMin: m.PerStudentTimeLimitMin,
			Questions:    make([]QuestionView, 0, len(m.Questions)),
		}
		for _, q := range m.Questions {
			qv := QuestionView{
				ID:      q.ID,
				Type:    q.Type,
				Prompt:  q.Stem,
				Marks:   q.Points,
				Topic:   q.Topic,
				Options: make([]OptionView, 0, len(q.Options)),
			}
			for _, o := range q.Options {
				qv.Options = append(qv.Options, OptionView{ID: o.ID, Label: o.Label, Text: o.Text})
			}
			mv.Questions = append(mv.Questions, qv)
		}
		v.Modules = append(v.Modules, mv)
	}
	return v
}

// ===== ADMIN DASHBOARD =====

type CollegeRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type KPI struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

type UpcomingItem struct {
	Title        string     `json:"title"`
	Module       string     `json:"course"`
	DueAt        *time.Time `json:"due_at"`
	Participants int64      `json:"count"`
	Status       string     `json:"status"`
}

type RecentSubmission struct {
	StudentID   uint      `json:"student_id"`
	Student     string    `json:"student"`
	Assessment  string    `json:"module"`
	Score       int       `json:"score"`
	SubmittedAt time.Time `json:"submitted_at"`
	CollegeID   *uint     `json:"college_id"`
	CollegeName string    `json:"college_name"`
}

type DistributionBucket struct {
	Label string `json:"label"`
	Pct   int    `json:"pct"`
}

type CollegeProgress struct {
	CollegeID   uint   `json:"college_id"`
	CollegeName string `json:"college_name"`
	Total       int    `json:"total"`
	A1Completed int    `json:"a1_completed"`
	A2Completed int    `json:"a2_completed"`
	A1Status    string `json:"a1_status"`
	A2Status    string `json:"a2_status"`
}

type AdminDashboard struct {
	Timeframe             string                        `json:"timeframe"`
	Colleges              []CollegeRef                  `json:"colleges"`
	KPIs                  []KPI                         `json:"kpis"`
	Trend                 []int                         `json:"trend"`
	Upcoming              []UpcomingItem                `json:"upcoming"`
	Recent                []RecentSubmission            `json:"recent"`
	Distribution          []DistributionBucket          `json:"distribution"`
	DistributionByCollege map[uint][]DistributionBucket `json:"distribution_by_college"`
	ProgressByCollege     []CollegeProgress             `json:"progress_by_college"`
}

// ===== STUDENT DASHBOARD =====

type NextAction struct {
	Label  string `json:"label"`
	Status string `json:"status"`
	Helper string `json:"helper,omitempty"`
	Href   string `json:"href,omitempty"`
}

type StudentModule struct {
	Number int        `json:"number"`
	Title  string     `json:"title"`
	Status string     `json:"status"`
	Score  *int       `json:"score"`
	DueAt  *time.Time `json:"due_at"`
}

type StudentAssessment struct {
	ID           uint            `json:"id"`
	Title        string          `json:"title"`
	Availability string          `json:"availability"`
	DueAt        *time.Time      `json:"due_at"`
	Modules      []StudentModule `json:"modules"`
}

type ActiveModule struct {
	AssessmentID    uint   `json:"assessment_id"`
	AssessmentTitle string `json:"assessment_title"`
	ModuleNumber    int    `json:"module_number"`
	ModuleTitle     string `json:"module_title"`
	TotalModules    int    `json:"total_modules"`
	Status          string `json:"status"`
	TimeLimitMin    *int   `json:"time_limit_min"`
}

type ModuleComparison struct {
	Module   int    `json:"module"`
	Title    string `json:"title"`
	Baseline *int   `json:"a1"`
	Final    *int   `json:"a2"`
}

type QueueSubmitted struct {
	Title       string     `json:"title"`
	SubmittedAt *time.Time `json:"submitted_at"`
	Score       int        `json:"score"`
}

type QueueUpcoming struct {
	Title string     `json:"title"`
	DueAt *time.Time `json:"due_at"`
}

type StudentQueue struct {
	Submitted []QueueSubmitted `json:"submitted"`
	Upcoming  []QueueUpcoming  `json:"upcoming"`
}

type StudentDashboard struct {
	Stage          TrainingStatus      `json:"stage"`
	NextAction     NextAction          `json:"next_action"`
	ActiveModule   *ActiveModule       `json:"active_module"`
	Assessments    []StudentAssessment `json:"assessments"`
	Comparisons    []ModuleComparison  `json:"comparisons"`
	AggregateScore *int                `json:"aggregate_score"`
	MyQueue        StudentQueue        `json:"my_queue"`
}

// ===== REPORTS =====

type ReportKPIs struct {
	TotalStudents  int64 `json:"total_students"`
	ActiveNow      int64 `json:"active_now"`
	AvgPerformance int   `json:"avg_performance"`
	AtRiskCount    int   `json:"at_risk_count"`
}

type TrendPoint struct {
	Date     string  `json:"date"`
	AvgScore float64 `json:"avg_score"`
	Attempts int     `json:"attempts"`
}

type WeakPoint struct {
	Topic           string `json:"topic"`
	AvgScore        int    `json:"avg_score"`
	TotalAttempts   int64  `json:"total_attempts"`
	DifficultyIndex string `json:"difficulty_index"`
}

type AssessmentStat struct {
	AssessmentID   uint   `json:"assessment_id"`
	Title          string `json:"title"`
	CompletionRate int    `json:"completion_rate"`
	AvgScore       int    `json:"avg_score"`
}

type StudentPerformance struct {
	StudentID     uint       `json:"student_id"`
	Name          string     `json:"name"`
	RegNo         string     `json:"reg_no"`
	TotalAttempts int        `json:"total_attempts"`
	AvgScore      int        `json:"avg_score"`
	LastActive    *time.Time `json:"last_active"`
	Status        string     `json:"status"`
}

type ReportOverview struct {
	TimeRange           string               `json:"time_range"`
	KPIs                ReportKPIs           `json:"kpis"`
	Trend               []TrendPoint         `json:"trend"`
	WeakPoints          []WeakPoint          `json:"weak_points"`
	AssessmentStats     []AssessmentStat     `json:"assessment_stats"`
	StudentPerformances []StudentPerformance `json:"student_performances"`
}

type StudentProfile struct {
	ID             uint           `json:"id"`
	Name           string         `json:"name"`
	Email          *string        `json:"email"`
	RegNo          string         `json:"reg_no"`
	JoinedAt       string         `json:"joined_at"`
	TrainingStatus TrainingStatus `json:"training_status"`
}

type StudentStats struct {
	AvgScore      int    `json:"avg_score"`
	TotalAttempts int    `json:"total_attempts"`
	Percentile    int    `json:"percentile"`
	Status        string `json:"status"`
}

type AttemptHistoryItem struct {
	AttemptID     uint     `json:"id"`
	Assessment    string   `json:"assessment"`
	ScoreObtained *float64 `json:"score_obtained"`
	TotalMarks    *float64 `json:"total_mark"`
	Score         int      `json:"score"`
	CohortAvg     int      `json:"cohort_avg"`
	Date          *string  `json:"date"`
	Duration      string   `json:"duration"`
}

type StudentReport struct {
	Student    StudentProfile       `json:"student"`
	Stats      StudentStats         `json:"stats"`
	History    []AttemptHistoryItem `json:"history"`
	WeakPoints []WeakPoint          `json:"weak_points"`
}

type ResponseDetail struct {
	ID          uint    `json:"id"`
	QuestionID  uint    `json:"question_id"`
	Question    string  `json:"question"`
	Type        string  `json:"type"`
	Points      *int    `json:"points"`
	OptionText  *string `json:"option_text"`
	TextAnswer  *string `json:"text_answer"`
	IsCorrect   bool    `json:"is_correct"`
	CorrectText *string `json:"correct_text"`
}

type AttemptDetails struct {
	ID              uint             `json:"id"`
	Score           int              `json:"score"`
	SubmittedAt     *time.Time       `json:"submitted_at"`
	AssessmentTitle string           `json:"assessment_title"`
	TotalMarks      *float64         `json:"total_mark"`
	Responses       []ResponseDetail `json:"responses"`
}

type StudentSearchResult struct {
	ID    uint   `json:"id"`
	Label string `json:"label"`
	Value uint   `json:"value"`
}
