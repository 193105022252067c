// Package curriculum assembles uploaded source materials and their AI analyses
// into a fixed-shape training curriculum with generated assessments.
package curriculum

// MediaKind classifies an uploaded source artifact.
type MediaKind string

const (
	MediaDocument     MediaKind = "document"
	MediaVideo        MediaKind = "video"
	MediaAudio        MediaKind = "audio"
	MediaImage        MediaKind = "image"
	MediaPresentation MediaKind = "presentation"
)

// Upload is one user-supplied source artifact plus its analysis, if any.
type Upload struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	MediaKind MediaKind `json:"media_kind" yaml:"media_kind"`
	SizeBytes int64     `json:"size_bytes" yaml:"size_bytes"`
	Analysis  *Analysis `json:"analysis,omitempty" yaml:"analysis,omitempty"`
}

// Analysis is the per-upload result produced by the content-analysis service.
type Analysis struct {
	KeyTopics             []string `json:"key_topics" yaml:"key_topics"`
	Difficulty            int      `json:"difficulty" yaml:"difficulty"` // 1..10
	EstimatedReadMinutes  int      `json:"estimated_read_minutes" yaml:"estimated_read_minutes"`
	LearningObjectives    []string `json:"learning_objectives" yaml:"learning_objectives"`
	Prerequisites         []string `json:"prerequisites" yaml:"prerequisites"`
	SuggestedModuleTitles []string `json:"suggested_module_titles" yaml:"suggested_module_titles"`
}

// CombinedAnalysis is the merged summary over all analyzed uploads.
// CanonicalModuleTitles is always the fixed scaffold, never derived from uploads.
type CombinedAnalysis struct {
	KeyTopics             []string
	Difficulty            int
	EstimatedReadMinutes  int
	LearningObjectives    []string
	Prerequisites         []string
	CanonicalModuleTitles []string
}

// ModuleSpec is the pre-section intermediate produced by module synthesis.
type ModuleSpec struct {
	Title              string
	Description        string
	DurationMinutes    int
	Difficulty         string
	LearningObjectives []string
}

// SectionType classifies how a section's content is presented.
type SectionType string

const (
	SectionDocument    SectionType = "document"
	SectionVideo       SectionType = "video"
	SectionText        SectionType = "text"
	SectionInteractive SectionType = "interactive"
)

// Section is one upload's representation inside a module.
type Section struct {
	ID                       string      `json:"id"`
	Title                    string      `json:"title"`
	Type                     SectionType `json:"type"`
	ContentRef               string      `json:"content_ref"`
	KeyPoints                []string    `json:"key_points"`
	EstimatedDurationMinutes int         `json:"estimated_duration_minutes"`
	OrderIndex               int         `json:"order_index"` // 1-based, contiguous within a module
}

// Module is one curriculum unit. A complete curriculum has exactly
// ModuleCount of them, ordered 1..ModuleCount.
type Module struct {
	ID                 string       `json:"id"`
	Title              string       `json:"title"`
	Description        string       `json:"description"`
	Order              int          `json:"order"`
	Sections           []Section    `json:"sections"`
	Assessments        []Assessment `json:"assessments"`
	DurationMinutes    int          `json:"duration_minutes"`
	Difficulty         string       `json:"difficulty"`
	LearningObjectives []string     `json:"learning_objectives"`
	Prerequisites      []string     `json:"prerequisites"`
}

// QuestionKind is the closed set of question variants.
type QuestionKind string

const (
	KindSingleChoice    QuestionKind = "single-choice"
	KindTrueFalse       QuestionKind = "true-false"
	KindMultipleCorrect QuestionKind = "multiple-correct"
)

// Answer is the correct-answer union, keyed by the owning question's kind:
// single-choice and true-false use Index, multiple-correct uses Indices.
// Indices is nil for scalar kinds; classification happens once at ingestion.
type Answer struct {
	Index   int   `json:"index"`
	Indices []int `json:"indices,omitempty"`
}

// Question is one typed assessment question.
type Question struct {
	ID          string       `json:"id"`
	Text        string       `json:"text"`
	Kind        QuestionKind `json:"kind"`
	Options     []string     `json:"options"`
	Correct     Answer       `json:"correct"`
	Explanation string       `json:"explanation"`
	Points      int          `json:"points"`
}

// AssessmentRole distinguishes module quizzes from the curriculum-wide final exam.
type AssessmentRole string

const (
	RoleModuleQuiz AssessmentRole = "module-quiz"
	RoleFinalExam  AssessmentRole = "final-exam"
)

// Assessment is a scored set of questions. PassingScore and TimeLimitMinutes
// are computed from the actual question set at generation time and are not
// recomputed on manual edits.
type Assessment struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	Role             AssessmentRole `json:"role"`
	Questions        []Question     `json:"questions"`
	PassingScore     int            `json:"passing_score"`
	TimeLimitMinutes int            `json:"time_limit_minutes"`
}

// TotalPoints returns the sum of all question points.
func (a Assessment) TotalPoints() int {
	total := 0
	for _, q := range a.Questions {
		total += q.Points
	}
	return total
}

// Curriculum is the assembled output of the pipeline.
type Curriculum struct {
	Modules   []Module    `json:"modules"`
	FinalExam *Assessment `json:"final_exam,omitempty"`
}

// ModuleByID returns the module with the given ID.
func (c *Curriculum) ModuleByID(id string) (*Module, bool) {
	for i := range c.Modules {
		if c.Modules[i].ID == id {
			return &c.Modules[i], true
		}
	}
	return nil, false
}

// Quiz returns the live module-quiz assessment of a module, if one exists.
func (m *Module) Quiz() (*Assessment, bool) {
	for i := range m.Assessments {
		if m.Assessments[i].Role == RoleModuleQuiz {
			return &m.Assessments[i], true
		}
	}
	return nil, false
}
