package generate

import (
	"time"

	"github.com/ravi-parthasarathy/webforge/pkg/router"
)

// PageTypeComponent is one required component in a page-type specification.
type PageTypeComponent struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// PageTypeSpec describes the structural requirements of a page type and is
// folded into the generation prompt verbatim.
type PageTypeSpec struct {
	Name       string              `json:"name"`
	Category   string              `json:"category"`
	EndUser    string              `json:"end_user"`
	CorePages  []string            `json:"core_pages"`
	Components []PageTypeComponent `json:"components"`
}

// Question is one questionnaire entry. Type uses the questionnaire
// vocabulary (radio, multiselect, open_ended); the emitter maps it to the
// event vocabulary on the way out.
type Question struct {
	ID          string   `json:"id"`
	Question    string   `json:"question"`
	Type        string   `json:"type"`
	Options     []string `json:"options,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
}

// Questionnaire is the follow-up question set for a page type.
type Questionnaire struct {
	Questions []Question `json:"questions"`
}

// GenerateRequest carries everything a generation run needs. Empty
// ProjectID/ConversationID are replaced with fresh identifiers.
type GenerateRequest struct {
	UserQuery      string            `json:"user_query"`
	Family         string            `json:"model_family,omitempty"`
	ProjectID      string            `json:"project_id,omitempty"`
	ConversationID string            `json:"conversation_id,omitempty"`
	PageTypeKey    string            `json:"page_type_key,omitempty"`
	PageType       *PageTypeSpec     `json:"page_type,omitempty"`
	Questionnaire  *Questionnaire    `json:"questionnaire,omitempty"`
	Answers        map[string]any    `json:"questionnaire_answers,omitempty"`
	WizardInputs   map[string]string `json:"wizard_inputs,omitempty"`
}

// ModifyRequest carries a modification instruction plus either the project
// payload itself or the identifier of a previously saved project.
type ModifyRequest struct {
	Instruction    string         `json:"instruction"`
	Project        map[string]any `json:"project_json,omitempty"`
	ProjectID      string         `json:"project_id,omitempty"`
	ConversationID string         `json:"conversation_id,omitempty"`
	Family         string         `json:"model_family,omitempty"`
}

// Result is the outcome of a successful generation or modification run.
type Result struct {
	ProjectID      string             `json:"project_id"`
	ConversationID string             `json:"conversation_id"`
	Project        map[string]any     `json:"project"`
	FilesCount     int                `json:"files_count"`
	PageType       string             `json:"page_type,omitempty"`
	Complexity     string             `json:"complexity,omitempty"`
	Provider       string             `json:"provider"`
	Model          string             `json:"model_used"`
	ModelInfo      router.ModelInfo   `json:"model_info"`
	ModelsUsed     []router.ModelInfo `json:"models_used,omitempty"`
	Retries        int                `json:"retries"`
	Elapsed        time.Duration      `json:"-"`
	ElapsedSeconds float64            `json:"generation_time_seconds"`
}

// Classification is the outcome of one router-model classification call.
// Classifiers never fail outward; Label always holds a usable value.
type Classification struct {
	Label       string  `json:"label"`
	Explanation string  `json:"explanation"`
	Confidence  float64 `json:"confidence"`
	Model       string  `json:"model"`
	Raw         string  `json:"-"`
}
