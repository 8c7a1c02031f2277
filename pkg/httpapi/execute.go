package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ravi-parthasarathy/webforge/pkg/generate"
	"github.com/ravi-parthasarathy/webforge/pkg/router"
)

// executeRequest is the single-endpoint action dispatch payload.
type executeRequest struct {
	Action         string            `json:"action"`
	UserText       string            `json:"user_text,omitempty"`
	UserQuery      string            `json:"user_query,omitempty"`
	Family         string            `json:"model_family,omitempty"`
	PageTypeKey    string            `json:"page_type_key,omitempty"`
	Answers        map[string]any    `json:"questionnaire_answers,omitempty"`
	WizardInputs   map[string]string `json:"wizard_inputs,omitempty"`
	Instruction    string            `json:"instruction,omitempty"`
	Project        map[string]any    `json:"project_json,omitempty"`
	ProjectID      string            `json:"project_id,omitempty"`
	ConversationID string            `json:"conversation_id,omitempty"`
}

type executeResponse struct {
	Action  string         `json:"action"`
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
	Error   string         `json:"error,omitempty"`
}

const supportedActions = "classify_intent, classify_page_type, analyze_query, chat, generate_project, modify_project"

// execute dispatches every supported operation through one endpoint.
func (s *Server) execute(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	action := strings.ToLower(strings.TrimSpace(req.Action))
	ctx := c.Request.Context()

	fail := func(status int, msg string) {
		c.JSON(status, executeResponse{Action: action, Success: false, Data: gin.H{}, Error: msg})
	}
	ok := func(data map[string]any) {
		c.JSON(http.StatusOK, executeResponse{Action: action, Success: true, Data: data})
	}

	switch action {
	case "classify_intent":
		if req.UserText == "" {
			fail(http.StatusBadRequest, "user_text is required for classify_intent")
			return
		}
		cl := s.pipeline.ClassifyIntent(ctx, req.UserText, req.Family)
		ok(gin.H{
			"label":       cl.Label,
			"explanation": cl.Explanation,
			"confidence":  cl.Confidence,
			"model":       cl.Model,
			"model_info":  router.InfoFor(cl.Model),
		})

	case "classify_page_type":
		if req.UserText == "" {
			fail(http.StatusBadRequest, "user_text is required for classify_page_type")
			return
		}
		cl := s.pipeline.ClassifyPageType(ctx, req.UserText, req.Family)
		ok(gin.H{
			"page_type":   cl.Label,
			"explanation": cl.Explanation,
			"confidence":  cl.Confidence,
			"model":       cl.Model,
			"model_info":  router.InfoFor(cl.Model),
		})

	case "analyze_query":
		if req.UserText == "" {
			fail(http.StatusBadRequest, "user_text is required for analyze_query")
			return
		}
		needsFollowup, confidence := s.pipeline.AnalyzeQueryDetail(ctx, req.UserText, req.Family)
		explanation := "Query has sufficient detail to proceed"
		if needsFollowup {
			explanation = "Query needs follow-up questions to gather more details"
		}
		model := s.pipeline.RouterModel(req.Family)
		ok(gin.H{
			"needs_followup": needsFollowup,
			"explanation":    explanation,
			"confidence":     confidence,
			"model":          model,
			"model_info":     router.InfoFor(model),
		})

	case "chat":
		if req.UserText == "" {
			fail(http.StatusBadRequest, "user_text is required for chat")
			return
		}
		reply, model, err := s.pipeline.Chat(ctx, req.UserText, req.Family)
		if err != nil {
			fail(http.StatusInternalServerError, err.Error())
			return
		}
		ok(gin.H{
			"response":   reply,
			"model":      model,
			"model_info": router.InfoFor(model),
		})

	case "generate_project":
		if req.UserQuery == "" {
			fail(http.StatusBadRequest, "user_query is required for generate_project")
			return
		}
		result, err := s.pipeline.Generate(ctx, generate.GenerateRequest{
			UserQuery:      req.UserQuery,
			Family:         req.Family,
			ProjectID:      req.ProjectID,
			ConversationID: req.ConversationID,
			PageTypeKey:    req.PageTypeKey,
			Answers:        req.Answers,
			WizardInputs:   req.WizardInputs,
		})
		if err != nil {
			fail(http.StatusInternalServerError, err.Error())
			return
		}
		ok(resultData(result))

	case "modify_project":
		if req.Instruction == "" {
			fail(http.StatusBadRequest, "instruction is required for modify_project")
			return
		}
		result, err := s.pipeline.Modify(ctx, generate.ModifyRequest{
			Instruction:    req.Instruction,
			Project:        req.Project,
			ProjectID:      req.ProjectID,
			ConversationID: req.ConversationID,
			Family:         req.Family,
		})
		if err != nil {
			fail(http.StatusInternalServerError, err.Error())
			return
		}
		ok(resultData(result))

	default:
		fail(http.StatusBadRequest,
			"unknown action: "+req.Action+". Supported actions: "+supportedActions)
	}
}

func resultData(r *generate.Result) map[string]any {
	data := gin.H{
		"project_id":              r.ProjectID,
		"conversation_id":         r.ConversationID,
		"project":                 r.Project,
		"files_count":             r.FilesCount,
		"model_used":              r.Model,
		"model_info":              r.ModelInfo,
		"retries":                 r.Retries,
		"generation_time_seconds": r.ElapsedSeconds,
	}
	if r.PageType != "" {
		data["page_type"] = r.PageType
	}
	if r.Complexity != "" {
		data["complexity"] = r.Complexity
	}
	if len(r.ModelsUsed) > 0 {
		data["models_used"] = r.ModelsUsed
	}
	return data
}
