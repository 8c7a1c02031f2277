// Package events defines the typed lifecycle events the generation pipeline
// emits: the immutable envelope, one payload type per event kind, and the
// emitter that stamps scoping fields onto every envelope.
package events

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Type identifies the kind of event an envelope carries.
type Type string

const (
	TypeChatMessage    Type = "chat.message"
	TypeChatQuestion   Type = "chat.question"
	TypeProgressInit   Type = "progress.init"
	TypeProgressUpdate Type = "progress.update"
	TypeThinkingStart  Type = "thinking.start"
	TypeThinkingEnd    Type = "thinking.end"
	TypeError          Type = "error"
	TypeStreamComplete Type = "stream.complete"
	TypeStreamFailed   Type = "stream.failed"
)

// Terminal reports whether t ends a stream.
func (t Type) Terminal() bool {
	return t == TypeStreamComplete || t == TypeStreamFailed
}

// Progress step statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Question type tags, mapped from the questionnaire vocabulary.
const (
	QuestionMCQ         = "mcq"
	QuestionMultiSelect = "multi_select"
	QuestionOpenEnded   = "open_ended"
)

// Suggested client actions carried by error events.
const (
	ActionRetry   = "retry"
	ActionAskUser = "ask_user"
)

// Payload is the variant-typed body of an envelope. Exactly one concrete
// payload type exists per event Type.
type Payload interface {
	eventType() Type
}

// ChatMessagePayload carries free-text narration shown to the requester.
type ChatMessagePayload struct {
	Text string `json:"text"`
}

// ChatQuestionPayload surfaces one supplementary structured question.
type ChatQuestionPayload struct {
	ID           string   `json:"id"`
	QuestionType string   `json:"type"`
	Label        string   `json:"label"`
	Skippable    bool     `json:"skippable"`
	Options      []string `json:"options,omitempty"`
	Placeholder  string   `json:"placeholder,omitempty"`
}

// ProgressStep is one entry in the ordered phase list.
type ProgressStep struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Status string `json:"status"`
}

// ProgressInitPayload enumerates the phases a run will pass through.
type ProgressInitPayload struct {
	Steps []ProgressStep `json:"steps"`
	Mode  string         `json:"mode,omitempty"`
}

// ProgressUpdatePayload reports one phase transition.
type ProgressUpdatePayload struct {
	StepID string `json:"step_id"`
	Status string `json:"status"`
}

// ThinkingStartPayload brackets the start of a provider call.
type ThinkingStartPayload struct{}

// ThinkingEndPayload closes the provider-call bracket.
type ThinkingEndPayload struct {
	DurationMS int64 `json:"duration_ms"`
}

// ErrorPayload reports a failure with suggested client actions.
type ErrorPayload struct {
	Scope   string   `json:"scope"`
	Message string   `json:"message"`
	Details string   `json:"details,omitempty"`
	Actions []string `json:"actions,omitempty"`
}

// StreamCompletePayload marks successful stream termination.
type StreamCompletePayload struct{}

// StreamFailedPayload marks failed stream termination.
type StreamFailedPayload struct {
	Reason string `json:"reason,omitempty"`
}

func (ChatMessagePayload) eventType() Type    { return TypeChatMessage }
func (ChatQuestionPayload) eventType() Type   { return TypeChatQuestion }
func (ProgressInitPayload) eventType() Type   { return TypeProgressInit }
func (ProgressUpdatePayload) eventType() Type { return TypeProgressUpdate }
func (ThinkingStartPayload) eventType() Type  { return TypeThinkingStart }
func (ThinkingEndPayload) eventType() Type    { return TypeThinkingEnd }
func (ErrorPayload) eventType() Type          { return TypeError }
func (StreamCompletePayload) eventType() Type { return TypeStreamComplete }
func (StreamFailedPayload) eventType() Type   { return TypeStreamFailed }

// seq makes emission order externally observable even when timestamps collide.
var seq atomic.Uint64

// Envelope is the immutable outer record wrapping a payload with identity,
// timing and scoping fields. Envelopes are copied by value into the history
// buffer and every delivery queue; nothing mutates one after creation.
type Envelope struct {
	EventID        string  `json:"event_id"`
	Seq            uint64  `json:"seq"`
	EventType      Type    `json:"event_type"`
	Timestamp      string  `json:"timestamp"`
	ProjectID      string  `json:"project_id,omitempty"`
	ConversationID string  `json:"conversation_id,omitempty"`
	ModelName      string  `json:"model_name,omitempty"`
	Payload        Payload `json:"payload"`
}

// UnmarshalJSON re-hydrates the payload into its concrete type based on
// event_type, so wire frames round-trip structurally.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	type alias struct {
		EventID        string          `json:"event_id"`
		Seq            uint64          `json:"seq"`
		EventType      Type            `json:"event_type"`
		Timestamp      string          `json:"timestamp"`
		ProjectID      string          `json:"project_id,omitempty"`
		ConversationID string          `json:"conversation_id,omitempty"`
		ModelName      string          `json:"model_name,omitempty"`
		Payload        json.RawMessage `json:"payload"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	payload, err := decodePayload(a.EventType, a.Payload)
	if err != nil {
		return err
	}

	*e = Envelope{
		EventID:        a.EventID,
		Seq:            a.Seq,
		EventType:      a.EventType,
		Timestamp:      a.Timestamp,
		ProjectID:      a.ProjectID,
		ConversationID: a.ConversationID,
		ModelName:      a.ModelName,
		Payload:        payload,
	}
	return nil
}

func decodePayload(t Type, raw json.RawMessage) (Payload, error) {
	decode := func(p Payload) (Payload, error) {
		if len(raw) == 0 {
			return p, nil
		}
		if err := json.Unmarshal(raw, p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", t, err)
		}
		return p, nil
	}

	var p Payload
	var err error
	switch t {
	case TypeChatMessage:
		p, err = decode(&ChatMessagePayload{})
	case TypeChatQuestion:
		p, err = decode(&ChatQuestionPayload{})
	case TypeProgressInit:
		p, err = decode(&ProgressInitPayload{})
	case TypeProgressUpdate:
		p, err = decode(&ProgressUpdatePayload{})
	case TypeThinkingStart:
		p, err = decode(&ThinkingStartPayload{})
	case TypeThinkingEnd:
		p, err = decode(&ThinkingEndPayload{})
	case TypeError:
		p, err = decode(&ErrorPayload{})
	case TypeStreamComplete:
		p, err = decode(&StreamCompletePayload{})
	case TypeStreamFailed:
		p, err = decode(&StreamFailedPayload{})
	default:
		return nil, fmt.Errorf("unknown event type %q", t)
	}
	return p, err
}

// newEnvelope stamps identity, ordering and timing onto a payload.
func newEnvelope(projectID, conversationID, modelName string, p Payload) Envelope {
	return Envelope{
		EventID:        "evt_" + uuid.NewString(),
		Seq:            seq.Add(1),
		EventType:      p.eventType(),
		Timestamp:      time.Now().UTC().Format(time.RFC3339Nano),
		ProjectID:      projectID,
		ConversationID: conversationID,
		ModelName:      modelName,
		Payload:        p,
	}
}
