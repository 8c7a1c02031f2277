package events

// PublishFunc hands a finished envelope to a transport. The broadcaster's
// Enqueue satisfies this.
type PublishFunc func(Envelope)

// Emitter builds envelopes scoped to one generation run and hands them to a
// publish function. The zero value is unusable; construct with NewEmitter.
type Emitter struct {
	projectID      string
	conversationID string
	modelName      string
	publish        PublishFunc
}

// NewEmitter returns an emitter whose envelopes carry the given scoping
// fields. A nil publish function makes every emit a no-op, which keeps
// callers free of nil checks when streaming is disabled.
func NewEmitter(projectID, conversationID, modelName string, publish PublishFunc) *Emitter {
	return &Emitter{
		projectID:      projectID,
		conversationID: conversationID,
		modelName:      modelName,
		publish:        publish,
	}
}

// WithModel returns a copy of e whose envelopes carry a different model name.
// Used when a run falls back to another model mid-flight.
func (e *Emitter) WithModel(modelName string) *Emitter {
	clone := *e
	clone.modelName = modelName
	return &clone
}

func (e *Emitter) emit(p Payload) {
	if e.publish == nil {
		return
	}
	e.publish(newEnvelope(e.projectID, e.conversationID, e.modelName, p))
}

// ChatMessage emits a free-text narration event.
func (e *Emitter) ChatMessage(text string) {
	e.emit(&ChatMessagePayload{Text: text})
}

// ChatQuestion emits one supplementary question.
func (e *Emitter) ChatQuestion(q ChatQuestionPayload) {
	e.emit(&q)
}

// ProgressInit emits the ordered phase list for a run.
func (e *Emitter) ProgressInit(steps []ProgressStep, mode string) {
	e.emit(&ProgressInitPayload{Steps: steps, Mode: mode})
}

// ProgressUpdate emits a phase transition.
func (e *Emitter) ProgressUpdate(stepID, status string) {
	e.emit(&ProgressUpdatePayload{StepID: stepID, Status: status})
}

// ThinkingStart brackets the start of a provider call.
func (e *Emitter) ThinkingStart() {
	e.emit(&ThinkingStartPayload{})
}

// ThinkingEnd closes the provider-call bracket.
func (e *Emitter) ThinkingEnd(durationMS int64) {
	e.emit(&ThinkingEndPayload{DurationMS: durationMS})
}

// Error emits a failure event with suggested client actions.
func (e *Emitter) Error(scope, message, details string, actions ...string) {
	e.emit(&ErrorPayload{Scope: scope, Message: message, Details: details, Actions: actions})
}

// StreamComplete emits the successful terminal event.
func (e *Emitter) StreamComplete() {
	e.emit(&StreamCompletePayload{})
}

// StreamFailed emits the failed terminal event.
func (e *Emitter) StreamFailed(reason string) {
	e.emit(&StreamFailedPayload{Reason: reason})
}
