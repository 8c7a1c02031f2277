package events_test

import (
	"encoding/json"
	"testing"

	"github.com/ravi-parthasarathy/webforge/pkg/events"
)

// collector gathers emitted envelopes for inspection.
type collector struct {
	envs []events.Envelope
}

func (c *collector) publish(env events.Envelope) {
	c.envs = append(c.envs, env)
}

func TestEmitterStampsScope(t *testing.T) {
	c := &collector{}
	em := events.NewEmitter("p1", "c1", "gemini-3-pro-preview", c.publish)

	em.ChatMessage("hello")
	em.ProgressUpdate("generate", events.StatusInProgress)
	em.StreamComplete()

	if len(c.envs) != 3 {
		t.Fatalf("got %d events, want 3", len(c.envs))
	}
	for _, env := range c.envs {
		if env.ProjectID != "p1" || env.ConversationID != "c1" {
			t.Errorf("scope not stamped: %+v", env)
		}
		if env.ModelName != "gemini-3-pro-preview" {
			t.Errorf("model = %q", env.ModelName)
		}
		if env.EventID == "" || env.Timestamp == "" {
			t.Errorf("identity missing: %+v", env)
		}
	}
	if c.envs[0].EventType != events.TypeChatMessage {
		t.Errorf("first type = %s", c.envs[0].EventType)
	}
	if c.envs[2].EventType != events.TypeStreamComplete {
		t.Errorf("last type = %s", c.envs[2].EventType)
	}
}

func TestEmitterSeqMonotonic(t *testing.T) {
	c := &collector{}
	em := events.NewEmitter("p", "c", "", c.publish)
	for i := 0; i < 5; i++ {
		em.ChatMessage("m")
	}
	for i := 1; i < len(c.envs); i++ {
		if c.envs[i].Seq <= c.envs[i-1].Seq {
			t.Fatalf("seq not increasing: %d then %d", c.envs[i-1].Seq, c.envs[i].Seq)
		}
	}
}

func TestNilPublishIsNoop(t *testing.T) {
	em := events.NewEmitter("p", "c", "", nil)
	em.ChatMessage("should not panic")
	em.StreamFailed("nor this")
}

func TestWithModel(t *testing.T) {
	c := &collector{}
	em := events.NewEmitter("p", "c", "model-a", c.publish)
	em.ChatMessage("a")
	em.WithModel("model-b").ChatMessage("b")
	em.ChatMessage("a again")

	if c.envs[0].ModelName != "model-a" || c.envs[1].ModelName != "model-b" || c.envs[2].ModelName != "model-a" {
		t.Errorf("models = %s, %s, %s", c.envs[0].ModelName, c.envs[1].ModelName, c.envs[2].ModelName)
	}
}

func TestTerminal(t *testing.T) {
	if !events.TypeStreamComplete.Terminal() || !events.TypeStreamFailed.Terminal() {
		t.Error("terminal types not recognized")
	}
	if events.TypeChatMessage.Terminal() || events.TypeError.Terminal() {
		t.Error("non-terminal types flagged terminal")
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	c := &collector{}
	em := events.NewEmitter("p1", "c1", "m1", c.publish)
	em.ChatQuestion(events.ChatQuestionPayload{
		ID:           "industry",
		QuestionType: events.QuestionMCQ,
		Label:        "What industry?",
		Skippable:    true,
		Options:      []string{"SaaS", "E-commerce"},
	})
	em.Error("validation", "bad output", "details here", events.ActionRetry)

	for _, orig := range c.envs {
		data, err := json.Marshal(orig)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var back events.Envelope
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if back.EventType != orig.EventType || back.EventID != orig.EventID || back.Seq != orig.Seq {
			t.Errorf("identity changed: %+v vs %+v", back, orig)
		}
		switch p := back.Payload.(type) {
		case *events.ChatQuestionPayload:
			if p.QuestionType != events.QuestionMCQ || len(p.Options) != 2 {
				t.Errorf("question payload = %+v", p)
			}
		case *events.ErrorPayload:
			if p.Scope != "validation" || len(p.Actions) != 1 {
				t.Errorf("error payload = %+v", p)
			}
		default:
			t.Errorf("unexpected payload type %T", back.Payload)
		}
	}
}

func TestUnmarshalUnknownType(t *testing.T) {
	var env events.Envelope
	err := json.Unmarshal([]byte(`{"event_type": "mystery", "payload": {}}`), &env)
	if err == nil {
		t.Error("expected error for unknown event type")
	}
}
