package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/octafabbri/hey/internal/dispatch"
	"github.com/octafabbri/hey/internal/intent"
	"github.com/octafabbri/hey/internal/observability/metrics"
	"github.com/octafabbri/hey/pkg/logging"
)

var orchestratorTracer = otel.Tracer("hey.internal.conversation.orchestrator")

// Phase is where a conversation sits in the intake flow. Only the
// current phase's handler runs for an incoming utterance.
type Phase string

const (
	PhaseIdle                 Phase = "idle"
	PhaseCollecting           Phase = "collecting"
	PhaseAwaitingConfirmation Phase = "awaiting_confirmation"
	PhaseAwaitingConsent      Phase = "awaiting_work_order_consent"
	PhaseFinalized            Phase = "finalized"
	PhaseDeclined             Phase = "declined"
)

// ErrTurnInProgress is returned when an utterance arrives while the
// previous turn for the same conversation is still being processed.
// Turns are never queued; the caller should retry after the reply.
var ErrTurnInProgress = errors.New("conversation: turn already in progress")

const (
	apologyReply       = "Sorry, I'm having trouble on my end right now. Could you say that again?"
	consentPrompt      = "Everything checks out. Would you like me to generate a work order for this?"
	finalizedReply     = "Got it, your work order is ready to download."
	declinedReply      = "No problem. Your service request has been noted. If you need a work order later, just let me know."
	submitFailureReply = "I'm having trouble submitting your work order right now. Give me a moment and say 'go ahead' to try again."
)

// Finalizer submits a completed record downstream. Implemented by the
// workorder package.
type Finalizer interface {
	Finalize(ctx context.Context, req *dispatch.ServiceRequest) (*dispatch.ServiceRequest, error)
}

// ConversationStore persists transcripts and draft records so a
// conversation survives a process restart. Persistence is best-effort;
// failures are logged, never surfaced to the driver.
type ConversationStore interface {
	SaveHistory(ctx context.Context, conversationID string, history []ChatMessage) error
	LoadHistory(ctx context.Context, conversationID string) ([]ChatMessage, error)
	SaveRequest(ctx context.Context, conversationID string, req *dispatch.ServiceRequest) error
	LoadRequest(ctx context.Context, conversationID string) (*dispatch.ServiceRequest, error)
	Delete(ctx context.Context, conversationID string) error
}

// Profile identifies the speaker for a turn.
type Profile struct {
	UserID     string
	DriverName string
	Language   string
}

// Reply is the outcome of one turn. Messages is ordered; a turn that
// completes the record returns the assistant reply followed by the
// read-back summary.
type Reply struct {
	ConversationID string                   `json:"conversation_id"`
	Phase          Phase                    `json:"phase"`
	Task           intent.Task              `json:"task"`
	Messages       []string                 `json:"messages"`
	Request        *dispatch.ServiceRequest `json:"request,omitempty"`
}

type conversationState struct {
	mu      sync.Mutex
	busy    bool
	phase   Phase
	profile Profile
	general *Session
	intake  *Session
	request *dispatch.ServiceRequest
}

// Orchestrator routes utterances through the intake state machine:
// Idle, Collecting, AwaitingConfirmation, AwaitingWorkOrderConsent,
// then Finalized or Declined. One orchestrator serves all
// conversations; per-conversation state is serialized with a busy flag.
type Orchestrator struct {
	llm       LLMClient
	model     string
	extractor *Extractor
	finalizer Finalizer
	store     ConversationStore
	metrics   *metrics.DispatchMetrics
	logger    *logging.Logger

	mu    sync.Mutex
	convs map[string]*conversationState
}

// NewOrchestrator wires the turn pipeline. llm, extractor, and
// finalizer are required; store and metrics may be nil.
func NewOrchestrator(llm LLMClient, model string, extractor *Extractor, finalizer Finalizer, store ConversationStore, m *metrics.DispatchMetrics, logger *logging.Logger) *Orchestrator {
	if llm == nil {
		panic("conversation: orchestrator llm client cannot be nil")
	}
	if extractor == nil {
		panic("conversation: orchestrator extractor cannot be nil")
	}
	if finalizer == nil {
		panic("conversation: orchestrator finalizer cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Orchestrator{
		llm:       llm,
		model:     model,
		extractor: extractor,
		finalizer: finalizer,
		store:     store,
		metrics:   m,
		logger:    logger,
		convs:     make(map[string]*conversationState),
	}
}

// Phase reports the current phase of a conversation; unknown
// conversations are Idle.
func (o *Orchestrator) Phase(conversationID string) Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	if state, ok := o.convs[conversationID]; ok {
		return state.phase
	}
	return PhaseIdle
}

// HandleUtterance runs one turn. A second utterance for the same
// conversation while a turn is in flight returns ErrTurnInProgress.
func (o *Orchestrator) HandleUtterance(ctx context.Context, conversationID string, profile Profile, text string) (Reply, error) {
	ctx, span := orchestratorTracer.Start(ctx, "conversation.handle_utterance",
		trace.WithAttributes(attribute.String("conversation.id", conversationID)))
	defer span.End()

	state := o.stateFor(ctx, conversationID, profile)

	state.mu.Lock()
	if state.busy {
		state.mu.Unlock()
		o.metrics.RecordTurn(string(state.phase), "rejected_busy")
		return Reply{}, ErrTurnInProgress
	}
	state.busy = true
	state.mu.Unlock()

	defer func() {
		state.mu.Lock()
		state.busy = false
		state.mu.Unlock()
	}()

	span.SetAttributes(attribute.String("conversation.phase", string(state.phase)))

	var reply Reply
	var err error
	switch state.phase {
	case PhaseIdle:
		reply, err = o.handleIdle(ctx, conversationID, state, text)
	case PhaseCollecting:
		reply, err = o.handleCollecting(ctx, conversationID, state, text)
	case PhaseAwaitingConfirmation:
		reply, err = o.handleConfirmation(ctx, conversationID, state, text)
	case PhaseAwaitingConsent:
		reply, err = o.handleConsent(ctx, conversationID, state, text)
	default:
		// Finalized and Declined states are destroyed on exit, so a
		// late utterance starts over from Idle.
		state.phase = PhaseIdle
		reply, err = o.handleIdle(ctx, conversationID, state, text)
	}
	if err != nil {
		span.RecordError(err)
		return reply, err
	}

	// Finalized and Declined conversations were just destroyed; a
	// write here would resurrect the deleted keys.
	if state.phase != PhaseFinalized && state.phase != PhaseDeclined {
		o.persist(ctx, conversationID, state)
	}
	return reply, nil
}

func (o *Orchestrator) stateFor(ctx context.Context, conversationID string, profile Profile) *conversationState {
	o.mu.Lock()
	defer o.mu.Unlock()
	state, ok := o.convs[conversationID]
	if !ok {
		state = o.rehydrate(ctx, conversationID, profile)
		o.convs[conversationID] = state
	}
	if state.profile.DriverName == "" && profile.DriverName != "" {
		state.profile.DriverName = profile.DriverName
	}
	return state
}

// rehydrate rebuilds conversation state from the store after a process
// restart. Anything missing or unreadable starts over from Idle.
func (o *Orchestrator) rehydrate(ctx context.Context, conversationID string, profile Profile) *conversationState {
	state := &conversationState{phase: PhaseIdle, profile: profile}
	if o.store == nil {
		return state
	}

	req, err := o.store.LoadRequest(ctx, conversationID)
	if err != nil {
		o.logger.Warn("failed to load persisted draft", "conversation_id", conversationID, "error", err.Error())
		return state
	}
	history, err := o.store.LoadHistory(ctx, conversationID)
	if err != nil {
		history = nil
	}

	if req == nil {
		if len(history) == 0 {
			return state
		}
		persona := BuildPersona(intent.TaskGeneralAssistance, profile.DriverName, profile.Language)
		state.general = NewSession(o.llm, o.model, persona, PersonaTemperature(intent.TaskGeneralAssistance))
		state.general.RestoreHistory(history)
		return state
	}

	if state.profile.DriverName == "" && req.DriverName != "" {
		state.profile.DriverName = req.DriverName
	}
	persona := BuildPersona(intent.TaskServiceRequest, state.profile.DriverName, profile.Language)
	state.intake = NewSession(o.llm, o.model, persona, PersonaTemperature(intent.TaskServiceRequest))
	state.intake.RestoreHistory(history)
	state.request = req
	if dispatch.Validate(req).IsComplete {
		state.phase = PhaseAwaitingConfirmation
	} else {
		state.phase = PhaseCollecting
	}

	o.logger.Info("conversation rehydrated",
		"conversation_id", conversationID,
		"phase", string(state.phase),
	)
	return state
}

func (o *Orchestrator) destroy(ctx context.Context, conversationID string) {
	o.mu.Lock()
	delete(o.convs, conversationID)
	o.mu.Unlock()
	if o.store != nil {
		if err := o.store.Delete(ctx, conversationID); err != nil {
			o.logger.Warn("failed to delete persisted conversation", "conversation_id", conversationID, "error", err.Error())
		}
	}
}

func (o *Orchestrator) persist(ctx context.Context, conversationID string, state *conversationState) {
	if o.store == nil {
		return
	}
	session := state.intake
	if session == nil {
		session = state.general
	}
	if session != nil {
		if err := o.store.SaveHistory(ctx, conversationID, session.History()); err != nil {
			o.logger.Warn("failed to persist conversation history", "conversation_id", conversationID, "error", err.Error())
		}
	}
	if state.request != nil {
		if err := o.store.SaveRequest(ctx, conversationID, state.request); err != nil {
			o.logger.Warn("failed to persist draft request", "conversation_id", conversationID, "error", err.Error())
		}
	}
}

// handleIdle answers general tasks in place and opens intake when the
// utterance is a service request.
func (o *Orchestrator) handleIdle(ctx context.Context, conversationID string, state *conversationState, text string) (Reply, error) {
	task := intent.Classify(text)
	if task == intent.TaskServiceRequest {
		return o.startIntake(ctx, conversationID, state, text)
	}

	if state.profile.DriverName == "" {
		if name, err := o.extractor.ExtractName(ctx, text); err == nil && name != "" {
			state.profile.DriverName = name
		}
	}

	if state.general == nil {
		persona := BuildPersona(intent.TaskGeneralAssistance, state.profile.DriverName, state.profile.Language)
		state.general = NewSession(o.llm, o.model, persona, PersonaTemperature(intent.TaskGeneralAssistance))
	}

	aiText, err := state.general.SendMessage(ctx, text)
	if err != nil {
		o.logger.Error("general turn failed", "conversation_id", conversationID, "error", err.Error())
		o.metrics.RecordTurn(string(PhaseIdle), "model_error")
		return Reply{ConversationID: conversationID, Phase: PhaseIdle, Task: task, Messages: []string{apologyReply}}, nil
	}

	o.metrics.RecordTurn(string(PhaseIdle), "ok")
	return Reply{ConversationID: conversationID, Phase: PhaseIdle, Task: task, Messages: []string{aiText}}, nil
}

func (o *Orchestrator) startIntake(ctx context.Context, conversationID string, state *conversationState, text string) (Reply, error) {
	driverName := state.profile.DriverName
	if driverName == "" {
		driverName = "Driver"
	}

	state.request = dispatch.NewServiceRequest(state.profile.UserID, driverName)
	persona := BuildPersona(intent.TaskServiceRequest, state.profile.DriverName, state.profile.Language)
	state.intake = NewSession(o.llm, o.model, persona, PersonaTemperature(intent.TaskServiceRequest))
	state.phase = PhaseCollecting

	o.logger.Info("service request intake started",
		"conversation_id", conversationID,
		"request_id", state.request.ID,
	)
	return o.handleCollecting(ctx, conversationID, state, text)
}

// handleCollecting runs the send, extract, merge, validate pipeline for
// one utterance. A model failure leaves the record and phase untouched.
func (o *Orchestrator) handleCollecting(ctx context.Context, conversationID string, state *conversationState, text string) (Reply, error) {
	aiText, err := state.intake.SendMessage(ctx, text)
	if err != nil {
		o.logger.Error("intake turn failed", "conversation_id", conversationID, "error", err.Error())
		o.metrics.RecordTurn(string(PhaseCollecting), "model_error")
		return Reply{ConversationID: conversationID, Phase: state.phase, Task: intent.TaskServiceRequest, Messages: []string{apologyReply}}, nil
	}

	state.request.AppendTranscript(fmt.Sprintf("user: %s\nai: %s", text, aiText))

	partial, err := o.extractor.Extract(ctx, state.request.ConversationTranscript, state.request)
	if err != nil {
		// The assistant already replied; a dead extraction call only
		// means this turn taught us nothing.
		o.logger.Warn("extraction failed, continuing with empty partial",
			"conversation_id", conversationID, "error", err.Error())
		o.metrics.RecordExtraction("error")
		partial = &dispatch.Partial{}
	} else if partial.IsEmpty() {
		o.metrics.RecordExtraction("empty")
	} else {
		o.metrics.RecordExtraction("ok")
	}

	state.request = dispatch.Merge(state.request, partial)

	validation := dispatch.Validate(state.request)
	if validation.IsComplete {
		state.phase = PhaseAwaitingConfirmation
		summary := BuildConfirmationSummary(state.request)
		o.metrics.RecordTurn(string(PhaseCollecting), "complete")
		return Reply{
			ConversationID: conversationID,
			Phase:          state.phase,
			Task:           intent.TaskServiceRequest,
			Messages:       []string{aiText, summary},
			Request:        state.request.Clone(),
		}, nil
	}

	state.phase = PhaseCollecting
	o.metrics.RecordTurn(string(PhaseCollecting), "ok")
	return Reply{
		ConversationID: conversationID,
		Phase:          state.phase,
		Task:           intent.TaskServiceRequest,
		Messages:       []string{aiText},
		Request:        state.request.Clone(),
	}, nil
}

// handleConfirmation interprets the driver's answer to the read-back.
// An edit cue, even alongside an affirmation ("no wait, that's right
// except the phone"), reopens collection with the same utterance.
func (o *Orchestrator) handleConfirmation(ctx context.Context, conversationID string, state *conversationState, text string) (Reply, error) {
	if isAffirmation(text) && !wantsEdit(text) {
		state.phase = PhaseAwaitingConsent
		o.metrics.RecordTurn(string(PhaseAwaitingConfirmation), "confirmed")
		return Reply{
			ConversationID: conversationID,
			Phase:          state.phase,
			Task:           intent.TaskServiceRequest,
			Messages:       []string{consentPrompt},
			Request:        state.request.Clone(),
		}, nil
	}

	state.phase = PhaseCollecting
	o.metrics.RecordTurn(string(PhaseAwaitingConfirmation), "edit")
	return o.handleCollecting(ctx, conversationID, state, text)
}

// handleConsent finalizes on a yes, closes out on a decline, and
// otherwise drops back to collecting so nothing the driver said is
// lost.
func (o *Orchestrator) handleConsent(ctx context.Context, conversationID string, state *conversationState, text string) (Reply, error) {
	affirmed := isAffirmation(text)
	declined := isDecline(text)

	switch {
	case affirmed && !declined:
		finalized, err := o.finalizer.Finalize(ctx, state.request)
		if err != nil {
			// Submission failed, so the work order does not exist yet.
			// Stay in consent so the driver can try again.
			o.logger.Error("work order finalize failed",
				"conversation_id", conversationID,
				"request_id", state.request.ID,
				"error", err.Error(),
			)
			o.metrics.RecordTurn(string(PhaseAwaitingConsent), "finalize_error")
			return Reply{
				ConversationID: conversationID,
				Phase:          state.phase,
				Task:           intent.TaskServiceRequest,
				Messages:       []string{submitFailureReply},
				Request:        state.request.Clone(),
			}, nil
		}

		state.request = finalized
		state.phase = PhaseFinalized
		o.metrics.RecordTurn(string(PhaseAwaitingConsent), "finalized")
		o.metrics.RecordSubmission()
		reply := Reply{
			ConversationID: conversationID,
			Phase:          PhaseFinalized,
			Task:           intent.TaskServiceRequest,
			Messages:       []string{finalizedReply},
			Request:        finalized.Clone(),
		}
		o.destroy(ctx, conversationID)
		return reply, nil

	case declined:
		state.phase = PhaseDeclined
		o.metrics.RecordTurn(string(PhaseAwaitingConsent), "declined")
		reply := Reply{
			ConversationID: conversationID,
			Phase:          PhaseDeclined,
			Task:           intent.TaskServiceRequest,
			Messages:       []string{declinedReply},
			Request:        state.request.Clone(),
		}
		o.destroy(ctx, conversationID)
		return reply, nil

	default:
		state.phase = PhaseCollecting
		o.metrics.RecordTurn(string(PhaseAwaitingConsent), "ambiguous")
		return o.handleCollecting(ctx, conversationID, state, text)
	}
}
