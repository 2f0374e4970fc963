package events

import (
	"context"
	"encoding/json"
	"fmt"

	"account-mirror/feature/profile/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Envelope is one intercepted game exchange: the client request and the
// server response, both as raw JSON. Handlers decode the sections they
// need.
type Envelope struct {
	Request  json.RawMessage `json:"request"`
	Response json.RawMessage `json:"response"`
}

// Command extracts the action name from the request.
func (e *Envelope) Command() string {
	var probe struct {
		Command string `json:"command"`
	}
	if len(e.Request) > 0 {
		_ = json.Unmarshal(e.Request, &probe)
	}
	return probe.Command
}

// Result maps a lookup family to a reason token when a handler skipped
// part of an event ("monster", "rune"). An empty result means the event
// applied cleanly.
type Result map[string]string

const (
	ReasonMonster  = "monster"
	ReasonRune     = "rune"
	ReasonArtifact = "artifact"
)

// HandlerFunc applies one event inside the dispatcher's transaction.
// Handlers are idempotent: they write the response's post-state keyed by
// external ids, so replaying an event is harmless.
type HandlerFunc func(tx *gorm.DB, accountID uint, env *Envelope) (Result, error)

// Dispatcher routes events to their handlers by command name. Unknown
// commands are ignored: the game has far more commands than the mirror
// cares about.
type Dispatcher struct {
	db       *gorm.DB
	log      *zap.Logger
	handlers map[string]HandlerFunc

	// defaultPriority is assigned to monsters first seen through events.
	defaultPriority models.Priority
}

// NewDispatcher builds a dispatcher with the full handler set registered.
func NewDispatcher(db *gorm.DB, log *zap.Logger, defaultPriority models.Priority) *Dispatcher {
	d := &Dispatcher{
		db:              db,
		log:             log,
		handlers:        map[string]HandlerFunc{},
		defaultPriority: defaultPriority,
	}
	d.registerAcquisition()
	d.registerMutation()
	d.registerEquipment()
	d.registerStorage()
	d.registerRewards()
	d.registerRemoval()
	return d
}

// Register binds a command name to a handler.
func (d *Dispatcher) Register(command string, h HandlerFunc) {
	d.handlers[command] = h
}

// Handles reports whether the dispatcher knows the command.
func (d *Dispatcher) Handles(command string) bool {
	_, ok := d.handlers[command]
	return ok
}

// Dispatch applies one event in its own transaction. Unknown commands
// return an empty result without touching the store.
func (d *Dispatcher) Dispatch(ctx context.Context, accountID uint, env *Envelope) (Result, error) {
	command := env.Command()
	handler, ok := d.handlers[command]
	if !ok {
		d.log.Debug("ignoring event", zap.String("command", command), zap.Uint("account_id", accountID))
		return Result{}, nil
	}

	var result Result
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = handler(tx, accountID, env)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", command, err)
	}
	if result == nil {
		result = Result{}
	}

	d.log.Debug("event applied",
		zap.String("command", command),
		zap.Uint("account_id", accountID),
		zap.Int("skips", len(result)))
	return result, nil
}

func decodeResponse[T any](env *Envelope) (*T, error) {
	var out T
	if len(env.Response) == 0 {
		return &out, nil
	}
	if err := json.Unmarshal(env.Response, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func decodeRequest[T any](env *Envelope) (*T, error) {
	var out T
	if len(env.Request) == 0 {
		return &out, nil
	}
	if err := json.Unmarshal(env.Request, &out); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return &out, nil
}
