package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// BlockKind identifies the behaviour of a block inside a flow.
type BlockKind string

const (
	KindStart              BlockKind = "start"
	KindMessage            BlockKind = "message"
	KindInteractiveList    BlockKind = "interactive_list"
	KindInteractiveButtons BlockKind = "interactive_buttons"
	KindCondition          BlockKind = "condition"
	KindAction             BlockKind = "action"
	KindDelay              BlockKind = "delay"
	KindWebhook            BlockKind = "webhook"
	KindAIHandoff          BlockKind = "ai_handoff"
	KindHumanHandoff       BlockKind = "human_handoff"
	KindEnd                BlockKind = "end"
)

// Messaging channel limits for interactive menus.
const (
	MaxButtons        = 3
	MaxButtonTitleLen = 20
	MaxListSections   = 10
	MaxListRows       = 10
)

// AutoAdvances reports whether the kind performs its effect and moves on
// through its single outgoing edge.
func (k BlockKind) AutoAdvances() bool {
	switch k {
	case KindStart, KindMessage, KindAction, KindDelay, KindWebhook:
		return true
	}
	return false
}

// AwaitsResponse reports whether the kind stops the dispatch until a reply arrives.
func (k BlockKind) AwaitsResponse() bool {
	return k == KindInteractiveList || k == KindInteractiveButtons
}

// Terminal reports whether the kind ends the execution.
func (k BlockKind) Terminal() bool {
	return k == KindEnd || k == KindAIHandoff || k == KindHumanHandoff
}

// BlockData is the kind-specific payload of a block.
// The set of implementations is closed: one struct per BlockKind.
type BlockData interface {
	Kind() BlockKind
	// Validate checks the payload against the channel constraints.
	// It returns a plain reason; callers wrap it into a BlockConfigurationError.
	Validate() error
}

// Block is one node of a flow graph.
type Block struct {
	ID   string
	Kind BlockKind
	Data BlockData
}

// Validate returns a *BlockConfigurationError when the payload is malformed.
func (b *Block) Validate(flowID string) error {
	if b.Data == nil {
		return &BlockConfigurationError{FlowID: flowID, BlockID: b.ID, Kind: b.Kind, Reason: "missing block data"}
	}
	if err := b.Data.Validate(); err != nil {
		return &BlockConfigurationError{FlowID: flowID, BlockID: b.ID, Kind: b.Kind, Reason: err.Error()}
	}
	return nil
}

type blockJSON struct {
	ID   string         `json:"id"`
	Type BlockKind      `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// MarshalJSON renders the block as {id, type, data}.
func (b Block) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID   string    `json:"id"`
		Type BlockKind `json:"type"`
		Data BlockData `json:"data,omitempty"`
	}{b.ID, b.Kind, b.Data})
}

// UnmarshalJSON decodes {id, type, data} into the typed variant for the kind.
func (b *Block) UnmarshalJSON(raw []byte) error {
	var in blockJSON
	if err := json.Unmarshal(raw, &in); err != nil {
		return err
	}
	data, err := DecodeBlockData(in.Type, in.Data)
	if err != nil {
		return fmt.Errorf("block %s: %w", in.ID, err)
	}
	b.ID = in.ID
	b.Kind = in.Type
	b.Data = data
	return nil
}

// DecodeBlockData converts the untyped data of an authored block into its typed variant.
func DecodeBlockData(kind BlockKind, raw map[string]any) (BlockData, error) {
	var target BlockData
	switch kind {
	case KindStart:
		target = &StartData{}
	case KindMessage:
		target = &MessageData{}
	case KindInteractiveList:
		target = &ListData{}
	case KindInteractiveButtons:
		target = &ButtonsData{}
	case KindCondition:
		target = &ConditionData{}
	case KindAction:
		target = &ActionData{}
	case KindDelay:
		target = &DelayData{}
	case KindWebhook:
		target = &WebhookData{}
	case KindAIHandoff:
		target = &AIHandoffData{}
	case KindHumanHandoff:
		target = &HumanHandoffData{}
	case KindEnd:
		target = &EndData{}
	default:
		return nil, fmt.Errorf("unknown block type %q", kind)
	}

	if len(raw) == 0 {
		return target, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid %s data: %w", kind, err)
	}
	return target, nil
}

// StartData marks the entry block. It carries no payload.
type StartData struct{}

func (*StartData) Kind() BlockKind { return KindStart }
func (*StartData) Validate() error { return nil }

// MessageData sends a plain text message.
type MessageData struct {
	Text string `json:"text"`
}

func (*MessageData) Kind() BlockKind { return KindMessage }

func (d *MessageData) Validate() error {
	if strings.TrimSpace(d.Text) == "" {
		return fmt.Errorf("message text is empty")
	}
	return nil
}

// Button is one reply button of an interactive_buttons block.
// NextBlockID is the legacy inline routing target.
type Button struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	NextBlockID string `json:"nextBlockId,omitempty"`
}

// ButtonsData presents up to three reply buttons.
type ButtonsData struct {
	Body    string   `json:"body"`
	Footer  string   `json:"footer,omitempty"`
	Buttons []Button `json:"buttons"`
	SaveAs  string   `json:"saveAs,omitempty"`
}

func (*ButtonsData) Kind() BlockKind { return KindInteractiveButtons }

func (d *ButtonsData) Validate() error {
	if strings.TrimSpace(d.Body) == "" {
		return fmt.Errorf("buttons body is empty")
	}
	if len(d.Buttons) == 0 {
		return fmt.Errorf("at least one button is required")
	}
	if len(d.Buttons) > MaxButtons {
		return fmt.Errorf("%d buttons exceed the limit of %d", len(d.Buttons), MaxButtons)
	}
	seen := make(map[string]bool, len(d.Buttons))
	for _, b := range d.Buttons {
		if b.ID == "" || strings.TrimSpace(b.Title) == "" {
			return fmt.Errorf("button requires id and title")
		}
		if len([]rune(b.Title)) > MaxButtonTitleLen {
			return fmt.Errorf("button %q title exceeds %d characters", b.ID, MaxButtonTitleLen)
		}
		if seen[b.ID] {
			return fmt.Errorf("duplicate button id %q", b.ID)
		}
		seen[b.ID] = true
	}
	return nil
}

// ListRow is one selectable row of an interactive list.
type ListRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	NextBlockID string `json:"nextBlockId,omitempty"`
}

// ListSection groups rows under a title.
type ListSection struct {
	Title string    `json:"title,omitempty"`
	Rows  []ListRow `json:"rows"`
}

// ListData presents a list menu opened by ButtonText.
type ListData struct {
	Body       string        `json:"body"`
	ButtonText string        `json:"buttonText"`
	Sections   []ListSection `json:"sections"`
	SaveAs     string        `json:"saveAs,omitempty"`
}

func (*ListData) Kind() BlockKind { return KindInteractiveList }

func (d *ListData) Validate() error {
	if strings.TrimSpace(d.Body) == "" {
		return fmt.Errorf("list body is empty")
	}
	if len(d.Sections) == 0 {
		return fmt.Errorf("at least one section is required")
	}
	if len(d.Sections) > MaxListSections {
		return fmt.Errorf("%d sections exceed the limit of %d", len(d.Sections), MaxListSections)
	}
	for i, s := range d.Sections {
		if len(s.Rows) == 0 {
			return fmt.Errorf("section %d has no rows", i)
		}
		if len(s.Rows) > MaxListRows {
			return fmt.Errorf("section %d: %d rows exceed the limit of %d", i, len(s.Rows), MaxListRows)
		}
		for _, r := range s.Rows {
			if r.ID == "" || strings.TrimSpace(r.Title) == "" {
				return fmt.Errorf("list row requires id and title")
			}
		}
	}
	return nil
}

// Rows returns every row across sections in authoring order.
func (d *ListData) Rows() []ListRow {
	var rows []ListRow
	for _, s := range d.Sections {
		rows = append(rows, s.Rows...)
	}
	return rows
}

// ConditionData branches on the variable bag.
type ConditionData struct {
	Conditions         []Condition `json:"conditions"`
	DefaultNextBlockID string      `json:"defaultNextBlockId,omitempty"`
}

func (*ConditionData) Kind() BlockKind { return KindCondition }

func (d *ConditionData) Validate() error {
	if len(d.Conditions) == 0 && d.DefaultNextBlockID == "" {
		return fmt.Errorf("condition block has no conditions and no default")
	}
	for i, c := range d.Conditions {
		if c.Variable == "" {
			return fmt.Errorf("condition %d has no variable", i)
		}
		if !c.Operator.Valid() {
			return fmt.Errorf("condition %d has unknown operator %q", i, c.Operator)
		}
	}
	return nil
}

// VariableOp is a mutation applied by an action block.
type VariableOp string

const (
	OpSet       VariableOp = "set"
	OpIncrement VariableOp = "increment"
	OpClear     VariableOp = "clear"
	OpAppend    VariableOp = "append"
)

// VariableOperation mutates one variable.
type VariableOperation struct {
	Variable string     `json:"variable"`
	Op       VariableOp `json:"op"`
	Value    any        `json:"value,omitempty"`
}

// ActionData mutates the execution variables.
type ActionData struct {
	Operations []VariableOperation `json:"operations"`
}

func (*ActionData) Kind() BlockKind { return KindAction }

func (d *ActionData) Validate() error {
	for i, op := range d.Operations {
		if op.Variable == "" {
			return fmt.Errorf("operation %d has no variable", i)
		}
		switch op.Op {
		case OpSet, OpIncrement, OpClear, OpAppend:
		default:
			return fmt.Errorf("operation %d has unknown op %q", i, op.Op)
		}
	}
	return nil
}

// DelayData pauses the flow before moving on.
type DelayData struct {
	Seconds int `json:"seconds"`
}

func (*DelayData) Kind() BlockKind { return KindDelay }

func (d *DelayData) Validate() error {
	if d.Seconds < 0 {
		return fmt.Errorf("delay must not be negative")
	}
	return nil
}

// WebhookData performs an outbound HTTP call.
// SaveResponse maps variable names to gjson paths on the response body.
type WebhookData struct {
	URL            string            `json:"url"`
	Method         string            `json:"method,omitempty"`
	Headers        map[string]string `json:"headers,omitempty"`
	Body           string            `json:"body,omitempty"`
	SaveResponse   map[string]string `json:"saveResponse,omitempty"`
	StatusVariable string            `json:"statusVariable,omitempty"`
}

func (*WebhookData) Kind() BlockKind { return KindWebhook }

func (d *WebhookData) Validate() error {
	if strings.TrimSpace(d.URL) == "" {
		return fmt.Errorf("webhook url is empty")
	}
	return nil
}

// ContextMode selects how flow context is rendered for the AI agent.
type ContextMode string

const (
	ContextSummary ContextMode = "summary"
	ContextFull    ContextMode = "full"
)

// AIHandoffData hands the conversation to the AI bot.
type AIHandoffData struct {
	Message        string      `json:"message,omitempty"`
	AutoRespond    bool        `json:"autoRespond,omitempty"`
	IncludeContext bool        `json:"includeContext,omitempty"`
	ContextMode    ContextMode `json:"contextMode,omitempty"`
}

func (*AIHandoffData) Kind() BlockKind { return KindAIHandoff }

func (d *AIHandoffData) Validate() error {
	switch d.ContextMode {
	case "", ContextSummary, ContextFull:
		return nil
	}
	return fmt.Errorf("unknown context mode %q", d.ContextMode)
}

// HumanHandoffData hands the conversation to a human agent.
type HumanHandoffData struct {
	Message     string `json:"message,omitempty"`
	NotifyAgent bool   `json:"notifyAgent,omitempty"`
	Department  string `json:"department,omitempty"`
}

func (*HumanHandoffData) Kind() BlockKind { return KindHumanHandoff }
func (*HumanHandoffData) Validate() error { return nil }

// EndData completes the flow, optionally with a closing message.
type EndData struct {
	Message string `json:"message,omitempty"`
}

func (*EndData) Kind() BlockKind { return KindEnd }
func (*EndData) Validate() error { return nil }
