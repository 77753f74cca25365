package event

import "fmt"

// ItemID identifies one item for its whole life in a pipeline.
type ItemID uint64

// StageID identifies a stage; the source is 0 and ids grow in composition order.
type StageID int

// Kind tags the variant of an Event.
type Kind int

const (
	// KindCreated tags Created events.
	KindCreated Kind = iota
	// KindValueChanged tags ValueChanged events.
	KindValueChanged
	// KindStageAdvanced tags StageAdvanced events.
	KindStageAdvanced
	// KindRejected tags Rejected events.
	KindRejected
)

func (k Kind) String() string {
	switch k {
	case KindCreated:
		return "created"
	case KindValueChanged:
		return "value_changed"
	case KindStageAdvanced:
		return "stage_advanced"
	case KindRejected:
		return "rejected"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is an immutable lifecycle fact about one item. The set of
// implementations is closed: Created, ValueChanged, StageAdvanced, Rejected.
type Event interface {
	Kind() Kind
	Item() ItemID
	Accept(v Visitor)
	String() string
	sealed()
}

// Visitor handles every Event variant. Adding a variant breaks every
// Visitor at compile time, which is the point.
type Visitor interface {
	VisitCreated(Created)
	VisitValueChanged(ValueChanged)
	VisitStageAdvanced(StageAdvanced)
	VisitRejected(Rejected)
}

// Created reports an item admitted to the pipeline at the source.
type Created struct {
	ID      ItemID
	StageID StageID
	Value   Value
}

func (Created) Kind() Kind         { return KindCreated }
func (e Created) Item() ItemID     { return e.ID }
func (e Created) Accept(v Visitor) { v.VisitCreated(e) }
func (Created) sealed()            {}
func (e Created) String() string {
	return fmt.Sprintf("created(id=%d stage=%d value=%s)", e.ID, e.StageID, e.Value)
}

// ValueChanged reports a new display value for an item.
type ValueChanged struct {
	ID    ItemID
	Value Value
}

func (ValueChanged) Kind() Kind         { return KindValueChanged }
func (e ValueChanged) Item() ItemID     { return e.ID }
func (e ValueChanged) Accept(v Visitor) { v.VisitValueChanged(e) }
func (ValueChanged) sealed()            {}
func (e ValueChanged) String() string {
	return fmt.Sprintf("value_changed(id=%d value=%s)", e.ID, e.Value)
}

// StageAdvanced reports an item moving from one stage into a later one.
type StageAdvanced struct {
	ID   ItemID
	To   StageID
	From StageID
}

func (StageAdvanced) Kind() Kind         { return KindStageAdvanced }
func (e StageAdvanced) Item() ItemID     { return e.ID }
func (e StageAdvanced) Accept(v Visitor) { v.VisitStageAdvanced(e) }
func (StageAdvanced) sealed()            {}
func (e StageAdvanced) String() string {
	return fmt.Sprintf("stage_advanced(id=%d from=%d to=%d)", e.ID, e.From, e.To)
}

// Rejected reports an item permanently dropped by a filter. No event for
// the same item follows it.
type Rejected struct {
	ID ItemID
}

func (Rejected) Kind() Kind         { return KindRejected }
func (e Rejected) Item() ItemID     { return e.ID }
func (e Rejected) Accept(v Visitor) { v.VisitRejected(e) }
func (Rejected) sealed()            {}
func (e Rejected) String() string   { return fmt.Sprintf("rejected(id=%d)", e.ID) }
