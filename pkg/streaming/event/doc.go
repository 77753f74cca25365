// Package event defines the lifecycle events a pipeline reports to its observer.
//
// Four variants exist and the set is closed:
//
//	Created{ID, StageID, Value}    item admitted at the source
//	ValueChanged{ID, Value}        Pending(colour), InProgress(fraction) or Resolved(colour)
//	StageAdvanced{ID, To, From}    item entered stage To from stage From
//	Rejected{ID}                   item dropped by a filter; nothing follows it
//
// Events carry no timestamps. Delivery order on the event channel is the only
// ordering contract. Consumers that must handle every variant implement Visitor
// and call Event.Accept; a type switch works as well.
package event
