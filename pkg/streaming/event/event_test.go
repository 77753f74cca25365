package event

import (
	"testing"

	"github.com/vnykmshr/streamvis/internal/testutil"
)

type countingVisitor struct {
	created, changed, advanced, rejected int
}

func (c *countingVisitor) VisitCreated(Created)             { c.created++ }
func (c *countingVisitor) VisitValueChanged(ValueChanged)   { c.changed++ }
func (c *countingVisitor) VisitStageAdvanced(StageAdvanced) { c.advanced++ }
func (c *countingVisitor) VisitRejected(Rejected)           { c.rejected++ }

func TestAcceptDispatchesEveryVariant(t *testing.T) {
	events := []Event{
		Created{ID: 0, StageID: 0, Value: Resolved(White)},
		ValueChanged{ID: 0, Value: InProgress(0.5)},
		ValueChanged{ID: 0, Value: Pending(StageColor(1))},
		StageAdvanced{ID: 0, To: 1, From: 0},
		Rejected{ID: 0},
	}

	v := &countingVisitor{}
	for _, e := range events {
		e.Accept(v)
		testutil.AssertEqual(t, e.Item(), ItemID(0))
	}

	testutil.AssertEqual(t, v.created, 1)
	testutil.AssertEqual(t, v.changed, 2)
	testutil.AssertEqual(t, v.advanced, 1)
	testutil.AssertEqual(t, v.rejected, 1)
}

func TestKinds(t *testing.T) {
	tests := []struct {
		event Event
		kind  Kind
		name  string
	}{
		{Created{}, KindCreated, "created"},
		{ValueChanged{}, KindValueChanged, "value_changed"},
		{StageAdvanced{}, KindStageAdvanced, "stage_advanced"},
		{Rejected{}, KindRejected, "rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, tt.event.Kind(), tt.kind)
			testutil.AssertEqual(t, tt.kind.String(), tt.name)
		})
	}
}

func TestStrings(t *testing.T) {
	testutil.AssertEqual(t, StageAdvanced{ID: 3, To: 2, From: 1}.String(), "stage_advanced(id=3 from=1 to=2)")
	testutil.AssertEqual(t, ValueChanged{ID: 1, Value: InProgress(0.4)}.String(), "value_changed(id=1 value=in_progress(0.40))")
	testutil.AssertEqual(t, Created{ID: 2, Value: Resolved(White)}.String(), "created(id=2 stage=0 value=resolved(#ffffff))")
	testutil.AssertEqual(t, Rejected{ID: 9}.String(), "rejected(id=9)")
}

func TestStageColorCyclesPalette(t *testing.T) {
	testutil.AssertEqual(t, StageColor(1), StageColor(5))
	testutil.AssertEqual(t, StageColor(0), palette[0])
	testutil.AssertEqual(t, StageColor(-1), palette[3])
	if StageColor(1) == StageColor(2) {
		t.Fatal("adjacent stages should not share a colour")
	}
}

func TestColorHex(t *testing.T) {
	testutil.AssertEqual(t, White.Hex(), "#ffffff")
	testutil.AssertEqual(t, Color{}.Hex(), "#000000")
	testutil.AssertEqual(t, Color{R: 2, G: -1, B: 0.5}.Hex(), "#ff0080")
}
