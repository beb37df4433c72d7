package incident

import "testing"

func TestStatusValid(t *testing.T) {
	t.Parallel()

	for _, st := range []Status{StatusNew, StatusInvestigating, StatusContained, StatusClosed} {
		if !st.Valid() {
			t.Errorf("%q reported invalid", st)
		}
	}
	for _, st := range []Status{"", "open", "NEW"} {
		if st.Valid() {
			t.Errorf("%q reported valid", st)
		}
	}
}

func TestHasAlert(t *testing.T) {
	t.Parallel()

	inc := &Incident{AlertIDs: []string{"a1", "a2"}}
	if !inc.HasAlert("a1") || !inc.HasAlert("a2") {
		t.Error("member alerts not found")
	}
	if inc.HasAlert("a3") || inc.HasAlert("") {
		t.Error("non-members reported as present")
	}
}
