package views

import (
	"github.com/krishkalaria12/snap-gallery/batches"
	"github.com/krishkalaria12/snap-gallery/generation"
	"github.com/krishkalaria12/snap-gallery/slots"
)

type SlotView struct {
	Index  int
	Number int
	URL    string
	State  string
	Copied bool

	SaveDisabled bool
	SaveTitle    string
	SaveLabel    string
}

type GeneratorPage struct {
	Page
	Models        []generation.Model
	SelectedModel string
	Prompt        string
	Error         string
	BatchID       string
	Slots         []SlotView
}

// NewGeneratorPage builds the page for an optional batch. Without a batch the
// grid shows empty placeholders.
func NewGeneratorPage(page Page, models []generation.Model, selected string, batch *batches.Batch) GeneratorPage {
	p := GeneratorPage{
		Page:          page,
		Models:        models,
		SelectedModel: selected,
		Slots:         make([]SlotView, generation.BatchSize),
	}
	if p.SelectedModel == "" && len(models) > 0 {
		p.SelectedModel = models[0].ID
	}

	var snap []slots.Snapshot
	if batch != nil {
		p.BatchID = batch.ID
		p.Prompt = batch.Prompt
		p.SelectedModel = batch.ModelID
		snap = batch.Slots.Snapshot()
	}

	for i := range p.Slots {
		sv := SlotView{Index: i, Number: i + 1, State: slots.Idle.String()}
		if batch != nil {
			sv.URL, _ = batch.URL(i)
		}
		if i < len(snap) {
			sv.State = snap[i].State.String()
			sv.Copied = snap[i].Copied
		}
		sv.SaveDisabled, sv.SaveTitle, sv.SaveLabel = saveControl(sv.State)
		p.Slots[i] = sv
	}
	return p
}

func saveControl(state string) (disabled bool, title, label string) {
	switch state {
	case "saving":
		return true, "Saving...", "Saving..."
	case "saved":
		return true, "Saved!", "Saved"
	case "error":
		return false, "Error saving", "Retry"
	default:
		return false, "Save to Gallery", "Save"
	}
}
