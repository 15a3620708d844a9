package changedetect

import (
	"fmt"

	"github.com/specialistvlad/gasgen/internal/metadata"
	"github.com/specialistvlad/gasgen/internal/store"
)

// Action is what a run intends to do with one artifact.
type Action int

const (
	Create Action = iota
	Modify
	Skip
	Conflict
)

func (a Action) String() string {
	switch a {
	case Create:
		return "CREATE"
	case Modify:
		return "MODIFY"
	case Skip:
		return "SKIP"
	case Conflict:
		return "CONFLICT"
	default:
		return "UNKNOWN"
	}
}

// Planned is the dry-run wording used in reports.
func (a Action) Planned() string {
	switch a {
	case Create:
		return "WillCreate"
	case Modify:
		return "WillModify"
	case Conflict:
		return "Conflicted"
	default:
		return "WillSkip"
	}
}

// HashPair is the input and output hash of one artifact.
type HashPair struct {
	InputHash  uint64 `json:"input_hash"`
	OutputHash uint64 `json:"output_hash"`
}

// Decision is the outcome of Classify.
type Decision struct {
	Action      Action
	Reason      string
	Stored      HashPair
	Current     HashPair
	Existed     bool
	HasMetadata bool
}

// Classify compares the current input hash and artifact against the
// metadata stored by the previous run. a and md may be nil. Metadata not
// marked as generated counts as absent.
func Classify(inputHash uint64, a store.Artifact, md *metadata.Metadata) Decision {
	d := Decision{Current: HashPair{InputHash: inputHash}}
	if a == nil {
		d.Action, d.Reason = Create, "Asset does not exist"
		return d
	}
	d.Existed = true
	d.Current.OutputHash = OutputHash(a)

	if md == nil || !md.Generated {
		d.Action, d.Reason = Skip, "Asset exists without generator metadata (manual asset)"
		return d
	}
	d.HasMetadata = true
	d.Stored = HashPair{InputHash: md.InputHash, OutputHash: md.OutputHash}

	inputChanged := d.Stored.InputHash != d.Current.InputHash
	outputChanged := d.Stored.OutputHash != d.Current.OutputHash
	switch {
	case !inputChanged && !outputChanged:
		d.Action, d.Reason = Skip, "No changes"
	case inputChanged && !outputChanged:
		d.Action, d.Reason = Modify, "Manifest changed"
	case inputChanged && outputChanged:
		d.Action, d.Reason = Conflict, ConflictMessage(d.Stored, d.Current)
	default:
		d.Action, d.Reason = Skip, "Asset edited manually, edit preserved"
	}
	return d
}

// Proceed reports whether the run should write the artifact. Force proceeds
// on conflicts and on skips of generated assets, never on manual assets.
func (d Decision) Proceed(force bool) bool {
	switch d.Action {
	case Create, Modify:
		return true
	case Conflict:
		return force
	case Skip:
		return force && d.HasMetadata
	default:
		return false
	}
}

// ConflictMessage describes a conflict with both hash pairs.
func ConflictMessage(stored, current HashPair) string {
	return fmt.Sprintf("Manifest and asset both changed. Input hash: stored=%d, current=%d. Output hash: stored=%d, current=%d",
		stored.InputHash, current.InputHash, stored.OutputHash, current.OutputHash)
}
