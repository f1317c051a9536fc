package registry

import (
	"reflect"
	"sort"
	"time"
)

// FieldChange holds the before/after values of a single payload field.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// ChangeSet maps payload field names to their before/after values.
type ChangeSet map[string]FieldChange

// comparedFields is the fixed set of scalar payload fields shown in the
// audit history. Metadata fields (version, timestamps, is_latest) are
// deliberately absent.
var comparedFields = []string{
	"assetName", "lineNo", "condition", "remark", "categoryCode", "afeNo",
	"poNo", "acqValueIdr", "acqValue", "accumDepre", "ytdDepre", "bookValue",
	"taggingYear", "pisDate", "transDate",
}

// referenceField describes a payload field holding a reference object.
// References are compared by foreign id, but the displayed value is the
// referenced entity's label, never the raw id.
type referenceField struct {
	name       string // field name in the change set
	payloadKey string // key in the payload
	labelKey   string // label key inside the reference object
}

var referenceFields = []referenceField{
	{name: "location", payloadKey: "locationDesc", labelKey: "description"},
	{name: "detailedLocation", payloadKey: "detailsLocation", labelKey: "description"},
	{name: "projectCode", payloadKey: "projectCode", labelKey: "code"},
}

// Diff computes the field-level change set between a snapshot payload and
// its immediate predecessor. It is pure: no I/O, no mutation of either
// payload, deterministic output.
//
// A field absent from a payload compares as a null value; equality is
// structural value equality, not display-string equality.
func Diff(current, previous map[string]any) ChangeSet {
	changes := ChangeSet{}

	for _, field := range comparedFields {
		curVal := current[field]
		prevVal := previous[field]
		if !reflect.DeepEqual(curVal, prevVal) {
			changes[field] = FieldChange{Old: prevVal, New: curVal}
		}
	}

	for _, ref := range referenceFields {
		curID, curLabel := referenceParts(current[ref.payloadKey], ref.labelKey)
		prevID, prevLabel := referenceParts(previous[ref.payloadKey], ref.labelKey)
		if !reflect.DeepEqual(curID, prevID) {
			changes[ref.name] = FieldChange{Old: prevLabel, New: curLabel}
		}
	}

	if added, removed, changed := diffImages(current["images"], previous["images"]); changed {
		change := FieldChange{}
		if len(removed) > 0 {
			change.Old = removed
		}
		if len(added) > 0 {
			change.New = added
		}
		changes["images"] = change
	}

	return changes
}

// DiffHistory annotates a newest-first snapshot history with per-version
// change sets. The oldest snapshot is marked initial and carries an empty
// change set; there is nothing to compare it against.
func DiffHistory(history []AssetSnapshotRecord) []VersionChanges {
	out := make([]VersionChanges, len(history))
	for i, snap := range history {
		vc := VersionChanges{
			Version:   snap.Version,
			Changes:   ChangeSet{},
			CreatedAt: snap.CreatedAt.Format(time.RFC3339),
			CreatedBy: snap.CreatedBy,
		}
		if i == len(history)-1 {
			vc.Initial = true
		} else {
			vc.Changes = Diff(snap.Payload, history[i+1].Payload)
		}
		out[i] = vc
	}
	return out
}

// referenceParts extracts the comparison id and display label from a
// reference object. A missing or malformed reference yields nil for both.
func referenceParts(value any, labelKey string) (id any, label any) {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, nil
	}
	return obj["id"], obj[labelKey]
}

// diffImages computes the set difference between two image lists. Order is
// irrelevant; only membership changes count.
func diffImages(current, previous any) (added, removed []string, changed bool) {
	cur := imageSet(current)
	prev := imageSet(previous)

	for img := range cur {
		if !prev[img] {
			added = append(added, img)
		}
	}
	for img := range prev {
		if !cur[img] {
			removed = append(removed, img)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed, len(added) > 0 || len(removed) > 0
}

func imageSet(value any) map[string]bool {
	set := map[string]bool{}
	list, ok := value.([]any)
	if !ok {
		return set
	}
	for _, v := range list {
		if s, ok := v.(string); ok {
			set[s] = true
		}
	}
	return set
}
