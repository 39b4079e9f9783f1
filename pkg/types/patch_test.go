package types

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestPatchDistinguishesNullFromMissing(t *testing.T) {
	type payload struct {
		BranchID Patch[uuid.UUID] `json:"branchId"`
	}
	id := "00000000-0000-0000-0000-000000000001"

	var got payload
	if err := json.Unmarshal([]byte(`{"branchId": "`+id+`"}`), &got); err != nil {
		t.Fatalf("unmarshal value: %v", err)
	}
	if !got.BranchID.Set || got.BranchID.Ptr() == nil || got.BranchID.Ptr().String() != id {
		t.Fatalf("expected set uuid, got %+v", got.BranchID)
	}
	if got.BranchID.Ptr() == got.BranchID.Value {
		t.Fatalf("Ptr must return a copy")
	}

	got = payload{}
	if err := json.Unmarshal([]byte(`{"branchId": null}`), &got); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if !got.BranchID.Set || got.BranchID.Ptr() != nil {
		t.Fatalf("expected explicit null, got %+v", got.BranchID)
	}

	got = payload{}
	if err := json.Unmarshal([]byte(`{}`), &got); err != nil {
		t.Fatalf("unmarshal missing: %v", err)
	}
	if got.BranchID.Set {
		t.Fatalf("missing key must not be set")
	}
}

func TestPatchRejectsMalformedValue(t *testing.T) {
	var p Patch[uuid.UUID]
	if err := json.Unmarshal([]byte(`"not-a-uuid"`), &p); err == nil {
		t.Fatalf("expected error")
	}
}
