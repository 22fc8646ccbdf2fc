package saga

import (
	"context"
	"testing"
)

func noopAction(ctx context.Context, ex *Execution) error { return nil }

func TestDefinitionValidate(t *testing.T) {
	def := Definition{
		Name: "test",
		Steps: []Step{
			{Name: "step-1", Forward: noopAction},
			{Name: "step-2", Forward: noopAction, Remote: true},
		},
	}
	if err := def.Validate(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestDefinitionValidateDuplicateStep(t *testing.T) {
	def := Definition{
		Name: "test",
		Steps: []Step{
			{Name: "step", Forward: noopAction},
			{Name: "step", Forward: noopAction},
		},
	}
	if err := def.Validate(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDefinitionValidateMissingSteps(t *testing.T) {
	def := Definition{Name: "test"}
	if err := def.Validate(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDefinitionValidateMissingName(t *testing.T) {
	def := Definition{Steps: []Step{{Name: "step", Forward: noopAction}}}
	if err := def.Validate(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDefinitionValidateMissingForward(t *testing.T) {
	def := Definition{Name: "test", Steps: []Step{{Name: "step"}}}
	if err := def.Validate(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDefinitionValidateCompensatableWithoutCompensation(t *testing.T) {
	def := Definition{
		Name:  "test",
		Steps: []Step{{Name: "step", Forward: noopAction, Compensatable: true}},
	}
	if err := def.Validate(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDefinitionValidateUnfailableCompensatable(t *testing.T) {
	def := Definition{
		Name: "test",
		Steps: []Step{{
			Name:          "step",
			Forward:       noopAction,
			Compensate:    noopAction,
			Compensatable: true,
			Unfailable:    true,
		}},
	}
	if err := def.Validate(); err == nil {
		t.Fatalf("expected error")
	}
}
