package poml

import "testing"

func TestInterpolateIdentityWhenTrimOn(t *testing.T) {
	ctx := NewContext()
	ctx.SetGlobal("x", "S")

	result := Interpolate("\n  {{ x }}  \n", ctx, true, nil)
	if !result.isString || result.asString != "S" {
		t.Errorf("Interpolate with trim on = %+v, want exactly %q", result, "S")
	}
}

func TestInterpolateKeepsPaddingWhenTrimOff(t *testing.T) {
	ctx := NewContext()
	ctx.SetGlobal("x", "S")

	result := Interpolate("\n  {{ x }}  \n", ctx, false, nil)
	if !result.isString || result.asString == "S" {
		t.Errorf("Interpolate with trim off should keep surrounding whitespace, got %+v", result)
	}
}

func TestInterpolateTrimLeavesMultiExpressionTemplatesAlone(t *testing.T) {
	ctx := NewContext()
	ctx.SetGlobal("a", "A")
	ctx.SetGlobal("b", "B")

	result := Interpolate(" {{ a }} {{ b }} ", ctx, true, nil)
	if !result.isString || result.asString != " A B " {
		t.Errorf("trim must not touch literal text between two expressions, got %+v", result)
	}
}

func TestInterpolateTrimLeavesNonWhitespacePaddingAlone(t *testing.T) {
	ctx := NewContext()
	ctx.SetGlobal("x", "S")

	result := Interpolate("say {{ x }}!", ctx, true, nil)
	if !result.isString || result.asString != "say S!" {
		t.Errorf("trim must only drop whitespace-only padding, got %+v", result)
	}
}
