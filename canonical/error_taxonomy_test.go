package canonical

import (
	"errors"
	"math"
	"testing"
)

func requireRule(t *testing.T, err error, kind Kind, ruleID string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %s", ruleID)
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected structured *canonical.Error, got %T", err)
	}
	if e.Kind != kind {
		t.Fatalf("expected Kind %s, got %s (%v)", kind, e.Kind, err)
	}
	if e.RuleID != ruleID {
		t.Fatalf("expected RuleID %s, got %s (%v)", ruleID, e.RuleID, err)
	}
}

func TestEncode_ErrorTaxonomy_NonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := Encode(Sequence(Float(f)))
		requireRule(t, err, KindUnrepresentable, "ALE-ENC-101")
	}
	_, err := Canonicalize(map[string]any{"x": math.NaN()})
	requireRule(t, err, KindUnrepresentable, "ALE-ENC-101")
}

func TestEncode_ErrorTaxonomy_UnsupportedType(t *testing.T) {
	_, err := Canonicalize(struct{ C chan int }{C: make(chan int)})
	requireRule(t, err, KindUnrepresentable, "ALE-ENC-102")
}

func TestEncode_ErrorTaxonomy_DuplicateKey(t *testing.T) {
	_, err := Encode(Mapping(Field("a", Int(1)), Field("a", Int(2))))
	requireRule(t, err, KindUnrepresentable, "ALE-ENC-103")
}

type failingValuer struct{}

func (failingValuer) CanonicalValue() (Value, error) { return Value{}, errors.New("boom") }

func TestEncode_ErrorTaxonomy_ValuerFailure(t *testing.T) {
	_, err := Canonicalize(failingValuer{})
	requireRule(t, err, KindUnrepresentable, "ALE-ENC-105")
	if !IsKind(err, KindUnrepresentable) {
		t.Fatalf("IsKind mismatch")
	}
}

func TestEncode_ErrorTaxonomy_InvalidUTF8(t *testing.T) {
	_, err := Encode(String("ok\xffno"))
	requireRule(t, err, KindUTF8, "ALE-ENC-201")

	_, err = Encode(Mapping(Field("\xc3", Null())))
	requireRule(t, err, KindUTF8, "ALE-ENC-201")
}

func TestRuleID_Unstructured(t *testing.T) {
	if got := RuleID(errors.New("plain")); got != "" {
		t.Fatalf("expected empty RuleID, got %q", got)
	}
	if IsKind(nil, KindParse) {
		t.Fatalf("nil error must not match a kind")
	}
}
