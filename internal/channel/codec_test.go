package channel

import (
	"errors"
	"reflect"
	"testing"

	"github.com/standardbeagle/pagetour/internal/geometry"
	"github.com/standardbeagle/pagetour/internal/locator"
)

func TestSurfaceCodec(t *testing.T) {
	loc := locator.Locator{Selector: "#go", Confidence: locator.High, Method: locator.MethodID}
	msgs := []SurfaceMessage{
		SaveGuide{ID: "g1", Locator: loc, Placement: geometry.Left, Title: "Hi", Body: "<b>x</b>"},
		SaveTagPage{Name: "Checkout"},
		SaveTagFeature{Locator: loc, Name: "Buy"},
		ActivateSelector{},
		ClearSelection{},
		HeatmapToggle{Enabled: true},
		Cancel{},
		Saved{},
		ExitEditor{},
	}
	for _, m := range msgs {
		t.Run(m.Type(), func(t *testing.T) {
			data, err := EncodeSurface(m)
			if err != nil {
				t.Fatalf("EncodeSurface failed: %v", err)
			}
			got, err := DecodeSurface(data)
			if err != nil {
				t.Fatalf("DecodeSurface(%s) failed: %v", data, err)
			}
			if !reflect.DeepEqual(got, m) {
				t.Errorf("round trip = %#v; want %#v", got, m)
			}
		})
	}
}

func TestEncodeLeadsWithType(t *testing.T) {
	data, err := EncodeHost(SavedAck{ID: "a", Error: "disk full"})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"type":"saved-ack","id":"a","error":"disk full"}` {
		t.Errorf("EncodeHost = %s", data)
	}
	data, _ = EncodeHost(Ready{})
	if string(data) != `{"type":"ready"}` {
		t.Errorf("EncodeHost(Ready) = %s", data)
	}
}

func TestHostCodec(t *testing.T) {
	msgs := []HostMessage{
		Ready{},
		ElementSelected{
			Locator:  locator.Locator{Selector: "#go", Confidence: locator.High, Method: locator.MethodID},
			Snapshot: locator.ElementSnapshot{TagName: "button", Attributes: map[string]string{"id": "go"}},
		},
		HeatmapToggleAck{Enabled: true},
		ClearSelectionAck{},
		SavedAck{ID: "x"},
	}
	for _, m := range msgs {
		data, err := EncodeHost(m)
		if err != nil {
			t.Fatalf("EncodeHost(%s) failed: %v", m.Type(), err)
		}
		got, err := DecodeHost(data)
		if err != nil {
			t.Fatalf("DecodeHost(%s) failed: %v", data, err)
		}
		if !reflect.DeepEqual(got, m) {
			t.Errorf("round trip = %#v; want %#v", got, m)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := DecodeSurface([]byte(`{"enabled":true}`)); !errors.Is(err, ErrMissingType) {
		t.Errorf("missing type err = %v", err)
	}
	if _, err := DecodeSurface([]byte(`not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
	if _, err := DecodeSurface([]byte(`{"type":"heatmap-toggle","enabled":"yes"}`)); err == nil {
		t.Error("expected error for mistyped field")
	}

	m, err := DecodeSurface([]byte(`{"type":"future"}`))
	if err != nil {
		t.Fatal(err)
	}
	u, ok := m.(Unknown)
	if !ok || u.Type() != "future" {
		t.Errorf("DecodeSurface(future) = %#v", m)
	}
	raw, _ := EncodeSurface(u)
	if string(raw) != `{"type":"future"}` {
		t.Errorf("Unknown re-encodes to %s", raw)
	}
}

func TestParseVariant(t *testing.T) {
	tests := []struct {
		in      string
		want    Variant
		wantErr bool
	}{
		{"", VariantGuide, false},
		{"tag-page", VariantTagPage, false},
		{"tag-feature", VariantTagFeature, false},
		{"admin", "", true},
	}
	for _, tt := range tests {
		got, err := ParseVariant(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseVariant(%q) = %q, %v", tt.in, got, err)
		}
	}
	if VariantTagPage.PicksOnEntry() || !VariantGuide.PicksOnEntry() {
		t.Error("only the guide variant picks on entry")
	}
}
