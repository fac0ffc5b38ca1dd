package keyboard

import (
	"errors"
	"testing"
)

func TestKeyString(t *testing.T) {
	tests := []struct {
		key  Key
		want string
	}{
		{LControlKey, "Control_L"},
		{F, "f"},
		{D0, "0"},
		{BrowserBack, "XF86Back"},
		{Key(0x1234), "0x1234"},
	}

	for _, tt := range tests {
		if got := tt.key.String(); got != tt.want {
			t.Errorf("Key(%#x).String() = %q, want %q", uint32(tt.key), got, tt.want)
		}
	}
}

func TestChord(t *testing.T) {
	if got := Chord(LControlKey, LShiftKey, O); got != "Control_L+Shift_L+o" {
		t.Errorf("Chord() = %q", got)
	}
}

func TestIsModifier(t *testing.T) {
	if !LMenu.IsModifier() {
		t.Error("LMenu should be a modifier")
	}
	if Add.IsModifier() {
		t.Error("Add should not be a modifier")
	}
}

func TestRecorder(t *testing.T) {
	var _ Synthesizer = (*Recorder)(nil)

	r := NewRecorder()
	var seen int
	r.OnStroke = func(Stroke) { seen++ }

	if err := r.Send(LControlKey, F); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if err := r.Type("hi"); err != nil {
		t.Fatalf("Type() error: %v", err)
	}

	strokes := r.Strokes()
	if len(strokes) != 2 || seen != 2 {
		t.Fatalf("recorded %d strokes, callback saw %d", len(strokes), seen)
	}
	if Chord(strokes[0].Keys...) != "Control_L+f" {
		t.Errorf("first stroke = %v", strokes[0].Keys)
	}
	if strokes[1].Text != "hi" {
		t.Errorf("second stroke text = %q", strokes[1].Text)
	}

	r.Err = errors.New("display gone")
	if err := r.Send(Tab); err == nil {
		t.Error("expected injected error")
	}
	if len(r.Strokes()) != 2 {
		t.Error("failed stroke should not be recorded")
	}
}
