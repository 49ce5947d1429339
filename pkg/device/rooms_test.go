package device

import "testing"

func TestCanonicalRoom(t *testing.T) {
	tests := map[string]string{
		"Living Room":    "living_room",
		"living_room":    "living_room",
		"  LIVING  room": "living_room",
		"master-bedroom": "master_bedroom",
		"kitchen":        "kitchen",
	}
	for in, want := range tests {
		if got := CanonicalRoom(in); got != want {
			t.Errorf("CanonicalRoom(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMatchRoom(t *testing.T) {
	available := []string{"entrance", "garage", "kitchen", "living_room", "master_bedroom"}

	tests := []struct {
		text   string
		want   string
		wantOK bool
	}{
		{"Living Room", "living_room", true},
		{"living_room", "living_room", true},
		{"in the living room", "living_room", true},
		{"living", "living_room", true},
		{"bedroom", "master_bedroom", true},
		{"Master Bedroom", "master_bedroom", true},
		{"the kitchen", "kitchen", true},
		{"attic", "", false},
		{"the room", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := MatchRoom(tt.text, available)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("MatchRoom(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestMatchRoom_PrefersExistingBedroom(t *testing.T) {
	available := []string{"bedroom", "living"}

	if got, _ := MatchRoom("bedroom", available); got != "bedroom" {
		t.Errorf("got %q, want bedroom", got)
	}
	if got, _ := MatchRoom("master bedroom", available); got != "bedroom" {
		t.Errorf("got %q, want bedroom", got)
	}
	if got, _ := MatchRoom("living room", available); got != "living" {
		t.Errorf("got %q, want living", got)
	}
}
