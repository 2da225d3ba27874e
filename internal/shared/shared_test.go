package shared

import "testing"

func TestNormalizeTrackKey(t *testing.T) {
	tc := []struct {
		name   string
		title  string
		artist string
		want   string
	}{
		{
			name:   "basic normalization",
			title:  "Song Title",
			artist: "Artist Name",
			want:   "songtitle|artistname",
		},
		{
			name:   "extra whitespace and punctuation",
			title:  "  Song,   Title!  ",
			artist: "  Artist - Name  ",
			want:   "songtitle|artistname",
		},
		{
			name:   "mixed case",
			title:  "SoNg TiTlE",
			artist: "ArTiSt NaMe",
			want:   "songtitle|artistname",
		},
		{
			name:   "accents fold",
			title:  "Café",
			artist: "Dörfels",
			want:   "cafe|dorfels",
		},
		{
			name:   "featuring in parentheses",
			title:  "Song A (feat. Someone Else)",
			artist: "The Doerfels",
			want:   "songa|thedoerfels",
		},
		{
			name:   "bare ft.",
			title:  "Song A ft. Someone",
			artist: "The Doerfels",
			want:   "songa|thedoerfels",
		},
		{
			name:   "remix suffix",
			title:  "Song A (Club Remix)",
			artist: "The Doerfels",
			want:   "songa|thedoerfels",
		},
		{
			name:   "dash live suffix",
			title:  "Song A - Live at the Barn",
			artist: "The Doerfels",
			want:   "songa|thedoerfels",
		},
		{
			name:   "stacked qualifiers",
			title:  "Song A (Live) [feat. B]",
			artist: "The Doerfels",
			want:   "songa|thedoerfels",
		},
		{
			name:   "empty artist",
			title:  "Song A",
			artist: "  ",
			want:   "",
		},
		{
			name:   "punctuation only title",
			title:  "!!!",
			artist: "Band",
			want:   "",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTrackKey(tt.title, tt.artist)
			if got != tt.want {
				t.Errorf("NormalizeTrackKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStripQualifiers(t *testing.T) {
	t.Run("qualifier-only title is kept", func(t *testing.T) {
		if got := StripQualifiers("(Live)"); got != "(Live)" {
			t.Errorf("StripQualifiers() = %q, want %q", got, "(Live)")
		}
	})

	t.Run("words containing live are untouched", func(t *testing.T) {
		if got := StripQualifiers("Deliverance"); got != "Deliverance" {
			t.Errorf("StripQualifiers() = %q, want %q", got, "Deliverance")
		}
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == "" || a == b {
		t.Errorf("expected distinct non-empty ids, got %q and %q", a, b)
	}
}
