package identity

import (
	"testing"

	"github.com/desertthunder/lovesync/internal/models"
)

func TestNormalize(t *testing.T) {
	tc := []struct {
		name   string
		artist string
		title  string
		want   string
	}{
		{
			name:   "basic normalization",
			artist: "Ellie Goulding",
			title:  "Lights",
			want:   "elliegoulding-lights",
		},
		{
			name:   "leading english article",
			artist: "The Beatles",
			title:  "Help!",
			want:   "beatles-help",
		},
		{
			name:   "leading spanish article",
			artist: "Los Lobos",
			title:  "La Bamba",
			want:   "lobos-labamba",
		},
		{
			name:   "leading french article",
			artist: "Les Négresses Vertes",
			title:  "Zobi La Mouche",
			want:   "ngressesvertes-zobilamouche",
		},
		{
			name:   "article without trailing space is kept",
			artist: "Theory of a Deadman",
			title:  "Bad Girlfriend",
			want:   "theoryofadeadman-badgirlfriend",
		},
		{
			name:   "only one article is stripped",
			artist: "The The",
			title:  "This Is the Day",
			want:   "the-thisistheday",
		},
		{
			name:   "parenthetical edition marker",
			artist: "Weezer",
			title:  "Feels Like Summer (Acoustic)",
			want:   "weezer-feelslikesummer",
		},
		{
			name:   "multiple parenthetical groups",
			artist: "Artist",
			title:  "Song (Live) (2011 Remaster)",
			want:   "artist-song",
		},
		{
			name:   "nested parentheses stop at the first close",
			artist: "Artist",
			title:  "Song (Mix (Extended) Edit)",
			want:   "artist-songedit",
		},
		{
			name:   "brackets are not parentheses",
			artist: "Artist",
			title:  "Song [Live]",
			want:   "artist-songlive",
		},
		{
			name:   "empty artist segment",
			artist: "!!!",
			title:  "Heart of Hearts",
			want:   "-heartofhearts",
		},
		{
			name:   "empty title segment",
			artist: "Artist",
			title:  "(Intro)",
			want:   "artist-",
		},
		{
			name:   "empty input",
			artist: "",
			title:  "",
			want:   "-",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.artist, tt.title); got != tt.want {
				t.Errorf("Normalize(%q, %q) = %q, want %q", tt.artist, tt.title, got, tt.want)
			}
		})
	}
}

func TestNormalizeProperties(t *testing.T) {
	t.Run("Idempotent", func(t *testing.T) {
		inputs := []models.Song{
			{Artist: "The Beatles", Title: "Help!"},
			{Artist: "Los Lobos", Title: "La Bamba (Live)"},
			{Artist: "The The", Title: "Uncertain Smile"},
			{Artist: "AC/DC", Title: "T.N.T."},
			{Artist: "Sigur Rós", Title: "Hoppípolla"},
		}

		for _, s := range inputs {
			artist, title := NormalizeArtist(s.Artist), NormalizeTitle(s.Title)
			once := Normalize(s.Artist, s.Title)
			twice := Normalize(artist, title)
			if once != twice {
				t.Errorf("normalizing %v twice = %q, once = %q", s, twice, once)
			}
		}
	})

	t.Run("Article Stripping", func(t *testing.T) {
		if a, b := Normalize("The Beatles", "Help!"), Normalize("Beatles", "Help!"); a != b {
			t.Errorf("expected equal keys, got %q and %q", a, b)
		}
	})

	t.Run("Parenthetical Collapse", func(t *testing.T) {
		a := Normalize("Weezer", "Feels Like Summer")
		b := Normalize("Weezer", "Feels Like Summer (Acoustic)")
		if a != b {
			t.Errorf("expected equal keys, got %q and %q", a, b)
		}
	})

	t.Run("Case And Punctuation", func(t *testing.T) {
		a := Normalize("Ellie Goulding", "Lights")
		b := Normalize("ELLIE GOULDING", "lights!!!")
		if a != b {
			t.Errorf("expected equal keys, got %q and %q", a, b)
		}
	})
}

func TestParsePolicy(t *testing.T) {
	tc := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{in: "", want: KeepLast},
		{in: "keep-last", want: KeepLast},
		{in: "KEEP-FIRST", want: KeepFirst},
		{in: " keep-all ", want: KeepAll},
		{in: "first", want: KeepFirst},
		{in: "newest", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParsePolicy(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	for _, p := range []Policy{KeepLast, KeepFirst, KeepAll} {
		parsed, err := ParsePolicy(p.String())
		if err != nil || parsed != p {
			t.Errorf("round trip of %v gave %v, %v", p, parsed, err)
		}
	}
}

func TestBuild(t *testing.T) {
	songs := []models.Song{
		{Artist: "Weezer", Title: "Feels Like Summer"},
		{Artist: "Ellie Goulding", Title: "Lights"},
		{Artist: "Weezer", Title: "Feels Like Summer (Acoustic)"},
	}

	t.Run("KeepLast Is The Default", func(t *testing.T) {
		var p Policy
		if p != KeepLast {
			t.Fatalf("zero Policy = %v, want keep-last", p)
		}
	})

	t.Run("KeepLast", func(t *testing.T) {
		snap := Build("local", songs, KeepLast)

		if snap.Source != "local" {
			t.Errorf("expected source local, got %s", snap.Source)
		}
		if snap.Len() != 2 {
			t.Fatalf("expected 2 songs, got %d", snap.Len())
		}

		first := snap.Songs[0]
		if first.Key != "weezer-feelslikesummer" {
			t.Errorf("expected first key weezer-feelslikesummer, got %s", first.Key)
		}
		if first.Title != "Feels Like Summer (Acoustic)" {
			t.Errorf("expected last occurrence to win, got %q", first.Title)
		}
		if snap.Songs[1].Key != "elliegoulding-lights" {
			t.Errorf("expected second key elliegoulding-lights, got %s", snap.Songs[1].Key)
		}
	})

	t.Run("KeepFirst", func(t *testing.T) {
		snap := Build("local", songs, KeepFirst)

		if snap.Len() != 2 {
			t.Fatalf("expected 2 songs, got %d", snap.Len())
		}
		if snap.Songs[0].Title != "Feels Like Summer" {
			t.Errorf("expected first occurrence to win, got %q", snap.Songs[0].Title)
		}
	})

	t.Run("KeepAll", func(t *testing.T) {
		snap := Build("local", songs, KeepAll)

		if snap.Len() != 3 {
			t.Fatalf("expected 3 songs, got %d", snap.Len())
		}
		for i, s := range snap.Songs {
			if s.Title != songs[i].Title {
				t.Errorf("song %d = %q, want %q", i, s.Title, songs[i].Title)
			}
		}
	})

	t.Run("Empty", func(t *testing.T) {
		snap := Build("remote", nil, KeepLast)
		if snap.Len() != 0 {
			t.Errorf("expected empty snapshot, got %d songs", snap.Len())
		}
		if snap.Songs == nil {
			t.Error("expected non-nil songs slice")
		}
	})
}

func TestCollisions(t *testing.T) {
	songs := []models.Song{
		{Artist: "Weezer", Title: "Feels Like Summer"},
		{Artist: "Ellie Goulding", Title: "Lights"},
		{Artist: "Weezer", Title: "Feels Like Summer (Acoustic)"},
	}

	got := Collisions(songs)
	if len(got) != 1 {
		t.Fatalf("expected 1 colliding key, got %d", len(got))
	}

	group := got["weezer-feelslikesummer"]
	if len(group) != 2 {
		t.Fatalf("expected 2 songs in group, got %d", len(group))
	}
	if group[1].Title != "Feels Like Summer (Acoustic)" {
		t.Errorf("expected source order, got %v", group)
	}
}
