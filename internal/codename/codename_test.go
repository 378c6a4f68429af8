package codename

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name     string
		location string
		devType  string
		id       string
		want     string
	}{
		{
			name:     "already canonical",
			location: "cibubur-sayuranpagi",
			devType:  "pembibitan",
			id:       "1a",
			want:     "cibubur-sayuranpagi_pembibitan_1a",
		},
		{
			name:     "mixed case",
			location: "Cibubur-SayuranPagi",
			devType:  "Pembibitan",
			id:       "1A",
			want:     "cibubur-sayuranpagi_pembibitan_1a",
		},
		{
			name:     "whitespace run collapses to hyphen",
			location: "Cibubur  Sayuran Pagi",
			devType:  "Penyemaian",
			id:       "2b",
			want:     "cibubur-sayuran-pagi_penyemaian_2b",
		},
		{
			name:     "surrounding whitespace trimmed",
			location: "  bandung ",
			devType:  " greenhouse ",
			id:       " 3 ",
			want:     "bandung_greenhouse_3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encode(tt.location, tt.devType, tt.id)
			if got != tt.want {
				t.Errorf("Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	got, err := Parse("cibubur-sayuranpagi_pembibitan_1a")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := Codename{Location: "cibubur-sayuranpagi", Type: "pembibitan", ID: "1a"}
	if got != want {
		t.Errorf("Parse() = %+v, want %+v", got, want)
	}
}

func TestParseExtraSegmentsFoldIntoID(t *testing.T) {
	got, err := Parse("bandung_greenhouse_rack_4_left")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got.ID != "rack_4_left" {
		t.Errorf("Parse() ID = %q, want %q", got.ID, "rack_4_left")
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"two segments", "onlytwo_segments"},
		{"one segment", "nounderscore"},
		{"empty string", ""},
		{"empty segment", "location__1a"},
		{"trailing separator only", "a_b_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if !errors.Is(err, ErrMalformedIdentifier) {
				t.Errorf("Parse(%q) error = %v, want ErrMalformedIdentifier", tt.input, err)
			}
		})
	}
}

// TestRoundTrip verifies that decode(encode(a,b,c)) reproduces the inputs
// up to case and whitespace normalization, for randomized component
// triples without embedded underscores.
func TestRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	alphabet := "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789- "

	component := func() string {
		n := 1 + rnd.Intn(12)
		var b strings.Builder
		for range n {
			b.WriteByte(alphabet[rnd.Intn(len(alphabet))])
		}
		return b.String()
	}

	for i := 0; i < 1000; i++ {
		loc, typ, id := component(), component(), component()
		if normalize(loc) == "" || normalize(typ) == "" || normalize(id) == "" {
			continue // all-whitespace components are not valid inputs
		}

		encoded := Encode(loc, typ, id)
		parsed, err := Parse(encoded)
		if err != nil {
			t.Fatalf("Parse(Encode(%q,%q,%q)) error = %v", loc, typ, id, err)
		}

		want := Codename{
			Location: normalize(loc),
			Type:     normalize(typ),
			ID:       normalize(id),
		}
		if parsed != want {
			t.Fatalf("round trip = %+v, want %+v (inputs %q,%q,%q)", parsed, want, loc, typ, id)
		}
	}
}

func TestStringInverseOfParse(t *testing.T) {
	const s = "cibubur-sayuranpagi_pembibitan_1a"
	c, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if c.String() != s {
		t.Errorf("String() = %q, want %q", c.String(), s)
	}
}

func TestDisplay(t *testing.T) {
	c := Codename{Location: "cibubur-sayuranpagi", Type: "ruang-semai", ID: "1a"}

	if got := c.DisplayLocation(); got != "cibubur sayuranpagi" {
		t.Errorf("DisplayLocation() = %q", got)
	}
	if got := c.DisplayType(); got != "ruang semai" {
		t.Errorf("DisplayType() = %q", got)
	}
}
