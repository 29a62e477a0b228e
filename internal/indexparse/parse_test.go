package indexparse

import (
	"reflect"
	"testing"
)

const sampleIndex = `配信アーカイブ 目次

■[00:00:10-00:05:00] 内容: Opening talk
  雑談メイン

■[00:05:00–00:12:30]
内容：「Mixing demo」
DAW操作: Yes

◆[00:12:30-00:20:00][00:25:00-00:30:00] 内容: Q&A
DAW操作: no

■[00:30:00-00:41:15] タイトル: Ending
 補足 00:35:00-00:36:00 内容: Bonus clip
DAW操作：YES
`

func TestParse_SingleLabeledBlock(t *testing.T) {
	got := Parse("■[00:22:12-00:29:29] 内容: Intro section", ModeAll)
	want := []Segment{{Start: "00:22:12", End: "00:29:29", Title: "Intro section"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Parse() = %#v, want %#v", got, want)
	}
}

func TestParse_NoRanges(t *testing.T) {
	inputs := []string{
		"",
		"   \n\n",
		"just some notes without times",
		"■ chapter one\n内容: nothing timed",
		"0:01:00-0:02:00 single digit hours",
		"00:01:00 to 00:02:00",
		"DAW操作: Yes",
	}
	for _, in := range inputs {
		got := Parse(in, ModeAll)
		if got == nil {
			t.Errorf("Parse(%q) returned nil, want empty slice", in)
		}
		if len(got) != 0 {
			t.Errorf("Parse(%q) = %#v, want empty", in, got)
		}
	}
}

func TestParse_Blocks(t *testing.T) {
	got := Parse(sampleIndex, ModeAll)
	want := []Segment{
		{Start: "00:00:10", End: "00:05:00", Title: "Opening talk"},
		{Start: "00:05:00", End: "00:12:30", Title: "Mixing demo", Flagged: true},
		{Start: "00:12:30", End: "00:20:00", Title: "Q&A"},
		{Start: "00:25:00", End: "00:30:00", Title: "Q&A"},
		{Start: "00:30:00", End: "00:41:15", Title: "Ending", Flagged: true},
		{Start: "00:35:00", End: "00:36:00", Title: "Bonus clip", Flagged: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Parse() mismatch\n got: %#v\nwant: %#v", got, want)
	}
}

func TestParse_FlaggedOnlyIsOrderedSubset(t *testing.T) {
	all := Parse(sampleIndex, ModeAll)
	flagged := Parse(sampleIndex, ModeFlaggedOnly)

	if len(flagged) != 3 {
		t.Fatalf("len(flagged) = %d, want 3", len(flagged))
	}

	j := 0
	for _, s := range all {
		if j < len(flagged) && s == flagged[j] {
			j++
		}
	}
	if j != len(flagged) {
		t.Fatalf("flaggedOnly output is not an ordered subset of all: %#v", flagged)
	}
	for _, s := range flagged {
		if !s.Flagged {
			t.Errorf("segment %+v not flagged", s)
		}
	}
}

func TestParse_DefaultTitle(t *testing.T) {
	got := Parse("■[00:01:00-00:02:00]\n■[00:03:00-00:04:00] 内容:  「 」 ", ModeAll)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	for _, s := range got {
		if s.Title != DefaultTitle {
			t.Errorf("Title = %q, want %q", s.Title, DefaultTitle)
		}
	}
}

func TestParse_WithoutGlyphsEveryRangeLineOpensBlock(t *testing.T) {
	text := "00:00:01-00:00:10 Title: First\nDAW操作: Yes\n00:00:10-00:00:20\nTitle: Second"
	got := Parse(text, ModeAll)
	want := []Segment{
		{Start: "00:00:01", End: "00:00:10", Title: "First", Flagged: true},
		{Start: "00:00:10", End: "00:00:20", Title: "Second"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Parse() = %#v, want %#v", got, want)
	}
}

func TestParse_TextBeforeFirstBlockIgnored(t *testing.T) {
	text := "DAW操作: Yes\n内容: preface\n■[00:01:00-00:02:00]"
	got := Parse(text, ModeAll)
	want := []Segment{{Start: "00:01:00", End: "00:02:00", Title: DefaultTitle}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Parse() = %#v, want %#v", got, want)
	}
}

func TestParse_RangeAboveFirstGlyphOpener(t *testing.T) {
	text := "00:00:00-00:01:00 内容: Preface\nDAW操作: Yes\n■[00:01:00-00:02:00] 内容: Main"
	got := Parse(text, ModeAll)
	want := []Segment{
		{Start: "00:00:00", End: "00:01:00", Title: "Preface", Flagged: true},
		{Start: "00:01:00", End: "00:02:00", Title: "Main"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Parse() = %#v, want %#v", got, want)
	}
	if line := ParseLineScan(text, ModeAll); len(line) != len(got) {
		t.Errorf("ParseLineScan() found %d segments, Parse found %d", len(line), len(got))
	}
}

func TestParse_TitleDropsBracketedRangeAndAnnotation(t *testing.T) {
	tests := []struct {
		in          string
		wantTitle   string
		wantFlagged bool
	}{
		{"■ 内容: Intro [00:01:00-00:02:00]", "Intro", false},
		{"■ 内容: Intro （00:01:00-00:02:00） more", "Intro more", false},
		{"■[00:01:00-00:02:00] 内容: Mix DAW操作: Yes", "Mix", true},
		{"■[00:01:00-00:02:00] 内容: Talk DAW操作：no", "Talk", false},
	}
	for _, tt := range tests {
		got := Parse(tt.in, ModeAll)
		if len(got) != 1 {
			t.Fatalf("Parse(%q) = %#v, want one segment", tt.in, got)
		}
		if got[0].Title != tt.wantTitle || got[0].Flagged != tt.wantFlagged {
			t.Errorf("Parse(%q) = %+v, want title %q flagged %v", tt.in, got[0], tt.wantTitle, tt.wantFlagged)
		}
	}

	line := ParseLineScan("■[00:01:00-00:02:00] Mix DAW操作: Yes", ModeAll)
	if len(line) != 1 || line[0].Title != "Mix" || !line[0].Flagged {
		t.Errorf("ParseLineScan() = %#v", line)
	}
}

func TestParse_Deterministic(t *testing.T) {
	first := Parse(sampleIndex, ModeAll)
	Parse("■[00:09:00-00:10:00] 内容: other", ModeFlaggedOnly)
	second := Parse(sampleIndex, ModeAll)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Parse is not deterministic:\n%#v\n%#v", first, second)
	}
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Intro section  ", "Intro section"},
		{"「Mixing demo」", "Mixing demo"},
		{"- Intro (part 1) -", "Intro (part 1)"},
		{"(a) and (b)", "(a) and (b)"},
		{"『』", ""},
		{"Talk   with\tspaces", "Talk with spaces"},
		{"Recap 00:01:00-00:02:00", "Recap"},
	}
	for _, tt := range tests {
		if got := cleanTitle(tt.in); got != tt.want {
			t.Errorf("cleanTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseLineScan(t *testing.T) {
	text := "■[00:00:10-00:05:00] Opening\nDAW操作: Yes\n\nDAW操作: Yes\n● 00:05:00-00:06:00 Mixing\n[00:07:00-00:08:00]"
	got := ParseLineScan(text, ModeAll)
	want := []Segment{
		{Start: "00:00:10", End: "00:05:00", Title: "Opening", Flagged: true},
		{Start: "00:05:00", End: "00:06:00", Title: "Mixing", Flagged: true},
		{Start: "00:07:00", End: "00:08:00", Title: DefaultTitle},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseLineScan() = %#v, want %#v", got, want)
	}

	flagged := ParseLineScan(text, ModeFlaggedOnly)
	if len(flagged) != 2 {
		t.Fatalf("flaggedOnly len = %d, want 2", len(flagged))
	}
}

func TestParseLineScan_FlagDoesNotReachDistantBlock(t *testing.T) {
	text := "■[00:00:10-00:05:00] Opening\nnotes\nDAW操作: Yes"
	got := ParseLineScan(text, ModeAll)
	if len(got) != 1 || got[0].Flagged {
		t.Fatalf("ParseLineScan() = %#v, want one unflagged segment", got)
	}
	if block := Parse(text, ModeAll); len(block) != 1 || !block[0].Flagged {
		t.Fatalf("Parse() = %#v, want one flagged segment", block)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeAll, false},
		{"all", ModeAll, false},
		{"flaggedOnly", ModeFlaggedOnly, false},
		{"dawOnly", ModeFlaggedOnly, false},
		{"bogus", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"", "block", "LINE"} {
		if _, err := Lookup(name); err != nil {
			t.Errorf("Lookup(%q) error = %v", name, err)
		}
	}
	if _, err := Lookup("regex"); err == nil {
		t.Error("Lookup(regex) expected error")
	}
}
