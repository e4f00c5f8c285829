package analysis

import "testing"

func TestCandidateID(t *testing.T) {
	cases := []struct {
		name       string
		candidate  string
		prefecture string
		want       string
	}{
		{"japanese name", "山田太郎", "東京都", "東京都-山田太郎"},
		{"latin name lowercased", "John Smith", "Tokyo", "tokyo-johnsmith"},
		{"punctuation stripped", "佐藤(花子)!", "北海道", "北海道-佐藤花子"},
		{"katakana with prolonged mark", "サトー", "大阪府", "大阪府-サトー"},
		{"iteration mark kept", "佐々木", "宮城県", "宮城県-佐々木"},
		{"digits kept", "候補2号", "千葉県", "千葉県-候補2号"},
		{"whitespace stripped", " 山田 太郎 ", "東京都", "東京都-山田太郎"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CandidateID(tc.candidate, tc.prefecture); got != tc.want {
				t.Fatalf("CandidateID(%q, %q) = %q, want %q", tc.candidate, tc.prefecture, got, tc.want)
			}
		})
	}
}

func TestCandidateIDIsDeterministic(t *testing.T) {
	first := CandidateID("山田太郎", "東京都")
	for i := 0; i < 10; i++ {
		if got := CandidateID("山田太郎", "東京都"); got != first {
			t.Fatalf("run %d produced %q, first run produced %q", i, got, first)
		}
	}
}
