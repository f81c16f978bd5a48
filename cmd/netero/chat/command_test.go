package chat

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Command
	}{
		{"empty", "", Command{Kind: KindEmpty}},
		{"clean", "/clean", Command{Kind: KindClean}},
		{"clean with suffix is chat", "/cleanup now", Command{Kind: KindChat, Text: "/cleanup now"}},
		{"help", "/help", Command{Kind: KindHelp}},
		{"add paths", `/add a.txt "b c.md"`, Command{Kind: KindAdd, Paths: []string{"a.txt", "b c.md"}}},
		{"add without paths", "/add", Command{Kind: KindAdd, Usage: true}},
		{"stream on", "/stream ON", Command{Kind: KindStream, StreamOn: true}},
		{"stream off", "/stream off", Command{Kind: KindStream}},
		{"stream bad", "/stream maybe", Command{Kind: KindStream, Usage: true}},
		{"stream bare", "/stream", Command{Kind: KindStream, Usage: true}},
		{"trans plain", "/trans hola mundo", Command{Kind: KindTrans, Text: "hola mundo"}},
		{"trans directive", "/trans es:en hola", Command{Kind: KindTrans, Src: "es", Dst: "en", Text: "hola"}},
		{"trans target only", "/trans :fr hello", Command{Kind: KindTrans, Dst: "fr", Text: "hello"}},
		{"trans source only", "/trans en: hello", Command{Kind: KindTrans, Src: "en", Text: "hello"}},
		{"trans lone colon is text", "/trans : hello", Command{Kind: KindTrans, Text: ": hello"}},
		{"trans directive without text", "/trans es:en", Command{Kind: KindTrans, Src: "es", Dst: "en", Usage: true}},
		{"trans punctuation is not a directive", "/trans note: ok", Command{Kind: KindTrans, Src: "note", Text: "ok"}},
		{"trans time-like word", "/trans 10:30! late", Command{Kind: KindTrans, Text: "10:30! late"}},
		{"trans strips inline spans", "/trans #!(ls) bonjour", Command{Kind: KindTrans, Text: "bonjour"}},
		{"trans empty", "/trans", Command{Kind: KindTrans, Usage: true}},
		{"eval", "/eval 2 + 3", Command{Kind: KindEval, Text: "2 + 3"}},
		{"eval strips inline", "/eval #!(echo 1)", Command{Kind: KindEval, Usage: true}},
		{"save without hint", "/save", Command{Kind: KindSave}},
		{"save with hint", "/save  only the decisions ", Command{Kind: KindSave, Text: "only the decisions"}},
		{"chat", "what is #!(pwd)?", Command{Kind: KindChat, Text: "what is #!(pwd)?"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.line)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Classify(%q) mismatch (-want +got):\n%s", tt.line, diff)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if got := KindTrans.String(); got != "trans" {
		t.Errorf("KindTrans.String() = %q", got)
	}
	if got := Kind(99).String(); got != "unknown" {
		t.Errorf("Kind(99).String() = %q", got)
	}
}
