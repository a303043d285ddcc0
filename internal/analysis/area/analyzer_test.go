package area

import "testing"

func TestAnalyzeKhulaIsFamily(t *testing.T) {
	decision := Analyze("How can a wife obtain khula in Pakistan?")
	if decision.Area != Family {
		t.Fatalf("expected family area, got %s", decision.Area)
	}
	if decision.Score <= 0 {
		t.Fatalf("expected positive score, got %d", decision.Score)
	}
}

func TestAnalyzeTaxQuestion(t *testing.T) {
	decision := Analyze("FBR sent me an income tax assessment notice")
	if decision.Area != Tax {
		t.Fatalf("expected tax area, got %s", decision.Area)
	}
}

func TestAnalyzeCyberQuestion(t *testing.T) {
	decision := Analyze("Someone is harassing me on social media, does PECA apply?")
	if decision.Area != Cyber {
		t.Fatalf("expected cyber area, got %s", decision.Area)
	}
}

func TestAnalyzeUrduQuestion(t *testing.T) {
	decision := Analyze("خلع کا طریقہ کیا ہے؟")
	if decision.Area != Family {
		t.Fatalf("expected family area, got %s", decision.Area)
	}
}

func TestAnalyzeUnrelatedIsGeneral(t *testing.T) {
	for _, q := range []string{"", "   ", "what is the weather like"} {
		if got := Analyze(q).Area; got != General {
			t.Fatalf("expected general for %q, got %s", q, got)
		}
	}
}
