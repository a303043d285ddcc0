package area

import (
	"sort"
	"strings"
)

// Label 表示问题所属的法律领域。
type Label string

const (
	General Label = "general"
	Family  Label = "family"
	Tax     Label = "tax"
	Cyber   Label = "cyber"
)

// Decision 给出领域识别结果。Score 为命中关键词的加权得分。
type Decision struct {
	Area  Label
	Score int
}

var keywordBuckets = map[Label][]string{
	Family: {
		"khula", "divorce", "talaq", "nikah", "marriage", "maintenance", "custody", "guardian",
		"dowry", "haq mehr", "mehr", "iddat", "inheritance", "wife", "husband", "family court",
		"خلع", "طلاق", "نکاح", "نان نفقہ", "حق مہر", "وراثت", "شادی",
	},
	Tax: {
		"tax", "fbr", "income tax", "sales tax", "withholding", "assessment", "ntn", "return filing",
		"audit", "wealth statement", "customs", "ptd", "ٹیکس", "گوشوارہ",
	},
	Cyber: {
		"peca", "cyber", "harassment", "online", "hacking", "social media", "fia", "blackmail",
		"fake account", "identity theft", "electronic", "whatsapp", "facebook", "سائبر", "ہراسانی",
	},
}

// strong keywords pin the area even when generic words of another area appear.
var strongKeywords = map[string]Label{
	"khula": Family,
	"talaq": Family,
	"peca":  Cyber,
	"fbr":   Tax,
}

// Analyze 根据关键词推断用户问题的法律领域，无命中时返回 General。
func Analyze(question string) Decision {
	normalized := strings.ToLower(strings.TrimSpace(question))
	if normalized == "" {
		return Decision{Area: General}
	}

	scores := make(map[Label]int)
	for label, keywords := range keywordBuckets {
		for _, word := range keywords {
			if strings.Contains(normalized, word) {
				scores[label] += 3
			}
		}
	}
	for word, label := range strongKeywords {
		if strings.Contains(normalized, word) {
			scores[label] += 5
		}
	}

	// 平分时按固定顺序取第一个，保证结果稳定。
	labels := make([]Label, 0, len(scores))
	for label := range scores {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

	best := Decision{Area: General}
	for _, label := range labels {
		if scores[label] > best.Score {
			best = Decision{Area: label, Score: scores[label]}
		}
	}
	return best
}
