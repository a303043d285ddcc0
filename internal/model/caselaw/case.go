package caselaw

// Record is one reported judgment in the demo catalog.
type Record struct {
	Title    string   `json:"title"`
	Year     int      `json:"year"`
	Citation string   `json:"citation"`
	Tags     []string `json:"tags"`
	Summary  string   `json:"summary"`
}

// Seed returns the sample Pakistani case law shipped with the demo.
func Seed() []Record {
	return []Record{
		{
			Title:    "Ali vs State – Cyber Harassment Case",
			Year:     2021,
			Citation: "2021 SCMR 123",
			Tags:     []string{"cybercrime", "harassment", "PECA"},
			Summary: "The case concerns online harassment under PECA. The court clarified how " +
				"electronic communication and social media messages can fall under cyber harassment " +
				"and emphasized the importance of digital evidence.",
		},
		{
			Title:    "Fatima vs Ahmed – Family Maintenance Dispute",
			Year:     2019,
			Citation: "PLD 2019 Karachi 456",
			Tags:     []string{"family", "maintenance", "marriage"},
			Summary: "A family law dispute regarding maintenance after separation. The court interpreted " +
				"maintenance obligations, the standard of living, and the financial capacity of the husband.",
		},
		{
			Title:    "FBR vs XYZ Pvt Ltd – Tax Assessment",
			Year:     2022,
			Citation: "2022 PTD 789",
			Tags:     []string{"tax", "income tax", "business"},
			Summary: "The case deals with a dispute over income tax assessment for a private company. " +
				"The court discussed documentation, burden of proof, and interpretation of tax provisions.",
		},
		{
			Title:    "Maryam vs Hassan – Khula Case",
			Year:     2020,
			Citation: "PLD 2020 Lahore 234",
			Tags:     []string{"family", "khula", "divorce"},
			Summary: "Landmark case on khula (wife-initiated divorce) rights in Pakistan. The court ruled on " +
				"the circumstances under which a woman can obtain khula and return of haq mehr.",
		},
	}
}
