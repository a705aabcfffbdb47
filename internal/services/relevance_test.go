package services

import "testing"

func TestScoreRelevance(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		product  string
		minScore float64
		maxScore float64
	}{
		{"exact tokens", "presunto sadia", "Presunto Sadia Fatiado 200g", 2.0, 2.0},
		{"accent insensitive", "mussarela", "Queijo Mussarela Tirolez", 1.0, 1.0},
		{"accented query", "pão francês", "Pao Frances kg", 2.0, 2.0},
		{"no overlap", "sabonete", "Arroz Tio João 5kg", 0, 0},
		{"amount token bonus", "leite 1l", "Leite Integral Italac 1L", 2.0, 3.0},
		{"empty name", "arroz", "", 0, 0},
	}

	for _, test := range tests {
		got := ScoreRelevance(test.query, test.product)
		if got < test.minScore || got > test.maxScore {
			t.Errorf("%s: ScoreRelevance(%q, %q) = %v, expected within [%v, %v]",
				test.name, test.query, test.product, got, test.minScore, test.maxScore)
		}
	}
}

func TestRankCandidatesKeepsRelevantTopThree(t *testing.T) {
	candidates := []EANCandidate{
		{EAN: "1", Name: "Arroz Tio João 5kg"},
		{EAN: "2", Name: "Presunto Sadia Fatiado 200g"},
		{EAN: "3", Name: "Presunto Seara Peça"},
		{EAN: "4", Name: "Presunto Aurora Fatiado"},
		{EAN: "5", Name: "Presunto Sadia Defumado"},
	}

	ranked := RankCandidates("presunto sadia", candidates, 3)
	if len(ranked) != 3 {
		t.Fatalf("ranked = %d candidates, expected 3", len(ranked))
	}
	// The two double-token matches must come first
	if ranked[0].EAN != "2" && ranked[0].EAN != "5" {
		t.Errorf("top candidate = %s (%s), expected a Sadia presunto", ranked[0].EAN, ranked[0].Name)
	}
	for _, c := range ranked {
		if c.Score < 1.0 {
			t.Errorf("irrelevant candidate kept: %+v", c)
		}
	}
}

func TestRankCandidatesFallsBackWhenNothingMatches(t *testing.T) {
	candidates := []EANCandidate{
		{EAN: "1", Name: "Arroz Tio João 5kg"},
		{EAN: "2", Name: "Feijão Preto Camil 1kg"},
		{EAN: "3", Name: "Macarrão Espaguete"},
		{EAN: "4", Name: "Óleo de Soja"},
	}

	ranked := RankCandidates("xampu", candidates, 3)
	if len(ranked) != 3 {
		t.Fatalf("fallback ranked = %d candidates, expected first 3", len(ranked))
	}
}

func TestRankCandidatesEmptyInput(t *testing.T) {
	if got := RankCandidates("arroz", nil, 3); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}
