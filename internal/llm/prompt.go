package llm

import "strings"

// BuildExtractionPrompt composes the schedule-extraction prompt sent with the
// document. The model must answer with a single JSON array covering every
// line of the amortization table; the downstream parser tolerates fencing
// and surrounding prose, but the prompt pushes for JSON only.
func BuildExtractionPrompt() string {
	parts := []string{
		"Peux-tu m'extraire de ce fichier le tableau d'amortissement et générer le résultat sous la forme d'un json comme ceci :",
		`[
    {
        "Date d'echeance" : "JJ/MM/AAAA",
        "amortissements" : "xx",
        "Interet" : "xx",
        "Assurances" : "xx",
        "capital restant du" : "xx"
    }
]`,
		"Tu dois générer le contenu sous la forme d'un json et uniquement un json.",
		"Ton json doit être complet et tu ne dois oublier aucune ligne de ce tableau d'amortissement.",
		"Ton output servira de base pour créer un csv, il doit donc couvrir le tableau en entier.",
	}
	return strings.Join(parts, "\n")
}
