package domain

// CorpusSummary describes the ingested corpus at a glance: how many
// orders are known, grouped by administration and signing year. It is
// computed on demand from the document store and also feeds the answer
// generator so it can answer questions about corpus coverage.
type CorpusSummary struct {
	// TotalDocuments is the number of ingested orders.
	TotalDocuments int

	// Administrations groups the corpus by issuing administration,
	// ordered by earliest published order.
	Administrations []AdministrationSummary
}

// AdministrationSummary is the per-administration slice of the corpus.
type AdministrationSummary struct {
	// Administration is the issuing administration.
	Administration string

	// President is the signing president.
	President string

	// Total is the number of orders from this administration.
	Total int

	// Years counts orders per signing year, ascending.
	Years []YearCount
}

// YearCount pairs a calendar year with the number of orders signed in it.
type YearCount struct {
	Year  int
	Count int
}
