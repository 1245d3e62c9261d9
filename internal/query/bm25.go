package query

import (
	"fmt"
	"math"
)

const (
	k1 = 1.2
	b  = 0.75
)

// BM25Weight holds the per-term constants of Okapi BM25.
type BM25Weight struct {
	idf       float64
	avgNorm   float64
	docFreq   uint64
	totalDocs uint64
}

// NewBM25Weight computes the constants for a term found in docFreq of
// totalDocs documents whose field averages avgNorm tokens.
func NewBM25Weight(docFreq, totalDocs uint64, avgNorm float64) *BM25Weight {
	return &BM25Weight{
		idf:       computeIDF(totalDocs, docFreq),
		avgNorm:   avgNorm,
		docFreq:   docFreq,
		totalDocs: totalDocs,
	}
}

// Score returns the contribution of a term occurring tf times in a field of
// norm tokens.
func (w *BM25Weight) Score(tf, norm uint32) Score {
	return w.idf * w.tfNorm(tf, norm)
}

// Explain breaks Score down into idf and tf-norm.
func (w *BM25Weight) Explain(tf, norm uint32) *Explanation {
	e := NewExplanation("TermQuery, product of...", w.Score(tf, norm))
	idf := NewExplanation("idf, computed as log(1 + (N - n + 0.5) / (n + 0.5)) from:", w.idf)
	idf.AddConst("n, number of docs containing this term", float64(w.docFreq))
	idf.AddConst("N, total number of docs", float64(w.totalDocs))
	e.AddDetail(idf)
	tfNorm := NewExplanation(
		fmt.Sprintf("freq * (k1 + 1) / (freq + k1 * (1 - b + b * dl / avgdl)), k1=%v b=%v", k1, b),
		w.tfNorm(tf, norm),
	)
	tfNorm.AddConst("freq, occurrences of term within document", float64(tf))
	tfNorm.AddConst("dl, length of field", float64(norm))
	tfNorm.AddConst("avgdl, average length of field", w.avgNorm)
	e.AddDetail(tfNorm)
	return e
}

func (w *BM25Weight) tfNorm(tf, norm uint32) float64 {
	ratio := 1.0
	if w.avgNorm > 0 {
		ratio = float64(norm) / w.avgNorm
	}
	freq := float64(tf)
	return freq * (k1 + 1) / (freq + k1*(1-b+b*ratio))
}

func computeIDF(totalDocs, docFreq uint64) float64 {
	n := float64(docFreq)
	return math.Log(1 + (float64(totalDocs)-n+0.5)/(n+0.5))
}
