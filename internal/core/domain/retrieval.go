package domain

// RetrievalResult is the ranked output of one retrieval.
type RetrievalResult struct {
	// Chunks holds the top-K chunks, highest similarity first.
	Chunks []Chunk

	// Scores holds the cosine similarity of each entry in Chunks.
	Scores []float64

	// TopScore is the similarity of the best match, 0 when Chunks is empty.
	TopScore float64

	// Weak is set when TopScore falls below the citable threshold.
	// The excerpts are still usable context but must not be cited as support.
	Weak bool
}

// Empty returns true if nothing was retrieved.
func (r RetrievalResult) Empty() bool {
	return len(r.Chunks) == 0
}

// Sources converts the ranked chunks into citation references.
func (r RetrievalResult) Sources() []SourceRef {
	refs := make([]SourceRef, 0, len(r.Chunks))
	for i, c := range r.Chunks {
		ref := SourceRef{
			FilePath:     c.FilePath,
			HeadingPath:  c.HeadingPath,
			DisplayIndex: c.DisplayIndex(),
		}
		if i < len(r.Scores) {
			ref.Score = r.Scores[i]
		}
		refs = append(refs, ref)
	}
	return refs
}
