package store

import "sort"

// sortDocs orders docs per the query's OrderBy/Descending. Only the envelope
// timestamp is sortable today ("createdAt"); equal timestamps fall back to id
// so every client observes the same order.
func sortDocs(docs []Document, q Query) {
	if q.OrderBy != "createdAt" {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if q.Descending {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if q.Descending {
			return a.ID > b.ID
		}
		return a.ID < b.ID
	})
}
