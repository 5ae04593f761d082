package booking

// Source tags where a listing's records came from.
type Source string

const (
	SourceStore  Source = "store"
	SourceSample Source = "sample"
)

const (
	ReasonStoreUnavailable = "store_unavailable"
	ReasonNoResults        = "no_results"
)

// Listing is a read result that says whether it holds real records or
// substitute sample data.
type Listing[T any] struct {
	Items  []T
	Source Source
	Reason string
}

func FromStore[T any](items []T) Listing[T] {
	if items == nil {
		items = []T{}
	}
	return Listing[T]{Items: items, Source: SourceStore}
}

func FromSample[T any](items []T, reason string) Listing[T] {
	return Listing[T]{Items: items, Source: SourceSample, Reason: reason}
}

func (l Listing[T]) Fallback() bool {
	return l.Source == SourceSample
}
