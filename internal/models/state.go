package models

// FetchState is the result state of one fetch pipeline.
// Exactly one phase is active at a time; the zero value is idle.
type FetchState[T any] struct {
	Phase   Phase  `json:"phase"`
	Results []T    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// IdleState returns a pipeline state that has never fetched
func IdleState[T any]() FetchState[T] {
	return FetchState[T]{Phase: PhaseIdle, Results: []T{}}
}

// Loading enters the loading phase. Any prior error is cleared; prior
// results are kept until the fetch settles.
func (s FetchState[T]) Loading() FetchState[T] {
	results := s.Results
	if results == nil {
		results = []T{}
	}
	return FetchState[T]{Phase: PhaseLoading, Results: results}
}

// Succeed settles the pipeline with results. A nil list becomes empty.
func (s FetchState[T]) Succeed(results []T) FetchState[T] {
	if results == nil {
		results = []T{}
	}
	return FetchState[T]{Phase: PhaseSuccess, Results: results}
}

// Fail settles the pipeline with an error message and drops results
func (s FetchState[T]) Fail(message string) FetchState[T] {
	return FetchState[T]{Phase: PhaseError, Results: []T{}, Error: message}
}

// IsLoading reports whether a fetch is in flight
func (s FetchState[T]) IsLoading() bool {
	return s.Phase == PhaseLoading
}

// Settled reports whether the pipeline holds a success or an error
func (s FetchState[T]) Settled() bool {
	return s.Phase == PhaseSuccess || s.Phase == PhaseError
}
