package workset

// Accumulator collects working repositories in discovery order. The engine
// appends to it as soon as repositories exist so that reporting can still
// describe partial progress after an aborted run.
type Accumulator struct {
	repositories []*WorkingRepository
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Append records repositories in the order they were produced.
func (accumulator *Accumulator) Append(repositories ...*WorkingRepository) {
	accumulator.repositories = append(accumulator.repositories, repositories...)
}

// Repositories returns the collected repositories in append order.
func (accumulator *Accumulator) Repositories() []*WorkingRepository {
	if accumulator == nil {
		return nil
	}
	return append([]*WorkingRepository{}, accumulator.repositories...)
}

// Size reports how many repositories were collected.
func (accumulator *Accumulator) Size() int {
	if accumulator == nil {
		return 0
	}
	return len(accumulator.repositories)
}
