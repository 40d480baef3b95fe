package translator

import "errors"

var (
	// ErrInvalidConfig is returned by New and ConfigFromMap when the
	// configuration is missing required fields or has values of the wrong type.
	ErrInvalidConfig = errors.New("translator: invalid configuration")

	// ErrPrecondition is returned when an addressed input arrives without a
	// graph connection to search with.
	ErrPrecondition = errors.New("translator: database connection must be open")

	// ErrUpstreamQuery wraps any failure of the similarity-search query.
	ErrUpstreamQuery = errors.New("translator: something went wrong when trying to convert the question to a Cypher statement")

	// ErrProtocolViolation is returned when a model service answers with an
	// unexpected shape, such as zero embeddings or zero choices.
	ErrProtocolViolation = errors.New("translator: model service protocol violation")
)
