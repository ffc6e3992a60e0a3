package overlap

import "errors"

// ErrInvalidArgument is returned when the candidate violates the input
// contract (empty UTM values, unknown matching type).
var ErrInvalidArgument = errors.New("invalid argument")
