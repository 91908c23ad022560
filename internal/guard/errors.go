package guard

import "errors"

// errEmptyBook marks a sell that could not be priced because the order
// book had no ask levels. Treated like any other execution error: the
// decision is still recorded.
var errEmptyBook = errors.New("guard: order book has no ask levels")
