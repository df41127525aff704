package render

import (
	"net/http"

	"github.com/google/uuid"
)

// OperatorHeader carries the id of the operator logged in at the till.
const OperatorHeader = "X-Operator-ID"

// OperatorID returns the operator of the request, or nil when the header is absent or malformed.
func OperatorID(r *http.Request) *uuid.UUID {
	id, err := uuid.Parse(r.Header.Get(OperatorHeader))
	if err != nil {
		return nil
	}

	return &id
}
