package app

import (
	"testing"

	weave "github.com/iov-one/weave"
)

func TestStackBuildsHandler(t *testing.T) {
	// The router must satisfy the handler interface so that it can be
	// wrapped by the decorator chain.
	var h weave.Handler = Router(Authenticator())
	if h == nil {
		t.Fatal("no router")
	}
	if Stack() == nil {
		t.Fatal("no stack")
	}
}
