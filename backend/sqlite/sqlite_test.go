package sqlite

import (
	"testing"

	"github.com/contentworks/workflow/backend/test"
)

func Test_SqliteStore(t *testing.T) {
	test.StoreTest(t, func() test.Store {
		return NewInMemoryStore()
	}, nil)
}
