package visits

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpa-calculator/internal/models"
	"gpa-calculator/internal/storage"
)

func newLocal(t *testing.T) *LocalCounter {
	t.Helper()
	db, err := storage.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close(db) })
	return NewLocalCounter(db)
}

func TestLocalCounter_IncrementsPerVisitor(t *testing.T) {
	c := newLocal(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		n, err := c.Hit(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	n, err := c.Hit(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestLocalCounter_TracksTimestamps(t *testing.T) {
	c := newLocal(t)
	first := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return first }
	_, err := c.Hit(context.Background(), "alice")
	require.NoError(t, err)

	later := first.Add(48 * time.Hour)
	c.now = func() time.Time { return later }
	_, err = c.Hit(context.Background(), "alice")
	require.NoError(t, err)

	var visit models.Visit
	require.NoError(t, c.db.First(&visit, "visitor_id = ?", "alice").Error)
	assert.True(t, visit.FirstSeen.Equal(first))
	assert.True(t, visit.LastSeen.Equal(later))
	assert.Equal(t, int64(2), visit.Count)
}

func TestLocalCounter_RequiresVisitor(t *testing.T) {
	_, err := newLocal(t).Hit(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoVisitor)
}

func TestRemoteCounter(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"value": 42}`))
	}))
	defer srv.Close()

	c, err := NewRemoteCounter(srv.URL+"/hit/gpa/{visitor}", time.Second)
	require.NoError(t, err)

	n, err := c.Hit(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	assert.Equal(t, "/hit/gpa/abc", gotPath)
}

func TestRemoteCounter_Failures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusServiceUnavailable)
		},
		"garbage": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		},
		"no count": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			c, err := NewRemoteCounter(srv.URL, time.Second)
			require.NoError(t, err)
			_, err = c.Hit(context.Background(), "abc")
			assert.Error(t, err)
		})
	}
}

type failingCounter struct{}

func (failingCounter) Hit(context.Context, string) (int64, error) {
	return 0, errors.New("unreachable")
}

func TestTracker_SwallowsFailures(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewTracker(failingCounter{}, log.NewLogfmtLogger(&buf))

	assert.Equal(t, int64(0), tracker.Visit(context.Background(), "alice"))
	assert.Contains(t, buf.String(), "visit counter unavailable")
	assert.Contains(t, buf.String(), "err=unreachable")
}

func TestTracker_PassesCount(t *testing.T) {
	tracker := NewTracker(newLocal(t), log.NewNopLogger())
	tracker.Visit(context.Background(), "alice")
	assert.Equal(t, int64(2), tracker.Visit(context.Background(), "alice"))
}

func TestNopCounter(t *testing.T) {
	n, err := NopCounter().Hit(context.Background(), "")
	assert.NoError(t, err)
	assert.Zero(t, n)
}
