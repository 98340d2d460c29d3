package rollback

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnwindRunsNewestFirst(t *testing.T) {
	var order []string
	s := New()
	for _, name := range []string{"delete_project", "remove_dir", "remove_file", "delete_image"} {
		s.Push(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}
	assert.Equal(t, []string{"delete_project", "remove_dir", "remove_file", "delete_image"}, s.Names())

	failures := s.Unwind(context.Background())
	assert.Empty(t, failures)
	assert.Equal(t, []string{"delete_image", "remove_file", "remove_dir", "delete_project"}, order)
	assert.Empty(t, s.Names())
}

func TestUnwindContinuesPastFailures(t *testing.T) {
	var ran []string
	s := New()
	s.Push("delete_project", func(context.Context) error {
		ran = append(ran, "delete_project")
		return nil
	})
	s.Push("remove_file", func(context.Context) error {
		ran = append(ran, "remove_file")
		return errors.New("permission denied")
	})

	failures := s.Unwind(context.Background())
	require.Len(t, failures, 1)
	assert.Equal(t, "remove_file", failures[0].Step)
	assert.EqualError(t, failures[0].Err, "permission denied")
	assert.Equal(t, []string{"remove_file", "delete_project"}, ran)
}

func TestCommitForgetsSteps(t *testing.T) {
	called := false
	s := New()
	s.Push("delete_project", func(context.Context) error {
		called = true
		return nil
	})
	s.Commit()

	assert.Empty(t, s.Unwind(context.Background()))
	assert.False(t, called)
}

func TestUnwindUsesGivenContext(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	cancel()

	var ctxErr error
	s := New()
	s.Push("delete_image", func(ctx context.Context) error {
		ctxErr = ctx.Err()
		return nil
	})
	s.Unwind(context.WithoutCancel(parent))
	assert.NoError(t, ctxErr)
}
