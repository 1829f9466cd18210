package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSettings struct{ rows map[string]bool }

func (s *countingSettings) Ensure(_ context.Context, choirID string, _ *string) (bool, error) {
	if s.rows[choirID] {
		return false, nil
	}
	s.rows[choirID] = true
	return true, nil
}

type countingThemes struct{ rows map[string]int }

func (s *countingThemes) EnsureDefaults(_ context.Context, choirID string, _ *string) (int, error) {
	if s.rows[choirID] > 0 {
		return 0, nil
	}
	s.rows[choirID] = 3
	return 3, nil
}

func TestProvisioner_CreateAndReprovision(t *testing.T) {
	ctx := context.Background()
	choirs := newMemChoirs()
	settings := &countingSettings{rows: map[string]bool{}}
	themes := &countingThemes{rows: map[string]int{}}
	p := NewProvisioner(choirs, settings, themes)

	c, err := p.CreateChoir(ctx, " Eroc ", "EROC1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "eroc1", c.Code)
	assert.True(t, settings.rows[c.ID])
	assert.Equal(t, 3, themes.rows[c.ID])

	require.NoError(t, p.Provision(ctx, c.ID, nil))
	assert.Equal(t, 3, themes.rows[c.ID])

	_, err = p.CreateChoir(ctx, "Again", "eroc1", nil, nil)
	assert.ErrorIs(t, err, ErrChoirCodeTaken)
}

func TestProvisioner_EnsureChoir(t *testing.T) {
	ctx := context.Background()
	choirs := newMemChoirs()
	p := NewProvisioner(choirs, &countingSettings{rows: map[string]bool{}}, &countingThemes{rows: map[string]int{}})

	a, err := p.EnsureChoir(ctx, "eroc1", "Default choir")
	require.NoError(t, err)
	b, err := p.EnsureChoir(ctx, "eroc1", "Default choir")
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
}
