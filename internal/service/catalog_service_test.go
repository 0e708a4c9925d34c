package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskflow/helpdesk/internal/domain"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
)

func TestCategoryNamesAreUnique(t *testing.T) {
	f := newFixture(t)
	_, err := f.catalog.CreateCategory(f.ctx, CategoryInput{Name: "informatique"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	other, err := f.catalog.CreateCategory(f.ctx, CategoryInput{Name: "Plomberie"})
	require.NoError(t, err)
	_, err = f.catalog.UpdateCategory(f.ctx, other.ID, CategoryInput{Name: "Informatique"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	missing := "missing"
	_, err = f.catalog.CreateCategory(f.ctx, CategoryInput{Name: "Jardin", DepartmentID: &missing})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestSolutionKeywordsFeedCategory(t *testing.T) {
	f := newFixture(t)
	sol, err := f.catalog.CreateSolution(f.ctx, SolutionInput{
		Title:      "VPN",
		Content:    "Relancez le client VPN.",
		Keywords:   []string{"VPN", "wifi", " tunnel "},
		CategoryID: f.category.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"vpn", "wifi", "tunnel"}, sol.Keywords)

	cat, err := f.catalog.GetCategory(f.ctx, f.category.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"wifi", "internet", "vpn", "tunnel"}, cat.Keywords)
}

func TestSolutionValidation(t *testing.T) {
	f := newFixture(t)
	many := make([]string, domain.MaxSolutionKeywords+1)
	for i := range many {
		many[i] = fmt.Sprintf("kw%d", i)
	}
	_, err := f.catalog.CreateSolution(f.ctx, SolutionInput{Title: "t", Content: "c", Keywords: many, CategoryID: f.category.ID})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = f.catalog.CreateSolution(f.ctx, SolutionInput{Title: "t", Content: "c", CategoryID: "missing"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = f.catalog.CreateSolution(f.ctx, SolutionInput{Content: "c", CategoryID: f.category.ID})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	sols, err := f.catalog.ListSolutions(f.ctx, f.category.ID)
	require.NoError(t, err)
	assert.Empty(t, sols)
}

func TestDeleteCategoryRemovesSolutions(t *testing.T) {
	f := newFixture(t)
	sol, err := f.catalog.CreateSolution(f.ctx, SolutionInput{Title: "t", Content: "c", CategoryID: f.category.ID})
	require.NoError(t, err)

	require.NoError(t, f.catalog.DeleteCategory(f.ctx, f.category.ID))
	_, err = f.catalog.GetSolution(f.ctx, sol.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	assert.True(t, apperrors.HasCode(f.catalog.DeleteCategory(f.ctx, f.category.ID), apperrors.CodeNotFound))
}

func TestListCategoriesByDepartment(t *testing.T) {
	f := newFixture(t)
	cats, err := f.catalog.ListCategoriesByDepartment(f.ctx, f.it.ID)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, f.category.ID, cats[0].ID)

	cats, err = f.catalog.ListCategoriesByDepartment(f.ctx, f.facilities.ID)
	require.NoError(t, err)
	assert.Empty(t, cats)

	_, err = f.catalog.ListCategoriesByDepartment(f.ctx, "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	agents, err := f.assignment.ListAgents(f.ctx, f.it.ID)
	require.NoError(t, err)
	assert.Len(t, agents, 2)
}
