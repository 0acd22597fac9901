package service

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/orgchart-service/pkg/util/errorutil"
)

func TestDrafts_SaveUpdateListDelete(t *testing.T) {
	f := newFixture(t)
	acme, _ := f.corporation(newCommit(), "Acme")
	latest, err := f.svc.LatestCommit(f.ctx)
	require.NoError(t, err)

	first, err := f.svc.SaveDraft(f.ctx, f.actor, SaveDraftInput{
		CorporationID: &acme.ID,
		Title:         "  Q3 reorg ",
		Payload:       json.RawMessage(`{ "moves": [ {"team": 4, "parent": null} ] }`),
	})
	require.NoError(t, err)
	require.Equal(t, "Q3 reorg", first.Title)
	require.JSONEq(t, `{"moves":[{"team":4,"parent":null}]}`, string(first.Payload))
	require.Equal(t, `{"moves":[{"team":4,"parent":null}]}`, string(first.Payload))

	second, err := f.svc.SaveDraft(f.ctx, f.actor, SaveDraftInput{Title: "scratch", Payload: json.RawMessage(`{}`)})
	require.NoError(t, err)

	updated, err := f.svc.SaveDraft(f.ctx, f.actor, SaveDraftInput{
		ID:            &first.ID,
		CorporationID: &acme.ID,
		Title:         "Q3 reorg v2",
		Payload:       json.RawMessage(`{"moves":[]}`),
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, updated.ID)
	require.True(t, updated.UpdatedAt.After(first.UpdatedAt))

	all, err := f.svc.ListDrafts(f.ctx, f.actor, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, first.ID, all[0].ID, "most recently saved first")
	require.Equal(t, second.ID, all[1].ID)

	forAcme, err := f.svc.ListDrafts(f.ctx, f.actor, &acme.ID)
	require.NoError(t, err)
	require.Len(t, forAcme, 1)
	require.Equal(t, "Q3 reorg v2", forAcme[0].Title)

	require.NoError(t, f.svc.DeleteDraft(f.ctx, f.actor, second.ID))
	_, err = f.svc.GetDraft(f.ctx, f.actor, second.ID)
	requireCode(t, err, apperrors.CodeNotFound)

	// drafts never touch commit history
	stillLatest, err := f.svc.LatestCommit(f.ctx)
	require.NoError(t, err)
	require.Equal(t, latest.ID, stillLatest.ID)
}

func TestDrafts_ArePrivateToTheirAuthor(t *testing.T) {
	f := newFixture(t)
	other := f.person("E-2", "Bo")
	draft, err := f.svc.SaveDraft(f.ctx, f.actor, SaveDraftInput{Title: "mine", Payload: json.RawMessage(`{"a":1}`)})
	require.NoError(t, err)

	_, err = f.svc.GetDraft(f.ctx, other.ID, draft.ID)
	requireCode(t, err, apperrors.CodeNotFound)
	err = f.svc.DeleteDraft(f.ctx, other.ID, draft.ID)
	requireCode(t, err, apperrors.CodeNotFound)
	_, err = f.svc.SaveDraft(f.ctx, other.ID, SaveDraftInput{ID: &draft.ID, Title: "theirs", Payload: json.RawMessage(`{}`)})
	requireCode(t, err, apperrors.CodeNotFound)

	theirs, err := f.svc.ListDrafts(f.ctx, other.ID, nil)
	require.NoError(t, err)
	require.Empty(t, theirs)

	kept, err := f.svc.GetDraft(f.ctx, f.actor, draft.ID)
	require.NoError(t, err)
	require.Equal(t, "mine", kept.Title)
}

func TestDrafts_Validation(t *testing.T) {
	f := newFixture(t)
	missingCorp := int64(404)

	cases := []struct {
		name string
		in   SaveDraftInput
		code string
	}{
		{"blank title", SaveDraftInput{Title: "  ", Payload: json.RawMessage(`{}`)}, apperrors.CodeValidation},
		{"empty payload", SaveDraftInput{Title: "t"}, apperrors.CodeValidation},
		{"array payload", SaveDraftInput{Title: "t", Payload: json.RawMessage(`[1,2]`)}, apperrors.CodeValidation},
		{"broken json", SaveDraftInput{Title: "t", Payload: json.RawMessage(`{"a":`)}, apperrors.CodeValidation},
		{"oversized", SaveDraftInput{Title: "t", Payload: json.RawMessage(`{"a":"` + strings.Repeat("x", maxDraftPayloadBytes) + `"}`)}, apperrors.CodeValidation},
		{"unknown corporation", SaveDraftInput{Title: "t", CorporationID: &missingCorp, Payload: json.RawMessage(`{}`)}, apperrors.CodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.SaveDraft(f.ctx, f.actor, tc.in)
			requireCode(t, err, tc.code)
		})
	}

	drafts, err := f.svc.ListDrafts(f.ctx, f.actor, nil)
	require.NoError(t, err)
	require.Empty(t, drafts)
}
