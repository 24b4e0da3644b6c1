package main

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExperienceCurrentPositionHasNoEndDate(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]any{
		"company_name":     "Acme",
		"position":         "Engineer",
		"responsibilities": "Things",
		"start_date":       "2023-01-01",
		"end_date":         "2024-01-01",
		"is_current":       true,
	}
	rec := env.adminDo(t, http.MethodPost, "/api/admin/experience/", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, []string{"Current position cannot have an end date."}, decodeBody[map[string][]string](t, rec)["end_date"])

	body["end_date"] = nil
	rec = env.adminDo(t, http.MethodPost, "/api/admin/experience/", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[map[string]any](t, rec)
	require.Nil(t, created["end_date"])
	require.Equal(t, "2023-01-01", created["start_date"])
}

func TestExperienceRejectsReversedDates(t *testing.T) {
	env := newTestEnv(t)

	rec := env.adminDo(t, http.MethodPost, "/api/admin/experience/", map[string]any{
		"company_name":     "Acme",
		"position":         "Engineer",
		"responsibilities": "Things",
		"start_date":       "2024-06-01",
		"end_date":         "2024-01-01",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decodeBody[map[string][]string](t, rec), "end_date")
}

func TestExperienceListedNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	for _, start := range []string{"2019-01-01", "2023-01-01", "2021-01-01"} {
		rec := env.adminDo(t, http.MethodPost, "/api/admin/experience/", map[string]any{
			"company_name": "Co " + start, "position": "Dev", "responsibilities": "r", "start_date": start,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := env.do(t, http.MethodGet, "/api/experience/", "", nil)
	items := decodeBody[[]map[string]any](t, rec)
	require.Len(t, items, 3)
	require.Equal(t, "2023-01-01", items[0]["start_date"])
	require.Equal(t, "2019-01-01", items[2]["start_date"])
	require.NotContains(t, items[0], "created_at")
}

func TestEducationValidation(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]any{
		"institution":    "MIT",
		"degree":         "wizardry",
		"field_of_study": "CS",
		"start_date":     "2024-06-01",
		"end_date":       "2024-01-01",
	}
	rec := env.adminDo(t, http.MethodPost, "/api/admin/education/", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decodeBody[map[string][]string](t, rec)
	require.Contains(t, fields, "degree")
	require.Contains(t, fields, "end_date")

	body["degree"] = "master"
	body["end_date"] = "2026-01-01"
	rec = env.adminDo(t, http.MethodPost, "/api/admin/education/", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decodeBody[map[string]any](t, rec)["id"]

	rec = env.adminDo(t, http.MethodPut, "/api/admin/education/"+jsonID(id)+"/", map[string]any{"grade": "A"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "A", decodeBody[map[string]any](t, rec)["grade"])

	rec = env.adminDo(t, http.MethodDelete, "/api/admin/education/"+jsonID(id)+"/", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.adminDo(t, http.MethodGet, "/api/admin/education/"+jsonID(id)+"/", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTestimonialsOrderAndFeatured(t *testing.T) {
	env := newTestEnv(t)

	rec := env.adminDo(t, http.MethodPost, "/api/admin/testimonials/", map[string]any{
		"reviewer_name": "Neg", "reviewer_position": "CTO", "quote": "q", "order": -1,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decodeBody[map[string][]string](t, rec), "order")

	for i, name := range []string{"Second", "First"} {
		rec := env.adminDo(t, http.MethodPost, "/api/admin/testimonials/", map[string]any{
			"reviewer_name": name, "reviewer_position": "CTO", "reviewer_company": "Initech",
			"quote": "Great work", "order": 1 - i, "is_featured": name == "First",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/testimonials/", "", nil)
	items := decodeBody[[]map[string]any](t, rec)
	require.Len(t, items, 2)
	require.Equal(t, "First", items[0]["reviewer_name"])

	rec = env.do(t, http.MethodGet, "/api/testimonials/?featured=1", "", nil)
	require.Len(t, decodeBody[[]map[string]any](t, rec), 1)

	rec = env.do(t, http.MethodGet, "/api/testimonials/?search=initech", "", nil)
	require.Len(t, decodeBody[[]map[string]any](t, rec), 2)
}

func createPost(t *testing.T, env *testEnv, title, status string, extra map[string]any) map[string]any {
	t.Helper()
	body := map[string]any{"title": title, "content": "Body of " + title, "status": status, "tags": []string{"go"}}
	for k, v := range extra {
		body[k] = v
	}
	rec := env.adminDo(t, http.MethodPost, "/api/admin/blogs/", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[map[string]any](t, rec)
}

func TestBlogPublicSurfaceShowsPublishedOnly(t *testing.T) {
	env := newTestEnv(t)
	createPost(t, env, "Go tips", StatusPublished, nil)
	createPost(t, env, "Go draft", StatusDraft, nil)
	createPost(t, env, "Go archive", StatusArchived, map[string]any{"is_featured": true})

	for _, query := range []string{"", "?search=go", "?tag=go", "?featured=true", "?status=draft"} {
		rec := env.do(t, http.MethodGet, "/api/blogs/"+query, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		for _, post := range decodeBody[[]map[string]any](t, rec) {
			require.Equal(t, "go-tips", post["slug"], query)
			require.NotContains(t, post, "status")
		}
	}

	rec := env.do(t, http.MethodGet, "/api/blogs/go-draft/", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.adminDo(t, http.MethodGet, "/api/admin/blogs/", nil)
	require.Len(t, decodeBody[[]map[string]any](t, rec), 3)
	rec = env.adminDo(t, http.MethodGet, "/api/admin/blogs/?status=draft", nil)
	drafts := decodeBody[[]map[string]any](t, rec)
	require.Len(t, drafts, 1)
	require.Equal(t, "go-draft", drafts[0]["slug"])
}

func TestBlogTagFilterMatchesElements(t *testing.T) {
	env := newTestEnv(t)
	createPost(t, env, "Lab notes", StatusPublished, map[string]any{"tags": []string{"R&D", "Éclair"}})
	createPost(t, env, "Other", StatusPublished, map[string]any{"tags": []string{"misc"}})

	for _, query := range []string{"?tag=r%26d", "?tag=%C3%A9clair", "?search=%C3%89CLAIR"} {
		rec := env.do(t, http.MethodGet, "/api/blogs/"+query, "", nil)
		posts := decodeBody[[]map[string]any](t, rec)
		require.Len(t, posts, 1, query)
		require.Equal(t, "lab-notes", posts[0]["slug"], query)
	}
}

func TestMessagesHaveNoPublicView(t *testing.T) {
	env := newTestEnv(t)
	require.Nil(t, env.srv.messages().public)
	require.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/messages/", "", nil).Code)
}

func TestBlogPublishingSetsPublishedAt(t *testing.T) {
	env := newTestEnv(t)

	draft := createPost(t, env, "Later", StatusDraft, nil)
	require.Nil(t, draft["published_at"])

	rec := env.adminDo(t, http.MethodPatch, "/api/admin/blogs/later/", map[string]any{"status": StatusPublished})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, decodeBody[map[string]any](t, rec)["published_at"])

	rec = env.do(t, http.MethodGet, "/api/blogs/later/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestBlogExcerptLimit(t *testing.T) {
	env := newTestEnv(t)

	rec := env.adminDo(t, http.MethodPost, "/api/admin/blogs/", map[string]any{
		"title": "Long", "content": "c", "status": StatusDraft, "excerpt": strings.Repeat("x", 501),
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decodeBody[map[string][]string](t, rec), "excerpt")
}
